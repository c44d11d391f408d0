package pension

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/student"
)

// Pension statuses.
const (
	StatusPending = "PENDIENTE"
	StatusPaid    = "PAGADO"
	StatusOverdue = "VENCIDO"
)

var Statuses = []string{StatusPending, StatusPaid, StatusOverdue}

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// MonthName returns the spanish name of month (1-12).
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// Pension is a student's monthly tuition fee.
type Pension struct {
	ID            int              `json:"id"`
	StudentID     int              `json:"estudianteId"`
	Month         int              `json:"mes"`
	Year          int              `json:"anio"`
	Amount        float64          `json:"monto"`
	LateFee       float64          `json:"mora"`
	DueDate       core.Date        `json:"fechaVencimiento"`
	PaidAt        core.Date        `json:"fechaPago"`
	PaymentMethod string           `json:"metodoPago,omitempty"`
	VoucherURL    string           `json:"voucherUrl,omitempty"`
	Status        string           `json:"estado"`
	IsActive      bool             `json:"estaActivo"`
	Student       *student.Student `json:"estudiante,omitempty"`
}

// Period is the human name of the billed month: "marzo 2025".
func (p Pension) Period() string {
	return fmt.Sprintf("%s %d", MonthName(p.Month), p.Year)
}

// EffectiveStatus is the status shown to users: a pending pension past its due date is overdue.
func (p Pension) EffectiveStatus(today core.Date) string {
	if p.Status == StatusPending && !p.DueDate.IsZero() && p.DueDate.Before(today) {
		return StatusOverdue
	}
	return p.Status
}

func (p Pension) StudentName() string {
	if p.Student == nil {
		return ""
	}
	return p.Student.FullName()
}

// Total is the amount due, late fee included.
func (p Pension) Total() float64 {
	return p.Amount + p.LateFee
}

type NewPension struct {
	StudentID int       `json:"estudianteId" validate:"required,min=1"`
	Month     int       `json:"mes" validate:"required,min=1,max=12"`
	Year      int       `json:"anio" validate:"required,min=2000,max=2100"`
	Amount    float64   `json:"monto" validate:"required,gt=0"`
	LateFee   float64   `json:"mora" validate:"gte=0"`
	DueDate   core.Date `json:"fechaVencimiento" validate:"required"`
}

func (np *NewPension) Validate(validate *validator.Validate) error {
	return validate.Struct(np)
}

type UpdatePension struct {
	NewPension
	Status   string `json:"estado" validate:"omitempty,oneof=PENDIENTE PAGADO VENCIDO"`
	IsActive *bool  `json:"estaActivo,omitempty"`
}

func (up *UpdatePension) Validate(validate *validator.Validate) error {
	up.Status = strings.ToUpper(core.CleanString(up.Status))
	return validate.Struct(up)
}

// Payment registers the payment of a pension.
type Payment struct {
	PaymentMethod string    `json:"metodoPago" validate:"required,oneof=EFECTIVO TRANSFERENCIA YAPE PLIN TARJETA"`
	PaidAt        core.Date `json:"fechaPago" validate:"required,pastdate"`
	VoucherURL    string    `json:"voucherUrl" validate:"omitempty,url"`
}

func (pmt *Payment) Validate(validate *validator.Validate) error {
	pmt.PaymentMethod = strings.ToUpper(core.CleanString(pmt.PaymentMethod))
	pmt.VoucherURL = core.CleanString(pmt.VoucherURL)
	if pmt.PaidAt.IsZero() {
		pmt.PaidAt = core.Today()
	}
	return validate.Struct(pmt)
}

type QueryFilter struct {
	Search    string `query:"search"`
	StudentID int    `query:"estudianteId"`
	Status    string `query:"estado"`
	Month     int    `query:"mes"`
	Year      int    `query:"anio"`
	IsActive  *bool  `query:"-"` // bound from ?estaActivo= by the gateway
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = strings.ToUpper(core.CleanString(qf.Status))
}

// Filter matches statuses by their effective value, so "VENCIDO" also finds late pending pensions.
func Filter(pensions []Pension, qf QueryFilter, today core.Date) []Pension {
	filtered := make([]Pension, 0, len(pensions))
	for _, p := range pensions {
		switch {
		case qf.StudentID != 0 && p.StudentID != qf.StudentID,
			qf.Status != "" && p.EffectiveStatus(today) != qf.Status,
			qf.Month != 0 && p.Month != qf.Month,
			qf.Year != 0 && p.Year != qf.Year,
			qf.IsActive != nil && p.IsActive != *qf.IsActive:
			continue
		}
		if core.Matches(qf.Search, p.StudentName(), p.Period(), p.PaymentMethod) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func Order(pensions []Pension, orderings []core.Ordering, today core.Date) {
	core.OrderSlice(pensions, orderings, func(i int, field string) interface{} {
		p := pensions[i]
		switch field {
		case "id":
			return p.ID
		case "estudiante":
			return p.StudentName()
		case "periodo":
			return p.Year*100 + p.Month
		case "monto":
			return p.Amount
		case "mora":
			return p.LateFee
		case "fechaVencimiento":
			return p.DueDate
		case "fechaPago":
			return p.PaidAt
		case "estado":
			return p.EffectiveStatus(today)
		}
		return nil
	})
}

// StatusTotals aggregates the pensions of one status.
type StatusTotals struct {
	Count  int     `json:"cantidad"`
	Amount float64 `json:"monto"`
}

type MonthTotals struct {
	Year      int     `json:"anio"`
	Month     int     `json:"mes"`
	Billed    float64 `json:"facturado"`
	Collected float64 `json:"recaudado"`
	Pending   int     `json:"pendientes"`
	Overdue   int     `json:"vencidas"`
	Paid      int     `json:"pagadas"`
}

type Stats struct {
	Total          int                     `json:"total"`
	ByStatus       map[string]StatusTotals `json:"porEstado"`
	Billed         float64                 `json:"facturado"`
	Collected      float64                 `json:"recaudado"`
	CollectionRate float64                 `json:"tasaCobranza"` // collected / billed, in %
	ByMonth        []MonthTotals           `json:"porMes"`
}

// ComputeStats aggregates active pensions by effective status and by month (chronological).
func ComputeStats(pensions []Pension, today core.Date) Stats {
	st := Stats{ByStatus: make(map[string]StatusTotals, len(Statuses)), ByMonth: []MonthTotals{}}
	for _, s := range Statuses {
		st.ByStatus[s] = StatusTotals{}
	}
	months := make(map[int]int) // {year*100+month: index}

	for _, p := range pensions {
		if !p.IsActive {
			continue
		}
		st.Total++
		status := p.EffectiveStatus(today)
		totals := st.ByStatus[status]
		totals.Count++
		totals.Amount += p.Total()
		st.ByStatus[status] = totals
		st.Billed += p.Total()

		period := p.Year*100 + p.Month
		idx, ok := months[period]
		if !ok {
			idx = len(st.ByMonth)
			months[period] = idx
			st.ByMonth = append(st.ByMonth, MonthTotals{Year: p.Year, Month: p.Month})
		}
		mt := &st.ByMonth[idx]
		mt.Billed += p.Total()
		switch status {
		case StatusPaid:
			st.Collected += p.Total()
			mt.Collected += p.Total()
			mt.Paid++
		case StatusOverdue:
			mt.Overdue++
		default:
			mt.Pending++
		}
	}
	if st.Billed > 0 {
		st.CollectionRate = float64(int(st.Collected/st.Billed*10000+.5)) / 100
	}
	core.OrderSlice(st.ByMonth, []core.Ordering{{Field: "periodo", Ascending: true}}, func(i int, _ string) interface{} {
		return st.ByMonth[i].Year*100 + st.ByMonth[i].Month
	})
	return st
}
