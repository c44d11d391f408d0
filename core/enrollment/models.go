package enrollment

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/grade"
	"github.com/trezcool/colegio/core/parent"
	"github.com/trezcool/colegio/core/student"
)

const (
	StatusPending = "PENDIENTE"
	StatusPaid    = "PAGADO"
)

// Enrollment (matrícula) links a student, its guardian and a classroom for a school year.
type Enrollment struct {
	ID            int              `json:"id"`
	StudentID     int              `json:"estudianteId"`
	GuardianID    int              `json:"apoderadoId"`
	GradeID       int              `json:"gradoId"`
	ClassroomID   int              `json:"aulaId"`
	SchoolYear    int              `json:"anioEscolar"`
	Amount        float64          `json:"monto"`
	Date          core.Date        `json:"fechaMatricula"`
	PaymentMethod string           `json:"metodoPago,omitempty"`
	VoucherURL    string           `json:"voucherUrl,omitempty"`
	Status        string           `json:"estado"`
	IsActive      bool             `json:"estaActivo"`
	Student       *student.Student `json:"estudiante,omitempty"`
	Guardian      *parent.Parent   `json:"apoderado,omitempty"`
	Classroom     *grade.Classroom `json:"aula,omitempty"`
}

func (e Enrollment) studentName() string {
	if e.Student == nil {
		return ""
	}
	return e.Student.FullName()
}

func (e Enrollment) guardianName() string {
	if e.Guardian == nil {
		return ""
	}
	return e.Guardian.FullName()
}

func (e Enrollment) classroomLabel() string {
	if e.Classroom == nil {
		return ""
	}
	return e.Classroom.Label()
}

type NewEnrollment struct {
	StudentID     int       `json:"estudianteId" validate:"required,min=1"`
	GuardianID    int       `json:"apoderadoId" validate:"required,min=1"`
	GradeID       int       `json:"gradoId" validate:"required,min=1"`
	ClassroomID   int       `json:"aulaId" validate:"required,min=1"`
	SchoolYear    int       `json:"anioEscolar" validate:"required,min=2000,max=2100"`
	Amount        float64   `json:"monto" validate:"gte=0"`
	Date          core.Date `json:"fechaMatricula" validate:"required,pastdate"`
	PaymentMethod string    `json:"metodoPago" validate:"omitempty,oneof=EFECTIVO TRANSFERENCIA YAPE PLIN TARJETA"`
	VoucherURL    string    `json:"voucherUrl" validate:"omitempty,url"`
}

func (ne *NewEnrollment) Clean() {
	ne.PaymentMethod = strings.ToUpper(core.CleanString(ne.PaymentMethod))
	ne.VoucherURL = core.CleanString(ne.VoucherURL)
	if ne.Date.IsZero() {
		ne.Date = core.Today()
	}
	if ne.SchoolYear == 0 {
		ne.SchoolYear = ne.Date.Year()
	}
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.Clean()
	return validate.Struct(ne)
}

type UpdateEnrollment struct {
	NewEnrollment
	Status   string `json:"estado" validate:"omitempty,oneof=PENDIENTE PAGADO"`
	IsActive *bool  `json:"estaActivo,omitempty"`
}

func (ue *UpdateEnrollment) Validate(validate *validator.Validate) error {
	ue.NewEnrollment.Clean()
	ue.Status = strings.ToUpper(core.CleanString(ue.Status))
	return validate.Struct(ue)
}

// Wizard is the enrollment form: an existing guardian (GuardianID) or a new one (Guardian),
// a new student and the enrollment itself. The student and enrollment links are filled while enrolling.
type Wizard struct {
	GuardianID int                `json:"apoderadoId" validate:"required_without=Guardian"`
	Guardian   *parent.NewParent  `json:"apoderado" validate:"omitempty"`
	Student    student.NewStudent `json:"estudiante"`
	Enrollment NewEnrollment      `json:"matricula"`
}

// fields filled by Service.Enroll
var wizardLinks = []string{"Student.GuardianID", "Enrollment.StudentID", "Enrollment.GuardianID"}

func (w *Wizard) Validate(validate *validator.Validate) error {
	if w.Guardian != nil {
		w.Guardian.Clean()
		w.GuardianID = 0
	}
	w.Student.Clean()
	w.Enrollment.Clean()
	if w.Student.ClassroomID == 0 {
		w.Student.ClassroomID = w.Enrollment.ClassroomID
	}
	return validate.StructExcept(w, wizardLinks...)
}

type QueryFilter struct {
	Search      string `query:"search"`
	StudentID   int    `query:"estudianteId"`
	GradeID     int    `query:"gradoId"`
	ClassroomID int    `query:"aulaId"`
	SchoolYear  int    `query:"anioEscolar"`
	Status      string `query:"estado"`
	IsActive    *bool  `query:"-"` // bound from ?estaActivo= by the gateway
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = strings.ToUpper(core.CleanString(qf.Status))
}

func Filter(enrollments []Enrollment, qf QueryFilter) []Enrollment {
	filtered := make([]Enrollment, 0, len(enrollments))
	for _, e := range enrollments {
		switch {
		case qf.StudentID != 0 && e.StudentID != qf.StudentID,
			qf.GradeID != 0 && e.GradeID != qf.GradeID,
			qf.ClassroomID != 0 && e.ClassroomID != qf.ClassroomID,
			qf.SchoolYear != 0 && e.SchoolYear != qf.SchoolYear,
			qf.Status != "" && e.Status != qf.Status,
			qf.IsActive != nil && e.IsActive != *qf.IsActive:
			continue
		}
		if core.Matches(qf.Search, e.studentName(), e.guardianName(), e.classroomLabel()) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func Order(enrollments []Enrollment, orderings []core.Ordering) {
	core.OrderSlice(enrollments, orderings, func(i int, field string) interface{} {
		e := enrollments[i]
		switch field {
		case "id":
			return e.ID
		case "estudiante":
			return e.studentName()
		case "apoderado":
			return e.guardianName()
		case "aula":
			return e.classroomLabel()
		case "anioEscolar":
			return e.SchoolYear
		case "monto":
			return e.Amount
		case "fechaMatricula":
			return e.Date
		case "estado":
			return e.Status
		}
		return nil
	})
}
