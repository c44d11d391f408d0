// Package sheetsvc exports admin tables to xlsx and reads student imports.
package sheetsvc

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/pension"
	"github.com/trezcool/colegio/core/student"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	studentHeader = []interface{}{"Nombre", "Apellido", "DNI", "Fecha de nacimiento", "Género", "Dirección", "Aula", "Apoderado", "Activo"}
	pensionHeader = []interface{}{"Estudiante", "Periodo", "Monto", "Mora", "Total", "Vencimiento", "Fecha de pago", "Método de pago", "Estado"}

	// ImportColumns is the expected layout of a student import; the first row is a header.
	ImportColumns = []string{"nombre", "apellido", "dni", "fechaNacimiento", "genero", "direccion", "aulaId", "apoderadoId"}

	ErrNoSheet = errors.New("el archivo no contiene hojas")
	ErrNoRows  = errors.New("el archivo no contiene filas para importar")
)

func ExportStudents(w io.Writer, students []student.Student) error {
	rows := make([][]interface{}, 0, len(students))
	for _, s := range students {
		rows = append(rows, []interface{}{
			s.FirstName, s.LastName, s.DNI, s.BirthDate.String(), s.Gender, s.Address,
			s.ClassroomLabel(), s.GuardianName(), yesNo(s.IsActive),
		})
	}
	return writeSheet(w, "Estudiantes", studentHeader, rows)
}

// ExportPensions writes pensions with their effective status as of today.
func ExportPensions(w io.Writer, pensions []pension.Pension, today core.Date) error {
	rows := make([][]interface{}, 0, len(pensions))
	for _, p := range pensions {
		rows = append(rows, []interface{}{
			p.StudentName(), p.Period(), p.Amount, p.LateFee, p.Total(), p.DueDate.String(),
			p.PaidAt.String(), p.PaymentMethod, p.EffectiveStatus(today),
		})
	}
	return writeSheet(w, "Pensiones", pensionHeader, rows)
}

func writeSheet(w io.Writer, name string, header []interface{}, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	lastCol, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return errors.Wrap(err, "addressing header")
	}
	if err = f.SetCellStyle(name, "A1", lastCol, bold); err != nil {
		return errors.Wrap(err, "styling header")
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "addressing row")
		}
		if err = f.SetSheetRow(name, cell, &rows[i]); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}
	return errors.Wrap(f.Write(w), "writing xlsx")
}

// StudentRow is one imported row. Line is the spreadsheet row number.
type StudentRow struct {
	Line    int
	Student student.NewStudent
}

// ReadStudents reads the first sheet of an xlsx laid out as ImportColumns.
// Blank rows are skipped; unparsable cells are left empty for validation to report.
func ReadStudents(r io.Reader) ([]StudentRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, core.NewValidationError(errors.New("el archivo no es un Excel válido"))
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, core.NewValidationError(ErrNoSheet)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "reading rows of %s", sheet)
	}

	out := make([]StudentRow, 0, len(rows))
	for i, row := range rows {
		if i == 0 || blank(row) {
			continue // header
		}
		col := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		out = append(out, StudentRow{
			Line: i + 1,
			Student: student.NewStudent{
				FirstName:   col(0),
				LastName:    col(1),
				DNI:         col(2),
				BirthDate:   parseDateCell(col(3)),
				Gender:      col(4),
				Address:     col(5),
				ClassroomID: atoi(col(6)),
				GuardianID:  atoi(col(7)),
			},
		})
	}
	if len(out) == 0 {
		return nil, core.NewValidationError(ErrNoRows)
	}
	return out, nil
}

func parseDateCell(s string) core.Date {
	if s == "" {
		return core.Date{}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return core.NewDate(t.Year(), t.Month(), t.Day())
		}
		return core.Date{}
	}
	if d, err := core.ParseDate(s); err == nil {
		return d
	}
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return core.NewDate(t.Year(), t.Month(), t.Day())
	}
	return core.Date{}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		if f, fErr := strconv.ParseFloat(s, 64); fErr == nil {
			return int(f)
		}
	}
	return n
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}
