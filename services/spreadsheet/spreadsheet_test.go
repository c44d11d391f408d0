package sheetsvc_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/grade"
	"github.com/trezcool/colegio/core/parent"
	"github.com/trezcool/colegio/core/pension"
	"github.com/trezcool/colegio/core/student"
	"github.com/trezcool/colegio/services/spreadsheet"
)

func readBack(t *testing.T, buf *bytes.Buffer) (string, [][]string) {
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return sheet, rows
}

func TestExportStudents(t *testing.T) {
	var buf bytes.Buffer
	err := sheetsvc.ExportStudents(&buf, []student.Student{{
		FirstName: "Pedro", LastName: "Díaz", DNI: "71234567", BirthDate: core.NewDate(2015, 5, 4),
		Gender: "M", IsActive: true,
		Classroom: &grade.Classroom{Section: "A", Grade: &grade.Grade{Name: "3er grado"}},
		Guardian:  &parent.Parent{FirstName: "Rosa", LastName: "Díaz"},
	}})
	require.NoError(t, err)

	sheet, rows := readBack(t, &buf)
	assert.Equal(t, "Estudiantes", sheet)
	require.Len(t, rows, 2)
	assert.Equal(t, "Nombre", rows[0][0])
	assert.Equal(t, []string{"Pedro", "Díaz", "71234567", "2015-05-04", "M", "", "3er grado A", "Rosa Díaz", "Sí"}, rows[1])
}

func TestExportPensions(t *testing.T) {
	var buf bytes.Buffer
	today := core.NewDate(2024, 4, 10)
	err := sheetsvc.ExportPensions(&buf, []pension.Pension{{
		Month: 3, Year: 2024, Amount: 300, LateFee: 15, DueDate: core.NewDate(2024, 3, 31),
		Status: pension.StatusPending, Student: &student.Student{FirstName: "Pedro", LastName: "Díaz"},
	}}, today)
	require.NoError(t, err)

	sheet, rows := readBack(t, &buf)
	assert.Equal(t, "Pensiones", sheet)
	require.Len(t, rows, 2)
	assert.Equal(t, "Pedro Díaz", rows[1][0])
	assert.Equal(t, "marzo 2024", rows[1][1])
	assert.Equal(t, "315", rows[1][4])
	assert.Equal(t, pension.StatusOverdue, rows[1][8])
}

func TestReadStudents(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []interface{}{"nombre", "apellido", "dni", "fechaNacimiento", "genero", "direccion", "aulaId", "apoderadoId"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	row2 := []interface{}{"Luis", "Paz", "75678901", "2016-02-03", "M", "Av. Sol 123", 1, 2}
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row2))
	// row 3 left blank
	row4 := []interface{}{" Eva ", "Paz", "76789012", time.Date(2017, 8, 9, 0, 0, 0, 0, time.UTC), "F", "", "x", 2}
	require.NoError(t, f.SetSheetRow(sheet, "A4", &row4))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := sheetsvc.ReadStudents(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, student.NewStudent{
		FirstName: "Luis", LastName: "Paz", DNI: "75678901", BirthDate: core.NewDate(2016, 2, 3),
		Gender: "M", Address: "Av. Sol 123", ClassroomID: 1, GuardianID: 2,
	}, rows[0].Student)

	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "Eva", rows[1].Student.FirstName)
	assert.Equal(t, core.NewDate(2017, 8, 9), rows[1].Student.BirthDate)
	assert.Zero(t, rows[1].Student.ClassroomID, "unparsable ids are left for validation")
}

func TestReadStudents_invalid(t *testing.T) {
	_, err := sheetsvc.ReadStudents(bytes.NewReader([]byte("not a spreadsheet")))
	assert.IsType(t, &core.ValidationError{}, errors.Cause(err))

	f := excelize.NewFile()
	header := []interface{}{"nombre"}
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &header))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	_, err = sheetsvc.ReadStudents(&buf)
	assert.Equal(t, sheetsvc.ErrNoRows.Error(), errors.Cause(err).Error())
}
