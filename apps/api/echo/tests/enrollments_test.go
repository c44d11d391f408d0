package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wizardBody = `{
	"apoderado": {"nombre": "Rosa", "apellido": "Quispe", "dni": "41234567", "telefono": "987654321", "correo": "ROSA@colegio.test"},
	"estudiante": {"nombre": "Mateo", "apellido": "Quispe", "dni": "75678901", "fechaNacimiento": "2017-08-20", "genero": "M"},
	"matricula": {"gradoId": 1, "aulaId": 2, "monto": 200, "metodoPago": "efectivo"}
}`

func Test_enrollmentApi_wizard(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		e := setup(t)
		rec := e.do(http.MethodPost, "/v1/enrollments/wizard", e.secretary, []byte(wizardBody))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		data := decode(t, rec)["data"].(map[string]interface{})
		assert.EqualValues(t, 1, data["apoderado"].(map[string]interface{})["id"])
		assert.EqualValues(t, 1, data["estudiante"].(map[string]interface{})["id"])
		assert.EqualValues(t, 1, data["matricula"].(map[string]interface{})["id"])

		stud := e.up.Item("estudiantes", 1)
		assert.EqualValues(t, 1, stud["apoderadoId"])
		assert.EqualValues(t, 2, stud["aulaId"], "the student joins the enrollment's classroom")
		enr := e.up.Item("matriculas", 1)
		assert.EqualValues(t, 1, enr["estudianteId"])
		assert.EqualValues(t, 1, enr["apoderadoId"])
		assert.Equal(t, "EFECTIVO", enr["metodoPago"])
		assert.Equal(t, "rosa@colegio.test", e.up.Item("apoderados", 1)["correo"])

		act := decode(t, e.do(http.MethodGet, "/v1/activity", e.admin))
		assert.EqualValues(t, 3, act["count"])
	})

	t.Run("existing guardian", func(t *testing.T) {
		e := setup(t)
		e.up.Seed(t, "apoderados", map[string]interface{}{"nombre": "Jorge", "apellido": "Díaz", "dni": "42345678", "telefono": "987654322"})
		rec := e.do(http.MethodPost, "/v1/enrollments/wizard", e.secretary, []byte(`{
			"apoderadoId": 1,
			"estudiante": {"nombre": "Mateo", "apellido": "Díaz", "dni": "75678901", "fechaNacimiento": "2017-08-20", "genero": "M"},
			"matricula": {"gradoId": 1, "aulaId": 2}
		}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Nil(t, decode(t, rec)["data"].(map[string]interface{})["apoderado"])
		assert.Zero(t, e.up.Calls(http.MethodPost, "/apoderados"))
	})

	t.Run("invalid", func(t *testing.T) {
		e := setup(t)
		rec := e.do(http.MethodPost, "/v1/enrollments/wizard", e.secretary, []byte(`{
			"estudiante": {"nombre": "Mateo", "dni": "7567"},
			"matricula": {"gradoId": 1, "aulaId": 2}
		}`))
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		fields := decode(t, rec)["fields"].(map[string]interface{})
		assert.Contains(t, fields, "apoderadoId")
		assert.Contains(t, fields, "estudiante.apellido")
		assert.Contains(t, fields, "estudiante.dni")
		assert.NotContains(t, fields, "estudiante.apoderadoId")
		assert.NotContains(t, fields, "matricula.estudianteId")
		assert.Zero(t, e.up.Calls(http.MethodPost, "/estudiantes"))
	})

	t.Run("partial failure keeps the created guardian", func(t *testing.T) {
		e := setup(t)
		e.up.Fail(http.MethodPost, "/estudiantes", http.StatusBadRequest, "El DNI ya se encuentra registrado")
		rec := e.do(http.MethodPost, "/v1/enrollments/wizard", e.secretary, []byte(wizardBody))
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

		res := decode(t, rec)
		assert.Equal(t, "El DNI ya se encuentra registrado", res["error"])
		data := res["data"].(map[string]interface{})
		assert.EqualValues(t, 1, data["apoderado"].(map[string]interface{})["id"])
		assert.Nil(t, data["estudiante"])
		assert.NotNil(t, e.up.Item("apoderados", 1))
	})
}

func Test_enrollmentApi_crud(t *testing.T) {
	e := setup(t)
	e.up.Seed(t, "matriculas",
		map[string]interface{}{"estudianteId": 1, "apoderadoId": 1, "gradoId": 1, "aulaId": 1, "anioEscolar": 2024, "monto": 200, "fechaMatricula": "2024-03-01", "estado": "PAGADO"},
		map[string]interface{}{"estudianteId": 2, "apoderadoId": 1, "gradoId": 1, "aulaId": 1, "anioEscolar": 2025, "monto": 200, "fechaMatricula": "2025-03-01", "estado": "PENDIENTE"},
	)

	rec := e.do(http.MethodGet, "/v1/enrollments?anioEscolar=2025", e.secretary)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = e.do(http.MethodPut, "/v1/enrollments/2", e.secretary, []byte(
		`{"estudianteId":2,"apoderadoId":1,"gradoId":1,"aulaId":1,"anioEscolar":2025,"monto":200,"fechaMatricula":"2025-03-01","estado":"pagado"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PAGADO", e.up.Item("matriculas", 2)["estado"])

	rec = e.do(http.MethodGet, "/v1/enrollments?estado=PENDIENTE", e.secretary)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 0, decode(t, rec)["count"])

	rec = e.do(http.MethodDelete, "/v1/enrollments/1", e.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, e.up.Item("matriculas", 1)["estaActivo"])
}
