package tests

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	sheetsvc "github.com/trezcool/colegio/services/spreadsheet"
)

func seedStudents(t *testing.T, e *env) {
	e.up.Seed(t, "estudiantes",
		map[string]interface{}{"nombre": "Pedro", "apellido": "Díaz", "dni": "71234567", "genero": "M", "aulaId": 1, "apoderadoId": 1},
		map[string]interface{}{"nombre": "Lucía", "apellido": "Álvarez", "dni": "72345678", "genero": "F", "aulaId": 1, "apoderadoId": 2},
		map[string]interface{}{"nombre": "Ana", "apellido": "Núñez", "dni": "73456789", "genero": "F", "aulaId": 2, "apoderadoId": 2, "estaActivo": false},
	)
}

func names(t *testing.T, rec *httptest.ResponseRecorder) []string {
	res := decode(t, rec)
	results, ok := res["results"].([]interface{})
	require.True(t, ok, rec.Body.String())
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.(map[string]interface{})["nombre"].(string))
	}
	return out
}

func Test_studentApi_query(t *testing.T) {
	e := setup(t)
	seedStudents(t, e)

	tests := []struct {
		name  string
		path  string
		want  []string
		count int
	}{
		{name: "all", path: "/v1/students", want: []string{"Pedro", "Lucía", "Ana"}, count: 3},
		{name: "ordering", path: "/v1/students?ordering=apellido", want: []string{"Lucía", "Pedro", "Ana"}, count: 3},
		{name: "ordering desc", path: "/v1/students?ordering=-nombre", want: []string{"Pedro", "Lucía", "Ana"}, count: 3},
		{name: "search (accents)", path: "/v1/students?search=lucia", want: []string{"Lucía"}, count: 1},
		{name: "search (typo)", path: "/v1/students?search=nunes", want: []string{"Ana"}, count: 1},
		{name: "estaActivo", path: "/v1/students?estaActivo=false", want: []string{"Ana"}, count: 1},
		{name: "genero", path: "/v1/students?genero=f&ordering=nombre", want: []string{"Ana", "Lucía"}, count: 2},
		{name: "page 2", path: "/v1/students?page=2&page_size=2", want: []string{"Ana"}, count: 3},
		{name: "page out of range", path: "/v1/students?page=5&page_size=2", want: []string{}, count: 3},
		{name: "huge page number", path: "/v1/students?page=4611686018427387905&page_size=3", want: []string{}, count: 3},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(http.MethodGet, tt.path, e.teacher)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, names(t, rec))
			assert.EqualValues(t, tt.count, decode(t, rec)["count"])
		})
	}

	assert.Equal(t, 1, e.up.Calls(http.MethodGet, "/estudiantes"), "the list is cached across filters")

	e.run(t, []httpTest{
		{
			name: "bad estaActivo", path: "/v1/students?estaActivo=maybe", token: e.teacher,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "revise los datos del formulario", Fields: map[string]string{"estaActivo": "valor inválido"}}),
		},
		{
			name: "missing", path: "/v1/students/99", token: e.teacher,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "Registro no encontrado"}),
		},
	})
}

func Test_studentApi_mutations(t *testing.T) {
	e := setup(t)
	seedStudents(t, e)

	// warm the cache
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/v1/students", e.secretary).Code)

	t.Run("invalid", func(t *testing.T) {
		rec := e.do(http.MethodPost, "/v1/students", e.secretary,
			[]byte(`{"nombre":"Rosa1","apellido":"Quispe","dni":"123","fechaNacimiento":"2016-02-01","genero":"x","aulaId":1,"apoderadoId":1}`))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		res := decode(t, rec)
		assert.Equal(t, "revise los datos del formulario", res["error"])
		fields := res["fields"].(map[string]interface{})
		assert.Len(t, fields, 3)
		assert.Equal(t, "solo se permiten letras y espacios", fields["nombre"])
		assert.Equal(t, "el DNI debe tener 8 dígitos", fields["dni"])
		assert.Contains(t, fields, "genero")
		assert.Zero(t, e.up.Calls(http.MethodPost, "/estudiantes"))
	})

	t.Run("create", func(t *testing.T) {
		rec := e.do(http.MethodPost, "/v1/students", e.secretary,
			[]byte(`{"nombre":" Rosa ","apellido":"Quispe","dni":"74567890","fechaNacimiento":"2016-02-01","genero":"f","aulaId":1,"apoderadoId":1}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		res := decode(t, rec)
		assert.Equal(t, "Estudiante registrado correctamente", res["notice"].(map[string]interface{})["message"])
		data := res["data"].(map[string]interface{})
		assert.EqualValues(t, 4, data["id"])
		assert.Equal(t, "Rosa", data["nombre"])
		assert.Equal(t, "F", data["genero"])

		// the cached list was invalidated
		list := e.do(http.MethodGet, "/v1/students", e.secretary)
		assert.EqualValues(t, 4, decode(t, list)["count"])
		assert.Equal(t, 2, e.up.Calls(http.MethodGet, "/estudiantes"))
	})

	t.Run("update", func(t *testing.T) {
		rec := e.do(http.MethodPut, "/v1/students/1", e.secretary,
			[]byte(`{"nombre":"Pedro José","apellido":"Díaz","dni":"71234567","fechaNacimiento":"2015-05-04","genero":"M","aulaId":2,"apoderadoId":1}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Pedro José", e.up.Item("estudiantes", 1)["nombre"])

		detail := e.do(http.MethodGet, "/v1/students/1", e.secretary)
		assert.Equal(t, "Pedro José", decode(t, detail)["nombre"])
	})

	t.Run("delete", func(t *testing.T) {
		rec := e.do(http.MethodDelete, "/v1/students/2", e.secretary)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, false, e.up.Item("estudiantes", 2)["estaActivo"])

		list := e.do(http.MethodGet, "/v1/students?estaActivo=true&ordering=nombre", e.secretary)
		assert.Equal(t, []string{"Pedro José", "Rosa"}, names(t, list))
	})

	t.Run("activity", func(t *testing.T) {
		rec := e.do(http.MethodGet, "/v1/activity?entidad=estudiante", e.admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		res := decode(t, rec)
		assert.EqualValues(t, 3, res["count"])
		entries := res["results"].([]interface{})
		newest := entries[0].(map[string]interface{})
		assert.Equal(t, "delete", newest["accion"])
		assert.Equal(t, "secre", newest["usuario"])
	})
}

func Test_studentApi_export(t *testing.T) {
	e := setup(t)
	seedStudents(t, e)

	rec := e.do(http.MethodGet, "/v1/students/export?estaActivo=true", e.teacher)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sheetsvc.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "estudiantes.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Estudiantes")
	require.NoError(t, err)
	assert.Len(t, rows, 3) // header + 2 active students
}

func importRequest(t *testing.T, token string, rows [][]interface{}) *http.Request {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	header := make([]interface{}, 0, len(sheetsvc.ImportColumns))
	for _, col := range sheetsvc.ImportColumns {
		header = append(header, col)
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var xlsx bytes.Buffer
	require.NoError(t, f.Write(&xlsx))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("archivo", "estudiantes.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/students/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func Test_studentApi_import(t *testing.T) {
	e := setup(t)

	t.Run("teachers cannot import", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.app.ServeHTTP(rec, importRequest(t, e.teacher, nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no file", func(t *testing.T) {
		rec := e.do(http.MethodPost, "/v1/students/import", e.admin)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "revise los datos del formulario", Fields: map[string]string{"archivo": "seleccione un archivo"}}),
		}, rec)
	})

	t.Run("rows", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.app.ServeHTTP(rec, importRequest(t, e.admin, [][]interface{}{
			{"Pedro", "Díaz", "71234567", "2015-05-04", "M", "Av. Lima 123", 1, 1},
			{"Lucía", "Álvarez", "123", "04/05/2016", "F", "", 1, 2},
			{},
			{"Ana", "Núñez", "73456789", "10/03/2016", "F", "", 2, 2},
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		data := decode(t, rec)["data"].(map[string]interface{})
		assert.EqualValues(t, 3, data["total"])
		assert.EqualValues(t, 2, data["importados"])

		results := data["resultados"].([]interface{})
		require.Len(t, results, 3)
		rows := make([]float64, 0, 3)
		for _, r := range results {
			rows = append(rows, r.(map[string]interface{})["fila"].(float64))
		}
		assert.Equal(t, []float64{2, 3, 5}, rows)
		assert.Equal(t, "dni: el DNI debe tener 8 dígitos", results[1].(map[string]interface{})["error"])
		assert.NotNil(t, results[2].(map[string]interface{})["estudiante"])

		assert.Equal(t, 2, e.up.Calls(http.MethodPost, "/estudiantes"))
		assert.Equal(t, "Ana", e.up.Item("estudiantes", 2)["nombre"])
	})
}
