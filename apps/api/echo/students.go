package echoapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/activity"
	"github.com/trezcool/colegio/core/pension"
	"github.com/trezcool/colegio/core/student"
	sheetsvc "github.com/trezcool/colegio/services/spreadsheet"
)

const studentEntity = "estudiante"

type studentApi struct {
	svc        *student.Service
	pensions   *pension.Service
	activity   *activity.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerStudentAPI(g *echo.Group, deps ServerDeps) {
	api := studentApi{
		svc:        deps.Students,
		pensions:   deps.Pensions,
		activity:   deps.Activity,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/export", api.export)
	sg.POST("/import", api.importRows, adminOrSecretary)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.GET("/:id/pensions", api.pensionsOf, adminOrSecretary)
}

func (api *studentApi) query(ctx echo.Context) error {
	var filter student.QueryFilter
	orderings, page, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}

	students, err := api.svc.Query(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	start, end := page.Bounds(len(students))
	return paged(ctx, page, len(students), students[start:end])
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := bindInput(ctx, &data, api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionCreate, studentEntity, s.ID, s.FullName())
	return mutated(ctx, http.StatusCreated, s, "Estudiante registrado correctamente")
}

func (api *studentApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data student.UpdateStudent
	if err = bindInput(ctx, &data, api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionUpdate, studentEntity, s.ID, s.FullName())
	return mutated(ctx, http.StatusOK, s, "Estudiante actualizado correctamente")
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionDelete, studentEntity, id, "")
	return mutated(ctx, http.StatusOK, nil, "Estudiante eliminado correctamente")
}

func (api *studentApi) pensionsOf(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	pensions, err := api.pensions.QueryByStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying student pensions")
	}
	return ctx.JSON(http.StatusOK, pensions)
}

func (api *studentApi) export(ctx echo.Context) error {
	var filter student.QueryFilter
	orderings, _, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}
	students, err := api.svc.Query(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	setAttachment(ctx, "estudiantes.xlsx")
	ctx.Response().WriteHeader(http.StatusOK)
	return errors.Wrap(sheetsvc.ExportStudents(ctx.Response(), students), "exporting students")
}

type importResponse struct {
	Total    int                    `json:"total"`
	Imported int                    `json:"importados"`
	Results  []student.ImportResult `json:"resultados"`
}

// importRows creates the students of an uploaded xlsx. Rows failing validation are reported
// with their spreadsheet row number and never sent upstream.
func (api *studentApi) importRows(ctx echo.Context) error {
	fh, err := ctx.FormFile("archivo")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "archivo", Error: "seleccione un archivo"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	rows, err := sheetsvc.ReadStudents(f)
	if err != nil {
		return err
	}

	results := make([]student.ImportResult, 0, len(rows))
	valid := make([]student.NewStudent, 0, len(rows))
	lines := make([]int, 0, len(rows))
	for _, row := range rows {
		ns := row.Student
		if err := ns.Validate(api.validate); err != nil {
			results = append(results, student.ImportResult{Row: row.Line, Error: rowError(err, api.translator)})
			continue
		}
		valid = append(valid, ns)
		lines = append(lines, row.Line)
	}

	created, err := api.svc.CreateMany(ctx.Request().Context(), valid)
	for _, res := range created {
		res.Row = lines[res.Row-1]
		results = append(results, res)
	}
	sortResults(results)
	if err != nil {
		return withData(errors.Wrap(err, "importing students"), importResponse{Total: len(rows), Results: results})
	}

	imported := 0
	for _, res := range results {
		if res.Student != nil {
			imported++
		}
	}
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), activity.ActionImport, studentEntity, 0,
		fmt.Sprintf("%d de %d filas importadas", imported, len(rows)))
	return mutated(ctx, http.StatusOK, importResponse{Total: len(rows), Imported: imported, Results: results},
		fmt.Sprintf("%d de %d estudiantes importados", imported, len(rows)))
}

func setAttachment(ctx echo.Context, filename string) {
	h := ctx.Response().Header()
	h.Set(echo.HeaderContentType, sheetsvc.ContentType)
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
}

// rowError flattens the validation errors of an imported row: "dni: el DNI debe tener 8 dígitos".
func rowError(err error, translator ut.Translator) string {
	vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	fields := core.TranslateErrors(vErrs, translator)
	msgs := make([]string, 0, len(fields))
	for field, msg := range fields {
		msgs = append(msgs, field+": "+msg)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

func sortResults(results []student.ImportResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Row < results[j].Row })
}
