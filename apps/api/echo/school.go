package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core/activity"
	"github.com/trezcool/colegio/core/course"
	"github.com/trezcool/colegio/core/grade"
)

const (
	gradeEntity      = "grado"
	classroomEntity  = "aula"
	courseEntity     = "curso"
	assignmentEntity = "asignacion"
)

// schoolApi serves the academic structure: grades, classrooms, courses and teacher assignments.
// Every authenticated user reads it; only admins change it.
type schoolApi struct {
	grades   *grade.Service
	courses  *course.Service
	activity *activity.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, deps ServerDeps) {
	api := schoolApi{grades: deps.Grades, courses: deps.Courses, activity: deps.Activity, validate: deps.Validate}

	gg := g.Group("/grades")
	gg.GET("", api.queryGrades)
	gg.POST("", api.createGrade, adminOnly)
	gg.GET("/:id", api.retrieveGrade)
	gg.PUT("/:id", api.updateGrade, adminOnly)
	gg.DELETE("/:id", api.destroyGrade, adminOnly)

	cg := g.Group("/classrooms")
	cg.GET("", api.queryClassrooms)
	cg.POST("", api.createClassroom, adminOnly)
	cg.GET("/:id", api.retrieveClassroom)
	cg.PUT("/:id", api.updateClassroom, adminOnly)
	cg.DELETE("/:id", api.destroyClassroom, adminOnly)
	cg.GET("/:id/assignments", api.classroomAssignments)

	crg := g.Group("/courses")
	crg.GET("", api.queryCourses)
	crg.POST("", api.createCourse, adminOnly)
	crg.GET("/:id", api.retrieveCourse)
	crg.PUT("/:id", api.updateCourse, adminOnly)
	crg.DELETE("/:id", api.destroyCourse, adminOnly)

	ag := g.Group("/assignments")
	ag.GET("", api.queryAssignments)
	ag.POST("", api.createAssignment, adminOnly)
	ag.GET("/:id", api.retrieveAssignment)
	ag.PUT("/:id", api.updateAssignment, adminOnly)
	ag.DELETE("/:id", api.destroyAssignment, adminOnly)
}

func (api *schoolApi) record(ctx echo.Context, action, entity string, id int, summary string) {
	api.activity.Record(ctx.Request().Context(), actorOf(ctx), action, entity, id, summary)
}

// grades

func (api *schoolApi) queryGrades(ctx echo.Context) error {
	var filter grade.QueryFilter
	orderings, page, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}
	grades, err := api.grades.QueryGrades(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	start, end := page.Bounds(len(grades))
	return paged(ctx, page, len(grades), grades[start:end])
}

func (api *schoolApi) retrieveGrade(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	g, err := api.grades.GetGrade(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving grade")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *schoolApi) createGrade(ctx echo.Context) error {
	var data grade.NewGrade
	if err := bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	g, err := api.grades.CreateGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	api.record(ctx, activity.ActionCreate, gradeEntity, g.ID, g.Name)
	return mutated(ctx, http.StatusCreated, g, "Grado creado correctamente")
}

func (api *schoolApi) updateGrade(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data grade.UpdateGrade
	if err = bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	g, err := api.grades.UpdateGrade(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	api.record(ctx, activity.ActionUpdate, gradeEntity, g.ID, g.Name)
	return mutated(ctx, http.StatusOK, g, "Grado actualizado correctamente")
}

func (api *schoolApi) destroyGrade(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.grades.DeleteGrade(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	api.record(ctx, activity.ActionDelete, gradeEntity, id, "")
	return mutated(ctx, http.StatusOK, nil, "Grado eliminado correctamente")
}

// classrooms

func (api *schoolApi) queryClassrooms(ctx echo.Context) error {
	var filter grade.ClassroomFilter
	orderings, page, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}
	classrooms, err := api.grades.QueryClassrooms(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying classrooms")
	}
	start, end := page.Bounds(len(classrooms))
	return paged(ctx, page, len(classrooms), classrooms[start:end])
}

func (api *schoolApi) retrieveClassroom(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	c, err := api.grades.GetClassroom(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving classroom")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) classroomAssignments(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	assignments, err := api.courses.ByClassroom(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying classroom assignments")
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *schoolApi) createClassroom(ctx echo.Context) error {
	var data grade.NewClassroom
	if err := bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	c, err := api.grades.CreateClassroom(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating classroom")
	}
	api.record(ctx, activity.ActionCreate, classroomEntity, c.ID, c.Label())
	return mutated(ctx, http.StatusCreated, c, "Aula creada correctamente")
}

func (api *schoolApi) updateClassroom(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data grade.UpdateClassroom
	if err = bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	c, err := api.grades.UpdateClassroom(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating classroom")
	}
	api.record(ctx, activity.ActionUpdate, classroomEntity, c.ID, c.Label())
	return mutated(ctx, http.StatusOK, c, "Aula actualizada correctamente")
}

func (api *schoolApi) destroyClassroom(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.grades.DeleteClassroom(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting classroom")
	}
	api.record(ctx, activity.ActionDelete, classroomEntity, id, "")
	return mutated(ctx, http.StatusOK, nil, "Aula eliminada correctamente")
}

// courses

func (api *schoolApi) queryCourses(ctx echo.Context) error {
	var filter course.QueryFilter
	orderings, page, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}
	courses, err := api.courses.QueryCourses(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	start, end := page.Bounds(len(courses))
	return paged(ctx, page, len(courses), courses[start:end])
}

func (api *schoolApi) retrieveCourse(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	c, err := api.courses.GetCourse(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) createCourse(ctx echo.Context) error {
	var data course.NewCourse
	if err := bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	c, err := api.courses.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	api.record(ctx, activity.ActionCreate, courseEntity, c.ID, c.Name)
	return mutated(ctx, http.StatusCreated, c, "Curso creado correctamente")
}

func (api *schoolApi) updateCourse(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateCourse
	if err = bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	c, err := api.courses.UpdateCourse(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	api.record(ctx, activity.ActionUpdate, courseEntity, c.ID, c.Name)
	return mutated(ctx, http.StatusOK, c, "Curso actualizado correctamente")
}

func (api *schoolApi) destroyCourse(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.courses.DeleteCourse(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	api.record(ctx, activity.ActionDelete, courseEntity, id, "")
	return mutated(ctx, http.StatusOK, nil, "Curso eliminado correctamente")
}

// assignments

func (api *schoolApi) queryAssignments(ctx echo.Context) error {
	var filter course.AssignmentFilter
	orderings, page, err := bindList(ctx, &filter, &filter.IsActive)
	if err != nil {
		return err
	}
	assignments, err := api.courses.QueryAssignments(ctx.Request().Context(), filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	start, end := page.Bounds(len(assignments))
	return paged(ctx, page, len(assignments), assignments[start:end])
}

func (api *schoolApi) retrieveAssignment(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	a, err := api.courses.GetAssignment(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func assignmentSummary(a course.Assignment) string {
	return "curso " + strconv.Itoa(a.CourseID) + ", aula " + strconv.Itoa(a.ClassroomID) + ", " + strconv.Itoa(a.SchoolYear)
}

func (api *schoolApi) createAssignment(ctx echo.Context) error {
	var data course.NewAssignment
	if err := bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	a, err := api.courses.CreateAssignment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	api.record(ctx, activity.ActionCreate, assignmentEntity, a.ID, assignmentSummary(a))
	return mutated(ctx, http.StatusCreated, a, "Asignación creada correctamente")
}

func (api *schoolApi) updateAssignment(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateAssignment
	if err = bindInput(ctx, &data, api.validate); err != nil {
		return err
	}
	a, err := api.courses.UpdateAssignment(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	api.record(ctx, activity.ActionUpdate, assignmentEntity, a.ID, assignmentSummary(a))
	return mutated(ctx, http.StatusOK, a, "Asignación actualizada correctamente")
}

func (api *schoolApi) destroyAssignment(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.courses.DeleteAssignment(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	api.record(ctx, activity.ActionDelete, assignmentEntity, id, "")
	return mutated(ctx, http.StatusOK, nil, "Asignación eliminada correctamente")
}
