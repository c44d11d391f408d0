package course

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/grade"
	"github.com/trezcool/colegio/core/staff"
)

type Course struct {
	ID          int    `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
	IsActive    bool   `json:"estaActivo"`
}

// Assignment puts a teacher in charge of a course in a classroom for a school year.
type Assignment struct {
	ID          int              `json:"id"`
	StaffID     int              `json:"trabajadorId"`
	CourseID    int              `json:"cursoId"`
	ClassroomID int              `json:"aulaId"`
	SchoolYear  int              `json:"anioEscolar"`
	IsActive    bool             `json:"estaActivo"`
	Staff       *staff.Staff     `json:"trabajador,omitempty"`
	Course      *Course          `json:"curso,omitempty"`
	Classroom   *grade.Classroom `json:"aula,omitempty"`
}

func (a Assignment) teacherName() string {
	if a.Staff == nil {
		return ""
	}
	return a.Staff.FullName()
}

func (a Assignment) courseName() string {
	if a.Course == nil {
		return ""
	}
	return a.Course.Name
}

func (a Assignment) classroomLabel() string {
	if a.Classroom == nil {
		return ""
	}
	return a.Classroom.Label()
}

type NewCourse struct {
	Name        string `json:"nombre" validate:"required,notblank,max=100"`
	Description string `json:"descripcion" validate:"max=300"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type UpdateCourse struct {
	NewCourse
	IsActive *bool `json:"estaActivo,omitempty"`
}

type NewAssignment struct {
	StaffID     int `json:"trabajadorId" validate:"required,min=1"`
	CourseID    int `json:"cursoId" validate:"required,min=1"`
	ClassroomID int `json:"aulaId" validate:"required,min=1"`
	SchoolYear  int `json:"anioEscolar" validate:"required,min=2000,max=2100"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

type UpdateAssignment struct {
	NewAssignment
	IsActive *bool `json:"estaActivo,omitempty"`
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"-"` // bound from ?estaActivo= by the gateway
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

func FilterCourses(courses []Course, qf QueryFilter) []Course {
	filtered := make([]Course, 0, len(courses))
	for _, c := range courses {
		if qf.IsActive != nil && c.IsActive != *qf.IsActive {
			continue
		}
		if core.Matches(qf.Search, c.Name, c.Description) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func OrderCourses(courses []Course, orderings []core.Ordering) {
	core.OrderSlice(courses, orderings, func(i int, field string) interface{} {
		c := courses[i]
		switch field {
		case "id":
			return c.ID
		case "nombre":
			return c.Name
		case "estaActivo":
			return c.IsActive
		}
		return nil
	})
}

type AssignmentFilter struct {
	Search      string `query:"search"`
	StaffID     int    `query:"trabajadorId"`
	CourseID    int    `query:"cursoId"`
	ClassroomID int    `query:"aulaId"`
	SchoolYear  int    `query:"anioEscolar"`
	IsActive    *bool  `query:"-"` // bound from ?estaActivo= by the gateway
}

func (af *AssignmentFilter) Clean() {
	af.Search = core.CleanString(af.Search)
}

func FilterAssignments(assignments []Assignment, af AssignmentFilter) []Assignment {
	filtered := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		switch {
		case af.StaffID != 0 && a.StaffID != af.StaffID,
			af.CourseID != 0 && a.CourseID != af.CourseID,
			af.ClassroomID != 0 && a.ClassroomID != af.ClassroomID,
			af.SchoolYear != 0 && a.SchoolYear != af.SchoolYear,
			af.IsActive != nil && a.IsActive != *af.IsActive:
			continue
		}
		if core.Matches(af.Search, a.teacherName(), a.courseName(), a.classroomLabel()) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func OrderAssignments(assignments []Assignment, orderings []core.Ordering) {
	core.OrderSlice(assignments, orderings, func(i int, field string) interface{} {
		a := assignments[i]
		switch field {
		case "id":
			return a.ID
		case "trabajador":
			return a.teacherName()
		case "curso":
			return a.courseName()
		case "aula":
			return a.classroomLabel()
		case "anioEscolar":
			return a.SchoolYear
		case "estaActivo":
			return a.IsActive
		}
		return nil
	})
}
