package grade

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/colegio/core"
)

// Grade levels.
const (
	LevelInitial   = "INICIAL"
	LevelPrimary   = "PRIMARIA"
	LevelSecondary = "SECUNDARIA"
)

type Grade struct {
	ID       int    `json:"id"`
	Name     string `json:"nombre"`
	Level    string `json:"nivel"`
	IsActive bool   `json:"estaActivo"`
}

type Classroom struct {
	ID          int    `json:"id"`
	Section     string `json:"seccion"`
	MaxStudents int    `json:"cantidadMaxima"`
	GradeID     int    `json:"gradoId"`
	IsActive    bool   `json:"estaActivo"`
	Grade       *Grade `json:"grado,omitempty"`
}

// Label is how classrooms show up in tables and exports: "1° Primaria A".
func (c Classroom) Label() string {
	if c.Grade == nil {
		return c.Section
	}
	return strings.TrimSpace(c.Grade.Name + " " + c.Section)
}

type NewGrade struct {
	Name  string `json:"nombre" validate:"required,notblank,max=50"`
	Level string `json:"nivel" validate:"required,oneof=INICIAL PRIMARIA SECUNDARIA"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	ng.Level = strings.ToUpper(core.CleanString(ng.Level))
	return validate.Struct(ng)
}

type UpdateGrade struct {
	NewGrade
	IsActive *bool `json:"estaActivo,omitempty"`
}

type NewClassroom struct {
	Section     string `json:"seccion" validate:"required,notblank,max=10"`
	MaxStudents int    `json:"cantidadMaxima" validate:"required,min=1,max=60"`
	GradeID     int    `json:"gradoId" validate:"required,min=1"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate) error {
	nc.Section = strings.ToUpper(core.CleanString(nc.Section))
	return validate.Struct(nc)
}

type UpdateClassroom struct {
	NewClassroom
	IsActive *bool `json:"estaActivo,omitempty"`
}

type QueryFilter struct {
	Search   string `query:"search"`
	Level    string `query:"nivel"`
	IsActive *bool  `query:"-"` // bound from ?estaActivo= by the gateway
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Level = strings.ToUpper(core.CleanString(qf.Level))
}

func FilterGrades(grades []Grade, qf QueryFilter) []Grade {
	filtered := make([]Grade, 0, len(grades))
	for _, g := range grades {
		if qf.Level != "" && g.Level != qf.Level {
			continue
		}
		if qf.IsActive != nil && g.IsActive != *qf.IsActive {
			continue
		}
		if core.Matches(qf.Search, g.Name, g.Level) {
			filtered = append(filtered, g)
		}
	}
	return filtered
}

func OrderGrades(grades []Grade, orderings []core.Ordering) {
	core.OrderSlice(grades, orderings, func(i int, field string) interface{} {
		g := grades[i]
		switch field {
		case "id":
			return g.ID
		case "nombre":
			return g.Name
		case "nivel":
			return g.Level
		case "estaActivo":
			return g.IsActive
		}
		return nil
	})
}

type ClassroomFilter struct {
	Search   string `query:"search"`
	GradeID  int    `query:"gradoId"`
	IsActive *bool  `query:"-"` // bound from ?estaActivo= by the gateway
}

func (cf *ClassroomFilter) Clean() {
	cf.Search = core.CleanString(cf.Search)
}

func FilterClassrooms(classrooms []Classroom, cf ClassroomFilter) []Classroom {
	filtered := make([]Classroom, 0, len(classrooms))
	for _, c := range classrooms {
		if cf.GradeID != 0 && c.GradeID != cf.GradeID {
			continue
		}
		if cf.IsActive != nil && c.IsActive != *cf.IsActive {
			continue
		}
		if core.Matches(cf.Search, c.Section, c.Label()) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func OrderClassrooms(classrooms []Classroom, orderings []core.Ordering) {
	core.OrderSlice(classrooms, orderings, func(i int, field string) interface{} {
		c := classrooms[i]
		switch field {
		case "id":
			return c.ID
		case "seccion":
			return c.Section
		case "cantidadMaxima":
			return c.MaxStudents
		case "gradoId":
			return c.GradeID
		case "grado":
			return c.Label()
		case "estaActivo":
			return c.IsActive
		}
		return nil
	})
}
