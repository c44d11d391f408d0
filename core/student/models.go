package student

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/grade"
	"github.com/trezcool/colegio/core/parent"
)

const (
	GenderMale   = "M"
	GenderFemale = "F"
)

type Student struct {
	ID          int              `json:"id"`
	FirstName   string           `json:"nombre"`
	LastName    string           `json:"apellido"`
	DNI         string           `json:"dni"`
	BirthDate   core.Date        `json:"fechaNacimiento"`
	Gender      string           `json:"genero"`
	Address     string           `json:"direccion,omitempty"`
	PhotoURL    string           `json:"imagenPerfil,omitempty"`
	ClassroomID int              `json:"aulaId,omitempty"`
	GuardianID  int              `json:"apoderadoId,omitempty"`
	IsActive    bool             `json:"estaActivo"`
	Classroom   *grade.Classroom `json:"aula,omitempty"`
	Guardian    *parent.Parent   `json:"apoderado,omitempty"`
}

func (s Student) FullName() string {
	return core.CleanString(s.FirstName + " " + s.LastName)
}

func (s Student) ClassroomLabel() string {
	if s.Classroom == nil {
		return ""
	}
	return s.Classroom.Label()
}

func (s Student) GuardianName() string {
	if s.Guardian == nil {
		return ""
	}
	return s.Guardian.FullName()
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FirstName   string    `json:"nombre" validate:"required,notblank,personname,max=100"`
	LastName    string    `json:"apellido" validate:"required,notblank,personname,max=100"`
	DNI         string    `json:"dni" validate:"required,dni"`
	BirthDate   core.Date `json:"fechaNacimiento" validate:"required,pastdate"`
	Gender      string    `json:"genero" validate:"required,oneof=M F"`
	Address     string    `json:"direccion" validate:"max=200"`
	PhotoURL    string    `json:"imagenPerfil" validate:"omitempty,url"`
	ClassroomID int       `json:"aulaId" validate:"required,min=1"`
	GuardianID  int       `json:"apoderadoId" validate:"required,min=1"`
}

func (ns *NewStudent) Clean() {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.DNI = core.CleanString(ns.DNI)
	ns.Gender = strings.ToUpper(core.CleanString(ns.Gender))
	ns.Address = core.CleanString(ns.Address)
	ns.PhotoURL = core.CleanString(ns.PhotoURL)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	NewStudent
	IsActive *bool `json:"estaActivo,omitempty"`
}

type QueryFilter struct {
	Search      string `query:"search"`
	ClassroomID int    `query:"aulaId"`
	GuardianID  int    `query:"apoderadoId"`
	Gender      string `query:"genero"`
	IsActive    *bool  `query:"-"` // bound from ?estaActivo= by the gateway
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Gender = strings.ToUpper(core.CleanString(qf.Gender))
}

// Filter applies AND on the QueryFilter fields. Search matches the full name, DNI,
// classroom or guardian name.
func Filter(students []Student, qf QueryFilter) []Student {
	filtered := make([]Student, 0, len(students))
	for _, s := range students {
		switch {
		case qf.ClassroomID != 0 && s.ClassroomID != qf.ClassroomID,
			qf.GuardianID != 0 && s.GuardianID != qf.GuardianID,
			qf.Gender != "" && s.Gender != qf.Gender,
			qf.IsActive != nil && s.IsActive != *qf.IsActive:
			continue
		}
		if core.Matches(qf.Search, s.FullName(), s.DNI, s.ClassroomLabel(), s.GuardianName()) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func Order(students []Student, orderings []core.Ordering) {
	core.OrderSlice(students, orderings, func(i int, field string) interface{} {
		s := students[i]
		switch field {
		case "id":
			return s.ID
		case "nombre":
			return s.FirstName
		case "apellido":
			return s.LastName
		case "dni":
			return s.DNI
		case "fechaNacimiento":
			return s.BirthDate
		case "genero":
			return s.Gender
		case "aula":
			return s.ClassroomLabel()
		case "apoderado":
			return s.GuardianName()
		case "estaActivo":
			return s.IsActive
		}
		return nil
	})
}

// ClassroomCount is a row of the students by classroom statistic.
type ClassroomCount struct {
	ClassroomID int    `json:"aulaId"`
	Classroom   string `json:"aula"`
	Count       int    `json:"cantidad"`
}

type Stats struct {
	Total       int              `json:"total"`
	Active      int              `json:"activos"`
	Inactive    int              `json:"inactivos"`
	ByGender    map[string]int   `json:"porGenero"`
	ByClassroom []ClassroomCount `json:"porAula"`
}

// ComputeStats aggregates students. Gender and classroom breakdowns only count active students.
func ComputeStats(students []Student) Stats {
	st := Stats{Total: len(students), ByGender: map[string]int{}, ByClassroom: []ClassroomCount{}}
	byClassroom := make(map[int]int)
	for _, s := range students {
		if !s.IsActive {
			st.Inactive++
			continue
		}
		st.Active++
		st.ByGender[s.Gender]++

		idx, ok := byClassroom[s.ClassroomID]
		if !ok {
			idx = len(st.ByClassroom)
			byClassroom[s.ClassroomID] = idx
			st.ByClassroom = append(st.ByClassroom, ClassroomCount{ClassroomID: s.ClassroomID, Classroom: s.ClassroomLabel()})
		}
		st.ByClassroom[idx].Count++
	}
	core.OrderSlice(st.ByClassroom, []core.Ordering{{Field: "aula", Ascending: true}}, func(i int, _ string) interface{} {
		return st.ByClassroom[i].Classroom
	})
	return st
}
