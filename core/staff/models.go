package staff

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/role"
)

// Staff is a school worker (trabajador): teachers, secretaries, administrators.
type Staff struct {
	ID         int        `json:"id"`
	FirstName  string     `json:"nombre"`
	LastName   string     `json:"apellido"`
	DNI        string     `json:"dni"`
	Phone      string     `json:"telefono,omitempty"`
	Email      string     `json:"correo,omitempty"`
	Speciality string     `json:"especialidad,omitempty"`
	RoleID     int        `json:"rolId"`
	PhotoURL   string     `json:"imagenPerfil,omitempty"`
	IsActive   bool       `json:"estaActivo"`
	Role       *role.Role `json:"rol,omitempty"`
}

func (s Staff) FullName() string {
	return core.CleanString(s.FirstName + " " + s.LastName)
}

func (s Staff) RoleName() string {
	if s.Role == nil {
		return ""
	}
	return s.Role.Name
}

type NewStaff struct {
	FirstName  string `json:"nombre" validate:"required,notblank,personname,max=100"`
	LastName   string `json:"apellido" validate:"required,notblank,personname,max=100"`
	DNI        string `json:"dni" validate:"required,dni"`
	Phone      string `json:"telefono" validate:"omitempty,phone"`
	Email      string `json:"correo" validate:"omitempty,email"`
	Speciality string `json:"especialidad" validate:"max=100"`
	RoleID     int    `json:"rolId" validate:"required,min=1"`
	PhotoURL   string `json:"imagenPerfil" validate:"omitempty,url"`
}

func (ns *NewStaff) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.DNI = core.CleanString(ns.DNI)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Email = core.CleanString(ns.Email, true)
	ns.Speciality = core.CleanString(ns.Speciality)
	ns.PhotoURL = core.CleanString(ns.PhotoURL)
	return validate.Struct(ns)
}

type UpdateStaff struct {
	NewStaff
	IsActive *bool `json:"estaActivo,omitempty"`
}

type QueryFilter struct {
	Search   string `query:"search"`
	RoleID   int    `query:"rolId"`
	IsActive *bool  `query:"-"` // bound from ?estaActivo= by the gateway
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

func Filter(members []Staff, qf QueryFilter) []Staff {
	filtered := make([]Staff, 0, len(members))
	for _, s := range members {
		if qf.RoleID != 0 && s.RoleID != qf.RoleID {
			continue
		}
		if qf.IsActive != nil && s.IsActive != *qf.IsActive {
			continue
		}
		if core.Matches(qf.Search, s.FullName(), s.DNI, s.Email, s.Speciality) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func Order(members []Staff, orderings []core.Ordering) {
	core.OrderSlice(members, orderings, func(i int, field string) interface{} {
		s := members[i]
		switch field {
		case "id":
			return s.ID
		case "nombre":
			return s.FirstName
		case "apellido":
			return s.LastName
		case "dni":
			return s.DNI
		case "especialidad":
			return s.Speciality
		case "rol":
			return s.RoleName()
		case "estaActivo":
			return s.IsActive
		}
		return nil
	})
}
