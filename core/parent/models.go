package parent

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/colegio/core"
)

// Parent is a student's guardian of record (apoderado).
type Parent struct {
	ID           int    `json:"id"`
	FirstName    string `json:"nombre"`
	LastName     string `json:"apellido"`
	DNI          string `json:"dni"`
	Phone        string `json:"telefono"`
	Email        string `json:"correo,omitempty"`
	Address      string `json:"direccion,omitempty"`
	Relationship string `json:"parentesco,omitempty"`
	IsActive     bool   `json:"estaActivo"`
}

func (p Parent) FullName() string {
	return core.CleanString(p.FirstName + " " + p.LastName)
}

type NewParent struct {
	FirstName    string `json:"nombre" validate:"required,notblank,personname,max=100"`
	LastName     string `json:"apellido" validate:"required,notblank,personname,max=100"`
	DNI          string `json:"dni" validate:"required,dni"`
	Phone        string `json:"telefono" validate:"required,phone"`
	Email        string `json:"correo" validate:"omitempty,email"`
	Address      string `json:"direccion" validate:"max=200"`
	Relationship string `json:"parentesco" validate:"max=50"`
}

func (np *NewParent) Clean() {
	np.FirstName = core.CleanString(np.FirstName)
	np.LastName = core.CleanString(np.LastName)
	np.DNI = core.CleanString(np.DNI)
	np.Phone = core.CleanString(np.Phone)
	np.Email = core.CleanString(np.Email, true)
	np.Address = core.CleanString(np.Address)
	np.Relationship = core.CleanString(np.Relationship)
}

func (np *NewParent) Validate(validate *validator.Validate) error {
	np.Clean()
	return validate.Struct(np)
}

type UpdateParent struct {
	NewParent
	IsActive *bool `json:"estaActivo,omitempty"`
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"-"` // bound from ?estaActivo= by the gateway
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

func Filter(parents []Parent, qf QueryFilter) []Parent {
	filtered := make([]Parent, 0, len(parents))
	for _, p := range parents {
		if qf.IsActive != nil && p.IsActive != *qf.IsActive {
			continue
		}
		if core.Matches(qf.Search, p.FullName(), p.DNI, p.Phone, p.Email) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func Order(parents []Parent, orderings []core.Ordering) {
	core.OrderSlice(parents, orderings, func(i int, field string) interface{} {
		p := parents[i]
		switch field {
		case "id":
			return p.ID
		case "nombre":
			return p.FirstName
		case "apellido":
			return p.LastName
		case "dni":
			return p.DNI
		case "correo":
			return p.Email
		case "estaActivo":
			return p.IsActive
		}
		return nil
	})
}
