package role

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/colegio/core"
)

// Role names granting access to the restricted screens.
const (
	Admin     = "ADMINISTRADOR"
	Secretary = "SECRETARIA"
	Teacher   = "DOCENTE"
)

type Role struct {
	ID          int    `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
	IsActive    bool   `json:"estaActivo"`
}

// NewRole contains information needed to create a new Role.
type NewRole struct {
	Name        string `json:"nombre" validate:"required,notblank,max=50"`
	Description string `json:"descripcion" validate:"max=200"`
}

func (nr *NewRole) Validate(validate *validator.Validate) error {
	nr.Name = strings.ToUpper(core.CleanString(nr.Name))
	nr.Description = core.CleanString(nr.Description)
	return validate.Struct(nr)
}

// UpdateRole defines what information may be provided to modify an existing Role.
type UpdateRole struct {
	NewRole
	IsActive *bool `json:"estaActivo,omitempty"`
}

func (ur *UpdateRole) Validate(validate *validator.Validate) error {
	return ur.NewRole.Validate(validate)
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"-"` // bound from ?estaActivo= by the gateway
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

func (qf QueryFilter) match(r Role) bool {
	if qf.IsActive != nil && r.IsActive != *qf.IsActive {
		return false
	}
	return core.Matches(qf.Search, r.Name, r.Description)
}

// Filter returns the roles matching qf, in order.
func Filter(roles []Role, qf QueryFilter) []Role {
	filtered := make([]Role, 0, len(roles))
	for _, r := range roles {
		if qf.match(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Order sorts roles in place by their JSON field names.
func Order(roles []Role, orderings []core.Ordering) {
	core.OrderSlice(roles, orderings, func(i int, field string) interface{} {
		r := roles[i]
		switch field {
		case "id":
			return r.ID
		case "nombre":
			return r.Name
		case "estaActivo":
			return r.IsActive
		}
		return nil
	})
}
