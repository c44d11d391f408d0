// Package activity records the mutations performed through the admin gateway.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
)

// Actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionPay    = "pay"
	ActionRemind = "remind"
	ActionImport = "import"
	ActionEnroll = "enroll"
)

type Entry struct {
	ID       string    `json:"id" db:"id"`
	At       time.Time `json:"fecha" db:"at"`
	Actor    string    `json:"usuario" db:"actor"`
	Action   string    `json:"accion" db:"action"`
	Entity   string    `json:"entidad" db:"entity"`
	EntityID int       `json:"entidadId,omitempty" db:"entity_id"`
	Summary  string    `json:"resumen" db:"summary"`
}

type QueryFilter struct {
	Actor  string    `query:"usuario"`
	Entity string    `query:"entidad"`
	Action string    `query:"accion"`
	Since  core.Date `query:"desde"`
}

func (qf *QueryFilter) Clean() {
	qf.Actor = core.CleanString(qf.Actor)
	qf.Entity = core.CleanString(qf.Entity, true)
	qf.Action = core.CleanString(qf.Action, true)
}

type (
	Repository interface {
		Add(ctx context.Context, e Entry) error
		// Query returns the matching entries, newest first.
		Query(ctx context.Context, filter QueryFilter, page core.Page) ([]Entry, int, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

// NowFunc is mockable.
var NowFunc = func() time.Time { return time.Now().UTC() }

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record stores an entry. Failing to record never fails the mutation: the error is logged.
func (svc *Service) Record(ctx context.Context, actor, action, entity string, entityID int, summary string) {
	e := Entry{
		ID:       uuid.NewString(),
		At:       NowFunc(),
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Summary:  summary,
	}
	if err := svc.repo.Add(ctx, e); err != nil {
		svc.logger.Error("recording activity", errors.Wrap(err, "adding activity entry"))
	}
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.Page) (core.Paged, error) {
	page.Clean()
	entries, count, err := svc.repo.Query(ctx, filter, page)
	if err != nil {
		return core.Paged{}, errors.Wrap(err, "querying activity")
	}
	return core.Paged{Count: count, Page: page.Number, PageSize: page.Size, Results: entries}, nil
}
