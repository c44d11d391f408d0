package role

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/query"
)

type (
	Repository interface {
		QueryAll(ctx context.Context) ([]Role, error)
		Get(ctx context.Context, id int) (Role, error)
		Create(ctx context.Context, nr NewRole) (Role, error)
		Update(ctx context.Context, id int, ur UpdateRole) (Role, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
		qc   *query.Client
	}
)

func NewService(repo Repository, qc *query.Client) *Service {
	return &Service{repo: repo, qc: qc}
}

func DetailKey(id int) query.Key { return query.Roles.With(id) }

// staff rows embed their role
var invalidatedByMutation = []query.Key{query.Roles, query.Staff}

func (svc *Service) QueryAll(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := svc.qc.Fetch(ctx, query.Roles, &roles, func(ctx context.Context) (interface{}, error) {
		return svc.repo.QueryAll(ctx)
	})
	return roles, errors.Wrap(err, "querying roles")
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Role, error) {
	roles, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	roles = Filter(roles, filter)
	Order(roles, orderings)
	return roles, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Role, error) {
	var r Role
	err := svc.qc.Fetch(ctx, DetailKey(id), &r, func(ctx context.Context) (interface{}, error) {
		return svc.repo.Get(ctx, id)
	})
	return r, errors.Wrap(err, "getting role")
}

// GetByName finds a role by name among the cached roles.
func (svc *Service) GetByName(ctx context.Context, name string) (Role, bool, error) {
	roles, err := svc.QueryAll(ctx)
	if err != nil {
		return Role{}, false, err
	}
	for _, r := range roles {
		if core.Fold(r.Name) == core.Fold(name) {
			return r, true, nil
		}
	}
	return Role{}, false, nil
}

func (svc *Service) Create(ctx context.Context, nr NewRole) (Role, error) {
	var created Role
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			created, err = svc.repo.Create(ctx, nr)
			return err
		},
		Invalidate: invalidatedByMutation,
	})
	if err != nil {
		return Role{}, errors.Wrap(err, "creating role")
	}
	svc.qc.SetData(ctx, DetailKey(created.ID), created)
	return created, nil
}

func (svc *Service) Update(ctx context.Context, id int, ur UpdateRole) (Role, error) {
	var updated Role
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			updated, err = svc.repo.Update(ctx, id, ur)
			return err
		},
		Invalidate: invalidatedByMutation,
	})
	if err != nil {
		return Role{}, errors.Wrap(err, "updating role")
	}
	svc.qc.SetData(ctx, DetailKey(id), updated)
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do:         func(ctx context.Context) error { return svc.repo.Delete(ctx, id) },
		Invalidate: invalidatedByMutation,
	})
	return errors.Wrap(err, "deleting role")
}
