package parent

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/query"
)

type (
	Repository interface {
		QueryAll(ctx context.Context) ([]Parent, error)
		Get(ctx context.Context, id int) (Parent, error)
		Create(ctx context.Context, np NewParent) (Parent, error)
		Update(ctx context.Context, id int, up UpdateParent) (Parent, error)
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

func DetailKey(id int) query.Key { return query.Parents.With(id) }

// students, pensions and enrollments embed their guardian
var invalidatedByMutation = []query.Key{query.Parents, query.Students, query.Pensions, query.Enrollments}

func (svc *Service) QueryAll(ctx context.Context) ([]Parent, error) {
	var parents []Parent
	err := svc.qc.Fetch(ctx, query.Parents, &parents, func(ctx context.Context) (interface{}, error) {
		return svc.repo.QueryAll(ctx)
	})
	return parents, errors.Wrap(err, "querying parents")
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Parent, error) {
	parents, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	parents = Filter(parents, filter)
	Order(parents, orderings)
	return parents, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Parent, error) {
	var p Parent
	err := svc.qc.Fetch(ctx, DetailKey(id), &p, func(ctx context.Context) (interface{}, error) {
		return svc.repo.Get(ctx, id)
	})
	return p, errors.Wrap(err, "getting parent")
}

// GetByDNI finds an existing guardian so the enrollment wizard can reuse it.
func (svc *Service) GetByDNI(ctx context.Context, dni string) (Parent, bool, error) {
	parents, err := svc.QueryAll(ctx)
	if err != nil {
		return Parent{}, false, err
	}
	for _, p := range parents {
		if p.DNI == dni {
			return p, true, nil
		}
	}
	return Parent{}, false, nil
}

func (svc *Service) Create(ctx context.Context, np NewParent) (Parent, error) {
	var created Parent
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			created, err = svc.repo.Create(ctx, np)
			return err
		},
		Invalidate: invalidatedByMutation,
	})
	if err != nil {
		return Parent{}, errors.Wrap(err, "creating parent")
	}
	svc.qc.SetData(ctx, DetailKey(created.ID), created)
	return created, nil
}

func (svc *Service) Update(ctx context.Context, id int, up UpdateParent) (Parent, error) {
	var updated Parent
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			updated, err = svc.repo.Update(ctx, id, up)
			return err
		},
		Invalidate: invalidatedByMutation,
	})
	if err != nil {
		return Parent{}, errors.Wrap(err, "updating parent")
	}
	svc.qc.SetData(ctx, DetailKey(id), updated)
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do:         func(ctx context.Context) error { return svc.repo.Delete(ctx, id) },
		Invalidate: invalidatedByMutation,
	})
	return errors.Wrap(err, "deleting parent")
}
