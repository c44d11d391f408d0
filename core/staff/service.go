package staff

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/query"
	"github.com/trezcool/colegio/core/role"
)

type (
	Repository interface {
		QueryAll(ctx context.Context) ([]Staff, error)
		Get(ctx context.Context, id int) (Staff, error)
		Create(ctx context.Context, ns NewStaff) (Staff, error)
		Update(ctx context.Context, id int, us UpdateStaff) (Staff, error)
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

func DetailKey(id int) query.Key { return query.Staff.With(id) }

var (
	teachersKey = query.Staff.With("teachers")

	// assignments embed the teacher
	invalidatedByMutation = []query.Key{query.Staff, query.Assignments}
)

func (svc *Service) QueryAll(ctx context.Context) ([]Staff, error) {
	var members []Staff
	err := svc.qc.Fetch(ctx, query.Staff, &members, func(ctx context.Context) (interface{}, error) {
		return svc.repo.QueryAll(ctx)
	})
	return members, errors.Wrap(err, "querying staff")
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Staff, error) {
	members, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	members = Filter(members, filter)
	Order(members, orderings)
	return members, nil
}

// Teachers returns the active staff members holding the teacher role.
func (svc *Service) Teachers(ctx context.Context) ([]Staff, error) {
	var teachers []Staff
	err := svc.qc.Fetch(ctx, teachersKey, &teachers, func(ctx context.Context) (interface{}, error) {
		members, err := svc.repo.QueryAll(ctx)
		if err != nil {
			return nil, err
		}
		res := make([]Staff, 0, len(members))
		for _, s := range members {
			if s.IsActive && core.Fold(s.RoleName()) == core.Fold(role.Teacher) {
				res = append(res, s)
			}
		}
		return res, nil
	})
	return teachers, errors.Wrap(err, "querying teachers")
}

func (svc *Service) GetByID(ctx context.Context, id int) (Staff, error) {
	var s Staff
	err := svc.qc.Fetch(ctx, DetailKey(id), &s, func(ctx context.Context) (interface{}, error) {
		return svc.repo.Get(ctx, id)
	})
	return s, errors.Wrap(err, "getting staff member")
}

func (svc *Service) Create(ctx context.Context, ns NewStaff) (Staff, error) {
	var created Staff
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			created, err = svc.repo.Create(ctx, ns)
			return err
		},
		Invalidate: invalidatedByMutation,
	})
	if err != nil {
		return Staff{}, errors.Wrap(err, "creating staff member")
	}
	svc.qc.SetData(ctx, DetailKey(created.ID), created)
	return created, nil
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateStaff) (Staff, error) {
	var updated Staff
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			updated, err = svc.repo.Update(ctx, id, us)
			return err
		},
		Invalidate: invalidatedByMutation,
	})
	if err != nil {
		return Staff{}, errors.Wrap(err, "updating staff member")
	}
	svc.qc.SetData(ctx, DetailKey(id), updated)
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do:         func(ctx context.Context) error { return svc.repo.Delete(ctx, id) },
		Invalidate: invalidatedByMutation,
	})
	return errors.Wrap(err, "deleting staff member")
}
