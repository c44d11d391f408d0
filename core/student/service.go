package student

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/query"
)

type (
	Repository interface {
		QueryAll(ctx context.Context) ([]Student, error)
		Get(ctx context.Context, id int) (Student, error)
		Create(ctx context.Context, ns NewStudent) (Student, error)
		Update(ctx context.Context, id int, us UpdateStudent) (Student, error)
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

func DetailKey(id int) query.Key { return query.Students.With(id) }

var (
	statsKey = query.Stats.With("students")

	// pension and enrollment rows embed the student
	invalidatedByMutation = []query.Key{query.Students, query.Stats, query.Pensions, query.Enrollments}
)

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	var students []Student
	err := svc.qc.Fetch(ctx, query.Students, &students, func(ctx context.Context) (interface{}, error) {
		return svc.repo.QueryAll(ctx)
	})
	return students, errors.Wrap(err, "querying students")
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Student, error) {
	students, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	students = Filter(students, filter)
	Order(students, orderings)
	return students, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Student, error) {
	var s Student
	err := svc.qc.Fetch(ctx, DetailKey(id), &s, func(ctx context.Context) (interface{}, error) {
		return svc.repo.Get(ctx, id)
	})
	return s, errors.Wrap(err, "getting student")
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := svc.qc.Fetch(ctx, statsKey, &st, func(ctx context.Context) (interface{}, error) {
		students, err := svc.repo.QueryAll(ctx)
		if err != nil {
			return nil, err
		}
		return ComputeStats(students), nil
	})
	return st, errors.Wrap(err, "computing student stats")
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	var created Student
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			created, err = svc.repo.Create(ctx, ns)
			return err
		},
		Invalidate: invalidatedByMutation,
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	svc.qc.SetData(ctx, DetailKey(created.ID), created)
	return created, nil
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateStudent) (Student, error) {
	var updated Student
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			updated, err = svc.repo.Update(ctx, id, us)
			return err
		},
		Invalidate: invalidatedByMutation,
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "updating student")
	}
	svc.qc.SetData(ctx, DetailKey(id), updated)
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do:         func(ctx context.Context) error { return svc.repo.Delete(ctx, id) },
		Invalidate: invalidatedByMutation,
	})
	return errors.Wrap(err, "deleting student")
}

// ImportResult is the outcome of one imported row. Rows are numbered from 1.
type ImportResult struct {
	Row     int      `json:"fila"`
	Student *Student `json:"estudiante,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// CreateMany creates students one by one, reporting per-row failures.
// An expired session aborts the import; the rows created so far are kept.
func (svc *Service) CreateMany(ctx context.Context, rows []NewStudent) ([]ImportResult, error) {
	results := make([]ImportResult, 0, len(rows))
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) error {
			for i, ns := range rows {
				created, err := svc.repo.Create(ctx, ns)
				if err != nil {
					if core.IsUnauthorized(err) {
						return err
					}
					results = append(results, ImportResult{Row: i + 1, Error: errors.Cause(err).Error()})
					continue
				}
				results = append(results, ImportResult{Row: i + 1, Student: &created})
			}
			return nil
		},
		Invalidate: invalidatedByMutation,
	})
	if err != nil {
		if len(results) > 0 {
			svc.qc.Invalidate(ctx, invalidatedByMutation...)
		}
		return results, errors.Wrap(err, "importing students")
	}
	return results, nil
}
