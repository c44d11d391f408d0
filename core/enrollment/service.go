package enrollment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/parent"
	"github.com/trezcool/colegio/core/query"
	"github.com/trezcool/colegio/core/student"
)

type (
	Repository interface {
		QueryAll(ctx context.Context) ([]Enrollment, error)
		Get(ctx context.Context, id int) (Enrollment, error)
		Create(ctx context.Context, ne NewEnrollment) (Enrollment, error)
		Update(ctx context.Context, id int, ue UpdateEnrollment) (Enrollment, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo     Repository
		qc       *query.Client
		students *student.Service
		parents  *parent.Service
	}
)

func NewService(repo Repository, qc *query.Client, students *student.Service, parents *parent.Service) *Service {
	return &Service{repo: repo, qc: qc, students: students, parents: parents}
}

func DetailKey(id int) query.Key { return query.Enrollments.With(id) }

// enrolling creates pensions upstream and changes the student's classroom and guardian
var invalidatedByMutation = []query.Key{query.Enrollments, query.Students, query.Parents, query.Pensions, query.Stats}

func (svc *Service) QueryAll(ctx context.Context) ([]Enrollment, error) {
	var enrollments []Enrollment
	err := svc.qc.Fetch(ctx, query.Enrollments, &enrollments, func(ctx context.Context) (interface{}, error) {
		return svc.repo.QueryAll(ctx)
	})
	return enrollments, errors.Wrap(err, "querying enrollments")
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Enrollment, error) {
	enrollments, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	enrollments = Filter(enrollments, filter)
	Order(enrollments, orderings)
	return enrollments, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Enrollment, error) {
	var e Enrollment
	err := svc.qc.Fetch(ctx, DetailKey(id), &e, func(ctx context.Context) (interface{}, error) {
		return svc.repo.Get(ctx, id)
	})
	return e, errors.Wrap(err, "getting enrollment")
}

func (svc *Service) Create(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	var created Enrollment
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			created, err = svc.repo.Create(ctx, ne)
			return err
		},
		Invalidate: invalidatedByMutation,
	})
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	svc.qc.SetData(ctx, DetailKey(created.ID), created)
	return created, nil
}

func (svc *Service) Update(ctx context.Context, id int, ue UpdateEnrollment) (Enrollment, error) {
	var updated Enrollment
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			updated, err = svc.repo.Update(ctx, id, ue)
			return err
		},
		Invalidate: invalidatedByMutation,
	})
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	svc.qc.SetData(ctx, DetailKey(id), updated)
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do:         func(ctx context.Context) error { return svc.repo.Delete(ctx, id) },
		Invalidate: invalidatedByMutation,
	})
	return errors.Wrap(err, "deleting enrollment")
}

// WizardResult holds the records created by Enroll, up to the first failure.
type WizardResult struct {
	Guardian   *parent.Parent   `json:"apoderado,omitempty"`
	Student    *student.Student `json:"estudiante,omitempty"`
	Enrollment *Enrollment      `json:"matricula,omitempty"`
}

// Enroll runs the enrollment wizard: new guardian (optional), new student, then the enrollment.
// It stops at the first failure; records created before it are kept (and already invalidated).
func (svc *Service) Enroll(ctx context.Context, w Wizard) (WizardResult, error) {
	var res WizardResult

	guardianID := w.GuardianID
	if w.Guardian != nil {
		g, err := svc.parents.Create(ctx, *w.Guardian)
		if err != nil {
			return res, errors.Wrap(err, "enrolling: guardian")
		}
		res.Guardian = &g
		guardianID = g.ID
	}

	w.Student.GuardianID = guardianID
	s, err := svc.students.Create(ctx, w.Student)
	if err != nil {
		return res, errors.Wrap(err, "enrolling: student")
	}
	res.Student = &s

	w.Enrollment.StudentID = s.ID
	w.Enrollment.GuardianID = guardianID
	e, err := svc.Create(ctx, w.Enrollment)
	if err != nil {
		return res, errors.Wrap(err, "enrolling")
	}
	res.Enrollment = &e
	return res, nil
}
