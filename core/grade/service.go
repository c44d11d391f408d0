package grade

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/query"
)

type (
	Repository interface {
		QueryGrades(ctx context.Context) ([]Grade, error)
		GetGrade(ctx context.Context, id int) (Grade, error)
		CreateGrade(ctx context.Context, ng NewGrade) (Grade, error)
		UpdateGrade(ctx context.Context, id int, ug UpdateGrade) (Grade, error)
		DeleteGrade(ctx context.Context, id int) error

		QueryClassrooms(ctx context.Context) ([]Classroom, error)
		GetClassroom(ctx context.Context, id int) (Classroom, error)
		CreateClassroom(ctx context.Context, nc NewClassroom) (Classroom, error)
		UpdateClassroom(ctx context.Context, id int, uc UpdateClassroom) (Classroom, error)
		DeleteClassroom(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
		qc   *query.Client
	}
)

func NewService(repo Repository, qc *query.Client) *Service {
	return &Service{repo: repo, qc: qc}
}

func GradeKey(id int) query.Key     { return query.Grades.With(id) }
func ClassroomKey(id int) query.Key { return query.Classrooms.With(id) }

// classrooms embed their grade, students their classroom and assignments both;
// the dashboard counts students per classroom label
var invalidatedByMutation = []query.Key{query.Grades, query.Classrooms, query.Students, query.Assignments, query.Stats}

func (svc *Service) mutate(ctx context.Context, do func(ctx context.Context) error) error {
	return svc.qc.Mutate(ctx, query.Mutation{Do: do, Invalidate: invalidatedByMutation})
}

// Grades

func (svc *Service) QueryAllGrades(ctx context.Context) ([]Grade, error) {
	var grades []Grade
	err := svc.qc.Fetch(ctx, query.Grades, &grades, func(ctx context.Context) (interface{}, error) {
		return svc.repo.QueryGrades(ctx)
	})
	return grades, errors.Wrap(err, "querying grades")
}

func (svc *Service) QueryGrades(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Grade, error) {
	grades, err := svc.QueryAllGrades(ctx)
	if err != nil {
		return nil, err
	}
	grades = FilterGrades(grades, filter)
	OrderGrades(grades, orderings)
	return grades, nil
}

func (svc *Service) GetGrade(ctx context.Context, id int) (Grade, error) {
	var g Grade
	err := svc.qc.Fetch(ctx, GradeKey(id), &g, func(ctx context.Context) (interface{}, error) {
		return svc.repo.GetGrade(ctx, id)
	})
	return g, errors.Wrap(err, "getting grade")
}

func (svc *Service) CreateGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	var g Grade
	err := svc.mutate(ctx, func(ctx context.Context) (err error) {
		g, err = svc.repo.CreateGrade(ctx, ng)
		return err
	})
	if err != nil {
		return Grade{}, errors.Wrap(err, "creating grade")
	}
	svc.qc.SetData(ctx, GradeKey(g.ID), g)
	return g, nil
}

func (svc *Service) UpdateGrade(ctx context.Context, id int, ug UpdateGrade) (Grade, error) {
	var g Grade
	err := svc.mutate(ctx, func(ctx context.Context) (err error) {
		g, err = svc.repo.UpdateGrade(ctx, id, ug)
		return err
	})
	if err != nil {
		return Grade{}, errors.Wrap(err, "updating grade")
	}
	svc.qc.SetData(ctx, GradeKey(id), g)
	return g, nil
}

func (svc *Service) DeleteGrade(ctx context.Context, id int) error {
	err := svc.mutate(ctx, func(ctx context.Context) error { return svc.repo.DeleteGrade(ctx, id) })
	return errors.Wrap(err, "deleting grade")
}

// Classrooms

func (svc *Service) QueryAllClassrooms(ctx context.Context) ([]Classroom, error) {
	var classrooms []Classroom
	err := svc.qc.Fetch(ctx, query.Classrooms, &classrooms, func(ctx context.Context) (interface{}, error) {
		return svc.repo.QueryClassrooms(ctx)
	})
	return classrooms, errors.Wrap(err, "querying classrooms")
}

func (svc *Service) QueryClassrooms(ctx context.Context, filter ClassroomFilter, orderings []core.Ordering) ([]Classroom, error) {
	classrooms, err := svc.QueryAllClassrooms(ctx)
	if err != nil {
		return nil, err
	}
	classrooms = FilterClassrooms(classrooms, filter)
	OrderClassrooms(classrooms, orderings)
	return classrooms, nil
}

func (svc *Service) GetClassroom(ctx context.Context, id int) (Classroom, error) {
	var c Classroom
	err := svc.qc.Fetch(ctx, ClassroomKey(id), &c, func(ctx context.Context) (interface{}, error) {
		return svc.repo.GetClassroom(ctx, id)
	})
	return c, errors.Wrap(err, "getting classroom")
}

func (svc *Service) CreateClassroom(ctx context.Context, nc NewClassroom) (Classroom, error) {
	var c Classroom
	err := svc.mutate(ctx, func(ctx context.Context) (err error) {
		c, err = svc.repo.CreateClassroom(ctx, nc)
		return err
	})
	if err != nil {
		return Classroom{}, errors.Wrap(err, "creating classroom")
	}
	svc.qc.SetData(ctx, ClassroomKey(c.ID), c)
	return c, nil
}

func (svc *Service) UpdateClassroom(ctx context.Context, id int, uc UpdateClassroom) (Classroom, error) {
	var c Classroom
	err := svc.mutate(ctx, func(ctx context.Context) (err error) {
		c, err = svc.repo.UpdateClassroom(ctx, id, uc)
		return err
	})
	if err != nil {
		return Classroom{}, errors.Wrap(err, "updating classroom")
	}
	svc.qc.SetData(ctx, ClassroomKey(id), c)
	return c, nil
}

func (svc *Service) DeleteClassroom(ctx context.Context, id int) error {
	err := svc.mutate(ctx, func(ctx context.Context) error { return svc.repo.DeleteClassroom(ctx, id) })
	return errors.Wrap(err, "deleting classroom")
}
