package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/query"
)

type (
	Repository interface {
		QueryCourses(ctx context.Context) ([]Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
		UpdateCourse(ctx context.Context, id int, uc UpdateCourse) (Course, error)
		DeleteCourse(ctx context.Context, id int) error

		QueryAssignments(ctx context.Context) ([]Assignment, error)
		GetAssignment(ctx context.Context, id int) (Assignment, error)
		CreateAssignment(ctx context.Context, na NewAssignment) (Assignment, error)
		UpdateAssignment(ctx context.Context, id int, ua UpdateAssignment) (Assignment, error)
		DeleteAssignment(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
		qc   *query.Client
	}
)

func NewService(repo Repository, qc *query.Client) *Service {
	return &Service{repo: repo, qc: qc}
}

func CourseKey(id int) query.Key     { return query.Courses.With(id) }
func AssignmentKey(id int) query.Key { return query.Assignments.With(id) }

var (
	invalidatedByCourse     = []query.Key{query.Courses, query.Assignments}
	invalidatedByAssignment = []query.Key{query.Assignments}
)

// Courses

func (svc *Service) QueryAllCourses(ctx context.Context) ([]Course, error) {
	var courses []Course
	err := svc.qc.Fetch(ctx, query.Courses, &courses, func(ctx context.Context) (interface{}, error) {
		return svc.repo.QueryCourses(ctx)
	})
	return courses, errors.Wrap(err, "querying courses")
}

func (svc *Service) QueryCourses(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Course, error) {
	courses, err := svc.QueryAllCourses(ctx)
	if err != nil {
		return nil, err
	}
	courses = FilterCourses(courses, filter)
	OrderCourses(courses, orderings)
	return courses, nil
}

func (svc *Service) GetCourse(ctx context.Context, id int) (Course, error) {
	var c Course
	err := svc.qc.Fetch(ctx, CourseKey(id), &c, func(ctx context.Context) (interface{}, error) {
		return svc.repo.GetCourse(ctx, id)
	})
	return c, errors.Wrap(err, "getting course")
}

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	var c Course
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			c, err = svc.repo.CreateCourse(ctx, nc)
			return err
		},
		Invalidate: invalidatedByCourse,
	})
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	svc.qc.SetData(ctx, CourseKey(c.ID), c)
	return c, nil
}

func (svc *Service) UpdateCourse(ctx context.Context, id int, uc UpdateCourse) (Course, error) {
	var c Course
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			c, err = svc.repo.UpdateCourse(ctx, id, uc)
			return err
		},
		Invalidate: invalidatedByCourse,
	})
	if err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	svc.qc.SetData(ctx, CourseKey(id), c)
	return c, nil
}

func (svc *Service) DeleteCourse(ctx context.Context, id int) error {
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do:         func(ctx context.Context) error { return svc.repo.DeleteCourse(ctx, id) },
		Invalidate: invalidatedByCourse,
	})
	return errors.Wrap(err, "deleting course")
}

// Assignments

func (svc *Service) QueryAllAssignments(ctx context.Context) ([]Assignment, error) {
	var assignments []Assignment
	err := svc.qc.Fetch(ctx, query.Assignments, &assignments, func(ctx context.Context) (interface{}, error) {
		return svc.repo.QueryAssignments(ctx)
	})
	return assignments, errors.Wrap(err, "querying assignments")
}

func (svc *Service) QueryAssignments(ctx context.Context, filter AssignmentFilter, orderings []core.Ordering) ([]Assignment, error) {
	assignments, err := svc.QueryAllAssignments(ctx)
	if err != nil {
		return nil, err
	}
	assignments = FilterAssignments(assignments, filter)
	OrderAssignments(assignments, orderings)
	return assignments, nil
}

// ByClassroom returns the assignments of a classroom.
func (svc *Service) ByClassroom(ctx context.Context, classroomID int) ([]Assignment, error) {
	return svc.QueryAssignments(ctx, AssignmentFilter{ClassroomID: classroomID}, nil)
}

// ByStaff returns the assignments of a teacher.
func (svc *Service) ByStaff(ctx context.Context, staffID int) ([]Assignment, error) {
	return svc.QueryAssignments(ctx, AssignmentFilter{StaffID: staffID}, nil)
}

func (svc *Service) GetAssignment(ctx context.Context, id int) (Assignment, error) {
	var a Assignment
	err := svc.qc.Fetch(ctx, AssignmentKey(id), &a, func(ctx context.Context) (interface{}, error) {
		return svc.repo.GetAssignment(ctx, id)
	})
	return a, errors.Wrap(err, "getting assignment")
}

func (svc *Service) CreateAssignment(ctx context.Context, na NewAssignment) (Assignment, error) {
	var a Assignment
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			a, err = svc.repo.CreateAssignment(ctx, na)
			return err
		},
		Invalidate: invalidatedByAssignment,
	})
	if err != nil {
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	svc.qc.SetData(ctx, AssignmentKey(a.ID), a)
	return a, nil
}

func (svc *Service) UpdateAssignment(ctx context.Context, id int, ua UpdateAssignment) (Assignment, error) {
	var a Assignment
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			a, err = svc.repo.UpdateAssignment(ctx, id, ua)
			return err
		},
		Invalidate: invalidatedByAssignment,
	})
	if err != nil {
		return Assignment{}, errors.Wrap(err, "updating assignment")
	}
	svc.qc.SetData(ctx, AssignmentKey(id), a)
	return a, nil
}

func (svc *Service) DeleteAssignment(ctx context.Context, id int) error {
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do:         func(ctx context.Context) error { return svc.repo.DeleteAssignment(ctx, id) },
		Invalidate: invalidatedByAssignment,
	})
	return errors.Wrap(err, "deleting assignment")
}
