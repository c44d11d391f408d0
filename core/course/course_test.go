package course_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/course"
	"github.com/trezcool/colegio/core/grade"
	"github.com/trezcool/colegio/core/query"
	"github.com/trezcool/colegio/core/staff"
	"github.com/trezcool/colegio/storage/cache"
)

type fakeRepo struct {
	course.Repository
	assignments []course.Assignment
}

func (r *fakeRepo) QueryAssignments(context.Context) ([]course.Assignment, error) {
	return append([]course.Assignment(nil), r.assignments...), nil
}

func (r *fakeRepo) UpdateCourse(_ context.Context, id int, uc course.UpdateCourse) (course.Course, error) {
	return course.Course{ID: id, Name: uc.Name, IsActive: true}, nil
}

func newService() (*course.Service, *query.Client, *cache.MemoryStore) {
	carmen := &staff.Staff{ID: 1, FirstName: "Carmen", LastName: "Rojas"}
	mario := &staff.Staff{ID: 2, FirstName: "Mario", LastName: "Huamán"}
	mate := &course.Course{ID: 1, Name: "Matemática"}
	arte := &course.Course{ID: 2, Name: "Arte"}
	aulaA := &grade.Classroom{ID: 1, Section: "A", Grade: &grade.Grade{Name: "1° Primaria"}}
	aulaB := &grade.Classroom{ID: 2, Section: "B", Grade: &grade.Grade{Name: "1° Primaria"}}

	repo := &fakeRepo{assignments: []course.Assignment{
		{ID: 1, StaffID: 1, Staff: carmen, CourseID: 1, Course: mate, ClassroomID: 1, Classroom: aulaA, SchoolYear: 2024, IsActive: true},
		{ID: 2, StaffID: 2, Staff: mario, CourseID: 2, Course: arte, ClassroomID: 1, Classroom: aulaA, SchoolYear: 2024, IsActive: true},
		{ID: 3, StaffID: 1, Staff: carmen, CourseID: 1, Course: mate, ClassroomID: 2, Classroom: aulaB, SchoolYear: 2024, IsActive: true},
		{ID: 4, StaffID: 1, Staff: carmen, CourseID: 1, Course: mate, ClassroomID: 2, Classroom: aulaB, SchoolYear: 2023, IsActive: false},
	}}
	store := cache.NewMemoryStore()
	qc := query.NewClient(store, time.Minute, nil)
	return course.NewService(repo, qc), qc, store
}

func assignmentIDs(assignments []course.Assignment) []int {
	res := make([]int, len(assignments))
	for i, a := range assignments {
		res[i] = a.ID
	}
	return res
}

func TestService_assignments(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService()

	got, err := svc.ByClassroom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, assignmentIDs(got))

	got, err = svc.ByStaff(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4}, assignmentIDs(got))

	got, err = svc.QueryAssignments(ctx, course.AssignmentFilter{Search: "rojas", SchoolYear: 2024}, core.ParseOrdering("-aula"))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, assignmentIDs(got))

	got, err = svc.QueryAssignments(ctx, course.AssignmentFilter{}, core.ParseOrdering("curso,id"))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 3, 4}, assignmentIDs(got))
}

func TestService_courseMutationInvalidatesAssignments(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newService()
	_, err := svc.QueryAllAssignments(ctx)
	require.NoError(t, err)

	_, err = svc.UpdateCourse(ctx, 1, course.UpdateCourse{NewCourse: course.NewCourse{Name: "Matemáticas"}})
	require.NoError(t, err)
	_, err = store.Get(ctx, query.Assignments)
	assert.Equal(t, query.ErrMiss, err)

	data, err := store.Get(ctx, course.CourseKey(1))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Matemáticas")
}
