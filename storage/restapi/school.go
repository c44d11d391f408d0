package restapi

import (
	"context"

	"github.com/trezcool/colegio/core/course"
	"github.com/trezcool/colegio/core/grade"
)

type gradeRepository struct {
	grades     resource
	classrooms resource
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(c *Client) grade.Repository {
	return &gradeRepository{
		grades:     resource{c: c, path: "/grados"},
		classrooms: resource{c: c, path: "/aulas"},
	}
}

func (repo *gradeRepository) QueryGrades(ctx context.Context) ([]grade.Grade, error) {
	var grades []grade.Grade
	err := repo.grades.list(ctx, &grades)
	return grades, err
}

func (repo *gradeRepository) GetGrade(ctx context.Context, id int) (grade.Grade, error) {
	var g grade.Grade
	err := repo.grades.get(ctx, id, &g)
	return g, err
}

func (repo *gradeRepository) CreateGrade(ctx context.Context, ng grade.NewGrade) (grade.Grade, error) {
	var g grade.Grade
	err := repo.grades.create(ctx, ng, &g)
	return g, err
}

func (repo *gradeRepository) UpdateGrade(ctx context.Context, id int, ug grade.UpdateGrade) (grade.Grade, error) {
	var g grade.Grade
	err := repo.grades.update(ctx, id, ug, &g)
	return g, err
}

func (repo *gradeRepository) DeleteGrade(ctx context.Context, id int) error {
	return repo.grades.delete(ctx, id)
}

func (repo *gradeRepository) QueryClassrooms(ctx context.Context) ([]grade.Classroom, error) {
	var classrooms []grade.Classroom
	err := repo.classrooms.list(ctx, &classrooms)
	return classrooms, err
}

func (repo *gradeRepository) GetClassroom(ctx context.Context, id int) (grade.Classroom, error) {
	var c grade.Classroom
	err := repo.classrooms.get(ctx, id, &c)
	return c, err
}

func (repo *gradeRepository) CreateClassroom(ctx context.Context, nc grade.NewClassroom) (grade.Classroom, error) {
	var c grade.Classroom
	err := repo.classrooms.create(ctx, nc, &c)
	return c, err
}

func (repo *gradeRepository) UpdateClassroom(ctx context.Context, id int, uc grade.UpdateClassroom) (grade.Classroom, error) {
	var c grade.Classroom
	err := repo.classrooms.update(ctx, id, uc, &c)
	return c, err
}

func (repo *gradeRepository) DeleteClassroom(ctx context.Context, id int) error {
	return repo.classrooms.delete(ctx, id)
}

type courseRepository struct {
	courses     resource
	assignments resource
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(c *Client) course.Repository {
	return &courseRepository{
		courses:     resource{c: c, path: "/cursos"},
		assignments: resource{c: c, path: "/asignaciones"},
	}
}

func (repo *courseRepository) QueryCourses(ctx context.Context) ([]course.Course, error) {
	var courses []course.Course
	err := repo.courses.list(ctx, &courses)
	return courses, err
}

func (repo *courseRepository) GetCourse(ctx context.Context, id int) (course.Course, error) {
	var c course.Course
	err := repo.courses.get(ctx, id, &c)
	return c, err
}

func (repo *courseRepository) CreateCourse(ctx context.Context, nc course.NewCourse) (course.Course, error) {
	var c course.Course
	err := repo.courses.create(ctx, nc, &c)
	return c, err
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, id int, uc course.UpdateCourse) (course.Course, error) {
	var c course.Course
	err := repo.courses.update(ctx, id, uc, &c)
	return c, err
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id int) error {
	return repo.courses.delete(ctx, id)
}

func (repo *courseRepository) QueryAssignments(ctx context.Context) ([]course.Assignment, error) {
	var assignments []course.Assignment
	err := repo.assignments.list(ctx, &assignments)
	return assignments, err
}

func (repo *courseRepository) GetAssignment(ctx context.Context, id int) (course.Assignment, error) {
	var a course.Assignment
	err := repo.assignments.get(ctx, id, &a)
	return a, err
}

func (repo *courseRepository) CreateAssignment(ctx context.Context, na course.NewAssignment) (course.Assignment, error) {
	var a course.Assignment
	err := repo.assignments.create(ctx, na, &a)
	return a, err
}

func (repo *courseRepository) UpdateAssignment(ctx context.Context, id int, ua course.UpdateAssignment) (course.Assignment, error) {
	var a course.Assignment
	err := repo.assignments.update(ctx, id, ua, &a)
	return a, err
}

func (repo *courseRepository) DeleteAssignment(ctx context.Context, id int) error {
	return repo.assignments.delete(ctx, id)
}
