package restapi

import (
	"context"

	"github.com/sendgrid/rest"

	"github.com/trezcool/colegio/core/enrollment"
	"github.com/trezcool/colegio/core/pension"
)

type pensionRepository struct{ resource }

var _ pension.Repository = (*pensionRepository)(nil)

func NewPensionRepository(c *Client) pension.Repository {
	return &pensionRepository{resource{c: c, path: "/pensiones"}}
}

func (repo *pensionRepository) QueryAll(ctx context.Context) ([]pension.Pension, error) {
	var pensions []pension.Pension
	err := repo.list(ctx, &pensions)
	return pensions, err
}

func (repo *pensionRepository) QueryByStudent(ctx context.Context, studentID int) ([]pension.Pension, error) {
	var pensions []pension.Pension
	err := repo.c.Send(ctx, rest.Get, itemPath(repo.path+"/estudiante", studentID), nil, &pensions)
	return pensions, err
}

func (repo *pensionRepository) Get(ctx context.Context, id int) (pension.Pension, error) {
	var p pension.Pension
	err := repo.get(ctx, id, &p)
	return p, err
}

func (repo *pensionRepository) Create(ctx context.Context, np pension.NewPension) (pension.Pension, error) {
	var p pension.Pension
	err := repo.create(ctx, np, &p)
	return p, err
}

func (repo *pensionRepository) Update(ctx context.Context, id int, up pension.UpdatePension) (pension.Pension, error) {
	var p pension.Pension
	err := repo.update(ctx, id, up, &p)
	return p, err
}

func (repo *pensionRepository) Pay(ctx context.Context, id int, pmt pension.Payment) (pension.Pension, error) {
	var p pension.Pension
	err := repo.c.Send(ctx, rest.Patch, itemPath(repo.path, id, "pagar"), pmt, &p)
	return p, err
}

func (repo *pensionRepository) Delete(ctx context.Context, id int) error {
	return repo.delete(ctx, id)
}

type enrollmentRepository struct{ resource }

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(c *Client) enrollment.Repository {
	return &enrollmentRepository{resource{c: c, path: "/matriculas"}}
}

func (repo *enrollmentRepository) QueryAll(ctx context.Context) ([]enrollment.Enrollment, error) {
	var enrollments []enrollment.Enrollment
	err := repo.list(ctx, &enrollments)
	return enrollments, err
}

func (repo *enrollmentRepository) Get(ctx context.Context, id int) (enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	err := repo.get(ctx, id, &e)
	return e, err
}

func (repo *enrollmentRepository) Create(ctx context.Context, ne enrollment.NewEnrollment) (enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	err := repo.create(ctx, ne, &e)
	return e, err
}

func (repo *enrollmentRepository) Update(ctx context.Context, id int, ue enrollment.UpdateEnrollment) (enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	err := repo.update(ctx, id, ue, &e)
	return e, err
}

func (repo *enrollmentRepository) Delete(ctx context.Context, id int) error {
	return repo.delete(ctx, id)
}
