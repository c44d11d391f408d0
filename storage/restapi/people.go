package restapi

import (
	"context"

	"github.com/trezcool/colegio/core/parent"
	"github.com/trezcool/colegio/core/role"
	"github.com/trezcool/colegio/core/staff"
	"github.com/trezcool/colegio/core/student"
)

type studentRepository struct{ resource }

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(c *Client) student.Repository {
	return &studentRepository{resource{c: c, path: "/estudiantes"}}
}

func (repo *studentRepository) QueryAll(ctx context.Context) ([]student.Student, error) {
	var students []student.Student
	err := repo.list(ctx, &students)
	return students, err
}

func (repo *studentRepository) Get(ctx context.Context, id int) (student.Student, error) {
	var s student.Student
	err := repo.get(ctx, id, &s)
	return s, err
}

func (repo *studentRepository) Create(ctx context.Context, ns student.NewStudent) (student.Student, error) {
	var s student.Student
	err := repo.create(ctx, ns, &s)
	return s, err
}

func (repo *studentRepository) Update(ctx context.Context, id int, us student.UpdateStudent) (student.Student, error) {
	var s student.Student
	err := repo.update(ctx, id, us, &s)
	return s, err
}

func (repo *studentRepository) Delete(ctx context.Context, id int) error {
	return repo.delete(ctx, id)
}

type parentRepository struct{ resource }

var _ parent.Repository = (*parentRepository)(nil)

func NewParentRepository(c *Client) parent.Repository {
	return &parentRepository{resource{c: c, path: "/apoderados"}}
}

func (repo *parentRepository) QueryAll(ctx context.Context) ([]parent.Parent, error) {
	var parents []parent.Parent
	err := repo.list(ctx, &parents)
	return parents, err
}

func (repo *parentRepository) Get(ctx context.Context, id int) (parent.Parent, error) {
	var p parent.Parent
	err := repo.get(ctx, id, &p)
	return p, err
}

func (repo *parentRepository) Create(ctx context.Context, np parent.NewParent) (parent.Parent, error) {
	var p parent.Parent
	err := repo.create(ctx, np, &p)
	return p, err
}

func (repo *parentRepository) Update(ctx context.Context, id int, up parent.UpdateParent) (parent.Parent, error) {
	var p parent.Parent
	err := repo.update(ctx, id, up, &p)
	return p, err
}

func (repo *parentRepository) Delete(ctx context.Context, id int) error {
	return repo.delete(ctx, id)
}

type staffRepository struct{ resource }

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(c *Client) staff.Repository {
	return &staffRepository{resource{c: c, path: "/trabajadores"}}
}

func (repo *staffRepository) QueryAll(ctx context.Context) ([]staff.Staff, error) {
	var members []staff.Staff
	err := repo.list(ctx, &members)
	return members, err
}

func (repo *staffRepository) Get(ctx context.Context, id int) (staff.Staff, error) {
	var s staff.Staff
	err := repo.get(ctx, id, &s)
	return s, err
}

func (repo *staffRepository) Create(ctx context.Context, ns staff.NewStaff) (staff.Staff, error) {
	var s staff.Staff
	err := repo.create(ctx, ns, &s)
	return s, err
}

func (repo *staffRepository) Update(ctx context.Context, id int, us staff.UpdateStaff) (staff.Staff, error) {
	var s staff.Staff
	err := repo.update(ctx, id, us, &s)
	return s, err
}

func (repo *staffRepository) Delete(ctx context.Context, id int) error {
	return repo.delete(ctx, id)
}

type roleRepository struct{ resource }

var _ role.Repository = (*roleRepository)(nil)

func NewRoleRepository(c *Client) role.Repository {
	return &roleRepository{resource{c: c, path: "/roles"}}
}

func (repo *roleRepository) QueryAll(ctx context.Context) ([]role.Role, error) {
	var roles []role.Role
	err := repo.list(ctx, &roles)
	return roles, err
}

func (repo *roleRepository) Get(ctx context.Context, id int) (role.Role, error) {
	var r role.Role
	err := repo.get(ctx, id, &r)
	return r, err
}

func (repo *roleRepository) Create(ctx context.Context, nr role.NewRole) (role.Role, error) {
	var r role.Role
	err := repo.create(ctx, nr, &r)
	return r, err
}

func (repo *roleRepository) Update(ctx context.Context, id int, ur role.UpdateRole) (role.Role, error) {
	var r role.Role
	err := repo.update(ctx, id, ur, &r)
	return r, err
}

func (repo *roleRepository) Delete(ctx context.Context, id int) error {
	return repo.delete(ctx, id)
}
