package student_test

import (
	"context"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/grade"
	"github.com/trezcool/colegio/core/parent"
	"github.com/trezcool/colegio/core/query"
	"github.com/trezcool/colegio/core/student"
	"github.com/trezcool/colegio/storage/cache"
)

type fakeRepo struct {
	students []student.Student
	queries  int32
	failDNI  map[string]error
}

var _ student.Repository = (*fakeRepo)(nil)

func (r *fakeRepo) QueryAll(context.Context) ([]student.Student, error) {
	atomic.AddInt32(&r.queries, 1)
	return append([]student.Student(nil), r.students...), nil
}

func (r *fakeRepo) Get(_ context.Context, id int) (student.Student, error) {
	for _, s := range r.students {
		if s.ID == id {
			return s, nil
		}
	}
	return student.Student{}, core.NewAPIError(404, "Estudiante no encontrado")
}

func (r *fakeRepo) Create(_ context.Context, ns student.NewStudent) (student.Student, error) {
	if err := r.failDNI[ns.DNI]; err != nil {
		return student.Student{}, err
	}
	s := student.Student{
		ID: len(r.students) + 1, FirstName: ns.FirstName, LastName: ns.LastName, DNI: ns.DNI,
		Gender: ns.Gender, ClassroomID: ns.ClassroomID, GuardianID: ns.GuardianID, IsActive: true,
	}
	r.students = append(r.students, s)
	return s, nil
}

func (r *fakeRepo) Update(_ context.Context, id int, us student.UpdateStudent) (student.Student, error) {
	for i, s := range r.students {
		if s.ID == id {
			s.FirstName, s.LastName = us.FirstName, us.LastName
			if us.IsActive != nil {
				s.IsActive = *us.IsActive
			}
			r.students[i] = s
			return s, nil
		}
	}
	return student.Student{}, core.NewAPIError(404, "")
}

func (r *fakeRepo) Delete(_ context.Context, id int) error {
	for i, s := range r.students {
		if s.ID == id {
			r.students[i].IsActive = false
			return nil
		}
	}
	return core.NewAPIError(404, "")
}

var (
	aulaA = &grade.Classroom{ID: 1, Section: "A", Grade: &grade.Grade{Name: "1° Primaria"}}
	aulaB = &grade.Classroom{ID: 2, Section: "B", Grade: &grade.Grade{Name: "1° Primaria"}}
	rosa  = &parent.Parent{ID: 1, FirstName: "Rosa", LastName: "Díaz"}
)

func seed() []student.Student {
	return []student.Student{
		{ID: 1, FirstName: "Pedro", LastName: "Díaz", DNI: "71234567", Gender: "M", ClassroomID: 1, Classroom: aulaA, GuardianID: 1, Guardian: rosa, IsActive: true},
		{ID: 2, FirstName: "Lucía", LastName: "García", DNI: "72345678", Gender: "F", ClassroomID: 2, Classroom: aulaB, IsActive: true},
		{ID: 3, FirstName: "Ana", LastName: "Núñez", DNI: "73456789", Gender: "F", ClassroomID: 1, Classroom: aulaA, IsActive: true},
		{ID: 4, FirstName: "Óscar", LastName: "Arias", DNI: "74567890", Gender: "M", ClassroomID: 2, Classroom: aulaB, IsActive: false},
	}
}

func newService(repo *fakeRepo) (*student.Service, *query.Client, *cache.MemoryStore) {
	store := cache.NewMemoryStore()
	qc := query.NewClient(store, time.Minute, nil)
	return student.NewService(repo, qc), qc, store
}

func ids(students []student.Student) []int {
	res := make([]int, len(students))
	for i, s := range students {
		res[i] = s.ID
	}
	return res
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{students: seed()}
	svc, _, _ := newService(repo)
	bPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name      string
		filter    student.QueryFilter
		orderings string
		want      []int
	}{
		{name: "all", want: []int{1, 2, 3, 4}},
		{name: "search (accents)", filter: student.QueryFilter{Search: "nunez"}, want: []int{3}},
		{name: "search by guardian", filter: student.QueryFilter{Search: "rosa"}, want: []int{1}},
		{name: "search by classroom", filter: student.QueryFilter{Search: "primaria b"}, want: []int{2, 4}},
		{name: "classroom", filter: student.QueryFilter{ClassroomID: 1}, want: []int{1, 3}},
		{name: "gender + active", filter: student.QueryFilter{Gender: "M", IsActive: bPtr(true)}, want: []int{1}},
		{name: "ordering", orderings: "apellido", want: []int{4, 1, 2, 3}},
		{name: "ordering desc", orderings: "-nombre", want: []int{1, 4, 2, 3}},
		{name: "ordering by classroom", orderings: "aula,-id", want: []int{3, 1, 4, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Query(ctx, tt.filter, core.ParseOrdering(tt.orderings))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
	assert.EqualValues(t, 1, repo.queries, "the list is fetched once and then served from cache")
}

func TestService_mutationsInvalidateRelatedQueries(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{students: seed()}
	svc, qc, store := newService(repo)

	qc.SetData(ctx, query.Pensions, []int{1})
	qc.SetData(ctx, query.Enrollments, []int{1})
	qc.SetData(ctx, query.Roles, []int{1})
	_, err := svc.Stats(ctx)
	require.NoError(t, err)
	_, err = svc.QueryAll(ctx)
	require.NoError(t, err)

	created, err := svc.Create(ctx, student.NewStudent{FirstName: "Luis", LastName: "Paz", DNI: "75678901", Gender: "M", ClassroomID: 1, GuardianID: 1})
	require.NoError(t, err)

	for _, key := range []query.Key{query.Pensions, query.Enrollments, query.Stats.With("students"), query.Students} {
		_, err = store.Get(ctx, key)
		assert.Equal(t, query.ErrMiss, err, key.String())
	}
	_, err = store.Get(ctx, query.Roles)
	assert.NoError(t, err, "unrelated queries stay cached")

	// the detail view mirrors the server response
	var detail student.Student
	require.NoError(t, qc.Fetch(ctx, student.DetailKey(created.ID), &detail, func(context.Context) (interface{}, error) {
		return nil, errors.New("must be served from cache")
	}))
	assert.Equal(t, "Luis", detail.FirstName)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, st.Total)
}

func TestService_Update_failureKeepsCache(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{students: seed()}
	svc, _, store := newService(repo)
	_, err := svc.QueryAll(ctx)
	require.NoError(t, err)

	_, err = svc.Update(ctx, 99, student.UpdateStudent{})
	assert.True(t, core.IsNotFound(err))
	_, err = store.Get(ctx, query.Students)
	assert.NoError(t, err)
}

func TestComputeStats(t *testing.T) {
	st := student.ComputeStats(seed())
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 3, st.Active)
	assert.Equal(t, 1, st.Inactive)
	assert.Equal(t, map[string]int{"M": 1, "F": 2}, st.ByGender)
	assert.Equal(t, []student.ClassroomCount{
		{ClassroomID: 1, Classroom: "1° Primaria A", Count: 2},
		{ClassroomID: 2, Classroom: "1° Primaria B", Count: 1},
	}, st.ByClassroom)
}

func TestService_CreateMany(t *testing.T) {
	ctx := context.Background()
	rows := []student.NewStudent{
		{FirstName: "Luis", LastName: "Paz", DNI: "75678901", Gender: "M", ClassroomID: 1, GuardianID: 1},
		{FirstName: "Eva", LastName: "Paz", DNI: "76789012", Gender: "F", ClassroomID: 1, GuardianID: 1},
		{FirstName: "Raúl", LastName: "Paz", DNI: "77890123", Gender: "M", ClassroomID: 1, GuardianID: 1},
	}

	t.Run("per-row errors", func(t *testing.T) {
		repo := &fakeRepo{failDNI: map[string]error{"76789012": core.NewAPIError(409, "El DNI ya está registrado")}}
		svc, _, _ := newService(repo)

		results, err := svc.CreateMany(ctx, rows)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "Luis", results[0].Student.FirstName)
		assert.Equal(t, student.ImportResult{Row: 2, Error: "El DNI ya está registrado"}, results[1])
		assert.Equal(t, 3, results[2].Row)
		assert.Len(t, repo.students, 2)
	})

	t.Run("expired session aborts", func(t *testing.T) {
		repo := &fakeRepo{failDNI: map[string]error{"76789012": core.ErrUnauthorized}}
		svc, qc, store := newService(repo)
		qc.SetData(ctx, query.Students, []student.Student{})

		results, err := svc.CreateMany(ctx, rows)
		assert.True(t, core.IsUnauthorized(err))
		assert.Len(t, results, 1)
		_, err = store.Get(ctx, query.Students)
		assert.Equal(t, query.ErrMiss, err, "rows created before the failure are visible")
	})
}

func TestNewStudent_Validate(t *testing.T) {
	validate, translator := core.NewValidator()
	ns := student.NewStudent{
		FirstName: "  Pedro ", LastName: "Díaz", DNI: "71234567", BirthDate: core.NewDate(2015, 1, 2),
		Gender: "m", ClassroomID: 1, GuardianID: 1,
	}
	require.NoError(t, ns.Validate(validate))
	assert.Equal(t, "Pedro", ns.FirstName)
	assert.Equal(t, "M", ns.Gender)

	ns.Gender = "X"
	ns.GuardianID = 0
	ns.BirthDate = core.Date{}
	err := ns.Validate(validate)
	require.Error(t, err)
	fields := core.TranslateErrors(err.(validator.ValidationErrors), translator)
	assert.Equal(t, []string{"apoderadoId", "fechaNacimiento", "genero"}, sortedKeys(fields))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
