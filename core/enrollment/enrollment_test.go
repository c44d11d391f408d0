package enrollment_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/enrollment"
	"github.com/trezcool/colegio/core/parent"
	"github.com/trezcool/colegio/core/query"
	"github.com/trezcool/colegio/core/student"
	"github.com/trezcool/colegio/storage/cache"
)

type enrollmentRepo struct {
	enrollment.Repository
	created []enrollment.NewEnrollment
	err     error
}

func (r *enrollmentRepo) Create(_ context.Context, ne enrollment.NewEnrollment) (enrollment.Enrollment, error) {
	if r.err != nil {
		return enrollment.Enrollment{}, r.err
	}
	r.created = append(r.created, ne)
	return enrollment.Enrollment{
		ID: len(r.created), StudentID: ne.StudentID, GuardianID: ne.GuardianID, ClassroomID: ne.ClassroomID,
		SchoolYear: ne.SchoolYear, Status: enrollment.StatusPending, IsActive: true,
	}, nil
}

type studentRepo struct {
	student.Repository
	created []student.NewStudent
	err     error
}

func (r *studentRepo) Create(_ context.Context, ns student.NewStudent) (student.Student, error) {
	if r.err != nil {
		return student.Student{}, r.err
	}
	r.created = append(r.created, ns)
	return student.Student{ID: 100 + len(r.created), FirstName: ns.FirstName, GuardianID: ns.GuardianID, ClassroomID: ns.ClassroomID}, nil
}

type parentRepo struct {
	parent.Repository
	created []parent.NewParent
}

func (r *parentRepo) Create(_ context.Context, np parent.NewParent) (parent.Parent, error) {
	r.created = append(r.created, np)
	return parent.Parent{ID: 50 + len(r.created), FirstName: np.FirstName, DNI: np.DNI}, nil
}

type fixture struct {
	svc      *enrollment.Service
	repo     *enrollmentRepo
	students *studentRepo
	parents  *parentRepo
	qc       *query.Client
	store    *cache.MemoryStore
}

func setup() fixture {
	store := cache.NewMemoryStore()
	qc := query.NewClient(store, time.Minute, nil)
	f := fixture{repo: new(enrollmentRepo), students: new(studentRepo), parents: new(parentRepo), qc: qc, store: store}
	f.svc = enrollment.NewService(f.repo, qc, student.NewService(f.students, qc), parent.NewService(f.parents, qc))
	return f
}

func wizard() enrollment.Wizard {
	return enrollment.Wizard{
		Guardian: &parent.NewParent{FirstName: "Rosa", LastName: "Díaz", DNI: "41234567", Phone: "987654321"},
		Student: student.NewStudent{
			FirstName: "Pedro", LastName: "Díaz", DNI: "71234567", BirthDate: core.NewDate(2015, 5, 4), Gender: "M",
		},
		Enrollment: enrollment.NewEnrollment{GradeID: 1, ClassroomID: 3, SchoolYear: 2024, Amount: 200},
	}
}

func TestService_Enroll(t *testing.T) {
	ctx := context.Background()

	t.Run("new guardian", func(t *testing.T) {
		f := setup()
		f.qc.SetData(ctx, query.Parents, []parent.Parent{})
		f.qc.SetData(ctx, query.Pensions, []int{})

		res, err := f.svc.Enroll(ctx, wizard())
		require.NoError(t, err)
		require.NotNil(t, res.Guardian)
		require.NotNil(t, res.Student)
		require.NotNil(t, res.Enrollment)

		assert.Equal(t, 51, f.students.created[0].GuardianID)
		assert.Equal(t, enrollment.NewEnrollment{
			StudentID: 101, GuardianID: 51, GradeID: 1, ClassroomID: 3, SchoolYear: 2024, Amount: 200,
		}, f.repo.created[0])

		for _, key := range []query.Key{query.Parents, query.Pensions} {
			_, err = f.store.Get(ctx, key)
			assert.Equal(t, query.ErrMiss, err, key.String())
		}
	})

	t.Run("existing guardian", func(t *testing.T) {
		f := setup()
		w := wizard()
		w.Guardian = nil
		w.GuardianID = 7

		res, err := f.svc.Enroll(ctx, w)
		require.NoError(t, err)
		assert.Nil(t, res.Guardian)
		assert.Empty(t, f.parents.created)
		assert.Equal(t, 7, res.Student.GuardianID)
		assert.Equal(t, 7, res.Enrollment.GuardianID)
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		f := setup()
		f.students.err = core.NewAPIError(409, "El DNI ya está registrado")
		f.qc.SetData(ctx, query.Students, []student.Student{})

		res, err := f.svc.Enroll(ctx, wizard())
		require.Error(t, err)
		assert.Equal(t, "El DNI ya está registrado", errors.Cause(err).Error())
		require.NotNil(t, res.Guardian, "the guardian created before the failure is kept")
		assert.Nil(t, res.Student)
		assert.Nil(t, res.Enrollment)
		assert.Empty(t, f.repo.created)

		_, err = f.store.Get(ctx, query.Students)
		assert.Equal(t, query.ErrMiss, err, "creating the guardian invalidated the students")
	})
}

func TestWizard_Validate(t *testing.T) {
	validate, translator := core.NewValidator()

	w := wizard()
	require.NoError(t, w.Validate(validate))
	assert.Equal(t, 3, w.Student.ClassroomID, "the student goes to the enrollment's classroom")
	assert.False(t, w.Enrollment.Date.IsZero())

	w = enrollment.Wizard{Guardian: &parent.NewParent{FirstName: "Rosa"}}
	err := w.Validate(validate)
	require.Error(t, err)
	fields := core.TranslateErrors(err.(validator.ValidationErrors), translator)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"apoderado.apellido", "apoderado.dni", "apoderado.telefono",
		"estudiante.apellido", "estudiante.aulaId", "estudiante.dni", "estudiante.fechaNacimiento", "estudiante.genero", "estudiante.nombre",
		"matricula.aulaId", "matricula.gradoId",
	}, keys)

	w = enrollment.Wizard{}
	err = w.Validate(validate)
	require.Error(t, err)
	fields = core.TranslateErrors(err.(validator.ValidationErrors), translator)
	assert.Equal(t, "este campo es obligatorio", fields["apoderadoId"])
}
