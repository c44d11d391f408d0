package main

import (
	"bytes"
	"context"
	"database/sql"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/auth"
	"github.com/trezcool/colegio/core/role"
	emailsvc "github.com/trezcool/colegio/services/email"
	"github.com/trezcool/colegio/tests"
)

type cliEnv struct {
	up        *testutil.Upstream
	cli       *commandLine
	out       *bytes.Buffer
	tokenPath string
}

func setup(t *testing.T) *cliEnv {
	up := testutil.NewUpstream(t)
	conf := &core.Config{
		AppName:  "Colegio",
		TestMode: true,
		API:      core.APIConfig{BaseURL: up.URL, Timeout: 5 * time.Second},
		Mail:     core.MailConfig{DefaultFromEmail: "noreply@colegio.test", DefaultFromName: "Colegio"},
	}
	tokenPath := filepath.Join(t.TempDir(), ".colegio", "token")

	cli := newCommandLine(conf, core.DiscardLogger, auth.FileStore{Path: tokenPath}, emailsvc.NewConsoleServiceMock(conf))
	out := new(bytes.Buffer)
	cli.out = out
	return &cliEnv{up: up, cli: cli, out: out, tokenPath: tokenPath}
}

// loggedIn stores a valid token as `admin login` would.
func (e *cliEnv) loggedIn(t *testing.T) {
	require.NoError(t, auth.FileStore{Path: e.tokenPath}.Save(context.Background(), e.up.Token(t, "admin", role.Admin)))
}

func (e *cliEnv) seed(t *testing.T) {
	e.up.Seed(t, "apoderados",
		map[string]interface{}{"nombre": "Rosa", "apellido": "Díaz", "dni": "41234567", "telefono": "987654321", "correo": "rosa@colegio.test"},
	)
	e.up.Seed(t, "estudiantes",
		map[string]interface{}{"nombre": "Pedro", "apellido": "Díaz", "dni": "71234567", "genero": "M", "apoderadoId": 1},
		map[string]interface{}{"nombre": "Lucía", "apellido": "Álvarez", "dni": "72345678", "genero": "F", "apoderadoId": 1},
	)
	e.up.Seed(t, "pensiones",
		map[string]interface{}{"estudianteId": 1, "mes": 3, "anio": 2020, "monto": 300, "fechaVencimiento": "2020-03-31", "estado": "PENDIENTE"},
		map[string]interface{}{"estudianteId": 1, "mes": 4, "anio": 2099, "monto": 300, "fechaVencimiento": "2099-04-30", "estado": "PENDIENTE"},
	)
}

func (e *cliEnv) run(args ...string) error {
	e.out.Reset()
	return e.cli.run(append([]string{"admin"}, args...))
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_usage(t *testing.T) {
	e := setup(t)

	tests := []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"enroll"}, wantErr: errHelp},
		{name: "login without username", args: []string{"login"}, wantErr: errHelp},
		{name: "login unknown flag", args: []string{"login", "-user", "x"}, wantErr: errHelp},
		{name: "pensions without student", args: []string{"pensions"}, wantErr: errHelp},
		{name: "export unknown entity", args: []string{"export", "-entity", "grades", "-out", "x.xlsx"}, wantErr: errHelp},
		{name: "export without file", args: []string{"export", "-entity", "students"}, wantErr: errHelp},
		{name: "migrate unknown", args: []string{"migrate", "down"}, wantErrStr: `"down": no such migrate command`},
		{name: "migrate without database", args: []string{"migrate"}, wantErrStr: "no activity database configured (set DATABASE_HOST)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.run(tt.args...)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.EqualError(t, err, tt.wantErrStr)
			}
		})
	}
}

func Test_commandLine_login(t *testing.T) {
	e := setup(t)
	e.up.AddUser("admin", "s3cret", "Ada Admin", role.Admin)
	defer func(orig func(int) ([]byte, error)) { readPasswordFunc = orig }(readPasswordFunc)

	t.Run("bad credentials", func(t *testing.T) {
		readPasswordFunc = func(int) ([]byte, error) { return []byte("wrong"), nil }
		err := e.run("login", "-username", "admin")
		assert.EqualError(t, err, "Credenciales inválidas")
		assert.NoFileExists(t, e.tokenPath)
	})

	t.Run("password read failure", func(t *testing.T) {
		readPasswordFunc = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
		err := e.run("login", "-username", "admin")
		assert.EqualError(t, err, "reading password: not a terminal")
	})

	t.Run("empty password", func(t *testing.T) {
		readPasswordFunc = func(int) ([]byte, error) { return nil, nil }
		assert.Equal(t, errHelp, e.run("login", "-username", "admin"))
	})

	t.Run("success", func(t *testing.T) {
		readPasswordFunc = func(int) ([]byte, error) { return []byte("s3cret"), nil }
		require.NoError(t, e.run("login", "-username", " admin "))
		assert.Contains(t, e.out.String(), "Bienvenido(a), Ada Admin (ADMINISTRADOR)")

		token, err := ioutil.ReadFile(e.tokenPath)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		info, err := os.Stat(e.tokenPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("logout", func(t *testing.T) {
		require.NoError(t, e.run("logout"))
		assert.NoFileExists(t, e.tokenPath)
		assert.NoError(t, e.run("logout"), "logging out twice is fine")
	})
}

func Test_commandLine_sessionExpired(t *testing.T) {
	e := setup(t)
	e.seed(t)

	t.Run("never logged in", func(t *testing.T) {
		assert.Equal(t, errSessionExpired, e.run("students"))
	})

	t.Run("revoked token", func(t *testing.T) {
		e.loggedIn(t)
		e.up.RevokeTokens()
		assert.Equal(t, errSessionExpired, e.run("stats"))
		assert.NoFileExists(t, e.tokenPath)
	})
}

func Test_commandLine_students(t *testing.T) {
	e := setup(t)
	e.seed(t)
	e.loggedIn(t)

	require.NoError(t, e.run("students"))
	out := e.out.String()
	assert.Contains(t, out, "Lucía")
	assert.Contains(t, out, "Pedro")
	assert.Less(t, bytes.Index(e.out.Bytes(), []byte("Álvarez")), bytes.Index(e.out.Bytes(), []byte("Díaz")))
	assert.Contains(t, out, "2 estudiantes")

	require.NoError(t, e.run("students", "-search", "pedro"))
	assert.NotContains(t, e.out.String(), "Lucía")
	assert.Contains(t, e.out.String(), "1 estudiantes")
}

func Test_commandLine_pensions(t *testing.T) {
	e := setup(t)
	e.seed(t)
	e.loggedIn(t)

	require.NoError(t, e.run("pensions", "-student", "1"))
	out := e.out.String()
	assert.Contains(t, out, "marzo 2020")
	assert.Contains(t, out, "VENCIDO")
	assert.Contains(t, out, "abril 2099")
	assert.Contains(t, out, "PENDIENTE")

	require.NoError(t, e.run("stats"))
	assert.Contains(t, e.out.String(), "Estudiantes")
	assert.Contains(t, e.out.String(), "2 (2 activos)")

	require.NoError(t, e.run("remind-overdue"))
	assert.Contains(t, e.out.String(), "1 recordatorios enviados")
}

func Test_commandLine_export(t *testing.T) {
	e := setup(t)
	e.seed(t)
	e.loggedIn(t)

	for _, entity := range []string{"students", "pensions"} {
		t.Run(entity, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), entity+".xlsx")
			require.NoError(t, e.run("export", "-entity", entity, "-out", path))
			assert.Contains(t, e.out.String(), path)

			f, err := excelize.OpenFile(path)
			require.NoError(t, err)
			defer func() { _ = f.Close() }()
			rows, err := f.GetRows(f.GetSheetName(0))
			require.NoError(t, err)
			assert.Len(t, rows, 3, "header and two rows")
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	e := setup(t)
	e.cli.conf.Database = core.DatabaseConfig{Host: "localhost"}

	origOpen, origMigrate, origStatus := openDBFunc, migrateFunc, migrationStatusFunc
	defer func() { openDBFunc, migrateFunc, migrationStatusFunc = origOpen, origMigrate, origStatus }()

	var ran []string
	openDBFunc = func(context.Context, core.DatabaseConfig) (*sqlx.DB, error) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectClose()
		return sqlx.NewDb(db, "sqlmock"), nil
	}
	migrateFunc = func(*sqlx.DB) error { ran = append(ran, "up"); return nil }
	migrationStatusFunc = func(*sqlx.DB) error { ran = append(ran, "status"); return nil }

	tests := []cliTest{
		{name: "default", args: []string{"migrate"}},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, e.run(tt.args...))
		})
	}
	assert.Equal(t, []string{"up", "up", "status"}, ran)

	t.Run("unreachable database", func(t *testing.T) {
		openDBFunc = func(context.Context, core.DatabaseConfig) (*sqlx.DB, error) {
			return nil, errors.Wrap(sql.ErrConnDone, "connecting to database")
		}
		assert.EqualError(t, e.run("migrate"), "connecting to database: "+sql.ErrConnDone.Error())
	})
}
