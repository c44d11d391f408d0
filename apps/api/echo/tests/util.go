package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/colegio/apps/api/echo"
	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/activity"
	"github.com/trezcool/colegio/core/auth"
	"github.com/trezcool/colegio/core/course"
	"github.com/trezcool/colegio/core/enrollment"
	"github.com/trezcool/colegio/core/grade"
	"github.com/trezcool/colegio/core/parent"
	"github.com/trezcool/colegio/core/pension"
	"github.com/trezcool/colegio/core/query"
	"github.com/trezcool/colegio/core/role"
	"github.com/trezcool/colegio/core/staff"
	"github.com/trezcool/colegio/core/student"
	emailsvc "github.com/trezcool/colegio/services/email"
	mediasvc "github.com/trezcool/colegio/services/media"
	"github.com/trezcool/colegio/storage/cache"
	"github.com/trezcool/colegio/storage/database/inmem"
	"github.com/trezcool/colegio/storage/restapi"
	"github.com/trezcool/colegio/tests"
)

const cookieName = "token"

var errUnauthorized = httpErr{Error: core.ErrUnauthorized.Error(), Redirect: "/login"}

type mailbox interface {
	Sent() []core.EmailMessage
}

// env is a gateway in front of a fake school API.
type env struct {
	up   *testutil.Upstream
	app  *echoapi.Server
	mail mailbox

	admin     string
	secretary string
	teacher   string
}

// setup wires the gateway to a fresh fake upstream. opts adjust the dependencies before the server is built.
func setup(t *testing.T, opts ...func(*echoapi.ServerDeps)) *env {
	up := testutil.NewUpstream(t)
	conf := &core.Config{
		AppName:  "Colegio",
		TestMode: true,
		Server:   core.ServerConfig{CookieName: cookieName},
		Mail:     core.MailConfig{DefaultFromEmail: "noreply@colegio.test", DefaultFromName: "Colegio"},
	}
	validate, translator := core.NewValidator()

	qc := query.NewClient(cache.NewMemoryStore(), time.Minute, nil)
	api := restapi.NewClient(core.APIConfig{BaseURL: up.URL, Timeout: 5 * time.Second}, auth.SessionStore{})
	mail := emailsvc.NewConsoleServiceMock(conf)

	students := student.NewService(restapi.NewStudentRepository(api), qc)
	parents := parent.NewService(restapi.NewParentRepository(api), qc)

	deps := echoapi.ServerDeps{
		Conf:           conf,
		Logger:         core.DiscardLogger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		Auth:           api,
		Students:       students,
		Parents:        parents,
		Staff:          staff.NewService(restapi.NewStaffRepository(api), qc),
		Roles:          role.NewService(restapi.NewRoleRepository(api), qc),
		Grades:         grade.NewService(restapi.NewGradeRepository(api), qc),
		Courses:        course.NewService(restapi.NewCourseRepository(api), qc),
		Pensions:       pension.NewService(restapi.NewPensionRepository(api), qc, students, parents, mail),
		Enrollments:    enrollment.NewService(restapi.NewEnrollmentRepository(api), qc, students, parents),
		Activity:       activity.NewService(inmem.NewActivityRepository(), core.DiscardLogger),
		Uploader:       mediasvc.NewUploader(core.MediaConfig{}, nil),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	app := echoapi.NewServer(deps)

	return &env{
		up:        up,
		app:       app,
		mail:      mail,
		admin:     up.Token(t, "admin", role.Admin),
		secretary: up.Token(t, "secre", role.Secretary),
		teacher:   up.Token(t, "profe", role.Teacher),
	}
}

type httpErr struct {
	Error    string            `json:"error"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// do serves one request and returns the recorder.
func (e *env) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	e.app.ServeHTTP(rec, req)
	return rec
}

func (e *env) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := e.do(method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

// decode unmarshals the response body into a generic JSON value.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
