// Package echoapi is the admin gateway: it serves the admin screens' data as JSON.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/activity"
	"github.com/trezcool/colegio/core/auth"
	"github.com/trezcool/colegio/core/course"
	"github.com/trezcool/colegio/core/enrollment"
	"github.com/trezcool/colegio/core/grade"
	"github.com/trezcool/colegio/core/parent"
	"github.com/trezcool/colegio/core/pension"
	"github.com/trezcool/colegio/core/role"
	"github.com/trezcool/colegio/core/staff"
	"github.com/trezcool/colegio/core/student"
	mediasvc "github.com/trezcool/colegio/services/media"
)

type (
	// Authenticator exchanges credentials for an upstream API token and confirms tokens.
	Authenticator interface {
		Login(ctx context.Context, creds auth.Credentials) (string, auth.Claims, error)
		auth.Verifier
	}

	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool

		Auth        Authenticator
		Sessions    *auth.Checker // nil confirms every request upstream
		Students    *student.Service
		Parents     *parent.Service
		Staff       *staff.Service
		Roles       *role.Service
		Grades      *grade.Service
		Courses     *course.Service
		Pensions    *pension.Service
		Enrollments *enrollment.Service
		Activity    *activity.Service
		Uploader    *mediasvc.Uploader
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(conf, s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     conf.Server.AllowedOrigins,
		AllowCredentials: true,
	}))
	s.app.Use(middleware.BodyLimit("10M"))

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	sess := newSessionAPI(s.deps)
	sess.register(v1)

	authed := v1.Group("", sess.middleware)
	deps := s.deps
	registerStudentAPI(authed, deps)
	registerParentAPI(authed, deps)
	registerStaffAPI(authed, deps)
	registerRoleAPI(authed, deps)
	registerSchoolAPI(authed, deps)
	registerPensionAPI(authed, deps)
	registerEnrollmentAPI(authed, deps)
	registerStatsAPI(authed, deps)
	registerUploadAPI(authed, deps)
	registerActivityAPI(authed, deps)
}

// Start blocks serving requests. Listener failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Bienvenido a "+s.deps.Conf.AppName+"!")
}
