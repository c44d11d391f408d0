package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // /debug/pprof on the debug server
	"os"

	"github.com/pkg/errors"

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
	logsvc "github.com/trezcool/colegio/services/logger"
	mediasvc "github.com/trezcool/colegio/services/media"
	"github.com/trezcool/colegio/storage/cache"
	"github.com/trezcool/colegio/storage/database"
	"github.com/trezcool/colegio/storage/database/inmem"
	"github.com/trezcool/colegio/storage/restapi"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	defer logger.Flush()
	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	ctx := context.Background()

	// query cache
	store, closeStore, err := setUpCache(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cache: %v", err), err)
	}
	defer closeStore()
	qc := query.NewClient(store, conf.Cache.StaleTime, logger)

	// activity log
	activityRepo, closeDB, err := setUpActivity(ctx, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up activity database: %v", err), err)
	}
	defer closeDB()

	// upstream API: every request forwards the token of its own session
	api := restapi.NewClient(conf.API, auth.SessionStore{})

	// services
	mailSvc := emailsvc.NewService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags), logger)
	students := student.NewService(restapi.NewStudentRepository(api), qc)
	parents := parent.NewService(restapi.NewParentRepository(api), qc)
	validate, translator := core.NewValidator()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("cache").Set(conf.Cache.Driver)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		Auth:        api,
		Sessions:    auth.NewChecker(api, store, conf.Server.SessionCheckTTL, logger),
		Students:    students,
		Parents:     parents,
		Staff:       staff.NewService(restapi.NewStaffRepository(api), qc),
		Roles:       role.NewService(restapi.NewRoleRepository(api), qc),
		Grades:      grade.NewService(restapi.NewGradeRepository(api), qc),
		Courses:     course.NewService(restapi.NewCourseRepository(api), qc),
		Pensions:    pension.NewService(restapi.NewPensionRepository(api), qc, students, parents, mailSvc),
		Enrollments: enrollment.NewService(restapi.NewEnrollmentRepository(api), qc, students, parents),
		Activity:    activity.NewService(activityRepo, logger),
		Uploader:    mediasvc.NewUploader(conf.Media, &http.Client{Timeout: conf.API.Timeout}),
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpCache(ctx context.Context, conf *core.Config) (query.Store, func(), error) {
	switch conf.Cache.Driver {
	case "", "memory":
		return cache.NewMemoryStore(), func() {}, nil
	case "redis":
		client, err := cache.OpenRedis(ctx, conf.Cache)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisStore(client), func() { _ = client.Close() }, nil
	}
	return nil, nil, errors.Errorf("unknown cache driver %q", conf.Cache.Driver)
}

// setUpActivity keeps the activity log in Postgres when a database is configured, in memory otherwise.
func setUpActivity(ctx context.Context, conf *core.Config, logger core.Logger) (activity.Repository, func(), error) {
	if !conf.Database.Enabled() {
		logger.Warn("no activity database configured: the activity log is kept in memory")
		return inmem.NewActivityRepository(), func() {}, nil
	}

	db, err := database.Open(ctx, conf.Database)
	if err != nil {
		return nil, nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("closing activity database", err)
		}
	}
	return database.NewActivityRepository(db), closeDB, nil
}
