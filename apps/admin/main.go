package main

import (
	"log"
	"os"
	"time"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/auth"
	"github.com/trezcool/colegio/core/parent"
	"github.com/trezcool/colegio/core/pension"
	"github.com/trezcool/colegio/core/query"
	"github.com/trezcool/colegio/core/student"
	emailsvc "github.com/trezcool/colegio/services/email"
	logsvc "github.com/trezcool/colegio/services/logger"
	"github.com/trezcool/colegio/storage/cache"
	"github.com/trezcool/colegio/storage/restapi"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	defer logger.Flush()

	mailSvc := emailsvc.NewService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags), logger)
	cli := newCommandLine(conf, logger, auth.FileStore{Path: auth.DefaultTokenPath()}, mailSvc)
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed: "+err.Error(), err)
		}
		logger.Flush()
		os.Exit(1)
	}
}

func newCommandLine(conf *core.Config, logger core.Logger, tokens auth.TokenStore, mailSvc core.EmailService) *commandLine {
	api := restapi.NewClient(conf.API, tokens)
	// a CLI run is short-lived: the cache only dedupes reads within one command
	qc := query.NewClient(cache.NewMemoryStore(), time.Minute, logger)
	students := student.NewService(restapi.NewStudentRepository(api), qc)
	parents := parent.NewService(restapi.NewParentRepository(api), qc)

	return &commandLine{
		conf:     conf,
		out:      os.Stdout,
		tokens:   tokens,
		auth:     api,
		students: students,
		pensions: pension.NewService(restapi.NewPensionRepository(api), qc, students, parents, mailSvc),
	}
}
