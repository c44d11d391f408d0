// Package database keeps the gateway's own data (the activity log) in PostgreSQL.
package database

import (
	"context"
	"embed"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/colegio/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DSN builds the connection URL of conf.
func DSN(conf core.DatabaseConfig) string {
	sslMode := "require"
	if conf.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Engine,
		User:     url.UserPassword(conf.User, conf.Password),
		Host:     conf.Address(),
		Path:     conf.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open connects to the database and waits until it answers.
func Open(ctx context.Context, conf core.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(conf.Engine, DSN(conf))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 20
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping cancelled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Migrate applies the embedded migrations.
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(db.DriverName()); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// MigrationStatus prints the state of every migration.
func MigrationStatus(db *sqlx.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(db.DriverName()); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	return errors.Wrap(goose.Status(db.DB, "migrations"), "reading migration status")
}
