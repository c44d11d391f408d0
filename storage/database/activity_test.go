package database_test

import (
	"context"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/activity"
	"github.com/trezcool/colegio/storage/database"
)

func newMock(t *testing.T) (activity.Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return database.NewActivityRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestActivityRepository_Add(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activity (id, at, actor, action, entity, entity_id, summary)")).
		WithArgs("0b6f", at, "admin", activity.ActionPay, "pension", 7, "Pensión marzo 2024").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Add(context.Background(), activity.Entry{
		ID: "0b6f", At: at, Actor: "admin", Action: activity.ActionPay,
		Entity: "pension", EntityID: 7, Summary: "Pensión marzo 2024",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepository_Query(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	since := core.NewDate(2024, 3, 1)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM activity WHERE actor ILIKE $1 AND entity = $2 AND at >= $3")).
		WithArgs("%admin%", "pension", since.Time).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("FROM activity WHERE actor ILIKE $1 AND entity = $2 AND at >= $3 ORDER BY at DESC LIMIT $4 OFFSET $5")).
		WithArgs("%admin%", "pension", since.Time, 5, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "at", "actor", "action", "entity", "entity_id", "summary"}).
			AddRow("a1", at, "admin", "pay", "pension", 7, "Pensión marzo 2024"))

	entries, count, err := repo.Query(context.Background(),
		activity.QueryFilter{Actor: "admin", Entity: "pension", Since: since},
		core.Page{Number: 2, Size: 5},
	)
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	require.Len(t, entries, 1)
	assert.Equal(t, "a1", entries[0].ID)
	assert.Equal(t, 7, entries[0].EntityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepository_Query_noFilter(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM activity")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM activity ORDER BY at DESC LIMIT $1 OFFSET $2")).
		WithArgs(core.DefaultPageSize, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "at", "actor", "action", "entity", "entity_id", "summary"}))

	entries, count, err := repo.Query(context.Background(), activity.QueryFilter{}, core.Page{})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepository_Query_hugePage(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM activity")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM activity ORDER BY at DESC LIMIT $1 OFFSET $2")).
		WithArgs(3, math.MaxInt).
		WillReturnRows(sqlmock.NewRows([]string{"id", "at", "actor", "action", "entity", "entity_id", "summary"}))

	entries, count, err := repo.Query(context.Background(), activity.QueryFilter{}, core.Page{Number: math.MaxInt/2 + 2, Size: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	dsn := database.DSN(core.DatabaseConfig{
		Engine: "postgres", Host: "db", Port: "5432", Name: "colegio",
		User: "colegio", Password: "secret", DisableTLS: true,
	})
	assert.Equal(t, "postgres://colegio:secret@db:5432/colegio?sslmode=disable&timezone=utc", dsn)
}
