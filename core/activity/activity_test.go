package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/activity"
	"github.com/trezcool/colegio/storage/database/inmem"
)

type failingRepo struct{ activity.Repository }

func (failingRepo) Add(context.Context, activity.Entry) error { return errors.New("db down") }

type recordingLogger struct {
	core.Logger
	errors []string
}

func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }

func TestService(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	activity.NowFunc = func() time.Time { return now }
	defer func() { activity.NowFunc = func() time.Time { return time.Now().UTC() } }()

	svc := activity.NewService(inmem.NewActivityRepository(), core.DiscardLogger)
	svc.Record(ctx, "admin", activity.ActionPay, "pension", 7, "Pensión marzo 2024")
	svc.Record(ctx, "admin", activity.ActionDelete, "student", 3, "Pedro Díaz")

	paged, err := svc.Query(ctx, activity.QueryFilter{Entity: "pension"}, core.Page{Number: 0, Size: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, paged.Count)
	assert.Equal(t, 1, paged.Page)
	assert.Equal(t, core.MaxPageSize, paged.PageSize)

	entries := paged.Results.([]activity.Entry)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, now, entries[0].At)
	assert.Equal(t, 7, entries[0].EntityID)
}

func TestService_Record_logsFailures(t *testing.T) {
	logger := &recordingLogger{Logger: core.DiscardLogger}
	svc := activity.NewService(failingRepo{}, logger)

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), "admin", activity.ActionCreate, "role", 1, "DOCENTE")
	})
	assert.Equal(t, []string{"recording activity"}, logger.errors)
}

func TestQueryFilter_Clean(t *testing.T) {
	qf := activity.QueryFilter{Actor: "  admin ", Entity: " Pension", Action: "PAY "}
	qf.Clean()
	assert.Equal(t, activity.QueryFilter{Actor: "admin", Entity: "pension", Action: "pay"}, qf)
}
