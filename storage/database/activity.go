package database

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/activity"
)

const activityColumns = "id, at, actor, action, entity, entity_id, summary"

type activityRepository struct {
	db *sqlx.DB
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository(db *sqlx.DB) activity.Repository {
	return &activityRepository{db: db}
}

func (repo *activityRepository) Add(ctx context.Context, e activity.Entry) error {
	q := `INSERT INTO activity (` + activityColumns + `)
		VALUES (:id, :at, :actor, :action, :entity, :entity_id, :summary)`
	if _, err := repo.db.NamedExecContext(ctx, q, e); err != nil {
		return errors.Wrap(err, "inserting activity")
	}
	return nil
}

func (repo *activityRepository) Query(ctx context.Context, filter activity.QueryFilter, page core.Page) ([]activity.Entry, int, error) {
	page.Clean()
	where, args := activityWhere(filter)

	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind("SELECT COUNT(*) FROM activity"+where), args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting activity")
	}

	q := repo.db.Rebind("SELECT " + activityColumns + " FROM activity" + where + " ORDER BY at DESC LIMIT ? OFFSET ?")
	args = append(args, page.Size, page.Offset())
	entries := make([]activity.Entry, 0, page.Size)
	if err := repo.db.SelectContext(ctx, &entries, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "selecting activity")
	}
	return entries, count, nil
}

func activityWhere(filter activity.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Actor != "" {
		conds = append(conds, "actor ILIKE ?")
		args = append(args, "%"+filter.Actor+"%")
	}
	if filter.Entity != "" {
		conds = append(conds, "entity = ?")
		args = append(args, filter.Entity)
	}
	if filter.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, filter.Action)
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "at >= ?")
		args = append(args, filter.Since.Time)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
