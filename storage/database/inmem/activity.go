// Package inmem keeps the activity log in memory when no database is configured.
package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/activity"
)

// maxEntries bounds the log; the oldest entries are dropped first.
const maxEntries = 1000

type activityRepository struct {
	mu      sync.RWMutex
	entries []activity.Entry // oldest first
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository() activity.Repository {
	return &activityRepository{}
}

func (repo *activityRepository) Add(_ context.Context, e activity.Entry) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.entries = append(repo.entries, e)
	if n := len(repo.entries); n > maxEntries {
		repo.entries = append([]activity.Entry(nil), repo.entries[n-maxEntries:]...)
	}
	return nil
}

func (repo *activityRepository) Query(_ context.Context, filter activity.QueryFilter, page core.Page) ([]activity.Entry, int, error) {
	repo.mu.RLock()
	matched := make([]activity.Entry, 0, len(repo.entries))
	for i := len(repo.entries) - 1; i >= 0; i-- { // newest first on ties
		if e := repo.entries[i]; matches(e, filter) {
			matched = append(matched, e)
		}
	}
	repo.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].At.After(matched[j].At) })
	start, end := page.Bounds(len(matched))
	return matched[start:end], len(matched), nil
}

func matches(e activity.Entry, filter activity.QueryFilter) bool {
	if filter.Actor != "" && !strings.Contains(core.Fold(e.Actor), core.Fold(filter.Actor)) {
		return false
	}
	if filter.Entity != "" && e.Entity != filter.Entity {
		return false
	}
	if filter.Action != "" && e.Action != filter.Action {
		return false
	}
	if !filter.Since.IsZero() && e.At.Before(filter.Since.Time) {
		return false
	}
	return true
}
