// Package query caches the results of upstream reads under Keys and keeps them
// consistent with mutations: concurrent reads of a key share one upstream call,
// mutations invalidate every related key and may apply optimistic entries that
// are rolled back when the mutation fails.
package query

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/trezcool/colegio/core"
)

type scopeKey struct{}

// WithScope tags ctx with the identity fetches run on behalf of (the session's subject).
// Concurrent fetches of the same key are only shared within a scope, so one user's
// expired token never fails another user's read.
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

func scopeFrom(ctx context.Context) string {
	scope, _ := ctx.Value(scopeKey{}).(string)
	return scope
}

// FetchFunc loads a query result from the upstream API.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Update is an optimistic cache entry.
type Update struct {
	Key   Key
	Value interface{}
}

// Mutation describes a server write and its effects on the cache.
type Mutation struct {
	Optimistic []Update
	Do         func(ctx context.Context) error
	Invalidate []Key
}

type snapshot struct {
	key    Key
	data   []byte
	cached bool
}

type Client struct {
	store     Store
	staleTime time.Duration
	logger    core.Logger
	group     singleflight.Group

	mu  sync.Mutex // orders cache writes against invalidations
	gen uint64     // bumped by every invalidation
}

func NewClient(store Store, staleTime time.Duration, logger core.Logger) *Client {
	if logger == nil {
		logger = core.DiscardLogger
	}
	return &Client{store: store, staleTime: staleTime, logger: logger}
}

// Fetch decodes the cached result of key into dst, or runs fetch and caches its result.
// Errors from fetch are returned untouched and never cached.
func (c *Client) Fetch(ctx context.Context, key Key, dst interface{}, fetch FetchFunc) error {
	data, err := c.store.Get(ctx, key)
	if err == nil {
		if err = json.Unmarshal(data, dst); err == nil {
			return nil
		}
		c.logger.Warn("query: dropping undecodable cache entry "+key.String(), err)
		_ = c.store.Delete(ctx, key)
	} else if err != ErrMiss {
		c.logger.Warn("query: cache read failed for "+key.String(), err)
	}

	gen := atomic.LoadUint64(&c.gen)
	flightKey := scopeFrom(ctx) + "|" + key.String() + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := c.group.Do(flightKey, func() (interface{}, error) {
		res, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(res)
		if err != nil {
			return nil, errors.Wrap(err, "encoding query result")
		}
		c.write(ctx, key, data, gen)
		return data, nil
	})
	if err != nil {
		return err
	}
	return errors.Wrap(json.Unmarshal(v.([]byte), dst), "decoding query result")
}

// write caches data unless an invalidation happened since the fetch started.
func (c *Client) write(ctx context.Context, key Key, data []byte, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if atomic.LoadUint64(&c.gen) != gen {
		return // stale: a mutation landed while fetching
	}
	if err := c.store.Set(ctx, key, data, c.staleTime); err != nil {
		c.logger.Warn("query: cache write failed for "+key.String(), err)
	}
}

// SetData mirrors value (usually a server response) into the cache under key.
func (c *Client) SetData(ctx context.Context, key Key, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("query: encoding data for "+key.String(), err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err = c.store.Set(ctx, key, data, c.staleTime); err != nil {
		c.logger.Warn("query: cache write failed for "+key.String(), err)
	}
}

// Invalidate drops every cached entry under any of prefixes.
func (c *Client) Invalidate(ctx context.Context, prefixes ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	atomic.AddUint64(&c.gen, 1)
	for _, prefix := range prefixes {
		if err := c.store.DeletePrefix(ctx, prefix); err != nil {
			c.logger.Error("query: invalidating "+prefix.String(), err)
		}
	}
}

// Mutate applies the optimistic entries, runs the mutation and then either rolls
// the optimistic entries back (on error) or invalidates the related keys.
func (c *Client) Mutate(ctx context.Context, m Mutation) error {
	snapshots := make([]snapshot, 0, len(m.Optimistic))
	for _, upd := range m.Optimistic {
		prev, err := c.store.Get(ctx, upd.Key)
		snapshots = append(snapshots, snapshot{key: upd.Key, data: prev, cached: err == nil})
		c.SetData(ctx, upd.Key, upd.Value)
	}

	if err := m.Do(ctx); err != nil {
		c.rollback(ctx, snapshots)
		return err
	}
	c.Invalidate(ctx, m.Invalidate...)
	return nil
}

func (c *Client) rollback(ctx context.Context, snapshots []snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		var err error
		if snap.cached {
			err = c.store.Set(ctx, snap.key, snap.data, c.staleTime)
		} else {
			err = c.store.Delete(ctx, snap.key)
		}
		if err != nil {
			c.logger.Error("query: rolling back "+snap.key.String(), err)
		}
	}
}
