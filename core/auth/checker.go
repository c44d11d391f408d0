package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/query"
)

var sessionsKey = query.NewKey("sessions")

// Verifier asks the API whether it still accepts a token.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// Checker confirms session tokens with the API before anything (cached or not) is served.
// Confirmed tokens are remembered by hash for ttl; a zero ttl confirms every request.
type Checker struct {
	verifier Verifier
	store    query.Store
	ttl      time.Duration
	logger   core.Logger
	group    singleflight.Group
}

func NewChecker(verifier Verifier, store query.Store, ttl time.Duration, logger core.Logger) *Checker {
	if logger == nil {
		logger = core.DiscardLogger
	}
	if store == nil {
		ttl = 0
	}
	return &Checker{verifier: verifier, store: store, ttl: ttl, logger: logger}
}

func sessionKey(token string) query.Key {
	sum := sha256.Sum256([]byte(token))
	return sessionsKey.With(hex.EncodeToString(sum[:]))
}

// Check returns core.ErrUnauthorized when the API rejects token.
func (c *Checker) Check(ctx context.Context, token string) error {
	if token == "" {
		return core.ErrUnauthorized
	}
	key := sessionKey(token)
	if c.ttl > 0 {
		if _, err := c.store.Get(ctx, key); err == nil {
			return nil
		} else if err != query.ErrMiss {
			c.logger.Warn("auth: session cache read failed", err)
		}
	}

	_, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		if err := c.verifier.Verify(ctx, token); err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			if err := c.store.Set(ctx, key, []byte("1"), c.ttl); err != nil {
				c.logger.Warn("auth: session cache write failed", err)
			}
		}
		return nil, nil
	})
	return err
}

// Forget drops the confirmation of token, so its next request asks the API again.
func (c *Checker) Forget(ctx context.Context, token string) {
	if c.ttl <= 0 || token == "" {
		return
	}
	if err := c.store.Delete(ctx, sessionKey(token)); err != nil {
		c.logger.Warn("auth: session cache delete failed", err)
	}
}
