package auth

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
)

// TokenStore keeps the upstream API token. Clear is called when the API answers 401.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

var (
	_ TokenStore = (*MemoryStore)(nil)
	_ TokenStore = (*FileStore)(nil)
	_ TokenStore = SessionStore{}
)

// MemoryStore holds one token in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore(token string) *MemoryStore { return &MemoryStore{token: token} }

func (s *MemoryStore) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", core.ErrUnauthorized
	}
	return s.token, nil
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	return s.Save(context.Background(), "")
}

// FileStore keeps the token of the CLI in a file readable only by its owner.
type FileStore struct {
	Path string
}

// DefaultTokenPath is ~/.colegio/token.
func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".colegio", "token")
}

func (s FileStore) Token(context.Context) (string, error) {
	data, err := ioutil.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", core.ErrUnauthorized
	}
	if err != nil {
		return "", errors.Wrap(err, "reading token file")
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", core.ErrUnauthorized
	}
	return token, nil
}

func (s FileStore) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return errors.Wrap(err, "creating token dir")
	}
	return errors.Wrap(ioutil.WriteFile(s.Path, []byte(token), 0600), "writing token file")
}

func (s FileStore) Clear(context.Context) error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing token file")
	}
	return nil
}

// Session is the token of one gateway request.
type Session struct {
	mu      sync.Mutex
	token   string
	claims  Claims
	cleared bool
}

func NewSession(token string, claims Claims) *Session {
	return &Session{token: token, claims: claims}
}

func (s *Session) Claims() Claims { return s.claims }

// Cleared reports whether the API rejected the session token during the request.
func (s *Session) Cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

type sessionCtxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(*Session)
	return s, ok
}

// SessionStore reads the token of the Session carried by the request context.
type SessionStore struct{}

func (SessionStore) Token(ctx context.Context) (string, error) {
	s, ok := SessionFrom(ctx)
	if !ok {
		return "", core.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cleared || s.token == "" {
		return "", core.ErrUnauthorized
	}
	return s.token, nil
}

func (SessionStore) Save(ctx context.Context, token string) error {
	s, ok := SessionFrom(ctx)
	if !ok {
		return errors.New("no session in context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.cleared = false
	return nil
}

func (SessionStore) Clear(ctx context.Context) error {
	if s, ok := SessionFrom(ctx); ok {
		s.mu.Lock()
		s.cleared = true
		s.mu.Unlock()
	}
	return nil
}
