package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/colegio/core"
)

func signToken(t *testing.T, claims Claims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return token
}

func TestParseToken(t *testing.T) {
	now := time.Now()
	valid := signToken(t, Claims{
		StandardClaims: jwt.StandardClaims{Subject: "7", ExpiresAt: now.Add(time.Hour).Unix()},
		Username:       "secretaria01",
		Role:           "SECRETARIA",
	})
	expired := signToken(t, Claims{
		StandardClaims: jwt.StandardClaims{Subject: "7", ExpiresAt: now.Add(-time.Minute).Unix()},
	})
	noExpiry := signToken(t, Claims{StandardClaims: jwt.StandardClaims{Subject: "8"}})

	tests := []struct {
		name    string
		token   string
		wantSub string
		wantErr bool
	}{
		{name: "empty", token: " ", wantErr: true},
		{name: "garbage", token: "not.a.jwt", wantErr: true},
		{name: "expired", token: expired, wantErr: true},
		{name: "valid", token: valid, wantSub: "7"},
		{name: "no expiry", token: noExpiry, wantSub: "8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(tt.token)
			if tt.wantErr {
				assert.True(t, core.IsUnauthorized(err), "err = %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, claims.Subject)
		})
	}
}

func TestClaims_HasAnyRole(t *testing.T) {
	c := Claims{Role: "Secretaría"}
	assert.True(t, c.HasAnyRole())
	assert.True(t, c.HasAnyRole("ADMINISTRADOR", "SECRETARIA"))
	assert.False(t, c.HasAnyRole("ADMINISTRADOR"))
	assert.Equal(t, "", Claims{}.DisplayName())
	assert.Equal(t, "ana", Claims{Username: "ana"}.DisplayName())
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := FileStore{Path: filepath.Join(t.TempDir(), "nested", "token")}

	_, err := store.Token(ctx)
	assert.Equal(t, core.ErrUnauthorized, err)

	require.NoError(t, store.Save(ctx, "abc\n"))
	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clearing twice is fine")
	_, err = store.Token(ctx)
	assert.Equal(t, core.ErrUnauthorized, err)
}

func TestSessionStore(t *testing.T) {
	var store SessionStore
	_, err := store.Token(context.Background())
	assert.Equal(t, core.ErrUnauthorized, err)

	sess := NewSession("tok", Claims{Username: "ana"})
	ctx := WithSession(context.Background(), sess)
	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, store.Clear(ctx))
	assert.True(t, sess.Cleared())
	_, err = store.Token(ctx)
	assert.Equal(t, core.ErrUnauthorized, err)
}
