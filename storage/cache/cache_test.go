package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/colegio/core/query"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func testStoreContract(t *testing.T, store query.Store) {
	ctx := context.Background()
	students := query.NewKey("students")
	student1 := students.With(1)
	student12 := students.With(12)
	student1Pensions := student1.With("pensions")
	parents := query.NewKey("parents")

	for _, k := range []query.Key{students, student1, student12, student1Pensions, parents} {
		require.NoError(t, store.Set(ctx, k, []byte(k.String()), time.Minute))
	}

	data, err := store.Get(ctx, student1)
	require.NoError(t, err)
	assert.Equal(t, "students:1", string(data))

	_, err = store.Get(ctx, query.NewKey("unknown"))
	assert.Equal(t, query.ErrMiss, err)

	// prefix deletion is segment-wise: students:1 must not take students:12 along
	require.NoError(t, store.DeletePrefix(ctx, student1))
	for _, k := range []query.Key{student1, student1Pensions} {
		_, err = store.Get(ctx, k)
		assert.Equal(t, query.ErrMiss, err, k.String())
	}
	for _, k := range []query.Key{students, student12, parents} {
		_, err = store.Get(ctx, k)
		assert.NoError(t, err, k.String())
	}

	require.NoError(t, store.DeletePrefix(ctx, students))
	for _, k := range []query.Key{students, student12} {
		_, err = store.Get(ctx, k)
		assert.Equal(t, query.ErrMiss, err, k.String())
	}

	require.NoError(t, store.Delete(ctx, parents))
	_, err = store.Get(ctx, parents)
	assert.Equal(t, query.ErrMiss, err)
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	store, _ := newRedisStore(t)
	testStoreContract(t, store)
}

func TestMemoryStore_expiry(t *testing.T) {
	now := time.Now()
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	ctx := context.Background()
	store := NewMemoryStore()
	key := query.NewKey("stats")
	require.NoError(t, store.Set(ctx, key, []byte("{}"), time.Minute))

	_, err := store.Get(ctx, key)
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, key)
	assert.Equal(t, query.ErrMiss, err)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_returnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := query.NewKey("roles")
	src := []byte("abc")
	require.NoError(t, store.Set(ctx, key, src, 0))
	src[0] = 'x'

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	data[1] = 'y'

	again, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestRedisStore_expiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	key := query.NewKey("stats")
	require.NoError(t, store.Set(ctx, key, []byte("{}"), time.Minute))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, key)
	assert.Equal(t, query.ErrMiss, err)
}

func Test_escapeGlob(t *testing.T) {
	assert.Equal(t, `colegio:query:a\*b\?\[c\]`, escapeGlob("colegio:query:a*b?[c]"))
}
