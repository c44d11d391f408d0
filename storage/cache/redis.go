package cache

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/query"
)

const namespace = "colegio:query:"

// RedisStore shares the query cache between gateway instances.
type RedisStore struct {
	client *redis.Client
}

var _ query.Store = (*RedisStore)(nil) // interface compliance check

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// OpenRedis connects to the configured Redis server and pings it.
func OpenRedis(ctx context.Context, conf core.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func redisKey(key query.Key) string {
	return namespace + key.String()
}

func (s *RedisStore) Get(ctx context.Context, key query.Key) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, query.ErrMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting key")
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key query.Key, data []byte, ttl time.Duration) error {
	return errors.Wrap(s.client.Set(ctx, redisKey(key), data, ttl).Err(), "setting key")
}

func (s *RedisStore) Delete(ctx context.Context, key query.Key) error {
	return errors.Wrap(s.client.Del(ctx, redisKey(key)).Err(), "deleting key")
}

func (s *RedisStore) DeletePrefix(ctx context.Context, prefix query.Key) error {
	keys := []string{redisKey(prefix)}
	iter := s.client.Scan(ctx, 0, escapeGlob(redisKey(prefix)+":")+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "scanning keys")
	}
	return errors.Wrap(s.client.Del(ctx, keys...).Err(), "deleting keys")
}

// escapeGlob escapes the redis MATCH pattern special characters.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
