package storage

import (
	"context"
	"errors"
	"sort"
	"strings"

	"herald/internal/config"

	"github.com/redis/go-redis/v9"
)

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

type RedisStore struct {
	client    *redis.Client
	namespace string
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisStore{client: client, namespace: cfg.Namespace}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	value, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.client.Set(ctx, s.namespace+key, value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	removed, err := s.client.Del(ctx, s.namespace+key).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})
	iter := s.client.Scan(ctx, 0, s.scanPattern(prefix), 100).Iterator()
	for iter.Next(ctx) {
		key, ok := s.trimKey(iter.Val(), prefix)
		if !ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// scanPattern matches every namespaced key starting with prefix. Glob
// metacharacters in the namespace or prefix match literally.
func (s *RedisStore) scanPattern(prefix string) string {
	return globEscaper.Replace(s.namespace+prefix) + "*"
}

// trimKey strips the namespace from a scanned key and reports whether the
// key falls under prefix.
func (s *RedisStore) trimKey(raw, prefix string) (string, bool) {
	key, ok := strings.CutPrefix(raw, s.namespace)
	if !ok || !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return key, true
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
