package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
)

// redisSessionStore keeps each document under <prefix>:session:<name> and
// the set of names under <prefix>:sessions.
type redisSessionStore struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionStore(client *redis.Client, prefix string) SessionStore {
	if prefix == "" {
		prefix = "whisperli"
	}
	return &redisSessionStore{client: client, prefix: prefix}
}

func (s *redisSessionStore) key(name string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, name)
}

func (s *redisSessionStore) indexKey() string {
	return s.prefix + ":sessions"
}

func (s *redisSessionStore) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session %s: %w", name, err)
	}
	return data, nil
}

func (s *redisSessionStore) Write(ctx context.Context, name string, data []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(name), data, 0)
		pipe.SAdd(ctx, s.indexKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write session %s: %w", name, err)
	}
	return nil
}

func (s *redisSessionStore) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list sessions: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, name string) (bool, error) {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(name))
		pipe.SRem(ctx, s.indexKey(), name)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis delete session %s: %w", name, err)
	}
	return del.Val() > 0, nil
}
