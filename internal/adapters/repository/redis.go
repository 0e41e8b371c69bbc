package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/monopad/internal/domain/model"
	"github.com/okian/monopad/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "monopad"
	redisPingTimeout   = 5 * time.Second
)

// RedisStore keeps each entity as a JSON string and the set of ids in an
// index set. The roster is ordered client-side.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to url and verifies the connection.
func NewRedisStore(ctx context.Context, url string, opts ...RedisOption) (*RedisStore, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	s := &RedisStore{
		client: redis.NewClient(ropts),
		prefix: defaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := s.client.Ping(pingCtx).Err(); err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return s, nil
}

func (s *RedisStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *RedisStore) entityKey(id string) string { return s.key("entity", id) }
func (s *RedisStore) indexKey() string           { return s.key("entities") }

// Get implements Store.Get.
func (s *RedisStore) Get(ctx context.Context, id string) (*model.Entity, error) {
	data, err := s.client.Get(ctx, s.entityKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entity %s: %w", id, err)
	}
	var e model.Entity
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode entity %s: %w", id, err)
	}
	return &e, nil
}

// Save implements Store.Save.
func (s *RedisStore) Save(ctx context.Context, e *model.Entity) error {
	if e == nil || strings.TrimSpace(e.ID) == "" {
		return ErrInvalidID
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entity %s: %w", e.ID, err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.entityKey(e.ID), data, 0)
		p.SAdd(ctx, s.indexKey(), e.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save entity %s: %w", e.ID, err)
	}
	s.refreshCount(ctx)
	return nil
}

// Delete implements Store.Delete.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, s.entityKey(id))
		p.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete entity %s: %w", id, err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	s.refreshCount(ctx)
	return nil
}

// Roster implements Store.Roster.
func (s *RedisStore) Roster(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	if len(ids) == 0 {
		return []Entry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.entityKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}

	out := make([]Entry, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Indexed but missing: removed between SMEMBERS and MGET.
			continue
		}
		var e model.Entity
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode entity %s: %w", ids[i], err)
		}
		out = append(out, entryOf(&e))
	}

	sort.Slice(out, func(i, j int) bool {
		return less(out[i].Rating, out[i].EntityID, out[j].Rating, out[j].EntityID)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	assignRanks(out)
	return out, nil
}

// Rank implements Store.Rank.
func (s *RedisStore) Rank(ctx context.Context, id string) (Entry, error) {
	rows, err := s.Roster(ctx, 0)
	if err != nil {
		return Entry{}, err
	}
	for _, r := range rows {
		if r.EntityID == id {
			return r, nil
		}
	}
	return Entry{}, ErrNotFound
}

// Count implements Store.Count.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count entities: %w", err)
	}
	return int(n), nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) refreshCount(ctx context.Context) {
	if n, err := s.Count(ctx); err == nil {
		metrics.UpdateEntitiesTotal(n)
	}
}
