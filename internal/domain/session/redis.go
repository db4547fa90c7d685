package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lungscreen/lungscreen/internal/domain/risk"
)

const redisKeyPrefix = "session:"

// RedisStore keeps each session under session:<id> and each prediction slot
// under session:<id>:prediction:<kind>, all expiring with the session.
type RedisStore struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client, defaultTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, defaultTTL: defaultTTL}
}

func sessionKey(id uuid.UUID) string {
	return redisKeyPrefix + id.String()
}

func predictionKey(id uuid.UUID, kind risk.Source) string {
	return redisKeyPrefix + id.String() + ":prediction:" + string(kind)
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	ttl := r.defaultTTL
	if !s.ExpiresAt.IsZero() {
		ttl = time.Until(s.ExpiresAt)
		if ttl <= 0 {
			return fmt.Errorf("session already expired")
		}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.client.Set(ctx, sessionKey(s.ID), data, ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	return r.client.Del(ctx,
		sessionKey(id),
		predictionKey(id, risk.SourceTabular),
		predictionKey(id, risk.SourceImage),
	).Err()
}

func (r *RedisStore) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		n      int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("scan sessions: %w", err)
		}
		for _, k := range keys {
			if !strings.Contains(k, ":prediction:") {
				n++
			}
		}
		if next == 0 {
			return n, nil
		}
		cursor = next
	}
}

// remainingTTL returns the session's remaining lifetime. Zero means no expiry.
func (r *RedisStore) remainingTTL(ctx context.Context, id uuid.UUID) (time.Duration, error) {
	ttl, err := r.client.PTTL(ctx, sessionKey(id)).Result()
	if err != nil {
		return 0, fmt.Errorf("session ttl: %w", err)
	}
	switch {
	case ttl == -2*time.Nanosecond || ttl == -2*time.Millisecond:
		return 0, ErrSessionNotFound
	case ttl < 0:
		return 0, nil
	}
	return ttl, nil
}

func (r *RedisStore) SavePrediction(ctx context.Context, id uuid.UUID, kind risk.Source, p *StoredPrediction) error {
	if err := validKind(kind); err != nil {
		return err
	}
	ttl, err := r.remainingTTL(ctx, id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}
	return r.client.Set(ctx, predictionKey(id, kind), data, ttl).Err()
}

func (r *RedisStore) ClearPrediction(ctx context.Context, id uuid.UUID, kind risk.Source) error {
	if err := validKind(kind); err != nil {
		return err
	}
	if _, err := r.remainingTTL(ctx, id); err != nil {
		return err
	}
	return r.client.Del(ctx, predictionKey(id, kind)).Err()
}

func (r *RedisStore) Predictions(ctx context.Context, id uuid.UUID) (PredictionRecord, error) {
	if _, err := r.remainingTTL(ctx, id); err != nil {
		return PredictionRecord{}, err
	}
	vals, err := r.client.MGet(ctx,
		predictionKey(id, risk.SourceTabular),
		predictionKey(id, risk.SourceImage),
	).Result()
	if err != nil {
		return PredictionRecord{}, fmt.Errorf("get predictions: %w", err)
	}
	var rec PredictionRecord
	slots := []**StoredPrediction{&rec.Tabular, &rec.Image}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var p StoredPrediction
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return PredictionRecord{}, fmt.Errorf("unmarshal prediction: %w", err)
		}
		*slots[i] = &p
	}
	return rec, nil
}
