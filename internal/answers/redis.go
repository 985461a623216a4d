package answers

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/model"
)

// Key namespaces for the two per-session maps.
const (
	AnswersNamespace = "visamate:answers:"
	OCRNamespace     = "visamate:ocr:"
)

// RedisOptions configures a Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient opens a pooled Redis client.
func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
}

// RedisStore keeps one hash per session. Field values are JSON-encoded.
type RedisStore struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
}

// NewRedisStore creates a RedisStore writing under namespace. A positive ttl
// refreshes the hash expiry on every merge.
func NewRedisStore(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, namespace: namespace, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return s.namespace + sessionID
}

// Merge implements Store. HSET and HLEN run in one MULTI so the returned
// total reflects this write.
func (s *RedisStore) Merge(ctx context.Context, sessionID string, answers model.Answers) (MergeResult, error) {
	if err := checkSession("answers: merge", sessionID); err != nil {
		return MergeResult{}, err
	}

	key := s.key(sessionID)
	fields := make([]any, 0, len(answers)*2)
	for k, v := range answers {
		b, err := encodeValue(v)
		if err != nil {
			return MergeResult{}, eris.Wrapf(err, "answers: encode %s", k)
		}
		fields = append(fields, k, string(b))
	}

	var hlen *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(fields) > 0 {
			p.HSet(ctx, key, fields...)
		}
		hlen = p.HLen(ctx, key)
		if s.ttl > 0 && len(fields) > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return MergeResult{}, eris.Wrapf(err, "answers: merge session %s", sessionID)
	}
	return MergeResult{Accepted: len(answers), TotalStored: int(hlen.Val())}, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (model.Answers, error) {
	if err := checkSession("answers: get", sessionID); err != nil {
		return nil, err
	}

	raw, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "answers: get session %s", sessionID)
	}

	out := make(model.Answers, len(raw))
	for k, v := range raw {
		val, err := decodeValue(v)
		if err != nil {
			// Written by something other than this store; keep the raw text.
			out[k] = v
			continue
		}
		out[k] = val
	}
	return out, nil
}

// encodeValue writes whole float64 values with a trailing ".0" so they read
// back as floats rather than integers.
func encodeValue(v any) ([]byte, error) {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return []byte(strconv.FormatFloat(f, 'f', 1, 64)), nil
	}
	return json.Marshal(v)
}

func decodeValue(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var val any
	if err := dec.Decode(&val); err != nil {
		return nil, err
	}
	return val, nil
}

// ListByPrefix implements Store.
func (s *RedisStore) ListByPrefix(ctx context.Context, sessionID, prefix string) (model.Answers, error) {
	all, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return filterPrefix(all, prefix), nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return eris.Wrap(err, "answers: redis ping")
	}
	return nil
}
