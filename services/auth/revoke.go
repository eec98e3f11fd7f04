package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/plany/core"
)

// Revoker remembers revoked token IDs until the tokens expire on their own.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

var (
	_ Revoker = (*redisRevoker)(nil)
	_ Revoker = (*memoryRevoker)(nil)
)

const revokedKeyPrefix = "plany:revoked:"

type redisRevoker struct {
	rdb redis.UniversalClient
}

func NewRedisRevoker(rdb redis.UniversalClient) Revoker {
	return &redisRevoker{rdb: rdb}
}

func (r *redisRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil // already expired
	}
	err := r.rdb.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err()
	return errors.Wrap(err, "storing revoked token")
}

func (r *redisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking revoked token")
	}
	return n > 0, nil
}

type memoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevoker() Revoker {
	return &memoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

func (r *memoryRevoker) Revoke(_ context.Context, jti string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, id)
		}
	}
	if until.After(now) {
		r.revoked[jti] = until
	}
	return nil
}

func (r *memoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.revoked[jti]
	return ok && exp.After(r.now()), nil
}

// NewRevoker connects to the configured Redis server.
// Without one, or when it cannot be reached, revocations are kept in memory.
func NewRevoker(ctx context.Context, conf *core.Config, logger core.Logger) Revoker {
	if conf.Redis.Addr == "" {
		return NewMemoryRevoker()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, keeping revoked tokens in memory", err)
		_ = rdb.Close()
		return NewMemoryRevoker()
	}
	return NewRedisRevoker(rdb)
}
