// Package locking provides a short-lived per-account lock used to shed concurrent
// credit reservations before they reach the database row lock.
package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/config"
)

// ErrLockNotAcquired is returned when the lock stays held for the whole retry budget
var ErrLockNotAcquired = errors.New("account lock not acquired")

const releaseScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// AccountLocker serializes work per account
type AccountLocker interface {
	WithAccountLock(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error
}

// RedisClient is the subset of the go-redis client used by the lock
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLocker implements AccountLocker with SET NX and a token-checked release
type RedisLocker struct {
	client        RedisClient
	logger        *slog.Logger
	ttl           time.Duration
	retryInterval time.Duration
	maxRetries    int
}

var _ AccountLocker = (*RedisLocker)(nil)

func NewRedisLocker(logger *slog.Logger, client RedisClient, cfg *config.RedisConfig) *RedisLocker {
	return &RedisLocker{
		client:        client,
		logger:        logger,
		ttl:           cfg.LockTTL,
		retryInterval: cfg.RetryInterval,
		maxRetries:    cfg.MaxRetries,
	}
}

// AccountLockKey is the Redis key guarding an account's reservations
func AccountLockKey(accountID uuid.UUID) string {
	return fmt.Sprintf("credits:lock:account:%s", accountID)
}

func (l *RedisLocker) WithAccountLock(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error {
	key := AccountLockKey(accountID)
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}
	defer l.release(key, token)

	return fn(ctx)
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			l.logger.Error("Failed to acquire account lock", "key", key, "error", err)
			return fmt.Errorf("failed to acquire account lock: %w", err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}

	l.logger.Warn("Account lock still held after retries", "key", key, "retries", l.maxRetries)
	return ErrLockNotAcquired
}

// release runs on its own context so a canceled request still frees the key
func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		l.logger.Warn("Failed to release account lock, it will expire", "key", key, "error", err)
	}
}

// NoopLocker runs fn directly; used when Redis is not configured
type NoopLocker struct{}

var _ AccountLocker = NoopLocker{}

func (NoopLocker) WithAccountLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// NewAccountLocker connects to Redis when an address is configured, otherwise the lock is a no-op
func NewAccountLocker(ctx context.Context, logger *slog.Logger, cfg *config.RedisConfig) (AccountLocker, func() error, error) {
	if cfg.Addr == "" {
		logger.Info("Redis address not configured, account lock disabled")
		return NoopLocker{}, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Connected to Redis", "addr", cfg.Addr)
	return NewRedisLocker(logger, client, cfg), client.Close, nil
}
