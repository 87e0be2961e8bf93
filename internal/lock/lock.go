package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultTTL bounds how long a crashed writer can hold a document.
const DefaultTTL = 30 * time.Second

// Locker serializes writers of a named document. Release must be called
// exactly once for every successful Acquire.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func(), err error)
}

// Noop never blocks.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// Local serializes writers inside one process. Used when Redis is not
// configured.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{slots: map[string]chan struct{}{}}
}

func (l *Local) Acquire(ctx context.Context, name string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[name]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[name] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Redis takes a redislock lease per document. A lease that cannot be
// obtained is logged and the write goes ahead; the document store's
// version check still rejects a lost update.
type Redis struct {
	client *redislock.Client
	ttl    time.Duration
	logger logrus.FieldLogger
}

func NewRedis(rdb redis.UniversalClient, logger logrus.FieldLogger) *Redis {
	return &Redis{
		client: redislock.New(rdb),
		ttl:    DefaultTTL,
		logger: logger,
	}
}

func (r *Redis) Acquire(ctx context.Context, name string) (func(), error) {
	key := fmt.Sprintf("lock:%s", name)
	lease, err := r.client.Obtain(ctx, key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		r.logger.WithField("lock", key).Warn("could not obtain redis lock; proceeding without redis lock")
		return func() {}, nil
	}
	if err != nil {
		r.logger.WithField("lock", key).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		return func() {}, nil
	}

	return func() {
		if releaseErr := lease.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			r.logger.WithField("lock", key).Warn("failed to release redis lock: " + releaseErr.Error())
		}
	}, nil
}

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}
