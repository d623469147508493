package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

// Locker hands out named, expiring locks shared by every process that talks
// to the same Redis.
type Locker interface {
	// TryAcquire returns ok=false when another holder owns key. release is
	// non-nil only when ok is true.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
	Close() error
}

// CatalogKey names the lock that serializes writers to one catalog database.
func CatalogKey(target string) string { return "scrape:" + target }

type redisLocker struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewLockerFromEnv connects to REDIS_ADDR. Without it the returned locker
// grants every request, which is fine for a single operator running one
// scrape at a time.
func NewLockerFromEnv(log *logger.Logger) (Locker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Info("REDIS_ADDR not set; scrape locks are process-local")
		return NopLocker{}, nil
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_LOCK_PREFIX"))
	if prefix == "" {
		prefix = "frugal:lock:"
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})
	return NewLocker(log, rdb, prefix)
}

func NewLocker(log *logger.Logger, rdb *goredis.Client, prefix string) (Locker, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisLocker{
		log:    log.With("service", "RedisLocker"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (l *redisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token, err := newToken()
	if err != nil {
		return nil, false, err
	}
	full := l.prefix + key
	ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx %s: %w", full, err)
	}
	if !ok {
		return nil, false, nil
	}
	l.log.Debug("Lock acquired", "key", full, "ttl", ttl)
	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{full}, token).Err(); err != nil && err != goredis.Nil {
			return fmt.Errorf("redis release %s: %w", full, err)
		}
		return nil
	}
	return release, true, nil
}

func (l *redisLocker) Close() error { return l.rdb.Close() }

// NopLocker always grants the lock.
type NopLocker struct{}

func (NopLocker) TryAcquire(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}

func (NopLocker) Close() error { return nil }

func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
