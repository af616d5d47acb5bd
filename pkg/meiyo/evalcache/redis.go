package evalcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is the expiry applied to shared entries when none is configured.
const DefaultTTL = 24 * time.Hour

// RedisOptions configure the shared tier.
type RedisOptions struct {
	// Prefix namespaces every key. Defaults to "meiyo".
	Prefix string
	// TTL bounds the lifetime of an entry. Defaults to DefaultTTL.
	TTL time.Duration
	// Timeout bounds each round trip. Defaults to 500ms.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Redis stores JSON-encoded values in Redis under SHA-256 hashed keys.
// Callers put everything that decides a value into its key, so entries are
// never invalidated and simply expire through their TTL. Errors are logged and reported as misses so the evaluation path never
// depends on Redis being reachable.
type Redis[V any] struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

// NewRedis wraps an existing client and checks that it is reachable.
func NewRedis[V any](ctx context.Context, client redis.UniversalClient, opts RedisOptions) (*Redis[V], error) {
	if client == nil {
		return nil, errors.New("evalcache: nil redis client")
	}
	r := &Redis[V]{
		client:  client,
		prefix:  opts.Prefix,
		ttl:     opts.TTL,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
	if r.prefix == "" {
		r.prefix = "meiyo"
	}
	if r.ttl <= 0 {
		r.ttl = DefaultTTL
	}
	if r.timeout <= 0 {
		r.timeout = 500 * time.Millisecond
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return r, nil
}

// DialRedis connects to addr and wraps the client.
func DialRedis[V any](ctx context.Context, addr string, db int, opts RedisOptions) (*Redis[V], error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	r, err := NewRedis[V](ctx, client, opts)
	if err != nil {
		client.Close()
		return nil, err
	}
	return r, nil
}

func (r *Redis[V]) key(k string) string {
	sum := sha256.Sum256([]byte(k))
	return r.prefix + ":eval:" + hex.EncodeToString(sum[:])
}

// Get returns the value cached under k.
func (r *Redis[V]) Get(k string) (V, bool) {
	var zero V
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	raw, err := r.client.Get(ctx, r.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		r.logger.Warn("evalcache: redis get failed", "error", err)
		return zero, false
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		r.logger.Warn("evalcache: undecodable redis entry", "error", err)
		return zero, false
	}
	return v, true
}

// Put stores value under k with the configured TTL.
func (r *Redis[V]) Put(k string, value V) {
	raw, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("evalcache: encode entry", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, r.key(k), raw, r.ttl).Err(); err != nil {
		r.logger.Warn("evalcache: redis set failed", "error", err)
	}
}

// Close closes the underlying client.
func (r *Redis[V]) Close() error {
	return r.client.Close()
}
