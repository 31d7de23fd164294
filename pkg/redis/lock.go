package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock is a single-owner mutex held in Redis with SET NX PX
// ⭐ SSOT: cross-process locks live here only
type Lock struct {
	client *Client
	prefix string
}

// NewLock creates a new lock helper
func NewLock(client *Client, prefix string) *Lock {
	return &Lock{
		client: client,
		prefix: prefix,
	}
}

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

func (l *Lock) key(name string) string {
	return fmt.Sprintf("%s:lock:%s", l.prefix, name)
}

// Acquire takes the named lock for at most ttl.
// Returns (token, acquired, error); the token is needed to release.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	if !l.client.Enabled() {
		// Without Redis there is nobody to contend with
		return token, true, nil
	}

	ok, err := l.client.Redis().SetNX(ctx, l.key(name), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the named lock if token still owns it. A lock that already
// expired or passed to another owner is left alone.
func (l *Lock) Release(ctx context.Context, name, token string) error {
	if !l.client.Enabled() || token == "" {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client.Redis(), []string{l.key(name)}, token).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}
