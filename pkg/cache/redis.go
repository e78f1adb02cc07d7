// Package cache connects the gateway to Redis and owns its key layout.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/dunzo-api/pkg/config"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

const (
	// KeyPrefix namespaces every key the gateway writes.
	KeyPrefix = "dunzo:"

	dialTimeout = 5 * time.Second
)

// ErrDisabled is returned by Connect when no Redis host is configured.
var ErrDisabled = errors.New("redis not configured")

// Key joins parts under the gateway namespace: Key("session", id) is "dunzo:session:<id>".
func Key(parts ...string) string {
	return KeyPrefix + strings.Join(parts, ":")
}

// Connect dials Redis and pings it within ctx. Sessions and the dashboard cache share the
// returned client.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	addr := net.JoinHostPort(strings.TrimSpace(cfg.Host), strconv.Itoa(cfg.Port))
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dialTimeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("redis unreachable at %s", addr))
	}
	return client, nil
}
