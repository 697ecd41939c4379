// Package redis keeps the session in Redis so terminals on several hosts can
// share one sign-in.
package redis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

// Options selects the server, the database and the key namespace.
type Options struct {
	Addr    string
	DB      int
	Prefix  string
	Timeout time.Duration
}

// Open dials the server, checks that it answers PING and returns a Store
// that owns the connection.
func Open(ctx context.Context, o Options) (*Store, error) {
	if o.Addr == "" {
		return nil, errors.New("redis: address is required")
	}
	timeout := cmp.Or(o.Timeout, dialTimeout)
	client := redis.NewClient(&redis.Options{
		Addr:         o.Addr,
		DB:           o.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", o.Addr, err)
	}

	s := NewStore(client, o.Prefix)
	s.owned = client
	return s, nil
}

// Close releases a connection made by Open. A Store built with NewStore
// leaves its client to the caller.
func (s *Store) Close() error {
	if s.owned == nil {
		return nil
	}
	return s.owned.Close()
}
