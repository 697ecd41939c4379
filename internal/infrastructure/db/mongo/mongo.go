// Package mongo keeps the session in a MongoDB collection, one document per
// key.
package mongo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const selectTimeout = 10 * time.Second

// Options selects the deployment, database and collection.
type Options struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Open connects, waits for a server to answer a ping and returns a Store
// that owns the client.
func Open(ctx context.Context, o Options) (*Store, error) {
	if o.URI == "" || o.Database == "" || o.Collection == "" {
		return nil, errors.New("mongo: uri, database and collection are required")
	}
	timeout := cmp.Or(o.Timeout, selectTimeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(o.URI).
		SetAppName("pmdesk").
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := NewStore(client.Database(o.Database), o.Collection)
	s.owned = client
	return s, nil
}

// Close disconnects a client made by Open.
func (s *Store) Close(ctx context.Context) error {
	if s.owned == nil {
		return nil
	}
	return s.owned.Disconnect(ctx)
}
