package ports

import "context"

// Storage is the durable key/value store the session is persisted in.
// Values are opaque strings; a missing key is reported with ok=false.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Pinger is implemented by storages backed by a network service.
type Pinger interface {
	Ping(ctx context.Context) error
}
