package ports

import "context"

// BrokerDialer opens a subscription to a destination on the push broker.
type BrokerDialer interface {
	Dial(ctx context.Context, destination string) (BrokerSubscription, error)
}

// BrokerSubscription delivers raw message bodies in arrival order. Messages
// is closed when the connection ends, after which Err explains why.
type BrokerSubscription interface {
	Messages() <-chan []byte
	Err() error
	Close() error
}

// Toast levels.
const (
	ToastInfo    = "info"
	ToastWarning = "warning"
	ToastError   = "error"
)

// Alerter produces the audible and visual cues for pushed notifications.
type Alerter interface {
	Sound()
	Toast(level, message string)
}
