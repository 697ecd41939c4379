package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/ports"
)

const (
	DefaultReconnectDelay = 5 * time.Second

	invalidNotificationText = "Received invalid notification"
)

// NotificationTopic is the per-user broker destination.
func NotificationTopic(userID int64) string {
	return fmt.Sprintf("/topic/notifications/%d", userID)
}

// Listener receives every successfully parsed notification.
type Listener func(domain.Notification)

// ListenerID identifies a registration so it can be removed again.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

type ChannelOption func(*NotificationChannel)

func WithReconnectDelay(d time.Duration) ChannelOption {
	return func(c *NotificationChannel) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

// WithErrorHandler receives recoverable errors such as malformed payloads.
func WithErrorHandler(fn func(error)) ChannelOption {
	return func(c *NotificationChannel) { c.onError = fn }
}

type nopAlerter struct{}

func (nopAlerter) Sound()               {}
func (nopAlerter) Toast(string, string) {}

// NotificationChannel keeps one push subscription open for the signed-in
// user and fans messages out to listeners. Messages are handled one at a
// time in arrival order on a single goroutine.
type NotificationChannel struct {
	dialer         ports.BrokerDialer
	alert          ports.Alerter
	log            zerolog.Logger
	reconnectDelay time.Duration
	onError        func(error)

	mu        sync.Mutex
	listeners []listenerEntry
	nextID    ListenerID
	active    bool
	connected bool
	userID    int64
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewNotificationChannel(dialer ports.BrokerDialer, alert ports.Alerter, log zerolog.Logger, opts ...ChannelOption) *NotificationChannel {
	if alert == nil {
		alert = nopAlerter{}
	}
	c := &NotificationChannel{
		dialer:         dialer,
		alert:          alert,
		log:            log,
		reconnectDelay: DefaultReconnectDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect subscribes to the user's topic. It is a no-op while a connection
// is active, including while it is re-establishing itself.
func (c *NotificationChannel) Connect(ctx context.Context, userID int64) error {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	if active {
		return nil
	}

	sub, err := c.dialer.Dial(ctx, NotificationTopic(userID))
	if err != nil {
		return fmt.Errorf("connect notifications: %w", err)
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		_ = sub.Close()
		return nil
	}
	runCtx, cancel := context.WithCancel(context.Background())
	c.active, c.connected = true, true
	c.userID = userID
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.log.Info().Int64("user_id", userID).Msg("notification channel connected")
	go c.run(runCtx, userID, sub, done)
	return nil
}

// Disconnect tears the connection down and waits for the pump to stop. It is
// safe to call when not connected. It must not be called from a listener.
func (c *NotificationChannel) Disconnect() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.active, c.connected = false, false
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	cancel()
	<-done
	c.log.Info().Msg("notification channel disconnected")
}

// Connected reports whether a subscription is currently live.
func (c *NotificationChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && c.connected
}

// AddMessageListener appends fn. Registering the same function twice
// delivers each message to it twice.
func (c *NotificationChannel) AddMessageListener(fn Listener) ListenerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.listeners = append(c.listeners, listenerEntry{id: c.nextID, fn: fn})
	return c.nextID
}

func (c *NotificationChannel) RemoveMessageListener(id ListenerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.listeners {
		if l.id == id {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			return
		}
	}
}

func (c *NotificationChannel) run(ctx context.Context, userID int64, sub ports.BrokerSubscription, done chan struct{}) {
	defer close(done)
	for {
		c.pump(ctx, sub)
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}

		c.setConnected(false)
		c.log.Warn().Err(sub.Err()).Dur("retry_in", c.reconnectDelay).Msg("notification channel lost")

		sub = c.redial(ctx, userID)
		if sub == nil {
			return
		}
		c.setConnected(true)
		c.log.Info().Int64("user_id", userID).Msg("notification channel reconnected")
	}
}

func (c *NotificationChannel) redial(ctx context.Context, userID int64) ports.BrokerSubscription {
	timer := time.NewTimer(c.reconnectDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		sub, err := c.dialer.Dial(ctx, NotificationTopic(userID))
		if err == nil {
			return sub
		}
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn().Err(err).Msg("notification channel reconnect failed")
		timer.Reset(c.reconnectDelay)
	}
}

func (c *NotificationChannel) pump(ctx context.Context, sub ports.BrokerSubscription) {
	msgs := sub.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case body, ok := <-msgs:
			if !ok {
				return
			}
			c.deliver(body)
		}
	}
}

func (c *NotificationChannel) deliver(body []byte) {
	n, err := parseNotification(body)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping malformed notification")
		if c.onError != nil {
			c.onError(err)
		}
		c.alert.Toast(ports.ToastWarning, invalidNotificationText)
		return
	}

	c.alert.Toast(ports.ToastInfo, n.Text())
	c.alert.Sound()

	c.mu.Lock()
	listeners := make([]listenerEntry, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		c.call(l, n)
	}
}

func (c *NotificationChannel) call(l listenerEntry, n domain.Notification) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Uint64("listener", uint64(l.id)).Msg("notification listener panicked")
		}
	}()
	l.fn(n)
}

func (c *NotificationChannel) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func parseNotification(body []byte) (domain.Notification, error) {
	var n domain.Notification
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return n, fmt.Errorf("%w: payload is not an object", domain.ErrMalformedNotification)
	}
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return n, fmt.Errorf("%w: %v", domain.ErrMalformedNotification, err)
	}
	return n, nil
}
