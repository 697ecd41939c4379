package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/ports"
)

// MarkPolicy decides what the feed does locally when a mark-as-read call
// fails on the server.
type MarkPolicy int

const (
	// MarkOptimistic removes the items whatever the server answers. The
	// local feed can then disagree with the server until the next Fetch.
	MarkOptimistic MarkPolicy = iota
	// MarkRollback puts the items back when the server call fails.
	MarkRollback
)

func ParseMarkPolicy(s string) MarkPolicy {
	if s == "rollback" {
		return MarkRollback
	}
	return MarkOptimistic
}

// NotificationFeed is the in-memory list of the user's notifications,
// newest first.
type NotificationFeed struct {
	api    ports.NotificationAPI
	policy MarkPolicy
	log    zerolog.Logger
	seq    Sequencer

	mu    sync.RWMutex
	items []domain.Notification
}

func NewNotificationFeed(api ports.NotificationAPI, policy MarkPolicy, log zerolog.Logger) *NotificationFeed {
	return &NotificationFeed{api: api, policy: policy, log: log}
}

// Fetch replaces the feed with the server's list. A response is discarded
// when a newer Fetch is still in flight or has already been applied; a
// failed Fetch does not block older ones.
func (f *NotificationFeed) Fetch(ctx context.Context, token string) error {
	tag := f.seq.Begin()
	items, err := f.api.List(ctx, token)
	if err != nil {
		f.seq.Abandon(tag)
		return fmt.Errorf("fetch notifications: %w", err)
	}
	applied := f.seq.Apply(tag, func() {
		f.mu.Lock()
		f.items = items
		f.mu.Unlock()
	})
	if !applied {
		f.log.Debug().Uint64("seq", tag).Msg("stale notification list discarded")
	}
	return nil
}

// Add prepends a pushed notification.
func (f *NotificationFeed) Add(n domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append([]domain.Notification{n}, f.items...)
}

// MarkAsRead removes the notification locally and tells the server.
func (f *NotificationFeed) MarkAsRead(ctx context.Context, id int64, token string) error {
	f.mu.Lock()
	idx := -1
	var removed domain.Notification
	for i, n := range f.items {
		if n.ID == id {
			idx, removed = i, n
			f.items = append(f.items[:i:i], f.items[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	if err := f.api.MarkAsRead(ctx, id, token); err != nil {
		if f.policy == MarkRollback && idx >= 0 {
			f.restoreAt(idx, removed)
		} else {
			f.log.Warn().Err(err).Int64("notification_id", id).Msg("mark as read failed, local feed diverges from server")
		}
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return nil
}

// MarkAllAsRead empties the feed locally and tells the server.
func (f *NotificationFeed) MarkAllAsRead(ctx context.Context, userID int64, token string) error {
	f.mu.Lock()
	previous := f.items
	f.items = nil
	f.mu.Unlock()

	if err := f.api.MarkAllAsRead(ctx, userID, token); err != nil {
		if f.policy == MarkRollback {
			f.mu.Lock()
			f.items = append(f.items, previous...)
			f.mu.Unlock()
		} else {
			f.log.Warn().Err(err).Int("count", len(previous)).Msg("mark all as read failed, local feed diverges from server")
		}
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (f *NotificationFeed) restoreAt(idx int, n domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idx > len(f.items) {
		idx = len(f.items)
	}
	f.items = append(f.items[:idx:idx], append([]domain.Notification{n}, f.items[idx:]...)...)
}

// Items returns a copy of the feed.
func (f *NotificationFeed) Items() []domain.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]domain.Notification, len(f.items))
	copy(out, f.items)
	return out
}

func (f *NotificationFeed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, it := range f.items {
		if !it.Read {
			n++
		}
	}
	return n
}
