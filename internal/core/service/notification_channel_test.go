package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/ports"
)

type fakeSub struct {
	msgs      chan []byte
	closeOnce sync.Once
	err       error
}

func newFakeSub() *fakeSub { return &fakeSub{msgs: make(chan []byte, 16)} }

func (s *fakeSub) Messages() <-chan []byte { return s.msgs }
func (s *fakeSub) Err() error              { return s.err }
func (s *fakeSub) Close() error            { return nil }

// drop simulates the broker connection going away.
func (s *fakeSub) drop() {
	s.closeOnce.Do(func() {
		s.err = errors.New("connection reset")
		close(s.msgs)
	})
}

type fakeDialer struct {
	mu       sync.Mutex
	subs     []*fakeSub
	topics   []string
	failNext int
}

func newFakeDialer() *fakeDialer { return &fakeDialer{} }

func (d *fakeDialer) Dial(_ context.Context, topic string) (ports.BrokerSubscription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.topics = append(d.topics, topic)
	if d.failNext > 0 {
		d.failNext--
		return nil, errors.New("refused")
	}
	s := newFakeSub()
	d.subs = append(d.subs, s)
	return s, nil
}

func (d *fakeDialer) sub(i int) *fakeSub {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.subs[i]
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

type recordingAlerter struct {
	mu     sync.Mutex
	sounds int
	toasts []string
}

func (a *recordingAlerter) Sound() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sounds++
}

func (a *recordingAlerter) Toast(level, msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toasts = append(a.toasts, level+":"+msg)
}

func (a *recordingAlerter) snapshot() (int, []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sounds, append([]string(nil), a.toasts...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNotificationChannel_ListenerOrder(t *testing.T) {
	dialer := newFakeDialer()
	ch := NewNotificationChannel(dialer, nil, zerolog.Nop())
	require.NoError(t, ch.Connect(context.Background(), 42))
	defer ch.Disconnect()

	var mu sync.Mutex
	var calls []string
	record := func(name string) Listener {
		return func(n domain.Notification) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, name+":"+n.Message)
		}
	}
	ch.AddMessageListener(record("L1"))
	ch.AddMessageListener(record("L2"))

	dialer.sub(0).msgs <- []byte(`{"id":1,"message":"M","type":"TASK_ASSIGNED"}`)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return len(calls) == 2 })

	assert.Equal(t, []string{"L1:M", "L2:M"}, calls)
	assert.Equal(t, []string{"/topic/notifications/42"}, dialer.topics)
}

func TestNotificationChannel_RemoveListener(t *testing.T) {
	dialer := newFakeDialer()
	ch := NewNotificationChannel(dialer, nil, zerolog.Nop())
	require.NoError(t, ch.Connect(context.Background(), 1))
	defer ch.Disconnect()

	got := make(chan string, 4)
	id1 := ch.AddMessageListener(func(domain.Notification) { got <- "L1" })
	ch.AddMessageListener(func(domain.Notification) { got <- "L2" })
	ch.RemoveMessageListener(id1)

	dialer.sub(0).msgs <- []byte(`{"id":1,"message":"M"}`)
	select {
	case name := <-got:
		assert.Equal(t, "L2", name)
	case <-time.After(2 * time.Second):
		t.Fatalf("no delivery")
	}
	select {
	case name := <-got:
		t.Fatalf("unexpected extra delivery to %s", name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotificationChannel_DuplicateRegistrationDeliversTwice(t *testing.T) {
	dialer := newFakeDialer()
	ch := NewNotificationChannel(dialer, nil, zerolog.Nop())
	require.NoError(t, ch.Connect(context.Background(), 1))
	defer ch.Disconnect()

	var mu sync.Mutex
	count := 0
	fn := func(domain.Notification) { mu.Lock(); count++; mu.Unlock() }
	ch.AddMessageListener(fn)
	ch.AddMessageListener(fn)

	dialer.sub(0).msgs <- []byte(`{"id":1}`)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return count == 2 })
}

func TestNotificationChannel_MalformedPayloadKeepsConnection(t *testing.T) {
	dialer := newFakeDialer()
	alert := &recordingAlerter{}
	errs := make(chan error, 4)
	ch := NewNotificationChannel(dialer, alert, zerolog.Nop(), WithErrorHandler(func(err error) { errs <- err }))
	require.NoError(t, ch.Connect(context.Background(), 1))
	defer ch.Disconnect()

	delivered := make(chan domain.Notification, 1)
	ch.AddMessageListener(func(n domain.Notification) { delivered <- n })

	dialer.sub(0).msgs <- []byte(`{not json`)
	select {
	case err := <-errs:
		assert.True(t, errors.Is(err, domain.ErrMalformedNotification))
	case <-time.After(2 * time.Second):
		t.Fatalf("error hook not called")
	}
	assert.True(t, ch.Connected())

	dialer.sub(0).msgs <- []byte(`{"id":2,"createdAt":[2024,5,1,10,0,0,0]}`)
	select {
	case n := <-delivered:
		assert.Equal(t, int64(2), n.ID)
	case <-time.After(2 * time.Second):
		t.Fatalf("valid message after malformed one not delivered")
	}

	sounds, toasts := alert.snapshot()
	assert.Equal(t, 1, sounds)
	assert.Equal(t, []string{"warning:Received invalid notification", "info:New notification"}, toasts)
	assert.Equal(t, 1, dialer.dials())
}

func TestNotificationChannel_ConnectIsIdempotent(t *testing.T) {
	dialer := newFakeDialer()
	ch := NewNotificationChannel(dialer, nil, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, ch.Connect(ctx, 1))
	require.NoError(t, ch.Connect(ctx, 1))
	require.NoError(t, ch.Connect(ctx, 2))
	assert.Equal(t, 1, dialer.dials())

	ch.Disconnect()
	ch.Disconnect()
	assert.False(t, ch.Connected())

	require.NoError(t, ch.Connect(ctx, 1))
	assert.Equal(t, 2, dialer.dials())
	ch.Disconnect()
}

func TestNotificationChannel_DisconnectWhenNeverConnected(t *testing.T) {
	ch := NewNotificationChannel(newFakeDialer(), nil, zerolog.Nop())
	ch.Disconnect()
	assert.False(t, ch.Connected())
}

func TestNotificationChannel_ConnectError(t *testing.T) {
	dialer := newFakeDialer()
	dialer.failNext = 1
	ch := NewNotificationChannel(dialer, nil, zerolog.Nop())

	require.Error(t, ch.Connect(context.Background(), 1))
	assert.False(t, ch.Connected())
	require.NoError(t, ch.Connect(context.Background(), 1))
	ch.Disconnect()
}

func TestNotificationChannel_Reconnects(t *testing.T) {
	dialer := newFakeDialer()
	ch := NewNotificationChannel(dialer, nil, zerolog.Nop(), WithReconnectDelay(10*time.Millisecond))
	require.NoError(t, ch.Connect(context.Background(), 5))
	defer ch.Disconnect()

	got := make(chan int64, 1)
	ch.AddMessageListener(func(n domain.Notification) { got <- n.ID })

	dialer.mu.Lock()
	dialer.failNext = 1
	dialer.mu.Unlock()
	dialer.sub(0).drop()

	waitFor(t, func() bool { return dialer.dials() == 2 })
	waitFor(t, ch.Connected)

	dialer.sub(1).msgs <- []byte(`{"id":9}`)
	select {
	case id := <-got:
		assert.Equal(t, int64(9), id)
	case <-time.After(2 * time.Second):
		t.Fatalf("no delivery after reconnect")
	}
}
