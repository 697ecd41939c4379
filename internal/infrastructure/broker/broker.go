// Package broker subscribes to the notification broker: STOMP frames over a
// WebSocket connection.
package broker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-stomp/stomp/v3"
	"github.com/rs/zerolog"

	"github.com/pmdesk/pmdesk/internal/api/metrics"
	"github.com/pmdesk/pmdesk/internal/core/ports"
)

const (
	defaultHeartBeat = 10 * time.Second
	readLimit        = 1 << 20
	bufferedMessages = 32
)

var subprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

// ErrClosed is reported by Err after the subscription was closed locally.
var ErrClosed = errors.New("broker: subscription closed")

type Option func(*Dialer)

// WithHeader adds headers to the WebSocket handshake.
func WithHeader(h http.Header) Option {
	return func(d *Dialer) { d.header = h.Clone() }
}

// WithHeartBeat sets the STOMP heart-beat interval in both directions.
// Zero disables heart-beats.
func WithHeartBeat(every time.Duration) Option {
	return func(d *Dialer) { d.heartBeat = every }
}

// Dialer implements ports.BrokerDialer.
type Dialer struct {
	url       string
	host      string
	header    http.Header
	heartBeat time.Duration
	log       zerolog.Logger
}

// NewDialer targets a ws:// or wss:// endpoint.
func NewDialer(rawURL string, log zerolog.Logger, opts ...Option) (*Dialer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("broker: parse url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("broker: url %q must be ws or wss", rawURL)
	}
	d := &Dialer{url: rawURL, host: u.Hostname(), heartBeat: defaultHeartBeat, log: log}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dial connects, completes the STOMP handshake and subscribes to
// destination. ctx bounds only the setup; the connection lives until Close.
func (d *Dialer) Dial(ctx context.Context, destination string) (ports.BrokerSubscription, error) {
	ws, _, err := websocket.Dial(ctx, d.url, &websocket.DialOptions{
		Subprotocols: subprotocols,
		HTTPHeader:   d.header,
	})
	if err != nil {
		return nil, fmt.Errorf("broker: dial: %w", err)
	}
	ws.SetReadLimit(readLimit)

	connCtx, cancel := context.WithCancel(context.Background())
	nc := websocket.NetConn(connCtx, ws, websocket.MessageText)

	// stomp.Connect does not take a context.
	stop := context.AfterFunc(ctx, func() { _ = nc.Close() })
	conn, err := stomp.Connect(nc,
		stomp.ConnOpt.Host(d.host),
		stomp.ConnOpt.HeartBeat(d.heartBeat, d.heartBeat),
	)
	stopped := stop()
	if err != nil || !stopped {
		if err == nil {
			_ = conn.MustDisconnect()
			err = ctx.Err()
		}
		cancel()
		_ = nc.Close()
		return nil, fmt.Errorf("broker: stomp connect: %w", err)
	}

	sub, err := conn.Subscribe(destination, stomp.AckAuto)
	if err != nil {
		_ = conn.MustDisconnect()
		cancel()
		return nil, fmt.Errorf("broker: subscribe %s: %w", destination, err)
	}
	d.log.Debug().Str("destination", destination).Str("version", string(conn.Version())).Msg("broker subscribed")

	s := &subscription{
		conn:   conn,
		sub:    sub,
		cancel: cancel,
		out:    make(chan []byte, bufferedMessages),
		done:   make(chan struct{}),
	}
	metrics.ChannelConnected.Set(1)
	go s.pump()
	return s, nil
}

type subscription struct {
	conn   *stomp.Conn
	sub    *stomp.Subscription
	cancel context.CancelFunc
	out    chan []byte
	done   chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

func (s *subscription) Messages() <-chan []byte { return s.out }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *subscription) pump() {
	defer close(s.out)
	defer metrics.ChannelConnected.Set(0)
	for {
		select {
		case <-s.done:
			return
		case m, ok := <-s.sub.C:
			if !ok {
				s.setErr(errors.New("broker: connection closed"))
				return
			}
			if m.Err != nil {
				s.setErr(fmt.Errorf("broker: %w", m.Err))
				return
			}
			select {
			case s.out <- m.Body:
			case <-s.done:
				return
			}
		}
	}
}

// Close drops the connection without waiting for a DISCONNECT receipt.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.setErr(ErrClosed)
		close(s.done)
		_ = s.conn.MustDisconnect()
		s.cancel()
	})
	return nil
}
