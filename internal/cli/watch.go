package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pmdesk/pmdesk/internal/api"
	"github.com/pmdesk/pmdesk/internal/api/handler"
	"github.com/pmdesk/pmdesk/internal/api/metrics"
	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/ports"
	"github.com/pmdesk/pmdesk/internal/core/service"
	"github.com/pmdesk/pmdesk/internal/infrastructure/alert"
	"github.com/pmdesk/pmdesk/internal/infrastructure/broker"
	"github.com/pmdesk/pmdesk/pkg/logger"
)

var errBrokerDown = errors.New("notification channel disconnected")

func newWatchCommand(s *state) *cobra.Command {
	var (
		quiet      bool
		statusAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream notifications as they arrive",
		Long: "Stream notifications as they arrive. When a status address is set\n" +
			"(--status-addr or PMDESK_STATUS_ADDR) a local HTTP server exposes the\n" +
			"session, the notification feed and the dashboard while watching.",
		Args: cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			if statusAddr == "" {
				statusAddr = s.cfg.Status.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.watch(ctx, a, !quiet, statusAddr)
		}),
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no terminal bell")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "serve the local status API on this address")
	return cmd
}

func (s *state) watch(ctx context.Context, a *App, sound bool, statusAddr string) error {
	u, err := a.Auth.Current()
	if err != nil {
		return err
	}

	dialer, err := broker.NewDialer(s.cfg.BrokerURL, logger.For("broker"))
	if err != nil {
		return err
	}
	ch := service.NewNotificationChannel(dialer, alert.NewTerminal(s.env.Err, sound), logger.For("channel"),
		service.WithReconnectDelay(s.cfg.ReconnectDelay),
		service.WithErrorHandler(func(err error) {
			if errors.Is(err, domain.ErrMalformedNotification) {
				metrics.NotificationsReceivedTotal.WithLabelValues("malformed").Inc()
			}
		}),
	)
	ch.AddMessageListener(func(domain.Notification) {
		metrics.NotificationsReceivedTotal.WithLabelValues("delivered").Inc()
	})
	ch.AddMessageListener(a.Feed.Add)
	ch.AddMessageListener(notificationPrinter(s.env.Out, s.printer.JSON()))

	if err := a.Feed.Fetch(ctx, ""); err != nil {
		log := logger.For("watch")
		log.Warn().Err(err).Msg("initial notification list unavailable")
	}
	if err := ch.Connect(ctx, u.ID); err != nil {
		return err
	}
	defer ch.Disconnect()

	if statusAddr == "" {
		<-ctx.Done()
		return nil
	}

	checks := []handler.Check{{
		Name: "broker",
		Probe: func(context.Context) error {
			if !ch.Connected() {
				return errBrokerDown
			}
			return nil
		},
	}}
	if p, ok := a.Storage().(ports.Pinger); ok {
		checks = append(checks, handler.Check{Name: "storage", Probe: p.Ping})
	}
	e, err := api.NewRouter(api.Deps{
		Session:    a.Session,
		Feed:       a.Feed,
		Dashboards: a.Workspace,
		Checks:     checks,
		Token:      s.cfg.Status.Token,
	}, logger.For("status"))
	if err != nil {
		return err
	}

	return api.Serve(ctx, e, statusAddr, logger.For("status"))
}

// notificationPrinter writes one line per notification: JSON when asked,
// otherwise time, type and text.
func notificationPrinter(w io.Writer, asJSON bool) service.Listener {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return func(n domain.Notification) {
		mu.Lock()
		defer mu.Unlock()
		if asJSON {
			_ = enc.Encode(n)
			return
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", orDash(n.CreatedAt.String()), orDash(string(n.Type)), n.Text())
	}
}
