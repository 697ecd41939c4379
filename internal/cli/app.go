// Package cli is the pmdesk command tree and the wiring behind it.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/ports"
	"github.com/pmdesk/pmdesk/internal/core/service"
	"github.com/pmdesk/pmdesk/internal/infrastructure/config"
	"github.com/pmdesk/pmdesk/internal/infrastructure/db/mongo"
	"github.com/pmdesk/pmdesk/internal/infrastructure/db/redis"
	"github.com/pmdesk/pmdesk/internal/infrastructure/queue"
	"github.com/pmdesk/pmdesk/internal/infrastructure/rest"
	"github.com/pmdesk/pmdesk/internal/infrastructure/storage"
	"github.com/pmdesk/pmdesk/internal/infrastructure/token"
	"github.com/pmdesk/pmdesk/pkg/logger"
)

const drainTimeout = 5 * time.Second

// App holds the services one command invocation works with.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	store   ports.Storage
	jar     *storage.PersistentJar
	closers []func(context.Context)

	Session   *service.SessionStore
	Client    *rest.Client
	Auth      *service.AuthService
	Workspace *service.Workspace
	Feed      *service.NotificationFeed
	Invites   *queue.Dispatcher
}

// NewApp opens the session storage and builds the services on top of it.
func NewApp(ctx context.Context, cfg *config.Config, nav ports.Navigator) (*App, error) {
	a := &App{cfg: cfg, log: logger.For("app")}

	store, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store

	a.Session, err = service.NewSessionStore(ctx, store, token.NewDecoder(), logger.For("session"),
		service.WithClaimPolicy(domain.ParseCompanyClaimPolicy(cfg.CompanyClaimPolicy)),
		service.WithNavigator(nav),
	)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("load session: %w", err)
	}

	base, err := url.Parse(cfg.APIURL)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("api url: %w", err)
	}
	a.jar, err = storage.NewPersistentJar(ctx, base, store, logger.For("cookies"))
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Client, err = rest.New(cfg.APIURL, a.Session, logger.For("rest"),
		rest.WithJar(a.jar),
		rest.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		rest.WithTimeout(cfg.RequestTimeout),
		rest.WithNavigator(nav),
	)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Session.SetRevoker(a.Client.Auth())

	a.Auth = service.NewAuthService(a.Client.Auth(), a.Client.Users(), a.Session, logger.For("auth"))
	a.Workspace = service.NewWorkspace(a.Session, service.Resources{
		Projects: a.Client.Projects(),
		Tasks:    a.Client.Tasks(),
		Teams:    a.Client.Teams(),
		Users:    a.Client.Users(),
		Company:  a.Client.Company(),
		Admin:    a.Client.Admin(),
	}, logger.For("workspace"))
	a.Feed = service.NewNotificationFeed(a.Client.Notifications(),
		service.ParseMarkPolicy(cfg.MarkReadPolicy), logger.For("feed"))
	a.Invites = queue.NewDispatcher(0, a.Workspace, logger.For("invites"))
	return a, nil
}

func (a *App) openStorage(ctx context.Context) (ports.Storage, error) {
	sc := a.cfg.Storage
	switch sc.Kind {
	case "memory":
		return storage.NewMemory(), nil
	case "redis":
		s, err := redis.Open(ctx, redis.Options{Addr: a.cfg.Redis.Addr, DB: a.cfg.Redis.DB, Prefix: a.cfg.Redis.Prefix})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) { _ = s.Close() })
		return s, nil
	case "mongo":
		s, err := mongo.Open(ctx, mongo.Options{
			URI:        a.cfg.Mongo.URI,
			Database:   a.cfg.Mongo.Database,
			Collection: a.cfg.Mongo.Collection,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(ctx context.Context) { _ = s.Close(ctx) })
		return s, nil
	case "file":
		return storage.NewFile(sc.Path, sc.Secret, logger.For("storage"))
	default:
		return nil, fmt.Errorf("unknown storage %q", sc.Kind)
	}
}

// Storage is the store the session lives in.
func (a *App) Storage() ports.Storage { return a.store }

// Logout ends the session locally and remotely and forgets the refresh
// cookie.
func (a *App) Logout(ctx context.Context) {
	a.Auth.Logout(ctx)
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	if err := a.Session.Drain(dctx); err != nil {
		a.log.Debug().Err(err).Msg("remote logout still pending")
	}
	if err := a.jar.Clear(ctx); err != nil {
		a.log.Warn().Err(err).Msg("clearing cookies failed")
	}
}

// Close waits briefly for background work and releases connections.
func (a *App) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	if a.Session != nil {
		_ = a.Session.Drain(ctx)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
}

// navigator tells the terminal user to sign in again.
type navigator struct {
	w io.Writer
}

func (n navigator) RedirectToLogin(reason string) {
	fmt.Fprintf(n.w, "%s: run `pmdesk login` to sign in\n", reason)
}
