package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/ports"
)

const revokeTimeout = 10 * time.Second

type SessionOption func(*SessionStore)

// WithClaimPolicy sets what happens to the company when a token's claim
// cannot be read. The default keeps the previous company.
func WithClaimPolicy(p domain.CompanyClaimPolicy) SessionOption {
	return func(s *SessionStore) { s.policy = p }
}

func WithNavigator(n ports.Navigator) SessionOption {
	return func(s *SessionStore) { s.navigator = n }
}

func WithRevoker(r ports.SessionRevoker) SessionOption {
	return func(s *SessionStore) { s.revoker = r }
}

// SessionStore is the single owner of the session. All mutation goes
// through SetToken, SetUser and Logout; each one is written through to
// storage before it returns.
type SessionStore struct {
	storage ports.Storage
	decoder ports.TokenDecoder
	policy  domain.CompanyClaimPolicy
	log     zerolog.Logger

	mu        sync.RWMutex
	state     domain.Session
	navigator ports.Navigator
	revoker   ports.SessionRevoker

	pending sync.WaitGroup
}

// NewSessionStore restores the persisted session. Unreadable entries are
// logged and skipped; only storage failures are returned.
func NewSessionStore(ctx context.Context, storage ports.Storage, decoder ports.TokenDecoder, log zerolog.Logger, opts ...SessionOption) (*SessionStore, error) {
	s := &SessionStore{storage: storage, decoder: decoder, log: log}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SessionStore) load(ctx context.Context) error {
	token, ok, err := s.storage.Get(ctx, domain.KeyToken)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if ok {
		s.state.AccessToken = token
	}

	raw, ok, err := s.storage.Get(ctx, domain.KeyUser)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if ok && raw != "" {
		var u domain.UserProfile
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.log.Warn().Err(err).Msg("discarding unreadable stored user")
		} else {
			s.state.User = &u
		}
	}

	raw, ok, err = s.storage.Get(ctx, domain.KeyCompanyID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if ok && s.state.AccessToken != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			s.state.CompanyID = &id
		} else {
			s.log.Warn().Str("value", raw).Msg("discarding unreadable stored company id")
		}
	}
	return nil
}

// SetRevoker attaches the remote logout call after construction, for when
// the revoker itself depends on the store.
func (s *SessionStore) SetRevoker(r ports.SessionRevoker) {
	s.mu.Lock()
	s.revoker = r
	s.mu.Unlock()
}

func (s *SessionStore) SetNavigator(n ports.Navigator) {
	s.mu.Lock()
	s.navigator = n
	s.mu.Unlock()
}

// SetToken stores a new access token and re-derives the company from it.
// An empty token clears the token and the company.
func (s *SessionStore) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		s.state.AccessToken = ""
		s.state.CompanyID = nil
		if err := s.storage.Delete(ctx, domain.KeyToken, domain.KeyCompanyID); err != nil {
			return fmt.Errorf("clear token: %w", err)
		}
		return nil
	}

	s.state.AccessToken = token
	company, err := s.decoder.CompanyID(token)
	switch {
	case err == nil:
		s.state.CompanyID = &company
	case s.policy == domain.ClearCompany:
		s.log.Warn().Err(err).Msg("company claim unreadable, clearing company")
		s.state.CompanyID = nil
	default:
		s.log.Warn().Err(err).Msg("company claim unreadable, keeping previous company")
	}

	if err := s.storage.Set(ctx, domain.KeyToken, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if s.state.CompanyID == nil {
		err = s.storage.Delete(ctx, domain.KeyCompanyID)
	} else {
		err = s.storage.Set(ctx, domain.KeyCompanyID, strconv.FormatInt(*s.state.CompanyID, 10))
	}
	if err != nil {
		return fmt.Errorf("persist company: %w", err)
	}
	return nil
}

// SetUser replaces the profile wholesale. nil clears it.
func (s *SessionStore) SetUser(ctx context.Context, user *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user == nil {
		s.state.User = nil
		if err := s.storage.Delete(ctx, domain.KeyUser); err != nil {
			return fmt.Errorf("clear user: %w", err)
		}
		return nil
	}

	u := user.Clone()
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	s.state.User = u
	if err := s.storage.Set(ctx, domain.KeyUser, string(raw)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

// Logout clears the session locally, asks the server to drop the refresh
// cookie without waiting for the answer, and sends the user to the login
// screen. It is idempotent and never fails.
func (s *SessionStore) Logout(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("logout recovered")
		}
	}()

	s.mu.Lock()
	s.state = domain.Session{}
	err := s.storage.Delete(ctx, domain.KeyToken, domain.KeyUser, domain.KeyCompanyID)
	revoker, nav := s.revoker, s.navigator
	s.mu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Msg("clearing persisted session failed")
	}

	if revoker != nil {
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().Interface("panic", r).Msg("remote logout recovered")
				}
			}()
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revokeTimeout)
			defer cancel()
			if err := revoker.Logout(rctx); err != nil {
				s.log.Debug().Err(err).Msg("remote logout failed")
			}
		}()
	}

	if nav != nil {
		nav.RedirectToLogin("logged out")
	}
}

// Drain waits for outstanding remote logouts, or for ctx to end.
func (s *SessionStore) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the session that is safe to keep.
func (s *SessionStore) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := domain.Session{AccessToken: s.state.AccessToken, User: s.state.User.Clone()}
	if s.state.CompanyID != nil {
		id := *s.state.CompanyID
		out.CompanyID = &id
	}
	return out
}

func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

func (s *SessionStore) User() *domain.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User.Clone()
}

func (s *SessionStore) CompanyID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.CompanyID == nil {
		return 0, false
	}
	return *s.state.CompanyID, true
}
