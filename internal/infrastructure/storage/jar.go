package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmdesk/pmdesk/internal/core/ports"
)

// KeyCookies is the storage key holding the persisted cookies.
const KeyCookies = "cookies"

const persistTimeout = 5 * time.Second

// PersistentJar is an http.CookieJar that writes the cookies of one origin
// (the API) to a Storage, so the refresh cookie outlives the process.
// Cookies of other hosts are kept in memory only.
type PersistentJar struct {
	jar    *cookiejar.Jar
	origin *url.URL
	store  ports.Storage
	log    zerolog.Logger

	mu    sync.Mutex
	saved map[string]*http.Cookie
}

type savedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
}

// NewPersistentJar restores the cookies saved for origin.
func NewPersistentJar(ctx context.Context, origin *url.URL, store ports.Storage, log zerolog.Logger) (*PersistentJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	o := &url.URL{Scheme: origin.Scheme, Host: origin.Host, Path: "/"}
	j := &PersistentJar{jar: jar, origin: o, store: store, log: log, saved: make(map[string]*http.Cookie)}

	raw, ok, err := store.Get(ctx, KeyCookies)
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	if !ok {
		return j, nil
	}
	var list []savedCookie
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable stored cookies")
		return j, nil
	}
	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(list))
	for _, s := range list {
		if !s.Expires.IsZero() && s.Expires.Before(now) {
			continue
		}
		c := &http.Cookie{
			Name: s.Name, Value: s.Value, Path: s.Path, Domain: s.Domain,
			Expires: s.Expires, Secure: s.Secure, HttpOnly: s.HttpOnly,
		}
		cookies = append(cookies, c)
		j.saved[cookieKey(c)] = c
	}
	jar.SetCookies(o, cookies)
	return j, nil
}

func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	for _, c := range cookies {
		k := cookieKey(c)
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(j.saved, k)
			continue
		}
		cp := *c
		if c.MaxAge > 0 {
			cp.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.saved[k] = &cp
	}
	j.persist()
}

// Clear forgets every cookie of the origin.
func (j *PersistentJar) Clear(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	expired := make([]*http.Cookie, 0, len(j.saved))
	for _, c := range j.saved {
		expired = append(expired, &http.Cookie{Name: c.Name, Path: c.Path, Domain: c.Domain, MaxAge: -1})
	}
	j.jar.SetCookies(j.origin, expired)
	j.saved = make(map[string]*http.Cookie)
	return j.store.Delete(ctx, KeyCookies)
}

// persist writes the origin's cookies. Caller holds j.mu.
func (j *PersistentJar) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if len(j.saved) == 0 {
		if err := j.store.Delete(ctx, KeyCookies); err != nil {
			j.log.Warn().Err(err).Msg("removing stored cookies failed")
		}
		return
	}
	list := make([]savedCookie, 0, len(j.saved))
	for _, c := range j.saved {
		list = append(list, savedCookie{
			Name: c.Name, Value: c.Value, Path: c.Path, Domain: c.Domain,
			Expires: c.Expires, Secure: c.Secure, HttpOnly: c.HttpOnly,
		})
	}
	raw, err := json.Marshal(list)
	if err != nil {
		j.log.Warn().Err(err).Msg("encoding cookies failed")
		return
	}
	if err := j.store.Set(ctx, KeyCookies, string(raw)); err != nil {
		j.log.Warn().Err(err).Msg("storing cookies failed")
	}
}

func cookieKey(c *http.Cookie) string {
	return c.Domain + ";" + c.Path + ";" + c.Name
}
