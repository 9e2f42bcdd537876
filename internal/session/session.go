// Package session acquires the authenticated browser session required by
// the secondary-social adapter. Acquisition is lazy: nothing is read until
// the pipeline actually takes that branch, and the result is reused for
// the rest of the run.
package session

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // register browser cookie stores
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoSession is returned when no source can provide login cookies.
// Callers degrade to "no secondary-social data" rather than aborting.
var ErrNoSession = eris.New("session: no login cookies available")

// Source yields login cookies for a domain, or nil if unavailable.
type Source interface {
	Cookies(ctx context.Context, domain string) (map[string]string, error)
}

// BrowserSource reads cookies from local browser cookie stores via kooky.
type BrowserSource struct{}

// Cookies returns valid cookies for the domain from any installed browser.
// A failed read is not an error, just an empty result.
func (BrowserSource) Cookies(ctx context.Context, domain string) (map[string]string, error) {
	kookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(domain))
	if err != nil {
		zap.L().Debug("session: browser cookie read failed",
			zap.String("domain", domain), zap.Error(err))
		return nil, nil
	}
	if len(kookies) == 0 {
		return nil, nil
	}

	cookies := make(map[string]string, len(kookies))
	for _, k := range kookies {
		cookies[k.Name] = k.Value
	}
	return cookies, nil
}

// essentialEnvCookies maps a domain to the env-var-backed cookie names
// that constitute a usable session.
var essentialEnvCookies = map[string]map[string]string{
	"facebook.com": {
		"c_user": "FACEBOOK_C_USER",
		"xs":     "FACEBOOK_XS",
	},
}

// EnvSource reads session cookies from environment variables, for
// headless environments without a browser profile.
type EnvSource struct{}

// Cookies returns env-provided cookies for the domain. All essential
// cookies must be present; a partial session is worse than none.
func (EnvSource) Cookies(_ context.Context, domain string) (map[string]string, error) {
	wanted, ok := essentialEnvCookies[domain]
	if !ok {
		return nil, nil
	}
	cookies := make(map[string]string, len(wanted))
	for name, envVar := range wanted {
		v := os.Getenv(envVar)
		if v == "" {
			return nil, nil
		}
		cookies[name] = v
	}
	return cookies, nil
}

// Manager lazily acquires one authenticated http.Client per run.
type Manager struct {
	domain  string
	sources []Source

	mu     sync.Mutex
	tried  bool
	client *http.Client
	err    error
}

// NewManager creates a Manager for a domain. Sources are consulted in
// order; defaults are browser cookies then environment variables.
func NewManager(domain string, sources ...Source) *Manager {
	if len(sources) == 0 {
		sources = []Source{BrowserSource{}, EnvSource{}}
	}
	return &Manager{domain: domain, sources: sources}
}

// Client returns the authenticated client, acquiring it on first call.
// The outcome (client or failure) is memoized for the run.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tried {
		return m.client, m.err
	}
	m.tried = true
	m.client, m.err = m.acquire(ctx)
	return m.client, m.err
}

func (m *Manager) acquire(ctx context.Context) (*http.Client, error) {
	var cookies map[string]string
	for _, src := range m.sources {
		c, err := src.Cookies(ctx, m.domain)
		if err != nil {
			return nil, eris.Wrap(err, "session: read cookies")
		}
		if len(c) > 0 {
			cookies = c
			break
		}
	}
	if len(cookies) == 0 {
		return nil, ErrNoSession
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, eris.Wrap(err, "session: create cookie jar")
	}

	u, err := url.Parse("https://" + m.domain)
	if err != nil {
		return nil, eris.Wrapf(err, "session: parse domain %s", m.domain)
	}

	httpCookies := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		if value == "" {
			continue
		}
		httpCookies = append(httpCookies, &http.Cookie{
			Name:   name,
			Value:  value,
			Domain: "." + m.domain,
			Path:   "/",
		})
	}
	jar.SetCookies(u, httpCookies)

	zap.L().Info("session: acquired",
		zap.String("domain", m.domain),
		zap.Int("cookies", len(httpCookies)),
	)

	return &http.Client{
		Jar:     jar,
		Timeout: 20 * time.Second,
	}, nil
}
