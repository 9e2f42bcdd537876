// Package facebook fetches contact details from public business pages.
// Page access requires an authenticated browser session; without one
// Facebook serves a login interstitial instead of page content.
package facebook

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var (
	// ErrAuthRequired is returned when no session is available or the
	// page redirects to a login wall. Callers degrade, never retry.
	ErrAuthRequired = eris.New("facebook: authentication required")

	// ErrRateLimited is returned on throttling responses. Callers
	// degrade, never retry.
	ErrRateLimited = eris.New("facebook: rate limited")
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+1[\s.\-]?)?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]?\d{4}\b`)
	tagRe   = regexp.MustCompile(`<[^>]+>`)
)

// ContactInfo is the contact data extracted from one page. Text carries
// the page's visible content so callers can run richer address heuristics
// than this client attempts.
type ContactInfo struct {
	Emails []string `json:"emails,omitempty"`
	Phones []string `json:"phones,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Client fetches contact info from business pages.
type Client interface {
	FetchContact(ctx context.Context, pageURL string) (*ContactInfo, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient sets the authenticated http.Client (cookie jar included)
// supplied by the session manager.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	http *http.Client
}

// NewClient creates a Facebook page client. Without WithHTTPClient the
// client has no session and every fetch fails with ErrAuthRequired.
func NewClient(opts ...Option) Client {
	c := &httpClient{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchContact loads a business page's About content and extracts emails,
// phone numbers and address lines.
func (c *httpClient) FetchContact(ctx context.Context, pageURL string) (*ContactInfo, error) {
	if c.http == nil {
		return nil, ErrAuthRequired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, aboutURL(pageURL), nil)
	if err != nil {
		return nil, eris.Wrap(err, "facebook: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "facebook: fetch page")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "facebook: read response")
	}

	if loginWalled(resp, body) {
		return nil, ErrAuthRequired
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("facebook: unexpected status %d", resp.StatusCode)
	}

	text := stripMarkup(string(body))
	info := &ContactInfo{Text: text}

	for _, m := range emailRe.FindAllString(text, -1) {
		info.Emails = appendUnique(info.Emails, strings.ToLower(m))
	}
	for _, m := range phoneRe.FindAllString(text, -1) {
		info.Phones = appendUnique(info.Phones, m)
	}

	return info, nil
}

// aboutURL points a page URL at its About tab, where contact details live.
func aboutURL(pageURL string) string {
	trimmed := strings.TrimSuffix(pageURL, "/")
	if strings.HasSuffix(trimmed, "/about") {
		return trimmed
	}
	return trimmed + "/about"
}

// loginWalled detects the login interstitial served to unauthenticated
// requests.
func loginWalled(resp *http.Response, body []byte) bool {
	if loc := resp.Request.URL.String(); strings.Contains(loc, "/login") {
		return true
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "login_form") ||
		strings.Contains(lower, "you must log in to continue")
}

func stripMarkup(s string) string {
	for _, tag := range []string{"script", "style"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		s = re.ReplaceAllString(s, "")
	}
	s = tagRe.ReplaceAllString(s, "\n")
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}

func appendUnique(in []string, v string) []string {
	for _, s := range in {
		if s == v {
			return in
		}
	}
	return append(in, v)
}
