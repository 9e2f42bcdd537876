// Package render fetches and parses web pages for the enrichment pipeline.
// It is the PageAdapter boundary: the pipeline only sees visible text and
// outbound links, never raw HTML.
package render

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

const (
	maxBodyBytes = 512 * 1024
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrBlocked is returned when a page shows anti-bot protection markers.
var ErrBlocked = eris.New("render: blocked by anti-bot protection")

// Page is the rendered content of one URL.
type Page struct {
	URL           string   `json:"url"`
	Title         string   `json:"title,omitempty"`
	Text          string   `json:"text"`
	OutboundLinks []string `json:"outbound_links,omitempty"`
	StatusCode    int      `json:"status_code"`
}

// Renderer fetches a URL and returns its visible content.
type Renderer interface {
	Render(ctx context.Context, url string) (*Page, error)
}

// HTTPRenderer renders pages via plain net/http. No JavaScript execution;
// pages that need it are detected as JS shells and reported as blocked.
type HTTPRenderer struct {
	client *http.Client
}

// NewHTTPRenderer creates an HTTPRenderer with dialing timeouts suited to
// crawling unknown small-business sites.
func NewHTTPRenderer() *HTTPRenderer {
	return &HTTPRenderer{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Render fetches a URL, detects blocks, and parses the document into
// visible text plus resolved outbound links. A 4xx status with a
// substantial body is still parsed: many small-business sites serve
// soft-404 pages that carry real contact content.
func (r *HTTPRenderer) Render(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "render: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "render: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "render: read body")
	}

	if blocked(resp, body) {
		return nil, ErrBlocked
	}

	if resp.StatusCode >= 400 && len(body) < 500 {
		return nil, eris.Errorf("render: status %d for %s", resp.StatusCode, targetURL)
	}
	if len(body) < 100 {
		return nil, eris.Errorf("render: empty page %s", targetURL)
	}

	page, err := Parse(targetURL, body)
	if err != nil {
		return nil, err
	}
	page.StatusCode = resp.StatusCode
	return page, nil
}

// Parse builds a Page from raw HTML. Exposed separately so extraction
// tests can feed fixture documents without a live fetch.
func Parse(pageURL string, body []byte) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, eris.Wrap(err, "render: parse html")
	}

	base, _ := url.Parse(pageURL)

	var (
		text  strings.Builder
		title string
		links []string
		seen  = map[string]bool{}
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg":
				return
			case "title":
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			case "a":
				if link := resolveHref(base, n); link != "" && !seen[link] {
					seen[link] = true
					links = append(links, link)
				}
			case "br", "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "address":
				text.WriteByte('\n')
			}
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				text.WriteString(t)
				text.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return &Page{
		URL:           pageURL,
		Title:         title,
		Text:          collapseBlankLines(text.String()),
		OutboundLinks: links,
	}, nil
}

func resolveHref(base *url.URL, n *html.Node) string {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	ref.Fragment = ""
	return ref.String()
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}

// blocked checks an HTTP response for signs of anti-bot protection.
func blocked(resp *http.Response, body []byte) bool {
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("server") == "cloudflare" {
			return true
		}
	}

	lower := strings.ToLower(string(body))
	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") {
		return true
	}
	if strings.Contains(lower, "recaptcha") || strings.Contains(lower, "hcaptcha") {
		return true
	}
	// JS-only shell: tiny body that tells noscript readers to enable JS.
	if len(body) < 2000 && strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
		return true
	}
	return false
}
