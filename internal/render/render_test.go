package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureHTML = `<!DOCTYPE html>
<html>
<head><title>Acme Plumbing</title><script>var x = "ignore@script.com";</script></head>
<body>
<h1>Acme Plumbing</h1>
<p>Office: (512) 555-0101</p>
<div>info@acme.com</div>
<a href="/contact">Contact</a>
<a href="https://facebook.com/acme">Facebook</a>
<a href="mailto:info@acme.com">Email us</a>
<a href="#top">Top</a>
<a href="tel:+15125550101">Call</a>
</body>
</html>`

func TestParse_TextAndLinks(t *testing.T) {
	page, err := Parse("https://acme.com/home", []byte(fixtureHTML))
	require.NoError(t, err)

	assert.Equal(t, "Acme Plumbing", page.Title)
	assert.Contains(t, page.Text, "Office: (512) 555-0101")
	assert.Contains(t, page.Text, "info@acme.com")
	assert.NotContains(t, page.Text, "ignore@script.com")

	// Relative links resolve against the page URL; mailto/tel/fragment
	// links are dropped.
	assert.Equal(t, []string{
		"https://acme.com/contact",
		"https://facebook.com/acme",
	}, page.OutboundLinks)
}

func TestParse_BlockElementsBreakLines(t *testing.T) {
	html := `<html><body><div>123 Main St</div><div>Austin, TX 78701</div></body></html>`
	page, err := Parse("https://acme.com", []byte(html))
	require.NoError(t, err)

	lines := strings.Split(page.Text, "\n")
	assert.Contains(t, lines, "123 Main St")
	assert.Contains(t, lines, "Austin, TX 78701")
}

func TestRender_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(fixtureHTML))
	}))
	defer srv.Close()

	page, err := NewHTTPRenderer().Render(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "Acme Plumbing", page.Title)
}

func TestRender_Soft404StillParsed(t *testing.T) {
	body := "<html><head><title>Oops</title></head><body><p>Page moved, but here is our info:</p><p>Office: (512) 555-0101</p>" +
		strings.Repeat("<p>We are Acme Plumbing of Austin, Texas.</p>", 20) +
		"</body></html>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	page, err := NewHTTPRenderer().Render(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, page.StatusCode)
	assert.Contains(t, page.Text, "(512) 555-0101")
}

func TestRender_Bare404Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPRenderer().Render(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestRender_TinyPageFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	_, err := NewHTTPRenderer().Render(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestRender_BlockedByCaptcha(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Please complete the reCAPTCHA to continue. ` +
			strings.Repeat("x", 200) + `</body></html>`))
	}))
	defer srv.Close()

	_, err := NewHTTPRenderer().Render(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestRender_BlockedJSShell(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><noscript>Please enable JavaScript to view this site.</noscript></body></html>`))
	}))
	defer srv.Close()

	_, err := NewHTTPRenderer().Render(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBlocked)
}
