// Package linkedin fetches public company pages from the professional
// network and extracts the structured data they embed.
package linkedin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/resilience"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrAuthwall is returned when the public page redirects to a login wall.
// Callers treat it as an empty fragment.
var ErrAuthwall = eris.New("linkedin: authwall redirect, public access blocked")

// Employee is a personnel entry found on a company page.
type Employee struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// CompanyPage is the extracted content of one public company page.
type CompanyPage struct {
	URL           string     `json:"url"`
	Name          string     `json:"name,omitempty"`
	Website       string     `json:"website,omitempty"`
	About         string     `json:"about,omitempty"`
	Headquarters  string     `json:"headquarters,omitempty"`
	EmployeeCount string     `json:"employee_count,omitempty"`
	Employees     []Employee `json:"employees,omitempty"`
}

// Client fetches public company pages.
type Client interface {
	FetchCompany(ctx context.Context, pageURL string) (*CompanyPage, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	http *http.Client
}

// NewClient creates a public company-page client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var (
	employeeCountRe = regexp.MustCompile(`(?i)([\d,]+\+?)\s+employees`)
	hqRe            = regexp.MustCompile(`(?i)Headquarters:?\s*</[^>]+>\s*(?:<[^>]+>\s*)*([^<]{2,80})`)
	ogDescRe        = regexp.MustCompile(`<meta[^>]+property="og:description"[^>]+content="([^"]*)"`)
	ldJSONRe        = regexp.MustCompile(`(?s)<script type="application/ld\+json">(.*?)</script>`)
)

// FetchCompany fetches a public company page. Most structured data comes
// from the embedded JSON-LD Organization record; regex fallbacks cover
// pages that omit it.
func (c *httpClient) FetchCompany(ctx context.Context, pageURL string) (*CompanyPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "linkedin: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "linkedin: fetch page")
	}
	defer resp.Body.Close() //nolint:errcheck

	final := resp.Request.URL.String()
	if strings.Contains(final, "/authwall") || strings.Contains(final, "/login") {
		return nil, ErrAuthwall
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("linkedin: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, eris.Wrap(err, "linkedin: read response")
	}

	return ParsePage(pageURL, body), nil
}

// ldOrganization mirrors the subset of the JSON-LD Organization schema
// that public company pages embed.
type ldOrganization struct {
	Type    string `json:"@type"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	SameAs  string `json:"sameAs"`
	Address struct {
		Locality string `json:"addressLocality"`
		Region   string `json:"addressRegion"`
	} `json:"address"`
	NumberOfEmployees struct {
		Value int `json:"value"`
	} `json:"numberOfEmployees"`
	Employee []struct {
		Name     string `json:"name"`
		JobTitle string `json:"jobTitle"`
	} `json:"employee"`
}

// ParsePage extracts a CompanyPage from raw HTML. Exposed for fixture
// tests.
func ParsePage(pageURL string, body []byte) *CompanyPage {
	page := &CompanyPage{URL: pageURL}
	html := string(body)

	for _, m := range ldJSONRe.FindAllStringSubmatch(html, -1) {
		var org ldOrganization
		if err := json.Unmarshal([]byte(m[1]), &org); err != nil {
			continue
		}
		if !strings.EqualFold(org.Type, "Organization") {
			continue
		}
		page.Name = org.Name
		if org.SameAs != "" {
			page.Website = org.SameAs
		} else if org.URL != "" && !strings.Contains(org.URL, "linkedin.com") {
			page.Website = org.URL
		}
		if org.Address.Locality != "" {
			page.Headquarters = org.Address.Locality
			if org.Address.Region != "" {
				page.Headquarters += ", " + org.Address.Region
			}
		}
		for _, e := range org.Employee {
			if e.Name != "" {
				page.Employees = append(page.Employees, Employee{Name: e.Name, Title: e.JobTitle})
			}
		}
		break
	}

	if m := employeeCountRe.FindStringSubmatch(html); m != nil {
		page.EmployeeCount = m[1]
	}
	if page.Headquarters == "" {
		if m := hqRe.FindStringSubmatch(html); m != nil {
			page.Headquarters = strings.TrimSpace(m[1])
		}
	}
	if m := ogDescRe.FindStringSubmatch(html); m != nil {
		page.About = strings.TrimSpace(m[1])
	}

	return page
}
