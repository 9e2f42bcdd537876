// Package instagram fetches public profile data for a seed handle.
package instagram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/resilience"
)

const (
	defaultBaseURL = "https://www.instagram.com/api/v1"

	// webAppID is the public web client identifier Instagram expects on
	// API requests from browsers.
	webAppID = "936619743392459"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrProfileNotFound is returned when a handle does not resolve to an
// existing profile. This is the only fatal condition in the pipeline.
var ErrProfileNotFound = eris.New("instagram: profile not found")

// Profile is the public bio data for one handle.
type Profile struct {
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	Bio         string `json:"bio"`
	ExternalURL string `json:"external_url,omitempty"`
	Location    string `json:"location,omitempty"`
	Followers   int    `json:"followers"`
	IsBusiness  bool   `json:"is_business"`
}

// Client fetches public Instagram profiles.
type Client interface {
	FetchProfile(ctx context.Context, handle string) (*Profile, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an Instagram web-profile client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type webProfileResponse struct {
	Data struct {
		User *struct {
			Username       string `json:"username"`
			FullName       string `json:"full_name"`
			Biography      string `json:"biography"`
			ExternalURL    string `json:"external_url"`
			IsBusiness     bool   `json:"is_business_account"`
			EdgeFollowedBy struct {
				Count int `json:"count"`
			} `json:"edge_followed_by"`
			BusinessAddressJSON string `json:"business_address_json"`
		} `json:"user"`
	} `json:"data"`
	Status string `json:"status"`
}

type businessAddress struct {
	StreetAddress string `json:"street_address"`
	CityName      string `json:"city_name"`
	RegionName    string `json:"region_name"`
	ZipCode       string `json:"zip_code"`
}

// FetchProfile fetches the public web-profile record for a handle.
// Returns ErrProfileNotFound for handles that do not resolve.
func (c *httpClient) FetchProfile(ctx context.Context, handle string) (*Profile, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return nil, eris.New("instagram: empty handle")
	}

	endpoint := c.baseURL + "/users/web_profile_info/?username=" + url.QueryEscape(handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "instagram: create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-IG-App-ID", webAppID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "instagram: fetch profile")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "instagram: read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("instagram: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var parsed webProfileResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "instagram: unmarshal response")
	}
	if parsed.Data.User == nil {
		return nil, ErrProfileNotFound
	}

	u := parsed.Data.User
	p := &Profile{
		Username:    u.Username,
		FullName:    u.FullName,
		Bio:         u.Biography,
		ExternalURL: u.ExternalURL,
		Followers:   u.EdgeFollowedBy.Count,
		IsBusiness:  u.IsBusiness,
	}

	// Business accounts expose a structured address; its city/region is
	// the best location hint the bio stage can produce.
	if u.BusinessAddressJSON != "" {
		var addr businessAddress
		if err := json.Unmarshal([]byte(u.BusinessAddressJSON), &addr); err == nil {
			p.Location = joinLocation(addr.CityName, addr.RegionName)
		}
	}

	return p, nil
}

func joinLocation(city, region string) string {
	switch {
	case city != "" && region != "":
		return city + ", " + region
	case city != "":
		return city
	default:
		return region
	}
}
