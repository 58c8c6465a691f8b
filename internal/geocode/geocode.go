// Package geocode is a small Nominatim search client.
//
// Calls are serialized through a token-bucket limiter (burst 1) so the
// configured minimum spacing between requests is honoured even when several
// callers share one Client.
package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "rota_da_festa_bot_v4"
	DefaultInterval  = time.Second
	DefaultTimeout   = 10 * time.Second
)

// ErrStatus is returned when the service answers with a non-200 status
var ErrStatus = errors.New("geocoder returned unexpected status")

// Place is a single geocoding result
type Place struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}

// ShortName returns the first comma-separated segment of the display name,
// which for venues is usually the stadium itself.
func (p Place) ShortName() string {
	name, _, _ := strings.Cut(p.DisplayName, ",")
	return strings.TrimSpace(name)
}

// Client queries a Nominatim-compatible /search endpoint
type Client struct {
	baseURL     string
	userAgent   string
	countryCode string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another Nominatim instance
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithUserAgent sets the User-Agent sent with every request
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithInterval sets the minimum spacing between requests. Zero disables limiting.
func WithInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithHTTPClient replaces the HTTP client (and its timeout)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client with the public Nominatim defaults
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		userAgent:   DefaultUserAgent,
		countryCode: "pt",
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Every(DefaultInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves free text to a place. A query with no results returns
// (Place{}, false, nil); transport, status and decoding problems return an error.
func (c *Client) Geocode(ctx context.Context, query string) (Place, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Place{}, false, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Place{}, false, errors.Wrap(err, "waiting for rate limiter")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	if c.countryCode != "" {
		params.Set("countrycodes", c.countryCode)
	}
	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Place{}, false, errors.Wrap(err, "creating request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Place{}, false, errors.Wrap(err, "making request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, false, errors.Wrapf(ErrStatus, "status %d for %q", resp.StatusCode, query)
	}

	var results []searchResult
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Place{}, false, errors.Wrap(err, "parsing response")
	}
	if len(results) == 0 {
		return Place{}, false, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Place{}, false, errors.Wrapf(err, "parsing latitude %q", results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Place{}, false, errors.Wrapf(err, "parsing longitude %q", results[0].Lon)
	}

	return Place{Latitude: lat, Longitude: lon, DisplayName: results[0].DisplayName}, true, nil
}
