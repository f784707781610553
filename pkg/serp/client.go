// Package serp provides the ranking oracle: given a keyword and a
// coordinate, at what position does a target business appear among the
// local results there.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/visibility-audit/internal/resilience"
)

const defaultBaseURL = "https://serpapi.com"

// Client answers local-rank queries for a business at a coordinate.
type Client interface {
	// GetRank returns the 1-based position of the place among local
	// results for keyword at (lat, lng), or found=false when the place is
	// absent from the sampled result set.
	GetRank(ctx context.Context, keyword string, lat, lng float64, placeID, language string) (rank int, found bool, err error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithQPS bounds the client-side request rate. Zero disables the limiter.
func WithQPS(qps float64) Option {
	return func(c *httpClient) {
		if qps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(qps), 1)
		}
	}
}

// WithRetry overrides the default retry policy. Retries live here, not in
// the grid sampler.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithBreaker installs a circuit breaker across all rank queries. When
// the provider is down, the breaker fails whole grid points fast instead
// of burning quota and retry budget on each one.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) {
		c.breaker = b
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.Breaker
}

// NewClient creates a SerpApi-backed ranking client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	LocalResults []localResult `json:"local_results"`
	Error        string        `json:"error"`
}

type localResult struct {
	Position int    `json:"position"`
	PlaceID  string `json:"place_id"`
	Title    string `json:"title"`
}

func (c *httpClient) GetRank(ctx context.Context, keyword string, lat, lng float64, placeID, language string) (int, bool, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, false, eris.Wrap(err, "serp: rate limit wait")
		}
	}

	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return 0, false, err
		}
	}

	result, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*searchResponse, error) {
		return c.search(ctx, keyword, lat, lng, language)
	})
	if c.breaker != nil {
		c.breaker.Record(err)
	}
	if err != nil {
		return 0, false, err
	}

	// Match the target by its directory identity. The provider echoes
	// place ids, so no fuzzy title matching is needed.
	for i, r := range result.LocalResults {
		if r.PlaceID == placeID {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func (c *httpClient) search(ctx context.Context, keyword string, lat, lng float64, language string) (*searchResponse, error) {
	hl, gl := splitLanguage(language)

	q := url.Values{}
	q.Set("engine", "google_maps")
	q.Set("type", "search")
	q.Set("q", keyword)
	q.Set("ll", fmt.Sprintf("@%f,%f,15z", lat, lng))
	q.Set("hl", hl)
	if gl != "" {
		q.Set("gl", gl)
	}
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "serp: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "serp: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serp: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("serp: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "serp: unmarshal response")
	}
	if result.Error != "" {
		return nil, eris.Errorf("serp: provider error: %s", result.Error)
	}

	return &result, nil
}
