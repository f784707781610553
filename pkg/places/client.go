// Package places is a client for the Google Places API (New), the place
// directory behind business identity resolution and profile lookup.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-audit/internal/resilience"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// ErrNotFound reports that no place matched the query or id.
var ErrNotFound = eris.New("places: not found")

// Client performs place directory operations.
type Client interface {
	// SearchText resolves free-text search intent to a place id.
	SearchText(ctx context.Context, query, language string) (string, error)
	// GetPlace fetches the full public profile of a place.
	GetPlace(ctx context.Context, placeID, language string) (*Place, error)
}

// Place is the profile shape returned by the API.
type Place struct {
	ID                  string        `json:"id"`
	DisplayName         DisplayName   `json:"displayName"`
	Rating              float64       `json:"rating"`
	UserRatingCount     int           `json:"userRatingCount"`
	FormattedAddress    string        `json:"formattedAddress"`
	InternationalPhone  string        `json:"internationalPhoneNumber"`
	WebsiteURI          string        `json:"websiteUri"`
	GoogleMapsURI       string        `json:"googleMapsUri"`
	BusinessStatus      string        `json:"businessStatus"`
	Types               []string      `json:"types"`
	RegularOpeningHours *OpeningHours `json:"regularOpeningHours"`
	Photos              []Photo       `json:"photos"`
	Reviews             []Review      `json:"reviews"`
	Location            LatLng        `json:"location"`
}

// DisplayName holds the place's localized display name.
type DisplayName struct {
	Text string `json:"text"`
}

// OpeningHours holds the weekly opening schedule.
type OpeningHours struct {
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

// Photo is a photo reference; only its presence matters here.
type Photo struct {
	Name string `json:"name"`
}

// Review is one review attached to the profile.
type Review struct {
	Rating                         float64      `json:"rating"`
	Text                           *LocalText   `json:"text"`
	OriginalText                   *LocalText   `json:"originalText"`
	RelativePublishTimeDescription string       `json:"relativePublishTimeDescription"`
	AuthorAttribution              *Attribution `json:"authorAttribution"`
}

// LocalText is a localized text payload.
type LocalText struct {
	Text string `json:"text"`
}

// Attribution identifies a review author.
type Attribution struct {
	DisplayName string `json:"displayName"`
}

// LatLng is the API's coordinate shape.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Body returns the review text, preferring the localized form.
func (r Review) Body() string {
	if r.Text != nil && r.Text.Text != "" {
		return r.Text.Text
	}
	if r.OriginalText != nil {
		return r.OriginalText.Text
	}
	return ""
}

// Author returns the review author's display name.
func (r Review) Author() string {
	if r.AuthorAttribution != nil && r.AuthorAttribution.DisplayName != "" {
		return r.AuthorAttribution.DisplayName
	}
	return "Anonymous"
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

// WithRetry overrides the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchTextRequest struct {
	TextQuery    string `json:"textQuery"`
	LanguageCode string `json:"languageCode,omitempty"`
}

type searchTextResponse struct {
	Places []struct {
		ID string `json:"id"`
	} `json:"places"`
}

const detailFieldMask = "id,displayName,rating,userRatingCount,formattedAddress," +
	"internationalPhoneNumber,websiteUri,googleMapsUri,businessStatus,types," +
	"regularOpeningHours,photos,reviews,location"

func (c *httpClient) SearchText(ctx context.Context, query, language string) (string, error) {
	body, err := json.Marshal(searchTextRequest{TextQuery: query, LanguageCode: language})
	if err != nil {
		return "", eris.Wrap(err, "places: marshal request")
	}

	respBody, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodPost, "/places:searchText", "places.id", body)
	})
	if err != nil {
		return "", err
	}

	var result searchTextResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", eris.Wrap(err, "places: unmarshal search response")
	}
	if len(result.Places) == 0 {
		return "", eris.Wrapf(ErrNotFound, "query %q", query)
	}
	return result.Places[0].ID, nil
}

func (c *httpClient) GetPlace(ctx context.Context, placeID, language string) (*Place, error) {
	path := "/places/" + url.PathEscape(placeID)
	if language != "" {
		path += "?languageCode=" + url.QueryEscape(language)
	}

	respBody, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodGet, path, detailFieldMask, nil)
	})
	if err != nil {
		return nil, err
	}

	var place Place
	if err := json.Unmarshal(respBody, &place); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal place")
	}
	if place.ID == "" && place.DisplayName.Text == "" {
		return nil, eris.Wrapf(ErrNotFound, "place %s", placeID)
	}
	return &place, nil
}

func (c *httpClient) do(ctx context.Context, method, path, fieldMask string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	return respBody, nil
}
