// Package resolver extracts business search intent from a shared maps
// link: it follows shortener redirects and pulls a query string or a
// directory identifier out of the many URL shapes those links take.
package resolver

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrParseFailed reports that no search intent could be extracted from
// the URL and no usable fallback text was provided. Callers surface this
// as a request for manual fallback text.
var ErrParseFailed = eris.New("resolver: could not extract query from url")

const minQueryLength = 3

// shortenerHosts are link-shortener domains that hide the real maps URL
// behind a redirect chain.
var shortenerHosts = []string{
	"maps.app.goo.gl",
	"goo.gl",
	"g.page",
}

// Resolver turns raw shared links into place-directory query text.
type Resolver struct {
	http *http.Client
}

// Option configures the resolver.
type Option func(*Resolver)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		r.http = hc
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve extracts query text from rawURL, using fallbackText when the
// URL yields nothing. An empty result shorter than three characters is a
// parse failure.
func (r *Resolver) Resolve(ctx context.Context, rawURL, fallbackText string) (string, error) {
	query := ""

	if rawURL != "" {
		finalURL := r.followRedirects(ctx, rawURL)
		query = parseMapsURL(finalURL)
	}

	if len(query) < minQueryLength {
		query = strings.TrimSpace(fallbackText)
	}
	if len(query) < minQueryLength {
		return "", eris.Wrapf(ErrParseFailed, "url %q", rawURL)
	}
	return query, nil
}

// followRedirects resolves shortened links to their destination. Any
// failure falls back to the original URL; the parse step decides whether
// that is usable.
func (r *Resolver) followRedirects(ctx context.Context, rawURL string) string {
	if !isShortened(rawURL) {
		return rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawURL
	}

	resp, err := r.http.Do(req)
	if err != nil {
		zap.L().Warn("short link resolution failed", zap.String("url", rawURL), zap.Error(err))
		return rawURL
	}
	defer resp.Body.Close() //nolint:errcheck

	return resp.Request.URL.String()
}

func isShortened(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, h := range shortenerHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// parseMapsURL extracts query text or a directory identifier from a maps
// URL. Returns "" when nothing usable is present.
func parseMapsURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	params := u.Query()

	// Opaque numeric identifiers take precedence: they address the
	// business directly, no text search needed.
	for _, key := range []string{"ludocid", "cid", "kgmid"} {
		if v := params.Get(key); v != "" {
			return key + ":" + v
		}
	}

	if seg := pathSegmentAfter(u.EscapedPath(), "place"); seg != "" {
		return seg
	}

	if q := params.Get("q"); q != "" {
		return strings.TrimSpace(q)
	}
	if q := params.Get("query"); q != "" {
		return strings.TrimSpace(q)
	}

	return pathSegmentAfter(u.EscapedPath(), "search")
}

// pathSegmentAfter returns the decoded path segment following marker in
// a /maps/<marker>/<value> path, with '+' treated as space.
func pathSegmentAfter(escapedPath, marker string) string {
	parts := strings.Split(escapedPath, "/")
	for i, p := range parts {
		if p != marker || i+1 >= len(parts) || parts[i+1] == "" {
			continue
		}
		seg := strings.ReplaceAll(parts[i+1], "+", " ")
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return strings.TrimSpace(seg)
		}
		return strings.TrimSpace(decoded)
	}
	return ""
}
