// Package audit orchestrates report generation: resolve the input to a
// business, check the report cache, then run profile scoring and grid
// sampling and persist the result.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-audit/internal/geogrid"
	"github.com/sells-group/visibility-audit/internal/keyword"
	"github.com/sells-group/visibility-audit/internal/model"
	"github.com/sells-group/visibility-audit/internal/resolver"
	"github.com/sells-group/visibility-audit/internal/sampler"
	"github.com/sells-group/visibility-audit/internal/store"
	"github.com/sells-group/visibility-audit/pkg/narrative"
	"github.com/sells-group/visibility-audit/pkg/places"
)

// DefaultLanguage is used when a request carries no language tag.
const DefaultLanguage = "pt-BR"

// Request is one report-generation request.
type Request struct {
	URL          string `json:"url"`
	FallbackText string `json:"fallback_text,omitempty"`
	Keyword      string `json:"keyword,omitempty"`
	Language     string `json:"language,omitempty"`
}

// Pipeline wires the collaborators behind report generation.
type Pipeline struct {
	resolver  *resolver.Resolver
	places    places.Client
	narrative narrative.Generator
	sampler   *sampler.Sampler
	store     store.Store
	ttl       time.Duration
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithTTL overrides the cache-freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(p *Pipeline) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// New creates a Pipeline.
func New(res *resolver.Resolver, pl places.Client, gen narrative.Generator, smp *sampler.Sampler, st store.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver:  res,
		places:    pl,
		narrative: gen,
		sampler:   smp,
		store:     st,
		ttl:       store.DefaultTTL,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Generate runs the full pipeline for one request. A fresh cached report
// for the same (place, language, keyword) short-circuits generation and
// is returned with Cached set. Nothing is persisted on failure.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*model.Report, error) {
	language := req.Language
	if language == "" {
		language = DefaultLanguage
	}

	query, err := p.resolver.Resolve(ctx, req.URL, req.FallbackText)
	if err != nil {
		return nil, newError(KindParseFailed, err, "could not extract a search query from the link")
	}

	placeID, err := p.places.SearchText(ctx, query, language)
	if err != nil {
		if errors.Is(err, places.ErrNotFound) {
			return nil, newError(KindNotFound, err, "no business matched the query")
		}
		return nil, newError(KindInternal, err, "place search failed")
	}

	place, err := p.places.GetPlace(ctx, placeID, language)
	if err != nil {
		if errors.Is(err, places.ErrNotFound) {
			return nil, newError(KindNotFound, err, "business profile unavailable")
		}
		return nil, newError(KindInternal, err, "profile lookup failed")
	}
	profile := snapshotPlace(place)

	raw := req.Keyword
	if raw == "" {
		raw = query
	}
	kw := keyword.Normalize(raw, profile.Name, profile.PrimaryCategory())

	log := zap.L().With(
		zap.String("place_id", placeID),
		zap.String("keyword", kw),
		zap.String("language", language),
	)

	if cached, err := p.store.GetReportByKey(ctx, placeID, language, kw, p.ttl); err != nil {
		return nil, newError(KindCacheUnavailable, err, "report cache lookup failed")
	} else if cached != nil {
		log.Info("serving cached report",
			zap.String("report_id", cached.ID),
			zap.Time("created_at", cached.CreatedAt),
		)
		cached.Cached = true
		return cached, nil
	}

	score, err := p.narrative.Generate(ctx, &profile, language)
	if err != nil {
		if errors.Is(err, narrative.ErrGenerationFailed) {
			return nil, newError(KindNarrativeFailed, err, "audit narrative generation failed")
		}
		return nil, newError(KindInternal, err, "audit scoring failed")
	}

	grid, err := p.sampler.Sample(ctx, profile.Location, placeID, kw, language)
	if err != nil {
		if errors.Is(err, geogrid.ErrInvalidGridSize) {
			return nil, newError(KindInvalidGridSize, err, "sampling grid misconfigured")
		}
		return nil, newError(KindInternal, err, "grid sampling failed")
	}

	report := &model.Report{
		ID:               uuid.New().String(),
		PlaceID:          placeID,
		Language:         language,
		Keyword:          kw,
		Profile:          profile,
		Score:            *score,
		VisibilityGrid:   *grid,
		BusinessLocation: profile.Location,
		Status:           model.ReportStatusCompleted,
	}

	saved, err := p.store.SaveReport(ctx, report)
	if err != nil {
		return nil, newError(KindCacheUnavailable, err, "report persistence failed")
	}

	log.Info("report generated",
		zap.String("report_id", saved.ID),
		zap.Int("overall_score", saved.Score.OverallScore),
		zap.Int("grid_points", len(saved.VisibilityGrid.Points)),
	)
	return saved, nil
}

// GetReport fetches a report by id regardless of age.
func (p *Pipeline) GetReport(ctx context.Context, id string) (*model.Report, error) {
	report, err := p.store.GetReportByID(ctx, id)
	if err != nil {
		return nil, newError(KindCacheUnavailable, err, "report lookup failed")
	}
	if report == nil {
		return nil, newError(KindNotFound, nil, "report not found")
	}
	return report, nil
}

// History lists the newest report summaries.
func (p *Pipeline) History(ctx context.Context, limit int) ([]model.ReportSummary, error) {
	summaries, err := p.store.ListRecentReports(ctx, limit)
	if err != nil {
		return nil, newError(KindCacheUnavailable, err, "history lookup failed")
	}
	return summaries, nil
}
