// Package sampler fans rank-lookup queries out across the geographic
// sampling grid and aggregates the answers into a visibility grid.
package sampler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/visibility-audit/internal/geogrid"
	"github.com/sells-group/visibility-audit/internal/model"
	"github.com/sells-group/visibility-audit/pkg/serp"
)

// DefaultConcurrency bounds in-flight oracle calls per Sample invocation.
const DefaultConcurrency = 25

// Sampler measures a business's local visibility across a grid of
// coordinates around it.
type Sampler struct {
	oracle       serp.Client
	radiusMeters float64
	gridSize     int
	concurrency  int
	timeout      time.Duration
}

// Option configures the sampler.
type Option func(*Sampler)

// WithRadius sets the sampling radius in meters.
func WithRadius(meters float64) Option {
	return func(s *Sampler) {
		if meters > 0 {
			s.radiusMeters = meters
		}
	}
}

// WithGridSize sets the grid dimension (gridSize² sample points).
func WithGridSize(size int) Option {
	return func(s *Sampler) {
		if size > 0 {
			s.gridSize = size
		}
	}
}

// WithConcurrency bounds the number of in-flight oracle calls.
func WithConcurrency(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithTimeout bounds one whole Sample call. Grid sampling against a slow
// third-party oracle dominates pipeline latency, so it always gets an
// upper bound. Zero disables the sampler-level deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Sampler) {
		s.timeout = d
	}
}

// New creates a Sampler backed by the given ranking oracle.
func New(oracle serp.Client, opts ...Option) *Sampler {
	s := &Sampler{
		oracle:       oracle,
		radiusMeters: geogrid.DefaultRadiusMeters,
		gridSize:     geogrid.DefaultSize,
		concurrency:  DefaultConcurrency,
		timeout:      2 * time.Minute,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Sample queries the oracle at every grid coordinate and returns the
// aggregated grid, ordered by (row, col) regardless of completion order.
// A failed oracle call degrades that single point to bucket ERROR; it
// never aborts sibling points or the call. The returned grid is always
// complete (gridSize² points) unless the grid configuration itself is
// invalid.
func (s *Sampler) Sample(ctx context.Context, center model.Location, placeID, keyword, language string) (*model.VisibilityGrid, error) {
	cells, err := geogrid.Generate(center, s.radiusMeters, s.gridSize)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := zap.L().With(
		zap.String("place_id", placeID),
		zap.String("keyword", keyword),
	)

	// Each goroutine writes its own slot, so the slice needs no lock.
	points := make([]model.GridPoint, len(cells))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for i, cell := range cells {
		g.Go(func() error {
			rank, found, err := s.oracle.GetRank(ctx, keyword, cell.Lat, cell.Lng, placeID, language)
			if err != nil {
				log.Warn("grid point sampling failed",
					zap.Int("row", cell.Row),
					zap.Int("col", cell.Col),
					zap.Error(err),
				)
				points[i] = model.ErrorPoint(cell.Row, cell.Col, cell.Lat, cell.Lng)
				return nil
			}

			var rankPtr *int
			if found && rank > 0 {
				rankPtr = &rank
			}
			points[i] = model.GridPoint{
				Row:    cell.Row,
				Col:    cell.Col,
				Lat:    cell.Lat,
				Lng:    cell.Lng,
				Rank:   rankPtr,
				Label:  model.RankLabel(rankPtr),
				Bucket: model.ClassifyRank(rankPtr),
			}
			return nil
		})
	}

	// Goroutines absorb their own failures, so Wait only synchronizes.
	_ = g.Wait()

	return &model.VisibilityGrid{
		RadiusMeters: s.radiusMeters,
		Points:       points,
	}, nil
}
