// Package monitoring exposes a point-in-time health snapshot for the
// metrics endpoint: in-process generation counters plus report activity
// derived from the store.
package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-audit/internal/audit"
	"github.com/sells-group/visibility-audit/internal/store"
)

// DefaultLookbackHours is the report-activity window for snapshots.
const DefaultLookbackHours = 24

// MetricsSnapshot holds a point-in-time view of system health.
type MetricsSnapshot struct {
	// Process-lifetime generation counters.
	RequestsTotal  int            `json:"requests_total"`
	CacheHits      int            `json:"cache_hits"`
	CacheHitRate   float64        `json:"cache_hit_rate"`
	FailuresTotal  int            `json:"failures_total"`
	FailRate       float64        `json:"fail_rate"`
	FailuresByKind map[string]int `json:"failures_by_kind,omitempty"`

	// Store-derived activity within the lookback window.
	ReportsInWindow int     `json:"reports_in_window"`
	AvgOverallScore float64 `json:"avg_overall_score"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	UptimeSecs    int       `json:"uptime_secs"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers generation outcomes and store activity.
type Collector struct {
	store     store.Store
	startedAt time.Time

	mu        sync.Mutex
	total     int
	cacheHits int
	failures  map[audit.Kind]int
}

// NewCollector creates a metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{
		store:     st,
		startedAt: time.Now().UTC(),
		failures:  make(map[audit.Kind]int),
	}
}

// RecordGeneration feeds one generation outcome into the counters.
func (c *Collector) RecordGeneration(err error, cached bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	if err != nil {
		c.failures[audit.KindOf(err)]++
		return
	}
	if cached {
		c.cacheHits++
	}
}

// listLimit bounds how many summaries one snapshot scans.
const listLimit = 1000

// Collect builds a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	if lookbackHours <= 0 {
		lookbackHours = DefaultLookbackHours
	}

	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		UptimeSecs:    int(time.Since(c.startedAt).Seconds()),
		CollectedAt:   time.Now().UTC(),
	}

	c.mu.Lock()
	snap.RequestsTotal = c.total
	snap.CacheHits = c.cacheHits
	if c.total > 0 {
		snap.CacheHitRate = float64(c.cacheHits) / float64(c.total)
	}
	for kind, n := range c.failures {
		if snap.FailuresByKind == nil {
			snap.FailuresByKind = make(map[string]int, len(c.failures))
		}
		snap.FailuresByKind[string(kind)] = n
		snap.FailuresTotal += n
	}
	if snap.RequestsTotal > 0 {
		snap.FailRate = float64(snap.FailuresTotal) / float64(snap.RequestsTotal)
	}
	c.mu.Unlock()

	summaries, err := c.store.ListRecentReports(ctx, listLimit)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list reports")
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)
	var scoreSum int
	for _, s := range summaries {
		if s.CreatedAt.Before(cutoff) {
			continue
		}
		snap.ReportsInWindow++
		scoreSum += s.OverallScore
	}
	if snap.ReportsInWindow > 0 {
		snap.AvgOverallScore = float64(scoreSum) / float64(snap.ReportsInWindow)
	}

	return snap, nil
}
