// Package store persists generated reports and serves as the report
// cache. Freshness is decided at read time: a report older than the TTL
// is never returned by key, but stays retrievable by id for sharing.
package store

import (
	"context"
	"time"

	"github.com/sells-group/visibility-audit/internal/model"
)

// DefaultTTL is the cache-freshness window for lookups by key.
const DefaultTTL = 7 * 24 * time.Hour

// Store defines the persistence interface for audit reports.
//
// Key lookups and writes are deliberately not serialized per key: two
// concurrent requests for the same (place, language, keyword) may both
// miss and both generate, each saving under its own report id. Last write
// wins at the row level; this duplicate-generation race is an accepted
// trade-off, not a bug.
type Store interface {
	// SaveReport upserts a report. CreatedAt is assigned here, at write
	// time, so cache freshness never depends on client clocks. The stored
	// report (with its assigned CreatedAt) is returned.
	SaveReport(ctx context.Context, report *model.Report) (*model.Report, error)

	// GetReportByKey returns the most recent completed report for the
	// exact (placeID, language, keyword) triple younger than ttl, or nil
	// when no fresh report exists.
	GetReportByKey(ctx context.Context, placeID, language, keyword string, ttl time.Duration) (*model.Report, error)

	// GetReportByID returns a report regardless of age, or nil when the
	// id is unknown.
	GetReportByID(ctx context.Context, id string) (*model.Report, error)

	// ListRecentReports returns summaries of the newest reports.
	ListRecentReports(ctx context.Context, limit int) ([]model.ReportSummary, error)

	// DeleteExpiredReports physically removes reports older than the
	// given age and reports how many rows went away. Logical freshness is
	// enforced by GetReportByKey either way.
	DeleteExpiredReports(ctx context.Context, olderThan time.Duration) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
