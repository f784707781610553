package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/visibility-audit/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id         TEXT PRIMARY KEY,
	place_id   TEXT NOT NULL,
	language   TEXT NOT NULL,
	keyword    TEXT NOT NULL,
	status     TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_cache_key ON reports(place_id, language, keyword, created_at);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveReport(ctx context.Context, report *model.Report) (*model.Report, error) {
	stored := *report
	stored.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(&stored)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, place_id, language, keyword, status, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			place_id = excluded.place_id,
			language = excluded.language,
			keyword = excluded.keyword,
			status = excluded.status,
			payload = excluded.payload,
			created_at = excluded.created_at`,
		stored.ID, stored.PlaceID, stored.Language, stored.Keyword,
		string(stored.Status), string(payload), stored.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: save report %s", stored.ID)
	}
	return &stored, nil
}

func (s *SQLiteStore) GetReportByKey(ctx context.Context, placeID, language, keyword string, ttl time.Duration) (*model.Report, error) {
	cutoff := time.Now().UTC().Add(-ttl)

	row := s.db.QueryRowContext(ctx,
		`SELECT payload, created_at FROM reports
		 WHERE place_id = ? AND language = ? AND keyword = ? AND status = ? AND created_at > ?
		 ORDER BY created_at DESC LIMIT 1`,
		placeID, language, keyword, string(model.ReportStatusCompleted), cutoff,
	)
	return scanReport(row, "sqlite")
}

func (s *SQLiteStore) GetReportByID(ctx context.Context, id string) (*model.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload, created_at FROM reports WHERE id = ?`, id,
	)
	return scanReport(row, "sqlite")
}

func (s *SQLiteStore) ListRecentReports(ctx context.Context, limit int) ([]model.ReportSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload, created_at FROM reports ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var out []model.ReportSummary
	for rows.Next() {
		var payload string
		var createdAt time.Time
		if err := rows.Scan(&payload, &createdAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report row")
		}
		summary, err := summarize(payload, createdAt)
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

func (s *SQLiteStore) DeleteExpiredReports(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE created_at <= ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired reports")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

// scanReport decodes one payload row. A missing row is a cache miss, not
// an error.
func scanReport(row *sql.Row, driver string) (*model.Report, error) {
	var payload string
	var createdAt time.Time
	if err := row.Scan(&payload, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "%s: scan report", driver)
	}
	return decodeReport(payload, createdAt, driver)
}

func decodeReport(payload string, createdAt time.Time, driver string) (*model.Report, error) {
	var report model.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, eris.Wrapf(err, "%s: unmarshal report", driver)
	}
	// The column is authoritative; the payload copy may predate an upsert.
	report.CreatedAt = createdAt
	return &report, nil
}

func summarize(payload string, createdAt time.Time) (*model.ReportSummary, error) {
	report, err := decodeReport(payload, createdAt, "store")
	if err != nil {
		return nil, err
	}
	return &model.ReportSummary{
		ID:           report.ID,
		Name:         report.Profile.Name,
		OverallScore: report.Score.OverallScore,
		CreatedAt:    report.CreatedAt,
	}, nil
}
