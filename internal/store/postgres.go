package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-audit/internal/model"
)

// Pool abstracts the pgxpool methods the store uses, so tests can swap in
// pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id         TEXT PRIMARY KEY,
	place_id   TEXT NOT NULL,
	language   TEXT NOT NULL,
	keyword    TEXT NOT NULL,
	status     TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reports_cache_key ON reports(place_id, language, keyword, created_at);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, report *model.Report) (*model.Report, error) {
	stored := *report
	stored.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(&stored)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal report")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (id, place_id, language, keyword, status, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			place_id = EXCLUDED.place_id,
			language = EXCLUDED.language,
			keyword = EXCLUDED.keyword,
			status = EXCLUDED.status,
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at`,
		stored.ID, stored.PlaceID, stored.Language, stored.Keyword,
		string(stored.Status), string(payload), stored.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: save report %s", stored.ID)
	}
	return &stored, nil
}

func (s *PostgresStore) GetReportByKey(ctx context.Context, placeID, language, keyword string, ttl time.Duration) (*model.Report, error) {
	cutoff := time.Now().UTC().Add(-ttl)

	row := s.pool.QueryRow(ctx,
		`SELECT payload, created_at FROM reports
		 WHERE place_id = $1 AND language = $2 AND keyword = $3 AND status = $4 AND created_at > $5
		 ORDER BY created_at DESC LIMIT 1`,
		placeID, language, keyword, string(model.ReportStatusCompleted), cutoff,
	)
	return scanPgxReport(row)
}

func (s *PostgresStore) GetReportByID(ctx context.Context, id string) (*model.Report, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT payload, created_at FROM reports WHERE id = $1`, id,
	)
	return scanPgxReport(row)
}

func (s *PostgresStore) ListRecentReports(ctx context.Context, limit int) ([]model.ReportSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT payload, created_at FROM reports ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var out []model.ReportSummary
	for rows.Next() {
		var payload string
		var createdAt time.Time
		if err := rows.Scan(&payload, &createdAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan report row")
		}
		summary, err := summarize(payload, createdAt)
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}

func (s *PostgresStore) DeleteExpiredReports(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	tag, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired reports")
	}
	return int(tag.RowsAffected()), nil
}

func scanPgxReport(row pgx.Row) (*model.Report, error) {
	var payload string
	var createdAt time.Time
	if err := row.Scan(&payload, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: scan report")
	}
	return decodeReport(payload, createdAt, "postgres")
}
