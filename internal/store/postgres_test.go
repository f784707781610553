package store

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgresSaveReport(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO reports`)).
		WithArgs("r1", "ChIJtest", "pt-BR", "bakery", "completed",
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	saved, err := s.SaveReport(context.Background(), testReport("r1"))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), saved.CreatedAt, 5*time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetReportByKeyMiss(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload, created_at FROM reports`)).
		WithArgs("ChIJtest", "pt-BR", "bakery", "completed", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetReportByKey(context.Background(), "ChIJtest", "pt-BR", "bakery", DefaultTTL)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetReportByID(t *testing.T) {
	s, mock := newMockStore(t)

	report := testReport("r1")
	report.CreatedAt = time.Now().UTC().Add(-time.Hour)
	payload, err := json.Marshal(report)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload, created_at FROM reports WHERE id = $1`)).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows([]string{"payload", "created_at"}).
			AddRow(string(payload), report.CreatedAt))

	got, err := s.GetReportByID(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "Padaria Bell", got.Profile.Name)
	assert.Equal(t, report.CreatedAt, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteExpiredReports(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM reports WHERE created_at <= $1`)).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.DeleteExpiredReports(context.Background(), DefaultTTL)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
