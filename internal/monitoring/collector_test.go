package monitoring

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-audit/internal/audit"
	"github.com/sells-group/visibility-audit/internal/model"
	"github.com/sells-group/visibility-audit/internal/store"
)

func newCollectorWithStore(t *testing.T) (*Collector, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return NewCollector(st), st
}

func saveReport(t *testing.T, st store.Store, id string, score int) {
	t.Helper()
	_, err := st.SaveReport(context.Background(), &model.Report{
		ID:      id,
		PlaceID: "ChIJ" + id,
		Profile: model.ProfileSnapshot{Name: "Biz " + id},
		Score:   model.ScoreSummary{OverallScore: score},
		Status:  model.ReportStatusCompleted,
	})
	require.NoError(t, err)
}

func TestCollectEmpty(t *testing.T) {
	c, _ := newCollectorWithStore(t)

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Zero(t, snap.RequestsTotal)
	assert.Zero(t, snap.FailuresTotal)
	assert.Zero(t, snap.ReportsInWindow)
	assert.Equal(t, 24, snap.LookbackHours)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollectCounters(t *testing.T) {
	c, _ := newCollectorWithStore(t)

	c.RecordGeneration(nil, false)
	c.RecordGeneration(nil, true)
	c.RecordGeneration(&audit.Error{Kind: audit.KindNotFound, Message: "gone"}, false)
	c.RecordGeneration(eris.New("untagged"), false)

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 4, snap.RequestsTotal)
	assert.Equal(t, 1, snap.CacheHits)
	assert.InDelta(t, 0.25, snap.CacheHitRate, 0.001)
	assert.Equal(t, 2, snap.FailuresTotal)
	assert.InDelta(t, 0.5, snap.FailRate, 0.001)
	assert.Equal(t, 1, snap.FailuresByKind[string(audit.KindNotFound)])
	assert.Equal(t, 1, snap.FailuresByKind[string(audit.KindInternal)])
}

func TestCollectStoreActivity(t *testing.T) {
	c, st := newCollectorWithStore(t)

	saveReport(t, st, "a", 60)
	saveReport(t, st, "b", 80)

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.ReportsInWindow)
	assert.InDelta(t, 70.0, snap.AvgOverallScore, 0.001)
}

func TestCollectDefaultsLookback(t *testing.T) {
	c, _ := newCollectorWithStore(t)

	snap, err := c.Collect(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLookbackHours, snap.LookbackHours)
}
