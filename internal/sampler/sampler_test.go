package sampler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-audit/internal/model"
)

var center = model.Location{Lat: 37.4220656, Lng: -122.0840897}

// fakeOracle returns scripted ranks, keyed by call order or coordinate.
type fakeOracle struct {
	mu    sync.Mutex
	calls int

	rankFn func(call int, lat, lng float64) (int, bool, error)
}

func (f *fakeOracle) GetRank(_ context.Context, _ string, lat, lng float64, _, _ string) (int, bool, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.mu.Unlock()
	return f.rankFn(call, lat, lng)
}

func TestSampleFullGrid(t *testing.T) {
	oracle := &fakeOracle{rankFn: func(call int, _, _ float64) (int, bool, error) {
		return 5, true, nil
	}}
	s := New(oracle, WithGridSize(5), WithRadius(1000))

	grid, err := s.Sample(context.Background(), center, "place-1", "bakery", "en")
	require.NoError(t, err)

	assert.Equal(t, 1000.0, grid.RadiusMeters)
	require.Len(t, grid.Points, 25)
	assert.Equal(t, 25, oracle.calls)

	for i, p := range grid.Points {
		assert.Equal(t, i/5, p.Row, "point %d row", i)
		assert.Equal(t, i%5, p.Col, "point %d col", i)
		require.NotNil(t, p.Rank)
		assert.Equal(t, 5, *p.Rank)
		assert.Equal(t, "5", p.Label)
		assert.Equal(t, model.BucketTop10, p.Bucket)
	}
}

func TestSampleSingleFailureIsolated(t *testing.T) {
	var failed atomic.Bool
	oracle := &fakeOracle{rankFn: func(call int, _, _ float64) (int, bool, error) {
		if failed.CompareAndSwap(false, true) {
			return 0, false, eris.New("provider exploded")
		}
		return 2, true, nil
	}}
	s := New(oracle, WithGridSize(5))

	grid, err := s.Sample(context.Background(), center, "place-1", "bakery", "en")
	require.NoError(t, err)
	require.Len(t, grid.Points, 25)

	var errPoints, okPoints int
	for _, p := range grid.Points {
		switch p.Bucket {
		case model.BucketError:
			errPoints++
			assert.Equal(t, "ERR", p.Label)
			assert.Nil(t, p.Rank)
		default:
			okPoints++
			assert.Equal(t, model.BucketTop3, p.Bucket)
		}
	}
	assert.Equal(t, 1, errPoints)
	assert.Equal(t, 24, okPoints)
}

func TestSampleUnrankedPoints(t *testing.T) {
	oracle := &fakeOracle{rankFn: func(call int, _, _ float64) (int, bool, error) {
		return 0, false, nil
	}}
	s := New(oracle, WithGridSize(3))

	grid, err := s.Sample(context.Background(), center, "place-1", "bakery", "en")
	require.NoError(t, err)

	for _, p := range grid.Points {
		assert.Nil(t, p.Rank)
		assert.Equal(t, "NR", p.Label)
		assert.Equal(t, model.BucketUnranked, p.Bucket)
	}
}

func TestSampleBeyondCutoff(t *testing.T) {
	oracle := &fakeOracle{rankFn: func(call int, _, _ float64) (int, bool, error) {
		return 37, true, nil
	}}
	s := New(oracle, WithGridSize(3))

	grid, err := s.Sample(context.Background(), center, "place-1", "bakery", "en")
	require.NoError(t, err)

	for _, p := range grid.Points {
		require.NotNil(t, p.Rank)
		assert.Equal(t, 37, *p.Rank)
		assert.Equal(t, "20+", p.Label)
		assert.Equal(t, model.BucketBeyond, p.Bucket)
	}
}

func TestSampleInvalidGridSize(t *testing.T) {
	oracle := &fakeOracle{rankFn: func(call int, _, _ float64) (int, bool, error) {
		return 1, true, nil
	}}
	s := New(oracle)
	s.gridSize = 4 // bypass option guard to simulate misconfiguration

	_, err := s.Sample(context.Background(), center, "place-1", "bakery", "en")
	require.Error(t, err)
	assert.Zero(t, oracle.calls)
}

func TestSampleOrderingIndependentOfCompletion(t *testing.T) {
	// Later calls return higher ranks; with concurrency 1 the call order
	// is deterministic, and the output must still be (row, col) ordered.
	oracle := &fakeOracle{rankFn: func(call int, _, _ float64) (int, bool, error) {
		return call + 1, true, nil
	}}
	s := New(oracle, WithGridSize(3), WithConcurrency(1))

	grid, err := s.Sample(context.Background(), center, "place-1", "bakery", "en")
	require.NoError(t, err)

	for i, p := range grid.Points {
		assert.Equal(t, i/3, p.Row)
		assert.Equal(t, i%3, p.Col)
	}
}
