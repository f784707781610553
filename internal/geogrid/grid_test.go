package geogrid

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-audit/internal/model"
)

var googleplex = model.Location{Lat: 37.4220656, Lng: -122.0840897}

func TestGenerateInvalidSize(t *testing.T) {
	for _, size := range []int{0, 1, 2, 4, 6, -3} {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			_, err := Generate(googleplex, 1000, size)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidGridSize)
		})
	}
}

func TestGenerateCountAndUniqueness(t *testing.T) {
	for _, size := range []int{3, 5, 7} {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			cells, err := Generate(googleplex, 1000, size)
			require.NoError(t, err)
			require.Len(t, cells, size*size)

			seen := make(map[[2]int]bool)
			for _, c := range cells {
				key := [2]int{c.Row, c.Col}
				assert.False(t, seen[key], "duplicate cell %v", key)
				seen[key] = true
			}
		})
	}
}

func TestGenerateCenterCell(t *testing.T) {
	cells, err := Generate(googleplex, 1000, 5)
	require.NoError(t, err)

	mid := cells[2*5+2]
	assert.Equal(t, 2, mid.Row)
	assert.Equal(t, 2, mid.Col)
	assert.InDelta(t, googleplex.Lat, mid.Lat, 1e-9)
	assert.InDelta(t, googleplex.Lng, mid.Lng, 1e-9)
}

func TestGenerateRowMajorOrdering(t *testing.T) {
	cells, err := Generate(googleplex, 500, 3)
	require.NoError(t, err)

	for i, c := range cells {
		assert.Equal(t, i/3, c.Row)
		assert.Equal(t, i%3, c.Col)
	}

	// First cell is the north-west corner, last the south-east.
	assert.Greater(t, cells[0].Lat, cells[8].Lat)
	assert.Less(t, cells[0].Lng, cells[8].Lng)
}

func TestGenerateSpan(t *testing.T) {
	const radius = 1000.0
	cells, err := Generate(googleplex, radius, 5)
	require.NoError(t, err)

	metersPerDegreeLng := metersPerDegreeLat * math.Cos(googleplex.Lat*math.Pi/180)

	nw := cells[0]
	se := cells[len(cells)-1]

	assert.InDelta(t, radius, (nw.Lat-googleplex.Lat)*metersPerDegreeLat, 0.01)
	assert.InDelta(t, radius, (googleplex.Lat-se.Lat)*metersPerDegreeLat, 0.01)
	assert.InDelta(t, radius, (googleplex.Lng-nw.Lng)*metersPerDegreeLng, 0.01)
	assert.InDelta(t, radius, (se.Lng-googleplex.Lng)*metersPerDegreeLng, 0.01)
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(googleplex, 1000, 5)
	require.NoError(t, err)
	b, err := Generate(googleplex, 1000, 5)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
