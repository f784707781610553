// Package geogrid generates the square sampling grid of coordinates
// surrounding a business location. The projection is an equirectangular
// approximation (latitude-scaled longitude degrees), which is accurate to
// well under a meter at the sub-5km radii this tool samples.
package geogrid

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-audit/internal/model"
)

const (
	metersPerDegreeLat = 111320.0

	// DefaultRadiusMeters is the sampling radius used when none is configured.
	DefaultRadiusMeters = 1000.0
	// DefaultSize is the default grid dimension (DefaultSize² sample points).
	DefaultSize = 5
)

// ErrInvalidGridSize reports a grid size that is even or below 3. Grid
// sizes must be odd so that a true center point exists.
var ErrInvalidGridSize = eris.New("geogrid: grid size must be odd and >= 3")

// Cell is one generated sample coordinate, identified by its row-major
// position in the grid.
type Cell struct {
	Row int
	Col int
	Lat float64
	Lng float64
}

// Generate returns the size×size sample coordinates centered on center,
// spanning radiusMeters in each cardinal direction. Output is row-major
// (north-west corner first) and deterministic for identical inputs.
func Generate(center model.Location, radiusMeters float64, size int) ([]Cell, error) {
	if size < 3 || size%2 == 0 {
		return nil, eris.Wrapf(ErrInvalidGridSize, "got %d", size)
	}

	step := 2 * radiusMeters / float64(size-1)
	metersPerDegreeLng := metersPerDegreeLat * math.Cos(center.Lat*math.Pi/180)

	cells := make([]Cell, 0, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			offsetNorth := radiusMeters - float64(row)*step
			offsetEast := float64(col)*step - radiusMeters

			cells = append(cells, Cell{
				Row: row,
				Col: col,
				Lat: center.Lat + offsetNorth/metersPerDegreeLat,
				Lng: center.Lng + offsetEast/metersPerDegreeLng,
			})
		}
	}

	return cells, nil
}
