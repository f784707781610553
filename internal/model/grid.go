package model

import "strconv"

// Bucket is the discretized visibility tier assigned to a grid point's rank.
type Bucket string

const (
	BucketTop3     Bucket = "TOP3"
	BucketTop10    Bucket = "TOP10"
	BucketTop20    Bucket = "TOP20"
	BucketBeyond   Bucket = "BEYOND"
	BucketUnranked Bucket = "UNRANKED"
	BucketError    Bucket = "ERROR"
)

// GridPoint is one sampled coordinate in the visibility grid.
type GridPoint struct {
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Rank   *int    `json:"rank"` // nil when the business was not found
	Label  string  `json:"label"`
	Bucket Bucket  `json:"bucket"`
}

// VisibilityGrid is the full set of sampled points for one report.
// Points are ordered row-major and cover every (row, col) pair exactly once.
type VisibilityGrid struct {
	RadiusMeters float64     `json:"radius_meters"`
	Points       []GridPoint `json:"points"`
}

// ClassifyRank maps a 1-based rank to its visibility bucket. A nil or
// non-positive rank means the business was absent from the sampled results.
func ClassifyRank(rank *int) Bucket {
	switch {
	case rank == nil || *rank <= 0:
		return BucketUnranked
	case *rank <= 3:
		return BucketTop3
	case *rank <= 10:
		return BucketTop10
	case *rank <= 20:
		return BucketTop20
	default:
		return BucketBeyond
	}
}

// RankLabel renders the short display string for a rank: "NR" when absent,
// "20+" past the cutoff, otherwise the rank itself.
func RankLabel(rank *int) string {
	switch {
	case rank == nil || *rank <= 0:
		return "NR"
	case *rank > 20:
		return "20+"
	default:
		return strconv.Itoa(*rank)
	}
}

// ErrorPoint builds the grid point recorded when sampling a coordinate
// failed. Distinct from UNRANKED so callers can tell "confirmed absent"
// from "measurement failed".
func ErrorPoint(row, col int, lat, lng float64) GridPoint {
	return GridPoint{
		Row:    row,
		Col:    col,
		Lat:    lat,
		Lng:    lng,
		Label:  "ERR",
		Bucket: BucketError,
	}
}
