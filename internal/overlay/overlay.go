// Package overlay derives the map-image description for a report: one
// colored, labeled marker per grid point plus the business pin, and the
// static-map URL that external image composition consumes.
package overlay

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/visibility-audit/internal/model"
)

const staticMapBaseURL = "https://maps.googleapis.com/maps/api/staticmap"

// Marker is one renderable point on the visibility map.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Color string  `json:"color"`
	Label string  `json:"label"`
}

// Description is the full overlay for one report.
type Description struct {
	Center   model.Location `json:"center"`
	Business Marker         `json:"business"`
	Markers  []Marker       `json:"markers"`
	// Bounds is [minLng, minLat, maxLng, maxLat] over all markers.
	Bounds [4]float64 `json:"bounds"`
}

// markerColor maps a visibility bucket to its marker color. Good
// visibility renders green, middling orange, everything else red.
func markerColor(b model.Bucket) string {
	switch b {
	case model.BucketTop3:
		return "green"
	case model.BucketTop10:
		return "orange"
	default:
		return "red"
	}
}

// markerLabel renders the static-map label for a point. The provider
// only accepts single characters, so "20+" collapses to "X" and
// multi-digit ranks keep their first meaningful form via the label text.
func markerLabel(label string) string {
	if label == "20+" {
		return "X"
	}
	return label
}

// Describe builds the overlay description for a report.
func Describe(report *model.Report) *Description {
	grid := report.VisibilityGrid

	bounds := geom.NewBounds(geom.XY)
	bounds.Extend(geom.NewPointFlat(geom.XY, []float64{report.BusinessLocation.Lng, report.BusinessLocation.Lat}))

	markers := make([]Marker, 0, len(grid.Points))
	for _, p := range grid.Points {
		markers = append(markers, Marker{
			Lat:   p.Lat,
			Lng:   p.Lng,
			Color: markerColor(p.Bucket),
			Label: markerLabel(p.Label),
		})
		bounds.Extend(geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}))
	}

	return &Description{
		Center: report.BusinessLocation,
		Business: Marker{
			Lat:   report.BusinessLocation.Lat,
			Lng:   report.BusinessLocation.Lng,
			Color: "blue",
			Label: "B",
		},
		Markers: markers,
		Bounds: [4]float64{
			bounds.Min(0), bounds.Min(1),
			bounds.Max(0), bounds.Max(1),
		},
	}
}

// StaticMapURL renders the Google Static Maps request for a description.
// The key is appended by the caller's configuration, not stored on the
// report.
func StaticMapURL(d *Description, apiKey string) string {
	var sb strings.Builder
	sb.WriteString(staticMapBaseURL)
	sb.WriteString(fmt.Sprintf("?center=%f,%f", d.Center.Lat, d.Center.Lng))
	sb.WriteString("&zoom=15&size=600x300&scale=2&maptype=roadmap")

	sb.WriteString("&markers=" + url.QueryEscape(fmt.Sprintf(
		"color:%s|label:%s|%f,%f", d.Business.Color, d.Business.Label, d.Business.Lat, d.Business.Lng)))

	for _, m := range d.Markers {
		sb.WriteString("&markers=" + url.QueryEscape(fmt.Sprintf(
			"color:%s|label:%s|%f,%f", m.Color, m.Label, m.Lat, m.Lng)))
	}

	if apiKey != "" {
		sb.WriteString("&key=" + url.QueryEscape(apiKey))
	}
	return sb.String()
}
