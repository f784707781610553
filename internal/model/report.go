package model

import "time"

// ReportStatus represents the terminal state of a generated report.
type ReportStatus string

const (
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusFailed    ReportStatus = "failed"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Review is one customer review sampled from the business profile.
type Review struct {
	Rating       float64 `json:"rating"`
	Text         string  `json:"text"`
	RelativeTime string  `json:"relative_time"`
	Author       string  `json:"author"`
}

// ProfileSnapshot is the normalized public profile of a business as
// returned by the place directory at generation time.
type ProfileSnapshot struct {
	Name           string   `json:"name"`
	Rating         float64  `json:"rating"`
	ReviewsCount   int      `json:"reviews_count"`
	Address        string   `json:"address"`
	Phone          string   `json:"phone,omitempty"`
	Website        string   `json:"website,omitempty"`
	MapsURL        string   `json:"maps_url,omitempty"`
	BusinessStatus string   `json:"business_status,omitempty"`
	Categories     []string `json:"categories"`
	Hours          []string `json:"hours,omitempty"`
	PhotosCount    int      `json:"photos_count"`
	RecentReviews  []Review `json:"recent_reviews,omitempty"`
	Location       Location `json:"location"`
}

// PrimaryCategory returns the first profile category with underscores
// replaced by spaces, or "business" when the profile carries none.
func (p *ProfileSnapshot) PrimaryCategory() string {
	if len(p.Categories) == 0 {
		return "business"
	}
	return humanizeCategory(p.Categories[0])
}

// Subscores holds the five structured audit dimensions, each in [0, 20].
type Subscores struct {
	Completeness int `json:"completeness"`
	Trust        int `json:"trust"`
	Conversion   int `json:"conversion"`
	Media        int `json:"media"`
	LocalSEO     int `json:"local_seo"`
}

// Sum returns the total of all subscores.
func (s Subscores) Sum() int {
	return s.Completeness + s.Trust + s.Conversion + s.Media + s.LocalSEO
}

// ScoreSummary is the structured output of the narrative generator.
// OverallScore is always re-derived from the clamped subscore sum.
type ScoreSummary struct {
	OverallScore int       `json:"overall_score"`
	Subscores    Subscores `json:"subscores"`
	Teaser       string    `json:"teaser"`
	Narrative    string    `json:"narrative"`
}

// Report is one completed visibility audit. Immutable after creation;
// CreatedAt is assigned by the store at write time.
type Report struct {
	ID               string          `json:"report_id"`
	PlaceID          string          `json:"place_id"`
	Language         string          `json:"language"`
	Keyword          string          `json:"keyword"`
	Profile          ProfileSnapshot `json:"profile"`
	Score            ScoreSummary    `json:"score"`
	VisibilityGrid   VisibilityGrid  `json:"visibility_grid"`
	BusinessLocation Location        `json:"business_location"`
	Status           ReportStatus    `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	Cached           bool            `json:"cached,omitempty"` // true when served from cache
}

// ReportSummary is the trimmed listing shape used by history views.
type ReportSummary struct {
	ID           string    `json:"report_id"`
	Name         string    `json:"name"`
	OverallScore int       `json:"overall_score"`
	CreatedAt    time.Time `json:"created_at"`
}
