package audit

import (
	"github.com/sells-group/visibility-audit/internal/model"
	"github.com/sells-group/visibility-audit/pkg/places"
)

// maxSnapshotReviews bounds how many recent reviews travel into the
// profile snapshot (and from there into the narrative prompt).
const maxSnapshotReviews = 5

// snapshotPlace normalizes a directory profile into the report's
// snapshot shape.
func snapshotPlace(p *places.Place) model.ProfileSnapshot {
	snap := model.ProfileSnapshot{
		Name:           p.DisplayName.Text,
		Rating:         p.Rating,
		ReviewsCount:   p.UserRatingCount,
		Address:        p.FormattedAddress,
		Phone:          p.InternationalPhone,
		Website:        p.WebsiteURI,
		MapsURL:        p.GoogleMapsURI,
		BusinessStatus: p.BusinessStatus,
		Categories:     p.Types,
		PhotosCount:    len(p.Photos),
		Location: model.Location{
			Lat: p.Location.Latitude,
			Lng: p.Location.Longitude,
		},
	}

	if p.RegularOpeningHours != nil {
		snap.Hours = p.RegularOpeningHours.WeekdayDescriptions
	}

	for i, r := range p.Reviews {
		if i >= maxSnapshotReviews {
			break
		}
		snap.RecentReviews = append(snap.RecentReviews, model.Review{
			Rating:       r.Rating,
			Text:         r.Body(),
			RelativeTime: r.RelativePublishTimeDescription,
			Author:       r.Author(),
		})
	}

	return snap
}
