package audit

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-audit/internal/model"
	"github.com/sells-group/visibility-audit/internal/resolver"
	"github.com/sells-group/visibility-audit/internal/sampler"
	"github.com/sells-group/visibility-audit/internal/store"
	"github.com/sells-group/visibility-audit/pkg/narrative"
	"github.com/sells-group/visibility-audit/pkg/places"
)

type fakePlaces struct {
	mu          sync.Mutex
	searchID    string
	searchErr   error
	place       *places.Place
	getErr      error
	lastQuery   string
	searchCalls int
}

func (f *fakePlaces) SearchText(_ context.Context, query, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	f.searchCalls++
	if f.searchErr != nil {
		return "", f.searchErr
	}
	return f.searchID, nil
}

func (f *fakePlaces) GetPlace(_ context.Context, _, _ string) (*places.Place, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.place, nil
}

type fakeGenerator struct {
	mu      sync.Mutex
	summary *model.ScoreSummary
	err     error
	calls   int
}

func (f *fakeGenerator) Generate(_ context.Context, _ *model.ProfileSnapshot, _ string) (*model.ScoreSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

type fixedOracle struct{ rank int }

func (f fixedOracle) GetRank(_ context.Context, _ string, _, _ float64, _, _ string) (int, bool, error) {
	return f.rank, true, nil
}

func testPlace() *places.Place {
	return &places.Place{
		ID:               "ChIJbell",
		DisplayName:      places.DisplayName{Text: "Padaria Bell"},
		Rating:           4.6,
		UserRatingCount:  128,
		FormattedAddress: "Rua das Flores 10, São Paulo",
		Types:            []string{"bakery", "cafe"},
		Photos:           []places.Photo{{Name: "p1"}, {Name: "p2"}},
		Reviews: []places.Review{
			{Rating: 5, Text: &places.LocalText{Text: "ótimo pão"}},
		},
		Location: places.LatLng{Latitude: -23.56, Longitude: -46.65},
	}
}

func testSummary() *model.ScoreSummary {
	return &model.ScoreSummary{
		OverallScore: 71,
		Subscores:    model.Subscores{Completeness: 15, Trust: 16, Conversion: 14, Media: 12, LocalSEO: 14},
		Teaser:       "teaser",
		Narrative:    "# Report",
	}
}

func newTestPipeline(t *testing.T, pl *fakePlaces, gen *fakeGenerator) (*Pipeline, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	smp := sampler.New(fixedOracle{rank: 3}, sampler.WithGridSize(3), sampler.WithConcurrency(4))
	return New(resolver.New(), pl, gen, smp, st), st
}

func TestGenerateFullPipeline(t *testing.T) {
	pl := &fakePlaces{searchID: "ChIJbell", place: testPlace()}
	gen := &fakeGenerator{summary: testSummary()}
	p, _ := newTestPipeline(t, pl, gen)

	report, err := p.Generate(context.Background(), Request{
		URL: "https://www.google.com/maps/place/Padaria+Bell/@-23.56,-46.65,17z",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "ChIJbell", report.PlaceID)
	assert.Equal(t, "pt-BR", report.Language)
	// The query equals the business name, so the keyword falls back to
	// the primary category.
	assert.Equal(t, "bakery", report.Keyword)
	assert.Equal(t, model.ReportStatusCompleted, report.Status)
	assert.False(t, report.Cached)
	assert.False(t, report.CreatedAt.IsZero())
	assert.Equal(t, 71, report.Score.OverallScore)
	assert.Len(t, report.VisibilityGrid.Points, 9)
	assert.Equal(t, model.Location{Lat: -23.56, Lng: -46.65}, report.BusinessLocation)
	assert.Equal(t, "Padaria Bell", report.Profile.Name)
	assert.Len(t, report.Profile.RecentReviews, 1)
}

func TestGenerateCacheHit(t *testing.T) {
	pl := &fakePlaces{searchID: "ChIJbell", place: testPlace()}
	gen := &fakeGenerator{summary: testSummary()}
	p, _ := newTestPipeline(t, pl, gen)

	req := Request{URL: "https://www.google.com/maps/place/Padaria+Bell"}

	first, err := p.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, gen.calls, "cache hit must not regenerate")
}

func TestGenerateKeywordOverride(t *testing.T) {
	pl := &fakePlaces{searchID: "ChIJbell", place: testPlace()}
	gen := &fakeGenerator{summary: testSummary()}
	p, _ := newTestPipeline(t, pl, gen)

	report, err := p.Generate(context.Background(), Request{
		URL:     "https://www.google.com/maps/place/Padaria+Bell",
		Keyword: "Melhor Padaria Centro",
	})
	require.NoError(t, err)
	assert.Equal(t, "melhor padaria centro", report.Keyword)
}

func TestGenerateParseFailed(t *testing.T) {
	p, _ := newTestPipeline(t, &fakePlaces{}, &fakeGenerator{})

	_, err := p.Generate(context.Background(), Request{URL: "https://www.google.com/maps"})
	require.Error(t, err)
	assert.Equal(t, KindParseFailed, KindOf(err))
}

func TestGeneratePlaceNotFound(t *testing.T) {
	pl := &fakePlaces{searchErr: eris.Wrap(places.ErrNotFound, "query")}
	p, _ := newTestPipeline(t, pl, &fakeGenerator{})

	_, err := p.Generate(context.Background(), Request{URL: "https://www.google.com/maps/place/Nowhere"})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGenerateNarrativeFailedPersistsNothing(t *testing.T) {
	pl := &fakePlaces{searchID: "ChIJbell", place: testPlace()}
	gen := &fakeGenerator{err: eris.Wrap(narrative.ErrGenerationFailed, "bad json")}
	p, st := newTestPipeline(t, pl, gen)

	_, err := p.Generate(context.Background(), Request{URL: "https://www.google.com/maps/place/Padaria+Bell"})
	require.Error(t, err)
	assert.Equal(t, KindNarrativeFailed, KindOf(err))

	summaries, err := st.ListRecentReports(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, summaries, "failed runs must not persist reports")
}

func TestGenerateInternalKind(t *testing.T) {
	pl := &fakePlaces{searchErr: eris.New("upstream 500")}
	p, _ := newTestPipeline(t, pl, &fakeGenerator{})

	_, err := p.Generate(context.Background(), Request{URL: "https://www.google.com/maps/place/X"})
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestGetReportUnknownID(t *testing.T) {
	p, _ := newTestPipeline(t, &fakePlaces{}, &fakeGenerator{})

	_, err := p.GetReport(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestHistory(t *testing.T) {
	pl := &fakePlaces{searchID: "ChIJbell", place: testPlace()}
	gen := &fakeGenerator{summary: testSummary()}
	p, _ := newTestPipeline(t, pl, gen)

	report, err := p.Generate(context.Background(), Request{URL: "https://www.google.com/maps/place/Padaria+Bell"})
	require.NoError(t, err)

	summaries, err := p.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, report.ID, summaries[0].ID)
	assert.Equal(t, "Padaria Bell", summaries[0].Name)
	assert.Equal(t, 71, summaries[0].OverallScore)
}
