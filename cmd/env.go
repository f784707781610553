package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-audit/internal/audit"
	"github.com/sells-group/visibility-audit/internal/monitoring"
	"github.com/sells-group/visibility-audit/internal/resilience"
	"github.com/sells-group/visibility-audit/internal/resolver"
	"github.com/sells-group/visibility-audit/internal/sampler"
	"github.com/sells-group/visibility-audit/internal/store"
	"github.com/sells-group/visibility-audit/pkg/narrative"
	"github.com/sells-group/visibility-audit/pkg/places"
	"github.com/sells-group/visibility-audit/pkg/serp"
)

// auditEnv holds the initialized store, clients, and pipeline shared by
// the serve/audit/reports commands.
type auditEnv struct {
	Store     store.Store
	Pipeline  *audit.Pipeline
	Collector *monitoring.Collector
}

// Close releases resources held by the environment.
func (ae *auditEnv) Close() {
	if ae.Store != nil {
		_ = ae.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "visibility-audit.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv sets up the store and all API clients for the given mode.
func initEnv(ctx context.Context, mode string) (*auditEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	placesClient := places.NewClient(cfg.Places.Key, places.WithBaseURL(cfg.Places.BaseURL))

	// Ranking oracle (optional: without a key the deterministic null
	// oracle stands in, useful for local development).
	var oracle serp.Client
	if cfg.Serp.Key != "" {
		oracle = serp.NewClient(cfg.Serp.Key,
			serp.WithBaseURL(cfg.Serp.BaseURL),
			serp.WithQPS(cfg.Serp.QPS),
			serp.WithBreaker(resilience.NewBreaker(resilience.DefaultBreakerConfig())),
		)
	} else {
		zap.L().Warn("AUDIT_SERP_KEY not set, using null ranking oracle")
		oracle = serp.NewNullClient()
	}

	generator := narrative.NewGenerator(cfg.Anthropic.Key,
		narrative.WithModel(cfg.Anthropic.Model),
		narrative.WithMaxTokens(cfg.Anthropic.MaxTokens),
	)

	smp := sampler.New(oracle,
		sampler.WithRadius(cfg.Grid.RadiusMeters),
		sampler.WithGridSize(cfg.Grid.Size),
		sampler.WithConcurrency(cfg.Grid.Concurrency),
		sampler.WithTimeout(time.Duration(cfg.Grid.TimeoutSecs)*time.Second),
	)

	pipeline := audit.New(resolver.New(), placesClient, generator, smp, st,
		audit.WithTTL(cfg.Cache.TTL()),
	)

	return &auditEnv{
		Store:     st,
		Pipeline:  pipeline,
		Collector: monitoring.NewCollector(st),
	}, nil
}
