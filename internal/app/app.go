package app

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	_ "github.com/lib/pq"

	"github.com/anto2887/prediction-league/external/footballdata"
	"github.com/anto2887/prediction-league/internal/config"
	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/domain/league"
	"github.com/anto2887/prediction-league/internal/infrastructure/account"
	cacherepo "github.com/anto2887/prediction-league/internal/infrastructure/repository/cache"
	"github.com/anto2887/prediction-league/internal/infrastructure/repository/postgres"
	"github.com/anto2887/prediction-league/internal/infrastructure/secrets"
	"github.com/anto2887/prediction-league/internal/interfaces/httpapi"
	basecache "github.com/anto2887/prediction-league/internal/platform/cache"
	idgen "github.com/anto2887/prediction-league/internal/platform/id"
	"github.com/anto2887/prediction-league/internal/platform/logging"
	"github.com/anto2887/prediction-league/internal/platform/resilience"
	"github.com/anto2887/prediction-league/internal/scheduler"
	"github.com/anto2887/prediction-league/internal/usecase"
)

// Application bundles everything main has to start and stop: the HTTP server,
// the in-process scheduler and the database handle.
type Application struct {
	Server    *http.Server
	Scheduler *scheduler.Runner

	db     *sqlx.DB
	logger *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := connectDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	leagues := buildLeagues(cfg)
	if err := postgres.BootstrapLeagues(ctx, db, leagues); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap leagues: %w", err)
	}

	generator := idgen.NewRandomGenerator()

	var leagueRepo league.Repository = postgres.NewLeagueRepository(db)
	var fixtureRepo fixture.Repository = postgres.NewFixtureRepository(db)
	predictionRepo := postgres.NewPredictionRepository(db)
	resultRepo := postgres.NewSeasonResultRepository(db, generator)
	statusRepo := postgres.NewSyncStatusRepository(db, generator)
	rawRepo := postgres.NewRawDataRepository(db)
	settlementStore := postgres.NewSettlementRepository(db, generator)

	var leaderboardCache *basecache.Store
	if cfg.CacheEnabled {
		leagueRepo = cacherepo.NewLeagueRepository(leagueRepo, basecache.NewStore(cfg.CacheTTL))
		fixtureRepo = cacherepo.NewFixtureRepository(fixtureRepo, basecache.NewStore(cfg.CacheTTL))
		leaderboardCache = basecache.NewStore(cfg.CacheTTL)
	}

	leagueSvc := usecase.NewLeagueService(leagueRepo)
	fixtureSvc := usecase.NewFixtureService(fixtureRepo, leagueRepo)
	predictionSvc := usecase.NewPredictionService(predictionRepo, fixtureRepo, generator, logger)
	leaderboardSvc := usecase.NewLeaderboardService(resultRepo, leaderboardCache, logger)
	settlementSvc := usecase.NewSettlementService(
		usecase.SettlementConfig{MaxWorkers: cfg.SettlementMaxWorkers},
		predictionRepo,
		fixtureRepo,
		settlementStore,
		statusRepo,
		logger,
	)

	var provider usecase.MatchDataProvider
	if cfg.FootballAPIEnabled {
		provider = footballdata.NewClient(footballdata.ClientConfig{
			BaseURL:           cfg.FootballAPIBaseURL,
			APIKeySecretName:  cfg.FootballAPIKeySecretName,
			Timeout:           cfg.FootballAPITimeout,
			MaxAttempts:       cfg.FootballAPIMaxAttempts,
			BackoffBase:       cfg.FootballAPIBackoffBase,
			BackoffCap:        cfg.FootballAPIBackoffCap,
			RequestsPerMinute: cfg.FootballAPIRequestsPerMinute,
			SafetyMargin:      cfg.FootballAPIRateSafetyMargin,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FootballAPICircuitEnabled,
				FailureThreshold: cfg.FootballAPICircuitFailureCount,
				OpenTimeout:      cfg.FootballAPICircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.FootballAPICircuitHalfOpenMaxReq,
			},
		}, buildSecretSource(cfg), logger)
	}

	syncSvc := usecase.NewFixtureSyncService(
		usecase.FixtureSyncConfig{
			Enabled:    cfg.FootballAPIEnabled,
			Source:     "api-football",
			BatchSize:  cfg.SyncBatchSize,
			BatchPause: cfg.SyncBatchPause,
		},
		provider,
		leagueRepo,
		fixtureRepo,
		predictionRepo,
		rawRepo,
		statusRepo,
		settlementSvc,
		generator,
		logger,
	)

	schedulerEnabled := cfg.SchedulerEnabled && cfg.FootballAPIEnabled
	schedulerSvc := usecase.NewSchedulerService(
		usecase.SchedulerConfig{
			Enabled:          schedulerEnabled,
			DailySyncHourUTC: cfg.DailySyncHourUTC,
			LiveInterval:     cfg.JobLiveInterval,
			PreKickoffLead:   cfg.JobPreKickoffLead,
			IdleInterval:     cfg.JobIdleInterval,
		},
		syncSvc,
		settlementSvc,
		fixtureRepo,
		logger,
	)

	dashboardSvc := usecase.NewDashboardService(statusRepo, fixtureRepo, predictionRepo, schedulerEnabled)

	accountClient := account.NewClient(account.ClientConfig{
		BaseURL:        cfg.AccountBaseURL,
		IntrospectPath: cfg.AccountIntrospectPath,
		Timeout:        cfg.AccountTimeout,
		CacheTTL:       cfg.AccountCacheTTL,
	}, logger)

	handler := httpapi.NewHandler(
		leagueSvc,
		fixtureSvc,
		predictionSvc,
		leaderboardSvc,
		dashboardSvc,
		syncSvc,
		settlementSvc,
		logger,
	)
	router := httpapi.NewRouter(handler, accountClient, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		_ = db.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Application{
		Server:    server,
		Scheduler: scheduler.NewRunner(schedulerSvc, logger),
		db:        db,
		logger:    logger,
	}, nil
}

func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func connectDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return db, nil
}

func buildSecretSource(cfg config.Config) footballdata.SecretSource {
	if !cfg.SecretStoreEnabled {
		return secrets.NewEnvProvider("")
	}

	return secrets.NewChain(
		secrets.NewHTTPProvider(secrets.HTTPProviderConfig{
			BaseURL: cfg.SecretStoreBaseURL,
			Token:   cfg.SecretStoreToken,
			Timeout: cfg.SecretStoreTimeout,
		}),
		secrets.NewEnvProvider(""),
	)
}

// buildLeagues turns the configured slug to provider id map into the league
// catalogue. Display names are derived from the slug.
func buildLeagues(cfg config.Config) []league.League {
	slugs := make([]string, 0, len(cfg.ProviderLeagueIDBySlug))
	for slug := range cfg.ProviderLeagueIDBySlug {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	out := make([]league.League, 0, len(slugs))
	for _, slug := range slugs {
		out = append(out, league.League{
			ID:               slug,
			Name:             leagueNameFromSlug(slug),
			ProviderLeagueID: cfg.ProviderLeagueIDBySlug[slug],
			Season:           cfg.Season,
			IsDefault:        slug == cfg.DefaultLeague,
		})
	}
	return out
}

func leagueNameFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
