package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/score-predictor/external/apifootball"
	"github.com/riskibarqy/score-predictor/external/jobqueue"
	"github.com/riskibarqy/score-predictor/internal/config"
	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	"github.com/riskibarqy/score-predictor/internal/domain/league"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/domain/result"
	"github.com/riskibarqy/score-predictor/internal/domain/user"
	"github.com/riskibarqy/score-predictor/internal/infrastructure/account/identity"
	"github.com/riskibarqy/score-predictor/internal/infrastructure/notify"
	cacherepo "github.com/riskibarqy/score-predictor/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/score-predictor/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/score-predictor/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/score-predictor/internal/interfaces/httpapi"
	"github.com/riskibarqy/score-predictor/internal/observability"
	basecache "github.com/riskibarqy/score-predictor/internal/platform/cache"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/riskibarqy/score-predictor/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const changeBusBuffer = 256

// Container holds the wired services shared by the API server and the CLI.
type Container struct {
	Config      config.Config
	Logger      *logging.Logger
	Metrics     *observability.Metrics
	Fixtures    *usecase.FixtureService
	Predictions *usecase.PredictionService
	Results     *usecase.ResultService
	Leaderboard *usecase.LeaderboardService
	Leagues     *usecase.LeagueService
	Users       *usecase.UserService
	// Sync is nil when the feed client is disabled.
	Sync     *usecase.SyncService
	Verifier httpapi.TokenVerifier

	db  *sqlx.DB
	bus *notify.Bus
}

type repositories struct {
	fixtures    fixture.Repository
	predictions prediction.Repository
	results     result.Repository
	leagues     league.Repository
	users       user.Repository
}

func NewContainer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
		bus:     notify.NewBus(changeBusBuffer, logger),
	}

	repos, err := c.openRepositories(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	var feed usecase.FootballFeed
	if cfg.APIFootballEnabled {
		feed = apifootball.NewClient(nil, apifootball.Config{
			BaseURL:        cfg.APIFootballBaseURL,
			Key:            cfg.APIFootballKey,
			Host:           cfg.APIFootballHost,
			LeagueRef:      cfg.APIFootballLeagueRef,
			Season:         cfg.APIFootballSeason,
			LeagueType:     cfg.APIFootballLeagueType,
			Timeout:        cfg.APIFootballTimeout,
			MaxRetries:     cfg.APIFootballMaxRetries,
			RatePerMinute:  cfg.APIFootballRatePerMinute,
			CircuitBreaker: cfg.APIFootballCircuit,
		}, logger)
	}

	var provider result.Provider
	if cfg.ResultsProvider == config.ResultsProviderFeed {
		if feed == nil {
			_ = c.Close()
			return nil, fmt.Errorf("feed results provider requires the feed client")
		}
		provider = usecase.NewFeedResultsProvider(feed)
	}

	queue, err := newJobQueue(cfg, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	propagation := usecase.NewPropagationService(repos.predictions, c.bus, c.Metrics, cfg.PropagationWorkers, logger)
	c.Fixtures = usecase.NewFixtureService(repos.fixtures, nil)
	c.Predictions = usecase.NewPredictionService(repos.fixtures, repos.predictions, repos.results, repos.leagues, c.bus, logger)
	c.Results = usecase.NewResultService(repos.fixtures, repos.results, propagation, provider, queue, logger)
	c.Leaderboard = usecase.NewLeaderboardService(repos.predictions, repos.users, c.bus, logger)
	c.Leagues = usecase.NewLeagueService(repos.leagues, nil)
	c.Users = usecase.NewUserService(repos.users, repos.predictions)
	if feed != nil {
		c.Sync = usecase.NewSyncService(feed, repos.fixtures, repos.results, c.Results, cfg.SyncWorkers, c.Metrics, logger)
	}

	c.Verifier = identity.NewClient(nil, identity.Config{
		BaseURL:        cfg.IdentityBaseURL,
		IntrospectPath: cfg.IdentityIntrospectPath,
		AdminKey:       cfg.IdentityAdminKey,
		Timeout:        cfg.IdentityTimeout,
		CacheTTL:       cfg.IdentityCacheTTL,
		CircuitBreaker: cfg.IdentityCircuit,
	}, logger)

	return c, nil
}

func (c *Container) openRepositories(ctx context.Context) (repositories, error) {
	cfg := c.Config
	var repos repositories

	if cfg.DBURL == "" {
		c.Logger.Warn("DB_URL empty, using in-memory stores")
		repos = repositories{
			fixtures:    memory.NewFixtureRepository(memory.SeedFixtures(time.Now().UTC())),
			predictions: memory.NewPredictionRepository(),
			results:     memory.NewResultRepository(),
			leagues:     memory.NewLeagueRepository(nil),
			users:       memory.NewUserRepository(),
		}
	} else {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		c.db = db
		if cfg.AppEnv == config.EnvDev {
			if err := postgres.BootstrapSeed(ctx, db, time.Now().UTC()); err != nil {
				return repositories{}, err
			}
		}
		repos = repositories{
			fixtures:    postgres.NewFixtureRepository(db),
			predictions: postgres.NewPredictionRepository(db),
			results:     postgres.NewResultRepository(db),
			leagues:     postgres.NewLeagueRepository(db),
			users:       postgres.NewUserRepository(db),
		}
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.fixtures = cacherepo.NewFixtureRepository(repos.fixtures, store)
		repos.leagues = cacherepo.NewLeagueRepository(repos.leagues, store)
		repos.users = cacherepo.NewUserRepository(repos.users, store)
	}
	return repos, nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBBinaryParameters),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	otelsql.ReportDBStatsMetrics(db.DB)
	return db, nil
}

func newJobQueue(cfg config.Config, logger *logging.Logger) (usecase.JobQueue, error) {
	if !cfg.QStashEnabled {
		return usecase.NewNoopJobQueue(), nil
	}
	publisher, err := jobqueue.NewPublisher(nil, jobqueue.Config{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		CircuitBreaker:   cfg.QStashCircuit,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build qstash publisher: %w", err)
	}
	return publisher, nil
}

// NewHTTPServer builds the API server over the container's services.
func (c *Container) NewHTTPServer() (*http.Server, error) {
	cfg := c.Config
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(httpapi.Services{
		Fixtures:    c.Fixtures,
		Predictions: c.Predictions,
		Results:     c.Results,
		Leaderboard: c.Leaderboard,
		Leagues:     c.Leagues,
		Users:       c.Users,
		Sync:        c.Sync,
	}, c.Logger)

	routerCfg := httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		AdminUserIDs:       cfg.AdminUserIDs,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
		Observer:           c.Metrics,
	}
	if cfg.MetricsEnabled {
		routerCfg.Metrics = c.Metrics.Handler()
	}

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, c.Verifier, routerCfg, c.Logger),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}, nil
}

func (c *Container) Close() error {
	var firstErr error
	if c.bus != nil {
		if err := c.bus.Close(); err != nil {
			firstErr = fmt.Errorf("close change bus: %w", err)
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}
	return firstErr
}
