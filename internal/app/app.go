package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chelhq/chel-stats/external/eaapi"
	"github.com/chelhq/chel-stats/external/notify"
	"github.com/chelhq/chel-stats/internal/config"
	"github.com/chelhq/chel-stats/internal/domain/clubstats"
	"github.com/chelhq/chel-stats/internal/domain/playerstats"
	"github.com/chelhq/chel-stats/internal/domain/rawdata"
	"github.com/chelhq/chel-stats/internal/infrastructure/repository/memory"
	"github.com/chelhq/chel-stats/internal/infrastructure/repository/postgres"
	"github.com/chelhq/chel-stats/internal/interfaces/httpapi"
	"github.com/chelhq/chel-stats/internal/platform/cache"
	"github.com/chelhq/chel-stats/internal/platform/logging"
	"github.com/chelhq/chel-stats/internal/platform/resilience"
	"github.com/chelhq/chel-stats/internal/usecase"
)

// NewHTTPServer wires the whole service together. The returned close func
// releases the database handle and must be called on shutdown.
func NewHTTPServer(cfg config.Config, logger *slog.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	zlog := logging.Default()

	var (
		clubRepo   clubstats.Repository
		playerRepo playerstats.Repository
		rawRepo    rawdata.Repository
		closeDB    = func() error { return nil }
	)

	if strings.TrimSpace(cfg.DBURL) != "" {
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		clubRepo = postgres.NewClubStatsRepository(db)
		playerRepo = postgres.NewPlayerStatsRepository(db)
		rawRepo = postgres.NewRawDataRepository(db)
		closeDB = db.Close
		logger.Info("using postgres repositories", "database", dbNameFromURL(cfg.DBURL))
	} else {
		clubRepo = memory.NewClubStatsRepository()
		playerRepo = memory.NewPlayerStatsRepository()
		rawRepo = memory.NewRawDataRepository()
		logger.Info("using in-memory repositories", "reason", "DB_URL empty")
	}

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}

	eaClient := eaapi.NewClient(eaapi.ClientConfig{
		BaseURL:    cfg.EAAPIBaseURL,
		Platform:   cfg.EAAPIPlatform,
		Timeout:    cfg.EAAPITimeout,
		MaxRetries: cfg.EAAPIMaxRetries,
		Logger:     zlog,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.EAAPICircuitEnabled,
			FailureThreshold: cfg.EAAPICircuitFailureCount,
			OpenTimeout:      cfg.EAAPICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.EAAPICircuitHalfOpenMaxReq,
		},
	})

	matchSvc := usecase.NewMatchService(eaClient, rawRepo, store, zlog)
	statsSvc := usecase.NewStatsService(clubRepo, playerRepo, zlog)

	var publisher usecase.RecapPublisher
	if cfg.DiscordEnabled {
		publisher = notify.NewDiscordPublisher(notify.DiscordPublisherConfig{
			WebhookURL: cfg.DiscordWebhookURL,
			Username:   cfg.DiscordUsername,
			Timeout:    cfg.DiscordTimeout,
			MaxRetries: cfg.DiscordMaxRetries,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.DiscordCircuitEnabled,
				FailureThreshold: cfg.DiscordCircuitFailureCount,
				OpenTimeout:      cfg.DiscordCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.DiscordCircuitHalfOpenMaxReq,
			},
		}, logger)
	}
	recapSvc := usecase.NewRecapService(publisher, zlog)

	backfillSvc := usecase.NewBackfillService(matchSvc, statsSvc, recapSvc, zlog)
	backfillSvc.SetSessionGap(cfg.BackfillSessionGap)
	backfillSvc.SetDefaultWorkers(cfg.BackfillMaxWorkers)

	handler := httpapi.NewHandler(matchSvc, statsSvc, recapSvc, backfillSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = closeDB()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, closeDB, nil
}
