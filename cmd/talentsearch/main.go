package main

import (
	"context"

	"github.com/delimatsuo/talentsearch/internal/api"
	internalcache "github.com/delimatsuo/talentsearch/internal/cache"
	"github.com/delimatsuo/talentsearch/internal/embedclient"
	"github.com/delimatsuo/talentsearch/internal/expand"
	"github.com/delimatsuo/talentsearch/internal/extract"
	"github.com/delimatsuo/talentsearch/internal/intent"
	"github.com/delimatsuo/talentsearch/internal/ontology"
	"github.com/delimatsuo/talentsearch/internal/orchestrator"
	"github.com/delimatsuo/talentsearch/internal/parser"
	"github.com/delimatsuo/talentsearch/internal/perf"
	"github.com/delimatsuo/talentsearch/internal/rationale"
	"github.com/delimatsuo/talentsearch/internal/rerank"
	"github.com/delimatsuo/talentsearch/internal/store"
	"github.com/delimatsuo/talentsearch/internal/trajectory"
	"github.com/delimatsuo/talentsearch/internal/bias"
	talentsearchconfig "github.com/delimatsuo/talentsearch/internal/config"
	"github.com/delimatsuo/talentsearch/pkg/config"
	"github.com/delimatsuo/talentsearch/pkg/database"
	goredis "github.com/delimatsuo/talentsearch/pkg/redis"
	"github.com/delimatsuo/talentsearch/pkg/llm"
	"github.com/delimatsuo/talentsearch/pkg/logging"
	"github.com/delimatsuo/talentsearch/pkg/monitoring"
	"github.com/delimatsuo/talentsearch/pkg/server"
	"github.com/delimatsuo/talentsearch/pkg/validation"
	"github.com/delimatsuo/talentsearch/pkg/version"
)

const serviceName = "talentsearch"

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)

	cfg := talentsearchconfig.LoadConfig()
	jwtSecret := config.RequireEnv("JWT_SECRET")

	logger.Info("starting talentsearch")

	dbConfig := database.DefaultConfig()
	dbConfig.URL = storeDSN(cfg.Store)
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()

	candidateStore := store.New(db, store.PoolConfig{
		MinConns:         cfg.Store.MinConns,
		MaxConns:         cfg.Store.MaxConns,
		IdleTimeout:      cfg.Store.IdleTimeout,
		ConnectTimeout:   cfg.Store.ConnectTimeout,
		StatementTimeout: cfg.Store.StatementTimeout,
		AutoMigrate:      cfg.Store.AutoMigrate,
		RRFEnabled:       cfg.Store.RRFEnabled,
		RRFK:             cfg.Store.RRFK,
		PerMethodLimit:   cfg.Store.PerMethodLimit,
		ANNEFSearch:      cfg.Store.ANNEFSearch,
	}, logger)

	bootCtx := context.Background()
	if err := candidateStore.WarmPool(bootCtx); err != nil {
		logger.WithError(err).Warn("store pool warm-up failed")
	}
	if cfg.Store.AutoMigrate {
		if err := candidateStore.Migrate(bootCtx); err != nil {
			logger.WithError(err).Warn("auto-migrate failed")
		}
	}

	cache := buildCache(bootCtx, cfg.Cache, logger)

	embedder := embedclient.New(mustEmbedder(cfg, logger), cfg.Embed.Timeout)

	rerankClient := rerank.New(mustReranker(cfg, logger), rerank.Config{
		Enabled: cfg.Rerank.Enabled,
		Timeout: cfg.Rerank.Timeout,
	})

	trajectoryClient := trajectory.New(cfg.Trajectory.URL, cfg.Trajectory.Timeout)
	trajectoryClient.Start(bootCtx)

	onto, err := ontology.Default()
	if err != nil {
		logger.WithError(err).Fatal("failed to load ontology")
	}
	skillExpander := expand.NewSkillExpander(onto)

	intentRouter := intent.New(embedder)
	if err := intentRouter.Initialize(bootCtx); err != nil {
		logger.WithError(err).Warn("intent router initialization failed; keyword fallback will be used")
	}

	// Built unconditionally: a request can ask for enableNlp=true even when
	// SEARCH_ENABLE_NLP defaults requests to false, and parser.Parse calls
	// the extractor directly once intent routing clears the fallback
	// threshold. An extraction call that times out or fails returns an empty
	// record. An unset EXTRACT_LLM_API_URL falls back to LLM_API_URL and then
	// to the OpenAI API endpoint.
	extractClient := extract.NewHTTPClient(llm.LoadExtractionConfig())
	extractor, err := extract.New(extractClient, cfg.Search.NLPExtractTimeout)
	if err != nil {
		logger.WithError(err).Fatal("failed to build entity extractor")
	}

	queryParser := parser.New(intentRouter, extractor, skillExpander, embedder)

	eventLogger := bias.NewEventLogger(db, logger)
	tracker := perf.New(1000)
	rationaleGenerator := buildRationaleGenerator(logger)

	orch := &orchestrator.Orchestrator{
		Parser:      queryParser,
		Store:       candidateStore,
		Cache:       cache,
		Embedder:    embedder,
		Rerank:      rerankClient,
		Trajectory:  trajectoryClient,
		EventLogger: eventLogger,
		Tracker:     tracker,
		Logger:      logger,
		Rationale:   rationaleGenerator,
	}

	healthChecker := monitoring.NewHealthChecker(serviceName, version.Version)
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("store_pool", storeHealthCheck(candidateStore))
	healthChecker.AddCheck("rerank", monitoring.StaticHealthCheck(capabilityStatus(cfg.Rerank.Enabled), "rerank service"))
	healthChecker.AddCheck("trajectory", monitoring.StaticHealthCheck(capabilityStatus(trajectoryClient.Available()), "ML trajectory service"))
	healthChecker.AddCheck("nlp", monitoring.StaticHealthCheck(capabilityStatus(cfg.Search.EnableNLP), "entity extraction"))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"JWT_SECRET":   jwtSecret,
		"STORE_HOST":   cfg.Store.Host,
		"STORE_DATABASE": cfg.Store.Database,
	}))

	metricsCollector := monitoring.NewMetricsCollector(serviceName, version.Version, version.GitCommit)
	router := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector)

	handler := &api.Handler{
		Orchestrator: orch,
		Store:        candidateStore,
		Validator:    validation.New(),
		Health:       healthChecker,
		Logger:       logger,
		JWTSecret:    []byte(jwtSecret),
	}
	handler.Register(router)

	serverConfig := server.DefaultConfig(serviceName, cfg.Port)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("server startup failed")
	}
}

func capabilityStatus(available bool) string {
	if available {
		return monitoring.StatusHealthy
	}
	return monitoring.StatusDegraded
}

func storeHealthCheck(s *store.Store) monitoring.HealthCheck {
	return func() monitoring.CheckResult {
		snapshot := s.Health(context.Background())
		status := monitoring.StatusHealthy
		if !snapshot.Healthy {
			status = monitoring.StatusUnhealthy
		} else if snapshot.Degraded {
			status = monitoring.StatusDegraded
		}
		return monitoring.CheckResult{Status: status}
	}
}

func storeDSN(cfg talentsearchconfig.StoreConfig) string {
	return "host=" + cfg.Host +
		" port=" + cfg.Port +
		" dbname=" + cfg.Database +
		" user=" + cfg.User +
		" password=" + cfg.Password +
		" sslmode=" + cfg.SSLMode
}

func buildCache(ctx context.Context, cfg talentsearchconfig.CacheConfig, logger logging.Logger) *internalcache.Cache {
	if cfg.Disabled || cfg.Host == "" {
		return internalcache.New(nil, logger, internalcache.Metrics{})
	}
	client, err := goredis.NewUniversalClient(ctx, goredis.Config{
		Mode:  goredis.ModeSingle,
		Addrs: []string{cfg.Host + ":" + cfg.Port},
	})
	if err != nil {
		logger.WithError(err).Warn("redis cache backend unavailable; running local-only")
		return internalcache.New(nil, logger, internalcache.Metrics{})
	}
	return internalcache.New(internalcache.NewRedisBackend(client), logger, internalcache.Metrics{})
}

func mustEmbedder(cfg talentsearchconfig.Config, logger logging.Logger) llm.EmbeddingClient {
	client, err := llm.NewEmbeddingClient(llm.LoadEmbeddingConfig())
	if err != nil {
		logger.WithError(err).Fatal("failed to build embedding client")
	}
	return client
}

func buildRationaleGenerator(logger logging.Logger) *rationale.Client {
	cfg := llm.Config{
		Provider: config.GetEnv("RATIONALE_LLM_PROVIDER", config.GetEnv("LLM_PROVIDER", "openai")),
		Model:    config.GetEnv("RATIONALE_LLM_MODEL", config.GetEnv("LLM_MODEL", "")),
		APIKey:   config.GetEnv("RATIONALE_LLM_API_KEY", config.GetEnv("LLM_API_KEY", "")),
		APIURL:   config.GetEnv("RATIONALE_LLM_API_URL", config.GetEnv("LLM_API_URL", "")),
	}
	if cfg.Model == "" {
		return nil
	}
	client, err := llm.NewRationaleClient(cfg)
	if err != nil {
		logger.WithError(err).Warn("failed to build rationale client; includeMatchRationale will use the generic fallback")
		return nil
	}
	return rationale.New(client, 0)
}

func mustReranker(cfg talentsearchconfig.Config, logger logging.Logger) llm.RerankClient {
	if !cfg.Rerank.Enabled {
		return nil
	}
	client, err := llm.NewRerankClient(llm.RerankConfig{
		Provider: config.GetEnv("RERANK_PROVIDER", "cohere"),
		APIKey:   config.GetEnv("RERANK_API_KEY", ""),
		APIURL:   cfg.Rerank.URL,
	})
	if err != nil {
		logger.WithError(err).Warn("failed to build rerank client; rerank disabled")
		return nil
	}
	return client
}
