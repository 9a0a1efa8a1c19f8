// Package config loads the talentsearch service configuration from
// environment variables, following the flat-struct-plus-LoadConfig pattern
// used across the Livepeer FrameWorks services.
package config

import (
	"time"

	"github.com/delimatsuo/talentsearch/pkg/config"
)

// StoreConfig configures the Postgres/pgvector connection and pool.
type StoreConfig struct {
	Host             string
	Port             string
	Database         string
	User             string
	Password         string
	SSLMode          string
	Schema           string
	ProfilesTable    string
	EmbeddingsTable  string
	VectorDimensions int
	MinConns         int
	MaxConns         int
	IdleTimeout      time.Duration
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
	ANNEFSearch      int
	AutoMigrate      bool
	RRFEnabled       bool
	RRFK             int
	PerMethodLimit   int
}

// CacheConfig configures the layered cache and its optional Redis backend.
type CacheConfig struct {
	Host           string
	Port           string
	Prefix         string
	Disabled       bool
	SearchTTL      time.Duration
	RerankTTL      time.Duration
	EmbeddingTTL   time.Duration
	SpecialtyTTL   time.Duration
}

// ServiceEndpoint configures one outbound HTTP collaborator.
type ServiceEndpoint struct {
	URL      string
	Timeout  time.Duration
	Retries  int
	Audience string
	Token    string
	Enabled  bool
}

// SearchConfig configures scoring and NLP thresholds.
type SearchConfig struct {
	DefaultRoleType        string
	EnableNLP              bool
	NLPConfidenceThreshold float64
	NLPExtractTimeout      time.Duration
	RerankPrefixLimit      int
}

// Config is the full set of environment-driven settings for the service.
type Config struct {
	Port       string
	Store      StoreConfig
	Cache      CacheConfig
	Embed      ServiceEndpoint
	Rerank     ServiceEndpoint
	Trajectory ServiceEndpoint
	Search     SearchConfig
}

// LoadConfig loads the talentsearch configuration from environment
// variables, applying the same defaults-with-override convention as the
// teacher's GetEnv/GetEnvInt/GetEnvBool helpers.
func LoadConfig() Config {
	return Config{
		Port: config.GetEnv("PORT", "18080"),
		Store: StoreConfig{
			Host:             config.GetEnv("STORE_HOST", "localhost"),
			Port:             config.GetEnv("STORE_PORT", "5432"),
			Database:         config.GetEnv("STORE_DATABASE", "talentsearch"),
			User:             config.GetEnv("STORE_USER", "postgres"),
			Password:         config.GetEnv("STORE_PASSWORD", ""),
			SSLMode:          config.GetEnv("STORE_SSLMODE", "disable"),
			Schema:           config.GetEnv("STORE_SCHEMA", "public"),
			ProfilesTable:    config.GetEnv("STORE_PROFILES_TABLE", "candidate_profiles"),
			EmbeddingsTable:  config.GetEnv("STORE_EMBEDDINGS_TABLE", "candidate_embeddings"),
			VectorDimensions: config.GetEnvInt("STORE_VECTOR_DIMENSIONS", 1536),
			MinConns:         config.GetEnvInt("STORE_POOL_MIN_CONNS", 2),
			MaxConns:         config.GetEnvInt("STORE_POOL_MAX_CONNS", 20),
			IdleTimeout:      time.Duration(config.GetEnvInt("STORE_IDLE_TIMEOUT_SECONDS", 300)) * time.Second,
			ConnectTimeout:   time.Duration(config.GetEnvInt("STORE_CONNECT_TIMEOUT_SECONDS", 5)) * time.Second,
			StatementTimeout: time.Duration(config.GetEnvInt("STORE_STATEMENT_TIMEOUT_SECONDS", 10)) * time.Second,
			ANNEFSearch:      config.GetEnvInt("STORE_ANN_EF_SEARCH", 100),
			AutoMigrate:      config.GetEnvBool("STORE_AUTO_MIGRATE", false),
			RRFEnabled:       config.GetEnvBool("STORE_RRF_ENABLED", true),
			RRFK:             config.GetEnvInt("STORE_RRF_K", 60),
			PerMethodLimit:   config.GetEnvInt("STORE_PER_METHOD_LIMIT", 100),
		},
		Cache: CacheConfig{
			Host:         config.GetEnv("CACHE_HOST", ""),
			Port:         config.GetEnv("CACHE_PORT", "6379"),
			Prefix:       config.GetEnv("CACHE_PREFIX", "hh"),
			Disabled:     config.GetEnvBool("CACHE_DISABLED", false),
			SearchTTL:    time.Duration(config.GetEnvInt("CACHE_SEARCH_TTL_SECONDS", 600)) * time.Second,
			RerankTTL:    time.Duration(config.GetEnvInt("CACHE_RERANK_TTL_SECONDS", 21600)) * time.Second,
			EmbeddingTTL: time.Duration(config.GetEnvInt("CACHE_EMBEDDING_TTL_SECONDS", 3600)) * time.Second,
			SpecialtyTTL: time.Duration(config.GetEnvInt("CACHE_SPECIALTY_TTL_SECONDS", 86400)) * time.Second,
		},
		Embed: ServiceEndpoint{
			URL:      config.GetEnv("EMBED_SERVICE_URL", ""),
			Timeout:  time.Duration(config.GetEnvInt("EMBED_SERVICE_TIMEOUT_MS", 3000)) * time.Millisecond,
			Retries:  config.GetEnvInt("EMBED_SERVICE_RETRIES", 2),
			Audience: config.GetEnv("EMBED_SERVICE_AUDIENCE", ""),
			Token:    config.GetEnv("EMBED_SERVICE_TOKEN", ""),
			Enabled:  config.GetEnv("EMBED_SERVICE_URL", "") != "",
		},
		Rerank: ServiceEndpoint{
			URL:      config.GetEnv("RERANK_SERVICE_URL", ""),
			Timeout:  time.Duration(config.GetEnvInt("RERANK_SERVICE_TIMEOUT_MS", 2000)) * time.Millisecond,
			Retries:  config.GetEnvInt("RERANK_SERVICE_RETRIES", 1),
			Audience: config.GetEnv("RERANK_SERVICE_AUDIENCE", ""),
			Token:    config.GetEnv("RERANK_SERVICE_TOKEN", ""),
			Enabled:  config.GetEnvBool("RERANK_SERVICE_ENABLED", false),
		},
		Trajectory: ServiceEndpoint{
			URL:     config.GetEnv("ML_TRAJECTORY_URL", ""),
			Timeout: time.Duration(config.GetEnvInt("ML_TRAJECTORY_TIMEOUT_MS", 2000)) * time.Millisecond,
			Enabled: config.GetEnv("ML_TRAJECTORY_URL", "") != "",
		},
		Search: SearchConfig{
			DefaultRoleType:        config.GetEnv("SEARCH_DEFAULT_ROLE_TYPE", "default"),
			EnableNLP:              config.GetEnvBool("SEARCH_ENABLE_NLP", true),
			NLPConfidenceThreshold: config.GetEnvFloat("SEARCH_NLP_CONFIDENCE_THRESHOLD", 0.6),
			NLPExtractTimeout:      time.Duration(config.GetEnvInt("SEARCH_NLP_EXTRACT_TIMEOUT_MS", 100)) * time.Millisecond,
			RerankPrefixLimit:      config.GetEnvInt("SEARCH_RERANK_PREFIX_LIMIT", 50),
		},
	}
}
