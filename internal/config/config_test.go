package config

import (
	"os"
	"testing"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	for _, key := range []string{
		"STORE_HOST", "EMBED_SERVICE_URL", "RERANK_SERVICE_ENABLED", "CACHE_HOST", "ML_TRAJECTORY_URL",
	} {
		os.Unsetenv(key)
	}

	cfg := LoadConfig()

	if cfg.Store.Host != "localhost" {
		t.Fatalf("expected default store host, got %q", cfg.Store.Host)
	}
	if cfg.Store.RRFK != 60 {
		t.Fatalf("expected default RRF k=60, got %d", cfg.Store.RRFK)
	}
	if cfg.Embed.Enabled {
		t.Fatalf("expected embed service disabled without EMBED_SERVICE_URL")
	}
	if cfg.Trajectory.Enabled {
		t.Fatalf("expected trajectory disabled without ML_TRAJECTORY_URL")
	}
	if cfg.Rerank.Enabled {
		t.Fatalf("expected rerank disabled by default")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	os.Setenv("EMBED_SERVICE_URL", "http://embed.internal")
	os.Setenv("RERANK_SERVICE_ENABLED", "true")
	os.Setenv("SEARCH_NLP_CONFIDENCE_THRESHOLD", "0.75")
	t.Cleanup(func() {
		os.Unsetenv("EMBED_SERVICE_URL")
		os.Unsetenv("RERANK_SERVICE_ENABLED")
		os.Unsetenv("SEARCH_NLP_CONFIDENCE_THRESHOLD")
	})

	cfg := LoadConfig()

	if !cfg.Embed.Enabled || cfg.Embed.URL != "http://embed.internal" {
		t.Fatalf("expected embed service enabled with overridden URL, got %+v", cfg.Embed)
	}
	if !cfg.Rerank.Enabled {
		t.Fatalf("expected rerank enabled via override")
	}
	if cfg.Search.NLPConfidenceThreshold != 0.75 {
		t.Fatalf("expected overridden NLP confidence threshold, got %v", cfg.Search.NLPConfidenceThreshold)
	}
}
