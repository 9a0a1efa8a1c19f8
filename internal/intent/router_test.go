package intent

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func TestClassifyChoosesBestRoute(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"find candidates with skills in Python and AWS":             {1, 0},
		"encontre candidatos com experiência em Python e AWS":       {1, 0},
		"someone similar to our best backend engineer":              {0, 1},
		"alguém parecido com nosso melhor engenheiro backend":       {0, 1},
	}}
	r := New(embedder)

	got := r.Classify(context.Background(), []float32{1, 0})
	if got.Route != RouteStructured {
		t.Fatalf("expected structured_search, got %v", got.Route)
	}
	if got.Confidence < DefaultThreshold {
		t.Fatalf("expected confidence above threshold, got %v", got.Confidence)
	}
}

func TestClassifyBelowThresholdFallsBack(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"find candidates with skills in Python and AWS":       {1, 0},
		"encontre candidatos com experiência em Python e AWS": {1, 0},
		"someone similar to our best backend engineer":        {0, 1},
		"alguém parecido com nosso melhor engenheiro backend": {0, 1},
	}}
	r := New(embedder)

	got := r.Classify(context.Background(), []float32{1, -2})
	if got.Route != RouteKeywordFallback {
		t.Fatalf("expected keyword_fallback for low-similarity query, got %v", got.Route)
	}
}

func TestClassifyFailsSafeOnEmbeddingError(t *testing.T) {
	r := New(&stubEmbedder{err: errors.New("embedding service down")})
	got := r.Classify(context.Background(), []float32{1, 0})
	if got.Route != RouteKeywordFallback || got.Confidence != 0 {
		t.Fatalf("expected safe fallback, got %+v", got)
	}
}

func TestInitializeIdempotent(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"find candidates with skills in Python and AWS":       {1, 0},
		"encontre candidatos com experiência em Python e AWS": {1, 0},
		"someone similar to our best backend engineer":        {0, 1},
		"alguém parecido com nosso melhor engenheiro backend": {0, 1},
	}}
	r := New(embedder)
	if r.IsInitialized() {
		t.Fatalf("expected not initialized before first call")
	}
	if err := r.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !r.IsInitialized() {
		t.Fatalf("expected initialized after first call")
	}
	if err := r.Initialize(context.Background()); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
}
