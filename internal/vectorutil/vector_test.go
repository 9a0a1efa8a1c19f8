package vectorutil

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(sim-1.0) > 1e-9 {
		t.Fatalf("expected 1.0, got %v", sim)
	}

	sim, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(sim) > 1e-9 {
		t.Fatalf("expected 0.0, got %v", sim)
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	sim, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim != 0 {
		t.Fatalf("expected 0 for zero-norm vector, got %v", sim)
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1})
	if err != ErrDimensionMismatch {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestAverageEmbeddings(t *testing.T) {
	avg, err := AverageEmbeddings([][]float32{{1, 1}, {3, 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avg[0] != 2 || avg[1] != 2 {
		t.Fatalf("expected [2,2], got %v", avg)
	}
}

func TestAverageEmbeddingsEmpty(t *testing.T) {
	avg, err := AverageEmbeddings(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avg != nil {
		t.Fatalf("expected nil, got %v", avg)
	}
}

func TestAverageEmbeddingsDimensionMismatch(t *testing.T) {
	_, err := AverageEmbeddings([][]float32{{1, 2}, {1}})
	if err != ErrDimensionMismatch {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-1, 0},
		{0.5, 0.5},
		{2, 1},
		{math.NaN(), 0.5},
		{math.Inf(1), 0.5},
	}
	for _, c := range cases {
		got := Clamp01(c.in)
		if got != c.want {
			t.Fatalf("Clamp01(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
