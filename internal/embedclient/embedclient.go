// Package embedclient wraps pkg/llm's embedding client with retry, a
// circuit breaker, and unit-norm/non-empty verification, per §4.14. It also
// implements internal/intent.Embedder and internal/parser.Embedder so it can
// be wired directly into the query-parsing pipeline.
package embedclient

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/delimatsuo/talentsearch/pkg/clients"
	"github.com/delimatsuo/talentsearch/pkg/llm"
)

const (
	defaultTimeout   = 3 * time.Second
	normTolerance    = 0.05
)

// Client embeds a single query string at a time, the shape the rest of the
// pipeline (intent routing, ontology expansion) needs.
type Client struct {
	inner   llm.EmbeddingClient
	cb      *clients.CircuitBreaker
	timeout time.Duration
}

// New wraps inner with the retry/circuit-breaker policy used for all
// outbound embedding calls.
func New(inner llm.EmbeddingClient, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cb := clients.NewCircuitBreaker(clients.CircuitBreakerConfig{
		Name:         "embedding",
		MinRequests:  5,
		FailureRatio: 0.5,
		Timeout:      15 * time.Second,
	})
	return &Client{inner: inner, cb: cb, timeout: timeout}
}

// Embed returns a single, verified-unit-norm embedding for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.cb.Execute(func() (any, error) {
		vecs, err := c.inner.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vecs) != 1 {
			return nil, fmt.Errorf("embed: expected 1 vector, got %d", len(vecs))
		}
		return vecs[0], nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	vec, ok := result.([]float32)
	if !ok {
		return nil, fmt.Errorf("embed: unexpected result type")
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embed: empty vector returned")
	}
	return normalize(vec), nil
}

// normalize returns vec scaled to unit L2 norm when it is not already
// within tolerance of unit length (embedding providers occasionally return
// slightly off-unit vectors; downstream cosine-similarity math assumes
// unit norm).
func normalize(vec []float32) []float32 {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return vec
	}
	if math.Abs(norm-1.0) < normTolerance {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
