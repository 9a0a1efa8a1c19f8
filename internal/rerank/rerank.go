// Package rerank wraps pkg/llm's generic (query, documents) rerank client
// with the caller's request context, per-call timeout, retry, and circuit
// breaker behavior required by §4.13. Candidate summaries play the role of
// "documents" and the job description plays the role of "query": the
// reordering by descending RelevanceScore is exactly what §4.13 asks of a
// rerank pass over a candidate slate.
package rerank

import (
	"context"
	"sort"
	"time"

	"github.com/delimatsuo/talentsearch/pkg/clients"
	"github.com/delimatsuo/talentsearch/pkg/llm"
)

// Candidate is one slate entry to be reranked.
type Candidate struct {
	ID      string
	Summary string
}

// Ranked is a Candidate with its rerank-assigned relevance.
type Ranked struct {
	Candidate
	RelevanceScore float64
}

// Client reranks a candidate slate against a job description, degrading to
// a no-op (original order, relevance scores omitted) when disabled or
// persistently failing.
type Client struct {
	inner   llm.RerankClient
	cb      *clients.CircuitBreaker
	timeout time.Duration
	enabled bool
}

const defaultTimeout = 2 * time.Second

// Config controls construction of a rerank Client.
type Config struct {
	Enabled bool
	Timeout time.Duration
}

// New wraps inner with a circuit breaker and timeout. When cfg.Enabled is
// false, the returned Client's Rerank always short-circuits to a no-op.
func New(inner llm.RerankClient, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cb := clients.NewCircuitBreaker(clients.CircuitBreakerConfig{
		Name:         "rerank",
		MinRequests:  5,
		FailureRatio: 0.5,
		Timeout:      15 * time.Second,
	})
	return &Client{inner: inner, cb: cb, timeout: timeout, enabled: cfg.Enabled && inner != nil}
}

// Enabled reports whether reranking is configured and its circuit is not
// currently open.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && !c.cb.IsOpen()
}

// Rerank reorders candidates by relevance to jobDescription. On timeout,
// circuit-open, or any upstream error it returns the original order
// unmodified — callers proceed without rerank rather than
// failing the search.
func (c *Client) Rerank(ctx context.Context, jobDescription string, candidates []Candidate) []Ranked {
	passthrough := func() []Ranked {
		out := make([]Ranked, len(candidates))
		for i, cand := range candidates {
			out[i] = Ranked{Candidate: cand}
		}
		return out
	}

	if !c.Enabled() || len(candidates) == 0 {
		return passthrough()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	documents := make([]string, len(candidates))
	for i, cand := range candidates {
		documents[i] = cand.Summary
	}

	result, err := c.cb.Execute(func() (any, error) {
		return c.inner.Rerank(ctx, jobDescription, documents)
	})
	if err != nil {
		return passthrough()
	}

	results, ok := result.([]llm.RerankResult)
	if !ok {
		return passthrough()
	}

	ranked := make([]Ranked, 0, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(candidates) {
			continue
		}
		ranked = append(ranked, Ranked{Candidate: candidates[r.Index], RelevanceScore: r.RelevanceScore})
	}
	if len(ranked) == 0 {
		return passthrough()
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	return ranked
}
