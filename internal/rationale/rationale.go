// Package rationale wraps pkg/llm's chat-completion client to produce a
// short natural-language explanation of why a candidate scored the way it
// did, per §4.17. Failures are the caller's concern: Generate returns
// whatever error the upstream call produced and the orchestrator supplies
// the generic fallback string.
package rationale

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/delimatsuo/talentsearch/pkg/clients"
	"github.com/delimatsuo/talentsearch/pkg/llm"
)

const defaultTimeout = 3 * time.Second

// Client generates a per-candidate rationale string from its signal scores.
type Client struct {
	inner   llm.RationaleClient
	cb      *clients.CircuitBreaker
	timeout time.Duration
}

// New wraps inner with a circuit breaker and per-call timeout.
func New(inner llm.RationaleClient, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cb := clients.NewCircuitBreaker(clients.CircuitBreakerConfig{
		Name:         "rationale",
		MinRequests:  5,
		FailureRatio: 0.5,
		Timeout:      15 * time.Second,
	})
	return &Client{inner: inner, cb: cb, timeout: timeout}
}

// Generate implements internal/orchestrator.RationaleGenerator.
func (c *Client) Generate(ctx context.Context, candidateID string, signalScores map[string]float64) (string, error) {
	if c == nil || c.inner == nil {
		return "", fmt.Errorf("rationale: no client configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := buildPrompt(signalScores)
	result, err := c.cb.Execute(func() (any, error) {
		return c.inner.Complete(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("rationale: %w", err)
	}
	text, ok := result.(string)
	if !ok || text == "" {
		return "", fmt.Errorf("rationale: empty completion")
	}
	return text, nil
}

// buildPrompt renders signal scores in descending order so the strongest
// signals anchor the explanation.
func buildPrompt(signalScores map[string]float64) string {
	type pair struct {
		name  string
		score float64
	}
	pairs := make([]pair, 0, len(signalScores))
	for name, score := range signalScores {
		pairs = append(pairs, pair{name, score})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	var b strings.Builder
	b.WriteString("In one or two sentences, explain why this candidate is a strong match based on these signal scores:\n")
	for _, p := range pairs {
		fmt.Fprintf(&b, "- %s: %.2f\n", p.name, p.score)
	}
	return b.String()
}
