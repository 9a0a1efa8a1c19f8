package rerank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/delimatsuo/talentsearch/pkg/llm"
)

type stubRerankClient struct {
	results []llm.RerankResult
	err     error
	delay   time.Duration
}

func (s *stubRerankClient) Rerank(ctx context.Context, query string, documents []string) ([]llm.RerankResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func TestRerankReordersByRelevance(t *testing.T) {
	inner := &stubRerankClient{results: []llm.RerankResult{
		{Index: 1, RelevanceScore: 0.9},
		{Index: 0, RelevanceScore: 0.2},
	}}
	client := New(inner, Config{Enabled: true})

	candidates := []Candidate{{ID: "a"}, {ID: "b"}}
	got := client.Rerank(context.Background(), "job description", candidates)

	if got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("expected b then a by relevance, got %+v", got)
	}
}

func TestRerankDisabledIsPassthrough(t *testing.T) {
	inner := &stubRerankClient{results: []llm.RerankResult{{Index: 0, RelevanceScore: 1.0}}}
	client := New(inner, Config{Enabled: false})

	candidates := []Candidate{{ID: "a"}, {ID: "b"}}
	got := client.Rerank(context.Background(), "job description", candidates)

	if got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("expected original order when disabled, got %+v", got)
	}
}

func TestRerankErrorFallsBackToOriginalOrder(t *testing.T) {
	inner := &stubRerankClient{err: errors.New("upstream down")}
	client := New(inner, Config{Enabled: true})

	candidates := []Candidate{{ID: "a"}, {ID: "b"}}
	got := client.Rerank(context.Background(), "job description", candidates)

	if len(got) != 2 || got[0].ID != "a" {
		t.Fatalf("expected passthrough order on error, got %+v", got)
	}
}

func TestRerankTimeoutFallsBackToOriginalOrder(t *testing.T) {
	inner := &stubRerankClient{delay: 50 * time.Millisecond}
	client := New(inner, Config{Enabled: true, Timeout: 5 * time.Millisecond})

	candidates := []Candidate{{ID: "a"}}
	got := client.Rerank(context.Background(), "job description", candidates)

	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected passthrough on timeout, got %+v", got)
	}
}

func TestRerankEmptySlateIsNoop(t *testing.T) {
	inner := &stubRerankClient{}
	client := New(inner, Config{Enabled: true})

	got := client.Rerank(context.Background(), "job description", nil)
	if len(got) != 0 {
		t.Fatalf("expected empty result for empty slate, got %+v", got)
	}
}
