package rationale

import (
	"context"
	"errors"
	"testing"
)

type stubRationaleClient struct {
	text string
	err  error
}

func (s stubRationaleClient) Complete(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

func TestGenerateReturnsCompletion(t *testing.T) {
	client := New(stubRationaleClient{text: "Strong Python and AWS background."}, 0)
	got, err := client.Generate(context.Background(), "cand-1", map[string]float64{"vectorSimilarity": 0.9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Strong Python and AWS background." {
		t.Fatalf("unexpected rationale: %q", got)
	}
}

func TestGeneratePropagatesUpstreamError(t *testing.T) {
	client := New(stubRationaleClient{err: errors.New("upstream down")}, 0)
	if _, err := client.Generate(context.Background(), "cand-1", nil); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestGenerateWithNilClientErrors(t *testing.T) {
	var client *Client
	if _, err := client.Generate(context.Background(), "cand-1", nil); err == nil {
		t.Fatalf("expected an error for a nil client")
	}
}
