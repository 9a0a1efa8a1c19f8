package trajectory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestUnconfiguredClientNeverAvailable(t *testing.T) {
	c := New("", time.Second)
	c.Start(context.Background())
	if c.Available() {
		t.Fatalf("expected unconfigured client to report unavailable")
	}
	if _, ok := c.Predict(context.Background(), "cand-1", []string{"Engineer"}); ok {
		t.Fatalf("expected Predict to fail when unconfigured")
	}
}

func TestHealthyServerMarksAvailableAndPredicts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			w.WriteHeader(http.StatusOK)
		case "/predict":
			_ = json.NewEncoder(w).Encode(Prediction{PredictedNextTitle: "Staff Engineer", ConfidenceScore: 0.8})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := New(server.URL, time.Second)
	c.Start(context.Background())
	time.Sleep(20 * time.Millisecond)

	if !c.Available() {
		t.Fatalf("expected client to be available after successful health poll")
	}

	prediction, ok := c.Predict(context.Background(), "cand-1", []string{"Engineer"})
	if !ok || prediction == nil {
		t.Fatalf("expected prediction on healthy server")
	}
	if prediction.PredictedNextTitle != "Staff Engineer" {
		t.Fatalf("unexpected prediction: %+v", prediction)
	}
}

func TestUnhealthyServerMarksUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(server.URL, time.Second)
	c.Start(context.Background())
	time.Sleep(20 * time.Millisecond)

	if c.Available() {
		t.Fatalf("expected client unavailable when health poll fails")
	}
}
