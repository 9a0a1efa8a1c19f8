package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memoryBackend struct {
	store map[string]string
	err   error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{store: map[string]string{}}
}

func (m *memoryBackend) Get(ctx context.Context, key string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.store[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (m *memoryBackend) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.store[key] = value
	return nil
}

func (m *memoryBackend) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.store, k)
	}
	return nil
}

func (m *memoryBackend) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	for k := range m.store {
		out = append(out, k)
	}
	return out, nil
}

type payload struct {
	Value string `json:"value"`
}

func TestKeyFormat(t *testing.T) {
	got := Key(LayerSearch, "tenant-a", "query-hash-1")
	if got != "hh:search:tenant-a:query-hash-1" {
		t.Fatalf("unexpected key: %s", got)
	}
}

func TestSetThenGetHitsLocalCache(t *testing.T) {
	c := New(nil, nil, Metrics{})
	key := Key(LayerSearch, "tenant-a", "q1")
	c.Set(context.Background(), LayerSearch, key, payload{Value: "hello"})

	var out payload
	hit, err := c.Get(context.Background(), LayerSearch, key, &out)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit || out.Value != "hello" {
		t.Fatalf("expected local cache hit with value hello, got hit=%v out=%+v", hit, out)
	}
}

func TestGetMissReturnsFalseWithoutError(t *testing.T) {
	c := New(nil, nil, Metrics{})
	var out payload
	hit, err := c.Get(context.Background(), LayerSearch, "missing-key", &out)
	if err != nil || hit {
		t.Fatalf("expected miss with no error, got hit=%v err=%v", hit, err)
	}
}

func TestBackendErrorDegradesToMiss(t *testing.T) {
	backend := newMemoryBackend()
	backend.err = errors.New("connection refused")
	c := New(backend, nil, Metrics{})

	var out payload
	hit, err := c.Get(context.Background(), LayerSearch, "some-key", &out)
	if err != nil {
		t.Fatalf("expected backend error to degrade silently, got %v", err)
	}
	if hit {
		t.Fatalf("expected miss when backend errors")
	}
}

func TestSetPersistsToBackend(t *testing.T) {
	backend := newMemoryBackend()
	c := New(backend, nil, Metrics{})
	key := Key(LayerEmbedding, "tenant-a", "e1")
	c.Set(context.Background(), LayerEmbedding, key, payload{Value: "v"})

	if _, ok := backend.store[key]; !ok {
		t.Fatalf("expected key persisted to backend")
	}
}

func TestInvalidateTenantLayerDeletesMatchingKeys(t *testing.T) {
	backend := newMemoryBackend()
	backend.store["hh:search:tenant-a:q1"] = `{"value":"v"}`
	backend.store["hh:search:tenant-b:q1"] = `{"value":"v"}`
	c := New(backend, nil, Metrics{})

	if err := c.InvalidateTenantLayer(context.Background(), LayerSearch, "tenant-a"); err != nil {
		t.Fatalf("InvalidateTenantLayer: %v", err)
	}
	if _, ok := backend.store["hh:search:tenant-a:q1"]; ok {
		t.Fatalf("expected tenant-a search key to be deleted")
	}
}

func TestMetricsHooksFire(t *testing.T) {
	var hits, sets int
	c := New(nil, nil, Metrics{
		OnHit: func(Layer) { hits++ },
		OnSet: func(Layer) { sets++ },
	})
	key := Key(LayerSearch, "tenant-a", "q1")
	c.Set(context.Background(), LayerSearch, key, payload{Value: "v"})
	var out payload
	c.Get(context.Background(), LayerSearch, key, &out)

	if sets != 1 || hits != 1 {
		t.Fatalf("expected 1 set and 1 hit, got sets=%d hits=%d", sets, hits)
	}
}
