// Package intent classifies a query embedding into a coarse search route by
// comparing it against lazily-initialized per-route centroids.
package intent

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/delimatsuo/talentsearch/internal/vectorutil"
)

// Route is a coarse classification of a query's intent.
type Route string

const (
	RouteStructured      Route = "structured_search"
	RouteSimilarity      Route = "similarity_search"
	RouteKeywordFallback Route = "keyword_fallback"
)

// DefaultThreshold is the minimum best-route cosine similarity required to
// avoid falling back to keyword search.
const DefaultThreshold = 0.6

// Classification is the result of routing one query.
type Classification struct {
	Route      Route
	Confidence float64
}

// Embedder produces a fixed-dimension unit vector for a string, matching the
// embedding client's contract.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// seedUtterance pairs a route with one of its seed phrases (English and
// Portuguese); centroids are the mean embedding of all seeds for a route.
type seedUtterance struct {
	route Route
	text  string
}

var defaultSeeds = []seedUtterance{
	{RouteStructured, "find candidates with skills in Python and AWS"},
	{RouteStructured, "encontre candidatos com experiência em Python e AWS"},
	{RouteSimilarity, "someone similar to our best backend engineer"},
	{RouteSimilarity, "alguém parecido com nosso melhor engenheiro backend"},
}

// Router lazily computes route centroids from seed utterances and classifies
// queries against them using cosine similarity. Initialization is idempotent
// under concurrent callers via a single-flight guard.
type Router struct {
	embedder  Embedder
	threshold float64
	seeds     []seedUtterance

	mu        sync.RWMutex
	centroids map[Route][]float32
	group     singleflight.Group
}

// New creates a Router with the default seed utterances and threshold.
func New(embedder Embedder) *Router {
	return &Router{
		embedder:  embedder,
		threshold: DefaultThreshold,
		seeds:     defaultSeeds,
	}
}

// IsInitialized reports whether route centroids have been computed.
func (r *Router) IsInitialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.centroids != nil
}

// Initialize computes each route's centroid from its seed utterances.
// Concurrent calls share a single in-flight computation.
func (r *Router) Initialize(ctx context.Context) error {
	if r.IsInitialized() {
		return nil
	}
	_, err, _ := r.group.Do("initialize", func() (any, error) {
		if r.IsInitialized() {
			return nil, nil
		}
		byRoute := map[Route][][]float32{}
		for _, seed := range r.seeds {
			vec, err := r.embedder.Embed(ctx, seed.text)
			if err != nil {
				return nil, err
			}
			byRoute[seed.route] = append(byRoute[seed.route], vec)
		}
		centroids := make(map[Route][]float32, len(byRoute))
		for route, vecs := range byRoute {
			centroid, err := vectorutil.AverageEmbeddings(vecs)
			if err != nil {
				return nil, err
			}
			centroids[route] = centroid
		}
		r.mu.Lock()
		r.centroids = centroids
		r.mu.Unlock()
		return nil, nil
	})
	return err
}

// Classify chooses the best-matching route for an already-computed query
// embedding. On any embedding/initialization error it fails safe, returning
// keyword_fallback with zero confidence rather than propagating the error.
func (r *Router) Classify(ctx context.Context, queryEmbedding []float32) Classification {
	if err := r.Initialize(ctx); err != nil {
		return Classification{Route: RouteKeywordFallback, Confidence: 0}
	}

	r.mu.RLock()
	centroids := r.centroids
	r.mu.RUnlock()

	var bestRoute Route
	bestSim := -2.0
	for route, centroid := range centroids {
		sim, err := vectorutil.CosineSimilarity(queryEmbedding, centroid)
		if err != nil {
			continue
		}
		if sim > bestSim {
			bestSim = sim
			bestRoute = route
		}
	}

	if bestRoute == "" || bestSim < r.threshold {
		return Classification{Route: RouteKeywordFallback, Confidence: 0}
	}
	return Classification{Route: bestRoute, Confidence: bestSim}
}
