// Package ontology holds the static skills graph: canonical skills with
// aliases, categories, and directed weighted related-skill edges. The graph
// is immutable process-wide data loaded once at startup; BFS expansion
// results are cached with a bounded, TTL-backed LRU.
package ontology

import (
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Skill is a canonical node in the ontology graph.
type Skill struct {
	ID         string
	Aliases    []string
	Category   string
	MarketData map[string]any
}

// Edge is a directed, weighted related-skill relationship.
type Edge struct {
	To         string
	Confidence float64 // (0,1]
}

// Expansion is one BFS result: a related skill, its path confidence, and
// hop count from the origin skill.
type Expansion struct {
	SkillName  string
	Confidence float64
	Hops       int
}

const (
	expandCacheCapacity = 500
	expandCacheTTL      = time.Hour
)

// Ontology is the loaded, read-only skills graph plus a bounded expansion
// cache keyed by (skill, depth, minConfidence).
type Ontology struct {
	skills  map[string]Skill    // canonical id -> skill
	aliases map[string]string   // lowercased alias/id -> canonical id
	edges   map[string][]Edge   // canonical id -> outgoing edges
	cache   *lru.Cache[string, cacheEntry]
}

type cacheEntry struct {
	value     []Expansion
	expiresAt time.Time
}

// New builds an Ontology from a static data file's decoded form. Skills and
// edges are never mutated after construction.
func New(skills []Skill, edges map[string][]Edge) (*Ontology, error) {
	cache, err := lru.New[string, cacheEntry](expandCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("ontology: create expansion cache: %w", err)
	}
	o := &Ontology{
		skills:  make(map[string]Skill, len(skills)),
		aliases: make(map[string]string),
		edges:   edges,
		cache:   cache,
	}
	for _, s := range skills {
		o.skills[s.ID] = s
		o.aliases[strings.ToLower(s.ID)] = s.ID
		for _, alias := range s.Aliases {
			o.aliases[strings.ToLower(alias)] = s.ID
		}
	}
	return o, nil
}

// ResolveSkill looks up a canonical skill by name or alias, case-insensitive.
// Returns ok=false when unknown.
func (o *Ontology) ResolveSkill(nameOrAlias string) (Skill, bool) {
	id, ok := o.aliases[strings.ToLower(strings.TrimSpace(nameOrAlias))]
	if !ok {
		return Skill{}, false
	}
	s, ok := o.skills[id]
	return s, ok
}

// Expand performs a breadth-first walk of the related-skill graph starting
// at skill, up to depth hops, dropping nodes whose path confidence falls
// below minConfidence. When a node is reachable by multiple paths, the
// maximum confidence seen is kept. Results are cached per
// (skill, depth, minConfidence).
func (o *Ontology) Expand(skill string, depth int, minConfidence float64) []Expansion {
	if depth <= 0 {
		depth = 1
	}
	canonical, ok := o.ResolveSkill(skill)
	if !ok {
		return nil
	}
	key := fmt.Sprintf("%s|%d|%.4f", canonical.ID, depth, minConfidence)
	if entry, ok := o.cache.Get(key); ok && time.Now().Before(entry.expiresAt) {
		return entry.value
	}

	best := map[string]Expansion{}
	type frontierNode struct {
		id         string
		confidence float64
		hops       int
	}
	visited := map[string]bool{canonical.ID: true}
	queue := []frontierNode{{id: canonical.ID, confidence: 1.0, hops: 0}}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.hops >= depth {
			continue
		}
		for _, e := range o.edges[n.id] {
			pathConfidence := n.confidence * e.Confidence
			hops := n.hops + 1
			if pathConfidence < minConfidence {
				continue
			}
			if existing, ok := best[e.To]; !ok || pathConfidence > existing.Confidence {
				best[e.To] = Expansion{SkillName: e.To, Confidence: pathConfidence, Hops: hops}
			}
			if !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, frontierNode{id: e.To, confidence: pathConfidence, hops: hops})
			}
		}
	}

	results := make([]Expansion, 0, len(best))
	for _, v := range best {
		results = append(results, v)
	}
	o.cache.Add(key, cacheEntry{value: results, expiresAt: time.Now().Add(expandCacheTTL)})
	return results
}
