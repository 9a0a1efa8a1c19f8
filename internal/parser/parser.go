// Package parser orchestrates intent routing, entity extraction, ontology
// expansion, and semantic synonym expansion into one ParsedQuery, measuring
// each stage.
package parser

import (
	"context"
	"time"

	"github.com/delimatsuo/talentsearch/internal/expand"
	"github.com/delimatsuo/talentsearch/internal/extract"
	"github.com/delimatsuo/talentsearch/internal/intent"
)

// ParseMethod indicates how a ParsedQuery was produced.
type ParseMethod string

const (
	MethodNLP             ParseMethod = "nlp"
	MethodKeywordFallback ParseMethod = "keyword_fallback"
)

// ExperienceRange is an optional [min,max] years-of-experience bound.
type ExperienceRange struct {
	Min, Max int
	Present  bool
}

// Entities holds the extracted and ontology-expanded entities of a query.
type Entities struct {
	Role           string
	Skills         []string
	ExpandedSkills []expand.ExpandedSkill
	Seniority      string
	Location       string
	Remote         bool
	ExperienceYears ExperienceRange
}

// SemanticExpansion holds hierarchy-aware role/seniority expansion.
type SemanticExpansion struct {
	ExpandedRoles      []string
	ExpandedSeniorities []string
}

// Timings records per-stage milliseconds.
type Timings struct {
	EmbedMS   float64
	IntentMS  float64
	ExtractMS float64
	ExpandMS  float64
}

// ParsedQuery is the immutable result of one parse.
type ParsedQuery struct {
	ParseMethod       ParseMethod
	Confidence        float64
	Intent            intent.Route
	Entities          Entities
	SemanticExpansion SemanticExpansion
	Timings           Timings
	Query             string
}

// Embedder produces a query embedding when the caller has not already
// computed one.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Parser is the query-parsing orchestrator described in §4.7.
type Parser struct {
	router         *intent.Router
	extractor      *extract.Extractor
	skillExpander  *expand.SkillExpander
	embedder       Embedder
	fallbackThreshold float64
}

// New builds a Parser from its already-constructed collaborators.
func New(router *intent.Router, extractor *extract.Extractor, skillExpander *expand.SkillExpander, embedder Embedder) *Parser {
	return &Parser{
		router:            router,
		extractor:         extractor,
		skillExpander:     skillExpander,
		embedder:          embedder,
		fallbackThreshold: intent.DefaultThreshold,
	}
}

// IsInitialized reports whether the intent router's centroids are ready.
func (p *Parser) IsInitialized() bool {
	return p.router.IsInitialized()
}

// Initialize idempotently precomputes intent route centroids. Concurrent
// callers share a single in-flight initialization via the router's
// single-flight guard.
func (p *Parser) Initialize(ctx context.Context) error {
	return p.router.Initialize(ctx)
}

// Parse runs the full pipeline for query, reusing queryEmbedding when
// non-nil rather than computing a fresh one.
func (p *Parser) Parse(ctx context.Context, query string, queryEmbedding []float32) ParsedQuery {
	var timings Timings

	embedding := queryEmbedding
	if embedding == nil {
		start := time.Now()
		vec, err := p.embedder.Embed(ctx, query)
		timings.EmbedMS = elapsedMS(start)
		if err != nil {
			return fallback(query, timings, 0)
		}
		embedding = vec
	}

	start := time.Now()
	classification := p.router.Classify(ctx, embedding)
	timings.IntentMS = elapsedMS(start)

	if classification.Route == intent.RouteKeywordFallback || classification.Confidence < p.fallbackThreshold {
		result := fallback(query, timings, classification.Confidence)
		result.Intent = intent.RouteKeywordFallback
		return result
	}

	start = time.Now()
	record := p.extractor.Extract(ctx, query)
	timings.ExtractMS = elapsedMS(start)

	start = time.Now()
	expandedSkills := p.skillExpander.Expand(record.Skills)
	expandedRoles := expand.ExpandRoleSynonyms(record.Role)
	expandedSeniorities := expand.ExpandSenioritySynonyms(record.Seniority, true)
	timings.ExpandMS = elapsedMS(start)

	return ParsedQuery{
		ParseMethod: MethodNLP,
		Confidence:  classification.Confidence,
		Intent:      classification.Route,
		Query:       query,
		Entities: Entities{
			Role:           record.Role,
			Skills:         record.Skills,
			ExpandedSkills: expandedSkills,
			Seniority:      record.Seniority,
			Location:       record.Location,
			Remote:         record.Remote,
			ExperienceYears: ExperienceRange{
				Min:     record.ExperienceYearsMin,
				Max:     record.ExperienceYearsMax,
				Present: record.ExperienceYearsMin > 0 || record.ExperienceYearsMax > 0,
			},
		},
		SemanticExpansion: SemanticExpansion{
			ExpandedRoles:       expandedRoles,
			ExpandedSeniorities: expandedSeniorities,
		},
		Timings: timings,
	}
}

func fallback(query string, timings Timings, confidence float64) ParsedQuery {
	if confidence > 0.3 {
		confidence = 0.3
	}
	return ParsedQuery{
		ParseMethod: MethodKeywordFallback,
		Confidence:  confidence,
		Intent:      intent.RouteKeywordFallback,
		Query:       query,
		Timings:     timings,
	}
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
