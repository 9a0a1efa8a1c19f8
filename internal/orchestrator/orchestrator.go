// Package orchestrator implements the search orchestrator described in
// §4.16: the end-to-end hybrid-search pipeline tying together the query
// parser, store adapter, scoring engine, rerank/embedding clients, cache,
// bias module, and performance tracker.
package orchestrator

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"

	"github.com/delimatsuo/talentsearch/internal/bias"
	internalcache "github.com/delimatsuo/talentsearch/internal/cache"
	"github.com/delimatsuo/talentsearch/internal/parser"
	"github.com/delimatsuo/talentsearch/internal/perf"
	"github.com/delimatsuo/talentsearch/internal/rerank"
	"github.com/delimatsuo/talentsearch/internal/scoring"
	"github.com/delimatsuo/talentsearch/internal/signals"
	"github.com/delimatsuo/talentsearch/internal/store"
	"github.com/delimatsuo/talentsearch/internal/trajectory"
	"github.com/delimatsuo/talentsearch/internal/weights"
)

// Filters mirrors the request-level filter surface of §6.
type Filters struct {
	Locations           []string
	Countries           []string
	Industries          []string
	Skills              []string
	SeniorityLevels     []string
	MinExperienceYears  *int
	MaxExperienceYears  *int
	Metadata            map[string]string
}

// Request is one hybrid-search call. At least one of Query, Embedding, or
// JobDescription must be present.
type Request struct {
	TenantID               string
	RequestID              string
	Query                  string
	Embedding              []float32
	JobDescription         string
	JDHash                 string
	Filters                Filters
	Limit                  int
	Offset                 int
	IncludeDebug           bool
	RoleType               weights.RoleType
	SignalWeights          weights.Config
	EnableNLP              bool
	NLPConfidenceThreshold float64
	Anonymize              bool
	IncludeMatchRationale  bool
	RationaleLimit         int
}

// ResultItem is one ranked candidate in the response.
type ResultItem struct {
	CandidateID    string
	FinalScore     float64
	VectorScore    float64
	TextScore      float64
	RRFScore       float64
	SignalScores   map[string]float64
	WeightsApplied weights.Config
	RoleTypeUsed   weights.RoleType
	MatchReasons   []string
	Rationale      string
	MLTrajectory   *trajectory.Prediction
	Anonymized     bool
}

// ResponseMetadata carries cross-cutting response annotations.
type ResponseMetadata struct {
	Anonymized     *bias.AnonymizedMetadata
	DiversityScore float64
	DiversityWarnings []bias.Warning
}

// Response is the orchestrator's result.
type Response struct {
	Results   []ResultItem
	Total     int
	CacheHit  bool
	RequestID string
	Timings   map[string]time.Duration
	Metadata  ResponseMetadata
}

// rerankPrefixLimit bounds how many locally-ranked candidates are sent to
// the external reranker.
const rerankPrefixLimit = 50

// rationaleDefaultLimit bounds per-candidate rationale generation when the
// request does not specify one.
const rationaleDefaultLimit = 10

// trajectoryPrefixLimit bounds how many top-ranked candidates get an ML
// trajectory prediction fetched, since each is a per-candidate external call.
const trajectoryPrefixLimit = 20

// skillMatchBoostFactor and locationBoostFactor are the local re-rank
// heuristic boosts applied before any external rerank.
const (
	skillMatchBoostFactor = 0.02
	locationBoostFactor   = 0.05
)

// Orchestrator wires every search-pipeline collaborator together.
type Orchestrator struct {
	Parser       *parser.Parser
	Store        *store.Store
	Cache        *internalcache.Cache
	Embedder     Embedder
	Rerank       *rerank.Client
	Trajectory   *trajectory.Client
	EventLogger  *bias.EventLogger
	Tracker      *perf.Tracker
	Logger       *logrus.Logger
	Rationale    RationaleGenerator
}

// Embedder produces a query embedding; satisfied by internal/embedclient.Client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RationaleGenerator produces a per-candidate natural-language rationale;
// failures fall back to a generic string rather than failing the request.
type RationaleGenerator interface {
	Generate(ctx context.Context, candidateID string, signalScores map[string]float64) (string, error)
}

// Search runs the full pipeline for req.
func (o *Orchestrator) Search(ctx context.Context, req Request) (Response, error) {
	timings := map[string]time.Duration{}
	start := time.Now()

	roleType := req.RoleType
	if roleType == "" {
		roleType = weights.RoleDefault
	}
	weightConfig := weights.Resolve(roleType, req.SignalWeights)

	cacheKey := computeCacheKey(req)
	var cached Response
	if hit, _ := o.Cache.Get(ctx, internalcache.LayerSearch, internalcache.Key(internalcache.LayerSearch, req.TenantID, cacheKey), &cached); hit {
		cached.CacheHit = true
		cached.Timings = map[string]time.Duration{"total": time.Since(start)}
		o.recordSample(perf.Sample{Total: time.Since(start), CacheHit: true})
		return cached, nil
	}

	filters := req.Filters
	if len(filters.Countries) == 0 && req.JobDescription != "" {
		if detected, ok := detectCountry(req.JobDescription); ok {
			filters.Countries = []string{detected}
		}
	}

	embedStart := time.Now()
	embedding := req.Embedding
	if embedding == nil {
		var err error
		embedding, err = o.getOrComputeEmbedding(ctx, req)
		if err != nil {
			return Response{}, fmt.Errorf("compute embedding: %w", err)
		}
	}
	timings["embedding"] = time.Since(embedStart)

	if req.EnableNLP && o.Parser != nil {
		parsed := o.Parser.Parse(ctx, req.Query, embedding)
		filters = mergeEntityFilters(filters, parsed)
	}

	retrievalStart := time.Now()
	rows, _, err := o.Store.Search(ctx, buildStoreQuery(req, filters, embedding))
	if err != nil {
		return Response{}, fmt.Errorf("store search: %w", err)
	}
	timings["retrieval"] = time.Since(retrievalStart)

	items := hydrateRows(rows, weightConfig, roleType, filters)
	items = applyLocalBoosts(items, rows, filters)
	sortByScoreDesc(items)

	rerankStart := time.Now()
	rerankApplied := false
	if o.Rerank != nil && o.Rerank.Enabled() && len(items) > 0 {
		items = o.applyRerank(ctx, req.JobDescription, items, rows)
		rerankApplied = true
	}
	timings["rerank"] = time.Since(rerankStart)

	if o.Trajectory != nil && o.Trajectory.Available() {
		o.attachTrajectory(ctx, items, rows)
	}

	if req.IncludeMatchRationale {
		o.attachRationale(ctx, items, req.RationaleLimit)
	}

	metadata := ResponseMetadata{}
	if req.Anonymize {
		items = anonymizeItems(items)
		meta := bias.NewAnonymizedMetadata(time.Now())
		metadata.Anonymized = &meta
	}

	diversity := bias.AnalyzeSlateDiversity(inferDimensions(items, rows))
	if !diversity.Skipped {
		metadata.DiversityScore = diversity.Score
		metadata.DiversityWarnings = diversity.Warnings
	}

	o.logSelectionShown(ctx, req, items)

	response := Response{
		Results:   items,
		Total:     len(items),
		RequestID: req.RequestID,
		Metadata:  metadata,
	}

	if len(items) > 0 {
		o.Cache.Set(ctx, internalcache.LayerSearch, internalcache.Key(internalcache.LayerSearch, req.TenantID, cacheKey), response)
	}

	timings["total"] = time.Since(start)
	response.Timings = timings
	o.recordSample(perf.Sample{
		Total:         timings["total"],
		Embedding:     timings["embedding"],
		Retrieval:     timings["retrieval"],
		Rerank:        timings["rerank"],
		CacheHit:      false,
		RerankApplied: rerankApplied,
	})

	return response, nil
}

func (o *Orchestrator) recordSample(s perf.Sample) {
	if o.Tracker != nil {
		o.Tracker.Record(s)
	}
}

func computeCacheKey(req Request) string {
	h := sha1.New()
	h.Write([]byte(req.Query))
	h.Write([]byte(fmt.Sprintf("%+v", req.Filters)))
	h.Write([]byte(fmt.Sprintf("%d:%d", req.Limit, req.Offset)))
	h.Write([]byte(req.JobDescription))
	if req.JDHash != "" {
		h.Write([]byte(req.JDHash))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// queryFold does locale-independent case folding so that queries differing
// only by accent casing (e.g. recruiter searches against "São Paulo") share
// the same embedding cache key.
var queryFold = cases.Fold()

func normalizedQueryHash(query string) string {
	sum := sha256.Sum256([]byte(queryFold.String(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:])
}

func (o *Orchestrator) getOrComputeEmbedding(ctx context.Context, req Request) ([]float32, error) {
	key := internalcache.Key(internalcache.LayerEmbedding, req.TenantID, normalizedQueryHash(req.Query))
	var cached []float32
	if hit, _ := o.Cache.Get(ctx, internalcache.LayerEmbedding, key, &cached); hit {
		return cached, nil
	}
	source := req.Query
	if source == "" {
		source = req.JobDescription
	}
	vec, err := o.Embedder.Embed(ctx, source)
	if err != nil {
		return nil, err
	}
	o.Cache.Set(ctx, internalcache.LayerEmbedding, key, vec)
	return vec, nil
}

// brazilianIndicators and usIndicators are minimal localized lexicons for
// job-description country auto-detection.
var brazilianIndicators = []string{"brasil", "são paulo", "rio de janeiro", "clt", "pj ", "reais"}
var usIndicators = []string{"usa", "united states", "remote - us", "w2", "salary in usd"}

func detectCountry(jobDescription string) (string, bool) {
	lower := strings.ToLower(jobDescription)
	for _, indicator := range brazilianIndicators {
		if strings.Contains(lower, indicator) {
			return "BR", true
		}
	}
	for _, indicator := range usIndicators {
		if strings.Contains(lower, indicator) {
			return "US", true
		}
	}
	return "", false
}

func mergeEntityFilters(filters Filters, parsed parser.ParsedQuery) Filters {
	skillSet := map[string]bool{}
	for _, s := range filters.Skills {
		skillSet[s] = true
	}
	for _, s := range parsed.Entities.Skills {
		skillSet[s] = true
	}
	for _, s := range parsed.Entities.ExpandedSkills {
		skillSet[s.SkillName] = true
	}
	merged := make([]string, 0, len(skillSet))
	for s := range skillSet {
		merged = append(merged, s)
	}
	filters.Skills = merged

	if len(filters.SeniorityLevels) == 0 {
		filters.SeniorityLevels = parsed.SemanticExpansion.ExpandedSeniorities
	}
	return filters
}

func buildStoreQuery(req Request, filters Filters, embedding []float32) store.Query {
	var vec store.Query
	vec.TenantID = req.TenantID
	vec.QueryText = req.Query
	vec.QueryEmbedding = pgvector.NewVector(embedding)
	vec.Mode = store.ModeRRF
	vec.Limit = req.Limit
	if vec.Limit <= 0 {
		vec.Limit = 20
	}
	vec.Offset = req.Offset
	vec.Filters = store.Filters{
		Locations:       filters.Locations,
		Countries:       filters.Countries,
		CountryNullable: true,
		Industries:      filters.Industries,
		Skills:          filters.Skills,
		MinExperience:   filters.MinExperienceYears,
		MaxExperience:   filters.MaxExperienceYears,
		MetadataEquals:  filters.Metadata,
	}
	return vec
}

func hydrateRows(rows []store.Row, cfg weights.Config, roleType weights.RoleType, filters Filters) []ResultItem {
	items := make([]ResultItem, 0, len(rows))
	requiredLevel := requiredLevelFor(filters)
	for _, row := range rows {
		metadata := toFloatMap(row.Metadata)
		scoreRow := scoring.Row{
			CandidateID:    row.CandidateID,
			RawVectorScore: row.VectorScore,
			Metadata:       metadata,
		}
		titles := titleRecordsFor(row)
		company, _ := row.Profile["company"].(string)
		result := scoring.Score(scoreRow, cfg, &scoring.SearchContext{
			RequiredSkills:  filters.Skills,
			CandidateSkills: profileSkills(row),
			RequiredLevel:   requiredLevel,
			CandidateLevel:  currentLevel(titles),
			CompanyTier:     companyTierForScoring(company),
			Titles:          titles,
			SkillCoverage:   metadataOrZero(metadata, "skillsExactMatch"),
		})

		items = append(items, ResultItem{
			CandidateID:    row.CandidateID,
			FinalScore:     result.FinalScore,
			VectorScore:    row.VectorScore,
			TextScore:      row.TextScore,
			RRFScore:       row.RRFScore,
			SignalScores:   result.SignalScores,
			WeightsApplied: cfg,
			RoleTypeUsed:   roleType,
			MatchReasons:   matchReasonsFor(row, filters),
		})
	}
	return items
}

// requiredLevelFor resolves the strictest (highest) seniority level named in
// filters.SeniorityLevels, or -1 when none is recognized or supplied.
func requiredLevelFor(filters Filters) int {
	best := -1
	for _, level := range filters.SeniorityLevels {
		if resolved := signals.LevelFromTitle(level); resolved > best {
			best = resolved
		}
	}
	return best
}

// titleRecordsFor resolves a candidate's title history to signals.TitleRecord
// entries, oldest first, for use in seniority alignment and trajectory fit.
func titleRecordsFor(row store.Row) []signals.TitleRecord {
	titles := titleHistory(row)
	out := make([]signals.TitleRecord, 0, len(titles))
	for _, t := range titles {
		out = append(out, signals.TitleRecord{Title: t, Level: signals.LevelFromTitle(t)})
	}
	return out
}

// currentLevel returns the level of a candidate's most recent (last) title,
// or -1 when no title history is available.
func currentLevel(titles []signals.TitleRecord) int {
	if len(titles) == 0 {
		return -1
	}
	return titles[len(titles)-1].Level
}

// companyTierForScoring maps the companyTier dimension used for diversity
// bucketing onto the coarser tier signals.SeniorityAlignment adjusts by;
// "enterprise" and "other" get no effective-level adjustment, same as an
// unclassified company.
func companyTierForScoring(company string) signals.CompanyTier {
	switch bias.ClassifyCompanyTier(company) {
	case "faang":
		return signals.TierFAANG
	case "startup":
		return signals.TierStartup
	default:
		return signals.TierUnknown
	}
}

func toFloatMap(m map[string]any) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}

func metadataOrZero(m map[string]float64, key string) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return 0
}

func matchReasonsFor(row store.Row, filters Filters) []string {
	var reasons []string
	if row.VectorScore > 0.8 {
		reasons = append(reasons, "strong semantic match to query")
	}
	if row.TextScore > 0 {
		reasons = append(reasons, "matched on full-text search terms")
	}
	return reasons
}

func applyLocalBoosts(items []ResultItem, rows []store.Row, filters Filters) []ResultItem {
	byID := make(map[string]store.Row, len(rows))
	for _, r := range rows {
		byID[r.CandidateID] = r
	}
	for i := range items {
		row := byID[items[i].CandidateID]
		matched := matchedFilterSkillCount(row, filters)
		items[i].FinalScore += float64(matched) * skillMatchBoostFactor
		if locationMatches(row, filters) {
			items[i].FinalScore += locationBoostFactor
		}
		items[i].FinalScore = clamp01(items[i].FinalScore)
	}
	return items
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func matchedFilterSkillCount(row store.Row, filters Filters) int {
	have := profileSkills(row)
	count := 0
	for _, required := range filters.Skills {
		for _, s := range have {
			if strings.EqualFold(s, required) {
				count++
				break
			}
		}
	}
	return count
}

func locationMatches(row store.Row, filters Filters) bool {
	location, _ := row.Profile["location"].(string)
	for _, want := range filters.Locations {
		if strings.EqualFold(location, want) {
			return true
		}
	}
	return false
}

func sortByScoreDesc(items []ResultItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].FinalScore != items[j].FinalScore {
			return items[i].FinalScore > items[j].FinalScore
		}
		return items[i].CandidateID < items[j].CandidateID
	})
}

func (o *Orchestrator) applyRerank(ctx context.Context, jobDescription string, items []ResultItem, rows []store.Row) []ResultItem {
	if jobDescription == "" {
		return items
	}
	prefixLen := rerankPrefixLimit
	if prefixLen > len(items) {
		prefixLen = len(items)
	}
	prefix := items[:prefixLen]
	rest := items[prefixLen:]

	byID := make(map[string]store.Row, len(rows))
	for _, r := range rows {
		byID[r.CandidateID] = r
	}

	candidates := make([]rerank.Candidate, len(prefix))
	for i, item := range prefix {
		candidates[i] = rerank.Candidate{ID: item.CandidateID, Summary: summaryFor(byID[item.CandidateID])}
	}

	ranked := o.Rerank.Rerank(ctx, jobDescription, candidates)
	byItemID := make(map[string]ResultItem, len(prefix))
	for _, item := range prefix {
		byItemID[item.CandidateID] = item
	}

	merged := make([]ResultItem, 0, len(items))
	for _, r := range ranked {
		if item, ok := byItemID[r.ID]; ok {
			merged = append(merged, item)
		}
	}
	merged = append(merged, rest...)
	return merged
}

func summaryFor(row store.Row) string {
	title, _ := row.Profile["title"].(string)
	return title
}

func (o *Orchestrator) attachRationale(ctx context.Context, items []ResultItem, limit int) {
	if o.Rationale == nil {
		return
	}
	if limit <= 0 {
		limit = rationaleDefaultLimit
	}
	for i := range items {
		if i >= limit {
			break
		}
		rationale, err := o.Rationale.Generate(ctx, items[i].CandidateID, items[i].SignalScores)
		if err != nil {
			rationale = "Strong overall match based on weighted signal scoring."
		}
		items[i].Rationale = rationale
	}
}

// attachTrajectory fetches an ML trajectory prediction for each of the
// top trajectoryPrefixLimit candidates, per §4.15. A candidate with fewer
// than two title-history entries or an unavailable service simply omits
// the block rather than failing the request.
func (o *Orchestrator) attachTrajectory(ctx context.Context, items []ResultItem, rows []store.Row) {
	byID := make(map[string]store.Row, len(rows))
	for _, r := range rows {
		byID[r.CandidateID] = r
	}
	limit := trajectoryPrefixLimit
	if limit > len(items) {
		limit = len(items)
	}
	for i := 0; i < limit; i++ {
		titles := titleHistory(byID[items[i].CandidateID])
		if len(titles) < 2 {
			continue
		}
		if prediction, ok := o.Trajectory.Predict(ctx, items[i].CandidateID, titles); ok {
			items[i].MLTrajectory = prediction
		}
	}
}

func titleHistory(row store.Row) []string {
	raw, _ := row.Profile["titleHistory"].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func anonymizeItems(items []ResultItem) []ResultItem {
	out := make([]ResultItem, len(items))
	for i, item := range items {
		anon := bias.Anonymize(bias.AnonymizableResult{
			CandidateID:  item.CandidateID,
			MatchReasons: item.MatchReasons,
		}, true)
		item.MatchReasons = anon.MatchReasons
		item.Anonymized = true
		out[i] = item
	}
	return out
}

// inferDimensions buckets each result's profile into the companyTier,
// experienceBand, and specialty dimensions slate-diversity analysis tracks,
// per §4.8/§4.17. rows supplies the underlying candidate profile; a
// candidate missing from rows (should not happen) gets the zero-value
// "other"/"0-3" bucket rather than panicking.
func inferDimensions(items []ResultItem, rows []store.Row) []bias.CandidateDimensions {
	byID := make(map[string]store.Row, len(rows))
	for _, r := range rows {
		byID[r.CandidateID] = r
	}
	out := make([]bias.CandidateDimensions, len(items))
	for i, item := range items {
		row := byID[item.CandidateID]
		title, _ := row.Profile["title"].(string)
		company, _ := row.Profile["company"].(string)
		years := profileYearsExperience(row)
		out[i] = bias.InferDimensions(title, company, profileSkills(row), years)
	}
	return out
}

func profileSkills(row store.Row) []string {
	raw, _ := row.Profile["skills"].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func profileYearsExperience(row store.Row) float64 {
	switch v := row.Profile["yearsExperience"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (o *Orchestrator) logSelectionShown(ctx context.Context, req Request, items []ResultItem) {
	if o.EventLogger == nil {
		return
	}
	events := make([]bias.SelectionEvent, len(items))
	now := time.Now()
	for i, item := range items {
		events[i] = bias.SelectionEvent{
			EventID:     fmt.Sprintf("%s:%s:shown", req.RequestID, item.CandidateID),
			TenantID:    req.TenantID,
			RequestID:   req.RequestID,
			CandidateID: item.CandidateID,
			Rank:        i + 1,
			Action:      "shown",
			OccurredAt:  now,
		}
	}
	o.EventLogger.LogBatch(ctx, events)
}
