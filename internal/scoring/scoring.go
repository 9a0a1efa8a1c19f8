// Package scoring computes a candidate's final weighted score from a
// retrieved row and a resolved weight config, per the scoring engine
// described in §4.10.
package scoring

import (
	"github.com/delimatsuo/talentsearch/internal/signals"
	"github.com/delimatsuo/talentsearch/internal/weights"
)

const (
	metadataDefault            = 0.5
	skillCoverageBonusFactor   = 0.1
	analysisConfidenceFloor    = 0.5
	analysisConfidencePenalty  = 0.9
)

// Row is one retrieved candidate row plus whatever profile metadata and
// analysis-confidence information the store attached to it.
type Row struct {
	CandidateID        string
	RawVectorScore     float64
	Metadata           map[string]float64 // level/specialty/tech/function/trajectory/company, [0,1]
	AnalysisConfidence float64            // 0 means "not supplied"; treated as 1.0 (no penalty)
}

// SearchContext supplies the inputs for the six Phase-7/8 signals plus
// trajectory fit; when nil, Score relies solely on the row's metadata.
type SearchContext struct {
	RequiredSkills   []string
	CandidateSkills  []string
	AliasResolver    signals.AliasResolver
	RequiredLevel    int
	CandidateLevel   int
	CompanyTier      signals.CompanyTier
	Experience       []signals.Experience
	CompanyRelevance signals.CompanyRelevanceInputs
	Titles           []signals.TitleRecord
	JobContext       signals.JobContext
	SkillCoverage    float64 // used for the heuristic coverage bonus, independent of weighted signals
}

// Result is the outcome of scoring one row.
type Result struct {
	FinalScore    float64
	SignalScores  map[string]float64
	WeightsApplied weights.Config
}

// Score implements §4.10 steps 1-4: extract base signals, optionally layer
// in search-context-derived signals, compute the weighted sum over present
// weights, then apply heuristic adjustments outside the weighted sum before
// a final clamp to [0,1].
func Score(row Row, cfg weights.Config, ctx *SearchContext) Result {
	signalScores := baseSignals(row)

	if ctx != nil {
		applyContextSignals(signalScores, ctx)
	}

	var weighted float64
	for signal, weight := range cfg {
		if score, ok := signalScores[signal]; ok {
			weighted += score * weight
		}
	}

	weighted = applyHeuristics(weighted, row, ctx)

	return Result{
		FinalScore:     clamp01(weighted),
		SignalScores:   signalScores,
		WeightsApplied: cfg,
	}
}

func baseSignals(row Row) map[string]float64 {
	scores := map[string]float64{
		"vectorSimilarity": normalizeVectorScore(row.RawVectorScore),
		"levelMatch":       metadataOrDefault(row.Metadata, "levelMatch"),
		"specialtyMatch":   metadataOrDefault(row.Metadata, "specialtyMatch"),
		"techStackMatch":   metadataOrDefault(row.Metadata, "techStackMatch"),
		"functionMatch":    metadataOrDefault(row.Metadata, "functionMatch"),
		"trajectoryFit":    metadataOrDefault(row.Metadata, "trajectoryFit"),
		"companyPedigree":  metadataOrDefault(row.Metadata, "companyPedigree"),
	}
	return scores
}

func metadataOrDefault(metadata map[string]float64, key string) float64 {
	if metadata == nil {
		return metadataDefault
	}
	if v, ok := metadata[key]; ok {
		return v
	}
	return metadataDefault
}

// normalizeVectorScore maps a raw store-reported vector score into [0,1]; a
// score greater than 1 is assumed to be on a 0-100 scale.
func normalizeVectorScore(raw float64) float64 {
	if raw > 1 {
		return raw / 100
	}
	return raw
}

func applyContextSignals(scores map[string]float64, ctx *SearchContext) {
	exactMatched := exactlyMatchedSet(ctx.RequiredSkills, ctx.CandidateSkills, ctx.AliasResolver)

	scores["skillsExactMatch"] = signals.ExactSkillMatch(ctx.RequiredSkills, ctx.CandidateSkills, ctx.AliasResolver)
	scores["skillsInferred"] = signals.InferredSkillMatch(ctx.RequiredSkills, ctx.CandidateSkills, exactMatched, ctx.AliasResolver)
	scores["seniorityAlignment"] = signals.SeniorityAlignment(ctx.RequiredLevel, ctx.CandidateLevel, ctx.CompanyTier)
	scores["recencyBoost"] = signals.RecencyBoost(ctx.RequiredSkills, ctx.Experience, ctx.AliasResolver)
	scores["companyRelevance"] = signals.CompanyRelevance(ctx.CompanyRelevance)

	if len(ctx.Titles) >= 2 {
		scores["trajectoryFit"] = signals.TrajectoryFit(ctx.Titles, ctx.JobContext)
	}
}

func exactlyMatchedSet(required, candidate []string, resolve signals.AliasResolver) map[string]bool {
	if resolve == nil {
		resolve = func(s string) string { return s }
	}
	have := make(map[string]bool, len(candidate))
	for _, s := range candidate {
		have[resolve(s)] = true
	}
	matched := make(map[string]bool, len(required))
	for _, s := range required {
		canon := resolve(s)
		if have[canon] {
			matched[canon] = true
		}
	}
	return matched
}

func applyHeuristics(weighted float64, row Row, ctx *SearchContext) float64 {
	if ctx != nil {
		weighted += ctx.SkillCoverage * skillCoverageBonusFactor
	}
	if row.AnalysisConfidence > 0 && row.AnalysisConfidence < analysisConfidenceFloor {
		weighted *= analysisConfidencePenalty
	}
	return weighted
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
