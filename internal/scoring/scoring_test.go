package scoring

import (
	"testing"

	"github.com/delimatsuo/talentsearch/internal/signals"
	"github.com/delimatsuo/talentsearch/internal/weights"
)

func TestNormalizeVectorScoreDividesWhenOverOne(t *testing.T) {
	if got := normalizeVectorScore(85); got != 0.85 {
		t.Fatalf("expected 0.85, got %v", got)
	}
}

func TestBaseSignalsDefaultToMetadataNeutral(t *testing.T) {
	row := Row{RawVectorScore: 0.9}
	scores := baseSignals(row)
	if scores["levelMatch"] != metadataDefault {
		t.Fatalf("expected metadata default for levelMatch, got %v", scores["levelMatch"])
	}
}

func TestScoreWithoutContextUsesMetadataOnly(t *testing.T) {
	row := Row{
		RawVectorScore: 0.9,
		Metadata:       map[string]float64{"levelMatch": 1.0},
	}
	cfg := weights.Preset(weights.RoleDefault)

	result := Score(row, cfg, nil)

	if result.FinalScore <= 0 || result.FinalScore > 1 {
		t.Fatalf("expected score in (0,1], got %v", result.FinalScore)
	}
	if _, ok := result.SignalScores["skillsExactMatch"]; ok {
		t.Fatalf("did not expect context-derived signals without a SearchContext")
	}
}

func TestScoreAppliesSkillCoverageBonus(t *testing.T) {
	row := Row{RawVectorScore: 0.5}
	cfg := weights.Config{"vectorSimilarity": 1.0}

	withoutCoverage := Score(row, cfg, &SearchContext{})
	withCoverage := Score(row, cfg, &SearchContext{SkillCoverage: 1.0})

	if withCoverage.FinalScore <= withoutCoverage.FinalScore {
		t.Fatalf("expected coverage bonus to raise score: %v vs %v", withCoverage.FinalScore, withoutCoverage.FinalScore)
	}
}

func TestScoreAppliesAnalysisConfidencePenalty(t *testing.T) {
	row := Row{RawVectorScore: 0.9, AnalysisConfidence: 0.1}
	cfg := weights.Config{"vectorSimilarity": 1.0}

	penalized := Score(row, cfg, nil)
	row.AnalysisConfidence = 0.9
	unpenalized := Score(row, cfg, nil)

	if penalized.FinalScore >= unpenalized.FinalScore {
		t.Fatalf("expected penalty to lower score: %v vs %v", penalized.FinalScore, unpenalized.FinalScore)
	}
}

func TestScoreClampsToUnitRange(t *testing.T) {
	row := Row{RawVectorScore: 1.0}
	cfg := weights.Config{"vectorSimilarity": 1.0}
	ctx := &SearchContext{SkillCoverage: 1.0}

	result := Score(row, cfg, ctx)
	if result.FinalScore > 1.0 {
		t.Fatalf("expected clamp to 1.0, got %v", result.FinalScore)
	}
}

func TestScoreOverridesTrajectoryWithContextWhenEnoughTitles(t *testing.T) {
	row := Row{Metadata: map[string]float64{"trajectoryFit": 0.1}}
	cfg := weights.Config{"trajectoryFit": 1.0}
	ctx := &SearchContext{
		Titles: []signals.TitleRecord{{Level: 1}, {Level: 5}},
	}

	result := Score(row, cfg, ctx)
	if result.SignalScores["trajectoryFit"] == 0.1 {
		t.Fatalf("expected trajectory signal to be recomputed from titles, got metadata value unchanged")
	}
}
