// Package expand implements the query expander (ontology-driven skill
// expansion) and the semantic synonym expander (seniority/role expansion
// with directional hierarchy). Both are pure, stateless transformations over
// already-loaded ontology/synonym data.
package expand

import "github.com/delimatsuo/talentsearch/internal/ontology"

// ExpandedSkill is one ontology-derived skill with its decayed confidence.
type ExpandedSkill struct {
	SkillName  string
	Confidence float64
}

const (
	defaultExpandDepth      = 1
	defaultMinConfidence    = 0.8
	defaultDecayFactor      = 0.6
	defaultMaxExpandedTotal = 20
)

// SkillExpander expands a set of required skills via the ontology, applying
// confidence decay and a cap on the total number of expanded skills.
type SkillExpander struct {
	onto         *ontology.Ontology
	decayFactor  float64
	maxExpanded  int
	minConfidence float64
}

// NewSkillExpander builds a SkillExpander over an ontology instance.
func NewSkillExpander(onto *ontology.Ontology) *SkillExpander {
	return &SkillExpander{
		onto:          onto,
		decayFactor:   defaultDecayFactor,
		maxExpanded:   defaultMaxExpandedTotal,
		minConfidence: defaultMinConfidence,
	}
}

// Expand runs ontology.Expand(depth=1, minConfidence=0.8) for each input
// skill, applies the decay factor to resulting confidences, and deduplicates
// across inputs keeping the maximum confidence seen. The result is capped at
// maxExpanded entries, highest confidence first.
func (e *SkillExpander) Expand(skills []string) []ExpandedSkill {
	best := map[string]float64{}
	for _, skill := range skills {
		for _, exp := range e.onto.Expand(skill, defaultExpandDepth, e.minConfidence) {
			decayed := exp.Confidence * e.decayFactor
			if existing, ok := best[exp.SkillName]; !ok || decayed > existing {
				best[exp.SkillName] = decayed
			}
		}
	}

	out := make([]ExpandedSkill, 0, len(best))
	for name, conf := range best {
		out = append(out, ExpandedSkill{SkillName: name, Confidence: conf})
	}
	sortByConfidenceDesc(out)
	if len(out) > e.maxExpanded {
		out = out[:e.maxExpanded]
	}
	return out
}

func sortByConfidenceDesc(items []ExpandedSkill) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Confidence > items[j-1].Confidence; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}
