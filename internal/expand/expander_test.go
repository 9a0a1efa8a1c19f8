package expand

import (
	"testing"

	"github.com/delimatsuo/talentsearch/internal/ontology"
)

func TestSkillExpanderDecaysAndDedupes(t *testing.T) {
	onto, err := ontology.Default()
	if err != nil {
		t.Fatalf("ontology.Default: %v", err)
	}
	expander := NewSkillExpander(onto)

	result := expander.Expand([]string{"python"})
	if len(result) == 0 {
		t.Fatalf("expected expanded skills for python")
	}
	for _, r := range result {
		if r.Confidence <= 0 || r.Confidence >= 1.0 {
			t.Fatalf("expected decayed confidence in (0,1), got %v for %s", r.Confidence, r.SkillName)
		}
	}
}

func TestSkillExpanderCapsTotal(t *testing.T) {
	onto, _ := ontology.Default()
	expander := NewSkillExpander(onto)
	expander.maxExpanded = 1

	result := expander.Expand([]string{"python", "javascript"})
	if len(result) != 1 {
		t.Fatalf("expected cap of 1, got %d", len(result))
	}
}

func TestExpandSenioritySynonymsIncludesHigherLevels(t *testing.T) {
	got := ExpandSenioritySynonyms("lead", true)
	want := map[string]bool{"senior": false, "staff": false, "principal": false}
	for _, g := range got {
		if _, ok := want[g]; ok {
			want[g] = true
		}
	}
	for level, found := range want {
		if !found {
			t.Fatalf("expected %q in expansion of lead, got %v", level, got)
		}
	}
}

func TestExpandSenioritySynonymsExcludesHigherLevels(t *testing.T) {
	got := ExpandSenioritySynonyms("lead", false)
	for _, g := range got {
		if g == "senior" {
			t.Fatalf("did not expect senior when includeHigherLevels=false, got %v", got)
		}
	}
}

func TestExpandSenioritySynonymsUnknown(t *testing.T) {
	if got := ExpandSenioritySynonyms("astronaut", true); got != nil {
		t.Fatalf("expected nil for unknown seniority, got %v", got)
	}
}

func TestExpandRoleSynonyms(t *testing.T) {
	got := ExpandRoleSynonyms("developer")
	found := false
	for _, g := range got {
		if g == "engineer" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected engineer in developer synonyms, got %v", got)
	}
}
