package ontology

import "testing"

func TestResolveSkillCaseInsensitive(t *testing.T) {
	o, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	s, ok := o.ResolveSkill("python")
	if !ok || s.ID != "Python" {
		t.Fatalf("expected Python, got %+v ok=%v", s, ok)
	}
	s, ok = o.ResolveSkill("PY")
	if !ok || s.ID != "Python" {
		t.Fatalf("expected Python via alias, got %+v ok=%v", s, ok)
	}
}

func TestResolveSkillUnknown(t *testing.T) {
	o, _ := Default()
	if _, ok := o.ResolveSkill("cobol-for-robots"); ok {
		t.Fatalf("expected unknown skill to resolve false")
	}
}

func TestExpandPythonDepth1(t *testing.T) {
	o, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	results := o.Expand("python", 1, 0.8)
	found := map[string]Expansion{}
	for _, r := range results {
		found[r.SkillName] = r
	}
	for _, want := range []string{"Django", "Flask", "FastAPI"} {
		got, ok := found[want]
		if !ok {
			t.Fatalf("expected %s in expansion, got %+v", want, results)
		}
		if got.Confidence <= 0.8 || got.Confidence >= 1.0 {
			t.Fatalf("%s confidence %v not within (0.8, 1.0)", want, got.Confidence)
		}
	}
}

func TestExpandDropsBelowThreshold(t *testing.T) {
	o, _ := Default()
	results := o.Expand("python", 1, 0.95)
	if len(results) != 0 {
		t.Fatalf("expected no expansions above 0.95 confidence, got %+v", results)
	}
}

func TestExpandUnknownSkill(t *testing.T) {
	o, _ := Default()
	if results := o.Expand("nonexistent", 1, 0.5); results != nil {
		t.Fatalf("expected nil, got %+v", results)
	}
}

func TestExpandCachesResult(t *testing.T) {
	o, _ := Default()
	first := o.Expand("python", 1, 0.8)
	second := o.Expand("python", 1, 0.8)
	if len(first) != len(second) {
		t.Fatalf("expected cached expansion to match, got %d vs %d", len(first), len(second))
	}
}
