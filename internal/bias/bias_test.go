package bias

import (
	"testing"
	"time"
)

func TestAnonymizeStripsAlwaysPIIFields(t *testing.T) {
	pedigree := 0.8
	r := AnonymizableResult{
		CandidateID:          "cand-1",
		Name:                 "Jane Doe",
		Title:                "Senior Engineer",
		Location:             "NYC",
		Country:              "US",
		Metadata:             map[string]any{"x": 1},
		CompanyPedigreeScore: &pedigree,
		MatchReasons:         []string{"Worked at Acme Corp since 2019"},
	}

	got := Anonymize(r, false)

	if got.Name != "" || got.Title != "" || got.Location != "" || got.Country != "" || got.Metadata != nil {
		t.Fatalf("expected PII fields stripped, got %+v", got)
	}
	if got.CompanyPedigreeScore == nil {
		t.Fatalf("expected proxy field preserved when stripProxyFields=false")
	}
	if got.CandidateID != "cand-1" {
		t.Fatalf("expected candidateID preserved")
	}
}

func TestAnonymizeStripsProxyFieldsWhenRequested(t *testing.T) {
	pedigree := 0.8
	r := AnonymizableResult{
		EducationInstitutions: []string{"MIT"},
		GraduationYear:        2015,
		CompanyPedigreeScore:  &pedigree,
	}

	got := Anonymize(r, true)

	if got.EducationInstitutions != nil || got.GraduationYear != 0 || got.CompanyPedigreeScore != nil {
		t.Fatalf("expected proxy fields stripped, got %+v", got)
	}
}

func TestGeneralizeMatchReasonsMasksYearsAndProperNouns(t *testing.T) {
	got := generalizeMatchReasons([]string{"Worked at Acme Corp since 2019"})
	if got[0] != "Worked at [name] since [year]" {
		t.Fatalf("unexpected masked reason: %q", got[0])
	}
}

func TestAnalyzeSlateDiversitySkipsSmallSlates(t *testing.T) {
	report := AnalyzeSlateDiversity(make([]CandidateDimensions, 3))
	if !report.Skipped {
		t.Fatalf("expected analysis skipped for fewer than 5 candidates")
	}
}

func TestAnalyzeSlateDiversityWarnsOnConcentration(t *testing.T) {
	candidates := make([]CandidateDimensions, 10)
	for i := range candidates {
		candidates[i] = CandidateDimensions{CompanyTier: "faang", ExperienceBand: "5-10", Specialty: "backend"}
	}

	report := AnalyzeSlateDiversity(candidates)
	if report.Skipped {
		t.Fatalf("expected analysis to run")
	}
	if len(report.Warnings) == 0 {
		t.Fatalf("expected concentration warnings for a fully homogeneous slate")
	}
	for _, w := range report.Warnings {
		if w.Severity != SeverityAlert {
			t.Fatalf("expected alert severity for 100%% concentration, got %v", w.Severity)
		}
	}
}

func TestAnalyzeSlateDiversityNoWarningsWhenBalanced(t *testing.T) {
	tiers := []string{"faang", "unicorn", "startup", "faang", "unicorn", "startup"}
	candidates := make([]CandidateDimensions, len(tiers))
	for i, tier := range tiers {
		candidates[i] = CandidateDimensions{CompanyTier: tier, ExperienceBand: "band", Specialty: "spec"}
	}

	report := AnalyzeSlateDiversity(candidates)
	for _, w := range report.Warnings {
		if w.Dimension == DimensionCompanyTier {
			t.Fatalf("did not expect company-tier warning for a balanced slate, got %+v", w)
		}
	}
}

func TestNewAnonymizedMetadataSetsFlag(t *testing.T) {
	now := time.Now()
	meta := NewAnonymizedMetadata(now)
	if !meta.Anonymized || !meta.Timestamp.Equal(now) {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}
