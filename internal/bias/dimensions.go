package bias

import "strings"

// knownFAANG, knownEnterprise, and knownStartups are small representative
// lookups, not exhaustive directories; a company absent from all three
// falls back to "other" rather than a guess.
var knownFAANG = []string{"google", "meta", "facebook", "amazon", "apple", "netflix", "microsoft"}

var knownEnterprise = []string{
	"ibm", "oracle", "sap", "accenture", "deloitte", "cisco", "intel",
	"salesforce", "jpmorgan", "goldman sachs", "walmart", "capgemini",
}

var knownStartups = []string{
	"stripe", "databricks", "canva", "figma", "openai", "anthropic",
	"notion", "ramp", "brex", "scale ai", "startup",
}

// ClassifyCompanyTier buckets a company name into the companyTier dimension
// ∈ {faang, enterprise, startup, other}.
func ClassifyCompanyTier(company string) string {
	lower := strings.ToLower(strings.TrimSpace(company))
	if lower == "" {
		return "other"
	}
	if containsAny(lower, knownFAANG) {
		return "faang"
	}
	if containsAny(lower, knownEnterprise) {
		return "enterprise"
	}
	if containsAny(lower, knownStartups) {
		return "startup"
	}
	return "other"
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func classifyExperienceBand(years float64) string {
	switch {
	case years < 3:
		return "0-3"
	case years < 7:
		return "3-7"
	case years < 15:
		return "7-15"
	default:
		return "15+"
	}
}

// specialtyKeyword pairs a dimension bucket with the title/skill substrings
// that indicate it. Order matters: it is also the tie-break priority when a
// candidate's profile matches more than one bucket (other than the
// frontend+backend -> fullstack combination, handled separately).
type specialtyKeyword struct {
	name     string
	keywords []string
}

var specialtyKeywords = []specialtyKeyword{
	{"ml", []string{"machine learning", "ml engineer", "tensorflow", "pytorch", "nlp", "llm", "deep learning"}},
	{"data", []string{"data engineer", "data scientist", "etl", "data warehouse", "spark", "analytics"}},
	{"devops", []string{"devops", "sre", "kubernetes", "terraform", "infrastructure", "ci/cd", "site reliability"}},
	{"mobile", []string{"ios", "android", "swift", "kotlin", "react native", "mobile engineer"}},
	{"frontend", []string{"frontend", "front-end", "react", "vue", "angular", "css", "ui engineer"}},
	{"backend", []string{"backend", "back-end", "api engineer", "microservice", "django", "spring boot", "node.js"}},
}

// classifySpecialty infers the specialty dimension from a candidate's title
// and skill list per §4.8's candidate-profile rules. A candidate whose
// profile matches both frontend and backend keywords is classified
// fullstack rather than whichever bucket happened to match first.
func classifySpecialty(title string, skills []string) string {
	var haystack strings.Builder
	haystack.WriteString(strings.ToLower(title))
	for _, s := range skills {
		haystack.WriteString(" ")
		haystack.WriteString(strings.ToLower(s))
	}
	text := haystack.String()

	matched := make(map[string]bool, len(specialtyKeywords))
	for _, sk := range specialtyKeywords {
		for _, kw := range sk.keywords {
			if strings.Contains(text, kw) {
				matched[sk.name] = true
				break
			}
		}
	}

	if matched["frontend"] && matched["backend"] {
		return "fullstack"
	}
	for _, sk := range specialtyKeywords {
		if matched[sk.name] {
			return sk.name
		}
	}
	return "other"
}

// InferDimensions buckets a candidate's profile into the companyTier,
// experienceBand, and specialty dimensions used for slate diversity
// analysis, per §4.8/§4.17.
func InferDimensions(title, company string, skills []string, yearsExperience float64) CandidateDimensions {
	return CandidateDimensions{
		CompanyTier:    ClassifyCompanyTier(company),
		ExperienceBand: classifyExperienceBand(yearsExperience),
		Specialty:      classifySpecialty(title, skills),
	}
}
