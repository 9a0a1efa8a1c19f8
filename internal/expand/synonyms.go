package expand

import "strings"

// seniorityOrder is the extended level hierarchy from spec §4.6, index is
// rank (intern lowest, c-level highest).
var seniorityOrder = []string{
	"intern", "junior", "mid", "senior", "staff", "principal",
	"lead", "manager", "director", "vp", "c-level",
}

var seniorityRank = func() map[string]int {
	m := make(map[string]int, len(seniorityOrder))
	for i, s := range seniorityOrder {
		m[s] = i
	}
	return m
}()

// senioritySynonyms maps a seniority level (English canonical) to synonymous
// terms in English and Portuguese that should be treated as equivalent
// within the same rank.
var senioritySynonyms = map[string][]string{
	"intern":    {"intern", "estagiário", "estagiaria", "trainee"},
	"junior":    {"junior", "júnior", "jr"},
	"mid":       {"mid", "pleno", "mid-level"},
	"senior":    {"senior", "sênior", "sr"},
	"staff":     {"staff"},
	"principal": {"principal"},
	"lead":      {"lead", "líder", "tech lead", "líder técnico"},
	"manager":   {"manager", "gerente"},
	"director":  {"director", "diretor"},
	"vp":        {"vp", "vice president", "vice-presidente"},
	"c-level":   {"c-level", "ceo", "cto", "cfo"},
}

// roleSynonyms maps a canonical role to interchangeable titles, English and
// Portuguese.
var roleSynonyms = map[string][]string{
	"developer": {"developer", "desenvolvedor", "programmer", "engineer", "engenheiro"},
	"designer":  {"designer", "designer gráfico"},
	"manager":   {"manager", "gerente", "gestor"},
	"analyst":   {"analyst", "analista"},
}

// seniorPlusBand holds the senior-and-above individual-contributor levels.
// Many orgs don't use a distinct "Lead" title at all, so a search for one of
// these levels should surface candidates at any of the others — this is what
// realizes "Lead engineer matches Senior/Staff/Principal".
var seniorPlusBand = map[string]bool{"senior": true, "staff": true, "principal": true, "lead": true}

// ExpandSenioritySynonyms returns the synonym set for a seniority level plus,
// when includeHigherLevels is set, every strictly-higher level in the
// hierarchy and every other level in the same senior-plus band.
func ExpandSenioritySynonyms(seniority string, includeHigherLevels bool) []string {
	canonical := canonicalSeniority(seniority)
	if canonical == "" {
		return nil
	}

	out := map[string]bool{}
	for _, syn := range senioritySynonyms[canonical] {
		out[syn] = true
	}

	if includeHigherLevels {
		rank := seniorityRank[canonical]
		for level, r := range seniorityRank {
			if r > rank || (seniorPlusBand[canonical] && seniorPlusBand[level]) {
				for _, syn := range senioritySynonyms[level] {
					out[syn] = true
				}
			}
		}
	}

	result := make([]string, 0, len(out))
	for syn := range out {
		result = append(result, syn)
	}
	return result
}

func canonicalSeniority(term string) string {
	lower := strings.ToLower(strings.TrimSpace(term))
	for canonical, synonyms := range senioritySynonyms {
		for _, syn := range synonyms {
			if syn == lower {
				return canonical
			}
		}
	}
	if _, ok := seniorityRank[lower]; ok {
		return lower
	}
	return ""
}

// ExpandRoleSynonyms returns interchangeable titles for a canonical role,
// English and Portuguese.
func ExpandRoleSynonyms(role string) []string {
	lower := strings.ToLower(strings.TrimSpace(role))
	for canonical, synonyms := range roleSynonyms {
		for _, syn := range synonyms {
			if syn == lower {
				out := make([]string, len(roleSynonyms[canonical]))
				copy(out, roleSynonyms[canonical])
				return out
			}
		}
	}
	return nil
}
