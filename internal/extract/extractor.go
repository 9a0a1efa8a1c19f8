// Package extract calls an external LLM with a fixed JSON schema to pull
// structured entities (role, skills, seniority, location, remote,
// experience years) out of free-text queries.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Record is the typed entity extraction result. Zero-value Record is the
// "nothing extracted" fallback used on timeout, error, or schema-invalid
// response.
type Record struct {
	Role             string
	Skills           []string
	Seniority        string
	Location         string
	Remote           bool
	ExperienceYearsMin int
	ExperienceYearsMax int
}

// Client calls the external entity-extraction LLM. Implementations enforce
// their own schema validation; ExtractEntities returns a schema-invalid
// response as a non-nil error so the extractor can apply the same fallback
// as a timeout.
type Client interface {
	ExtractEntities(ctx context.Context, query string) (Record, error)
}

const (
	// DefaultTimeout is the hard per-call deadline; configurable by callers.
	DefaultTimeout = 100 * time.Millisecond
	cacheCapacity  = 2048
	cacheTTL       = 5 * time.Minute
)

type cacheEntry struct {
	record    Record
	expiresAt time.Time
}

// Extractor wraps a Client with the timeout, caching, and hallucination
// filtering required by the spec.
type Extractor struct {
	client  Client
	timeout time.Duration
	cache   *lru.Cache[string, cacheEntry]
}

// New builds an Extractor. A zero timeout selects DefaultTimeout.
func New(client Client, timeout time.Duration) (*Extractor, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cache, err := lru.New[string, cacheEntry](cacheCapacity)
	if err != nil {
		return nil, err
	}
	return &Extractor{client: client, timeout: timeout, cache: cache}, nil
}

// Extract returns a Record for query, respecting the configured timeout and
// the extraction cache. On timeout, error, or schema-invalid response it
// returns an empty Record — extraction failure is never
// surfaced as a pipeline error per the spec's error taxonomy.
func (e *Extractor) Extract(ctx context.Context, query string) Record {
	normalized := normalizePortugueseTerms(strings.ToLower(strings.TrimSpace(query)))
	key := cacheKey(normalized)

	if entry, ok := e.cache.Get(key); ok && time.Now().Before(entry.expiresAt) {
		return entry.record
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	record, err := e.client.ExtractEntities(callCtx, normalized)
	if err != nil {
		return Record{}
	}

	record = filterHallucinations(record, query)
	e.cache.Add(key, cacheEntry{record: record, expiresAt: time.Now().Add(cacheTTL)})
	return record
}

func cacheKey(normalizedQuery string) string {
	sum := sha256.Sum256([]byte(normalizedQuery))
	return hex.EncodeToString(sum[:])
}

// filterHallucinations drops any extracted skill or location that does not
// appear as a substring (case-insensitive) or normalized-token subset of the
// original query text.
func filterHallucinations(r Record, originalQuery string) Record {
	lowerQuery := strings.ToLower(originalQuery)
	tokens := tokenSet(lowerQuery)

	keptSkills := r.Skills[:0:0]
	for _, skill := range r.Skills {
		if isGrounded(skill, lowerQuery, tokens) {
			keptSkills = append(keptSkills, skill)
		}
	}
	r.Skills = keptSkills

	if r.Location != "" && !isGrounded(r.Location, lowerQuery, tokens) {
		r.Location = ""
	}
	return r
}

func isGrounded(value, lowerQuery string, tokens map[string]bool) bool {
	lowerValue := strings.ToLower(strings.TrimSpace(value))
	if lowerValue == "" {
		return false
	}
	if strings.Contains(lowerQuery, lowerValue) {
		return true
	}
	for _, tok := range strings.Fields(lowerValue) {
		if !tokens[tok] {
			return false
		}
	}
	return true
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range strings.Fields(s) {
		out[strings.Trim(tok, ".,;:!?()[]{}\"'")] = true
	}
	return out
}

// portugueseTermMap normalizes Portuguese seniority
// and role terms to canonical English equivalents before extraction, per
// §4.4.
var portugueseTermMap = map[string]string{
	"sênior":    "senior",
	"senior":    "senior",
	"pleno":     "mid",
	"júnior":    "junior",
	"junior":    "junior",
	"estagiário": "intern",
	"gerente":   "manager",
	"diretor":   "director",
	"desenvolvedor": "developer",
	"engenheiro": "engineer",
}

func normalizePortugueseTerms(lowerQuery string) string {
	words := strings.Fields(lowerQuery)
	for i, w := range words {
		trimmed := strings.Trim(w, ".,;:!?()[]{}\"'")
		if canonical, ok := portugueseTermMap[trimmed]; ok {
			words[i] = canonical
		}
	}
	return strings.Join(words, " ")
}
