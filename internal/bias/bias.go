// Package bias implements the bias-reduction post-processing described in
// §4.17: response anonymization, slate-diversity scoring with severity-
// tiered warnings, and best-effort selection-event logging.
package bias

import (
	"context"
	"database/sql"
	"math"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
)

// AnonymizableResult is the subset of a result item that anonymization
// reads and mutates; ScoreBreakdown/weights/ML trajectory are untouched.
type AnonymizableResult struct {
	CandidateID           string
	Name                  string
	Title                 string
	Headline              string
	Location              string
	Country               string
	Metadata              map[string]any
	EducationInstitutions []string
	GraduationYear        int
	CompanyPedigreeScore  *float64
	MatchReasons          []string
}

// Anonymize strips always-PII fields and, when stripProxyFields is set, the
// demographic-proxy fields too. Skills, industries, experience years,
// scores, weights, and ML trajectory are untouched by the caller since they
// live outside AnonymizableResult.
func Anonymize(r AnonymizableResult, stripProxyFields bool) AnonymizableResult {
	r.Name = ""
	r.Title = ""
	r.Headline = ""
	r.Location = ""
	r.Country = ""
	r.Metadata = nil

	if stripProxyFields {
		r.EducationInstitutions = nil
		r.GraduationYear = 0
		r.CompanyPedigreeScore = nil
	}

	r.MatchReasons = generalizeMatchReasons(r.MatchReasons)
	return r
}

var (
	yearPattern      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	properNounPair   = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)
)

// generalizeMatchReasons masks year numbers and proper-noun pairs out of
// free-text match reasons so anonymized responses leak no re-identifying
// detail through rationale strings.
func generalizeMatchReasons(reasons []string) []string {
	out := make([]string, len(reasons))
	for i, reason := range reasons {
		masked := yearPattern.ReplaceAllString(reason, "[year]")
		masked = properNounPair.ReplaceAllString(masked, "[name]")
		out[i] = masked
	}
	return out
}

// AnonymizedMetadata is attached to the response alongside the anonymized
// result list.
type AnonymizedMetadata struct {
	Anonymized bool      `json:"anonymized"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewAnonymizedMetadata stamps the current time; callers that need
// determinism in tests should use a fixed clock and construct this struct
// directly instead.
func NewAnonymizedMetadata(now time.Time) AnonymizedMetadata {
	return AnonymizedMetadata{Anonymized: true, Timestamp: now}
}

// DiversityDimension is one axis tracked for slate-diversity scoring.
type DiversityDimension string

const (
	DimensionCompanyTier    DiversityDimension = "companyTier"
	DimensionExperienceBand DiversityDimension = "experienceBand"
	DimensionSpecialty      DiversityDimension = "specialty"
)

// minCandidatesForDiversity is the slate-size floor below which diversity
// analysis is skipped entirely.
const minCandidatesForDiversity = 5

// Severity levels for a concentration warning.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityAlert   Severity = "alert"
)

// concentrationThresholds maps the minimum dominant-group share to a
// severity, checked from highest to lowest.
var concentrationThresholds = []struct {
	threshold float64
	severity  Severity
}{
	{0.90, SeverityAlert},
	{0.80, SeverityWarning},
	{0.70, SeverityInfo},
}

// Warning flags one dimension whose dominant group exceeds a concentration
// threshold.
type Warning struct {
	Dimension       DiversityDimension
	DominantGroup   string
	Share           float64
	Severity        Severity
	Suggestion      string
}

// DiversityReport summarizes a slate's composition across tracked
// dimensions.
type DiversityReport struct {
	Skipped  bool
	Score    float64 // 0-100, Shannon-entropy-based
	Warnings []Warning
}

// CandidateDimensions holds one candidate's inferred dimension values.
type CandidateDimensions struct {
	CompanyTier    string
	ExperienceBand string
	Specialty      string
}

// AnalyzeSlateDiversity computes the distribution and diversity score for a
// slate, generating severity-tiered warnings per dimension.
func AnalyzeSlateDiversity(candidates []CandidateDimensions) DiversityReport {
	if len(candidates) < minCandidatesForDiversity {
		return DiversityReport{Skipped: true}
	}

	dims := map[DiversityDimension]map[string]int{
		DimensionCompanyTier:    {},
		DimensionExperienceBand: {},
		DimensionSpecialty:      {},
	}
	for _, c := range candidates {
		dims[DimensionCompanyTier][c.CompanyTier]++
		dims[DimensionExperienceBand][c.ExperienceBand]++
		dims[DimensionSpecialty][c.Specialty]++
	}

	var entropies []float64
	var warnings []Warning
	for dimension, counts := range dims {
		entropies = append(entropies, shannonEntropyNormalized(counts, len(candidates)))
		if dominant, share, ok := dominantGroup(counts, len(candidates)); ok {
			if severity, ok := classifySeverity(share); ok {
				warnings = append(warnings, Warning{
					Dimension:     dimension,
					DominantGroup: dominant,
					Share:         share,
					Severity:      severity,
					Suggestion:    suggestionFor(dimension),
				})
			}
		}
	}

	return DiversityReport{Score: averageOf(entropies) * 100, Warnings: warnings}
}

func shannonEntropyNormalized(counts map[string]int, total int) float64 {
	if total == 0 || len(counts) <= 1 {
		return 0
	}
	var entropy float64
	for _, count := range counts {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	maxEntropy := math.Log2(float64(len(counts)))
	if maxEntropy == 0 {
		return 0
	}
	return entropy / maxEntropy
}

func dominantGroup(counts map[string]int, total int) (string, float64, bool) {
	var best string
	var bestCount int
	for group, count := range counts {
		if count > bestCount {
			best = group
			bestCount = count
		}
	}
	if total == 0 {
		return "", 0, false
	}
	return best, float64(bestCount) / float64(total), true
}

func classifySeverity(share float64) (Severity, bool) {
	for _, tier := range concentrationThresholds {
		if share >= tier.threshold {
			return tier.severity, true
		}
	}
	return "", false
}

func suggestionFor(dimension DiversityDimension) string {
	switch dimension {
	case DimensionCompanyTier:
		return "broaden sourcing beyond the dominant company tier"
	case DimensionExperienceBand:
		return "widen the experience-year filter to include adjacent bands"
	case DimensionSpecialty:
		return "relax specialty filters or expand via related skills"
	default:
		return ""
	}
}

func averageOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SelectionEvent is one candidate-shown event in a batch.
type SelectionEvent struct {
	EventID     string
	TenantID    string
	RequestID   string
	CandidateID string
	Rank        int
	Action      string // "shown", "clicked", etc.
	OccurredAt  time.Time
}

// EventLogger writes selection-event batches, tolerating and logging
// failures without propagating them to the caller.
type EventLogger struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewEventLogger builds an EventLogger over db.
func NewEventLogger(db *sql.DB, logger *logrus.Logger) *EventLogger {
	return &EventLogger{db: db, logger: logger}
}

// LogBatch writes events with ON CONFLICT DO NOTHING on event_id so
// retried batches are idempotent. Failures are logged, never returned.
func (l *EventLogger) LogBatch(ctx context.Context, events []SelectionEvent) {
	if len(events) == 0 {
		return
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		l.logger.WithError(err).Warn("selection event batch: begin tx failed")
		return
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO selection_events (event_id, tenant_id, request_id, candidate_id, rank, action, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING`)
	if err != nil {
		l.logger.WithError(err).Warn("selection event batch: prepare failed")
		return
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.EventID, e.TenantID, e.RequestID, e.CandidateID, e.Rank, e.Action, e.OccurredAt); err != nil {
			l.logger.WithError(err).WithField("event_id", e.EventID).Warn("selection event insert failed")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		l.logger.WithError(err).Warn("selection event batch: commit failed")
	}
}
