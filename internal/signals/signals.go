// Package signals implements the pure per-candidate scoring functions used
// by the scoring engine: exact/inferred skill match, seniority alignment,
// recency boost, company relevance, and trajectory fit. Every function
// returns a value in [0,1] and has no side effects or external dependencies.
package signals

import (
	"regexp"
	"strings"
)

// neutral is returned when required context for a signal is missing.
const neutral = 0.5

// AliasResolver canonicalizes a skill name (e.g. via the ontology) so
// "JS" and "JavaScript" compare equal.
type AliasResolver func(skill string) string

func identity(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ExactSkillMatch is the fraction of required skills present in the
// candidate's skill set, alias-aware. Returns 0 when the candidate has no
// skills at all, regardless of how many are required.
func ExactSkillMatch(required, candidate []string, resolve AliasResolver) float64 {
	if len(candidate) == 0 {
		return 0
	}
	if len(required) == 0 {
		return neutral
	}
	if resolve == nil {
		resolve = identity
	}

	have := make(map[string]bool, len(candidate))
	for _, s := range candidate {
		have[resolve(s)] = true
	}

	matched := 0
	for _, s := range required {
		if have[resolve(s)] {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}

// transferRule is one directional skill-transfer score: From implies a
// proficiency of Score in To.
type transferRule struct {
	from, to string
	score    float64
}

// transferRules is the finite rule set of directional transfer scores.
// Entries marked bidirectional appear twice (once per direction) rather than
// being inferred, per spec guidance not to assume symmetry.
var transferRules = []transferRule{
	{"vue", "react", 0.75},
	{"java", "kotlin", 0.90},
	{"typescript", "javascript", 0.95},
	{"python", "go", 0.60},
	{"aws", "gcp", 0.70},
	{"gcp", "aws", 0.70},
}

func firstTransferScore(have, want string) (float64, bool) {
	for _, rule := range transferRules {
		if rule.from == have && rule.to == want {
			return rule.score, true
		}
	}
	return 0, false
}

// InferredSkillMatch scores required skills the candidate does not exactly
// hold but for which a transfer rule from one of the candidate's skills
// applies. exactlyMatched marks required skills already counted by
// ExactSkillMatch so they are excluded here.
func InferredSkillMatch(required, candidateSkills []string, exactlyMatched map[string]bool, resolve AliasResolver) float64 {
	if len(required) == 0 {
		return neutral
	}
	if resolve == nil {
		resolve = identity
	}

	candidates := make([]string, len(candidateSkills))
	for i, s := range candidateSkills {
		candidates[i] = resolve(s)
	}

	var transferScores []float64
	matches := 0
	for _, req := range required {
		want := resolve(req)
		if exactlyMatched[want] {
			continue
		}
		var best float64
		found := false
		for _, have := range candidates {
			if score, ok := firstTransferScore(have, want); ok {
				if !found || score > best {
					best = score
					found = true
				}
			}
		}
		if found {
			matches++
			transferScores = append(transferScores, best)
		}
	}

	if len(transferScores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range transferScores {
		sum += s
	}
	mean := sum / float64(len(transferScores))
	return mean * (float64(matches) / float64(len(required)))
}

// CompanyTier classifies a candidate's primary employer for the purposes of
// the seniority-alignment effective-level adjustment.
type CompanyTier int

const (
	TierUnknown CompanyTier = iota
	TierStartup
	TierUnicorn
	TierFAANG
)

func (t CompanyTier) levelAdjustment() int {
	switch t {
	case TierFAANG:
		return 1
	case TierStartup:
		return -1
	default:
		return 0
	}
}

// SeniorityAlignment scores the distance between a required and candidate
// level in the extended hierarchy (technical track 0-6, management track
// 7-13), after applying the company-tier effective-level adjustment.
func SeniorityAlignment(requiredLevel, candidateLevel int, tier CompanyTier) float64 {
	effective := candidateLevel + tier.levelAdjustment()
	distance := requiredLevel - effective
	if distance < 0 {
		distance = -distance
	}
	switch {
	case distance == 0:
		return 1.0
	case distance == 1:
		return 0.8
	case distance == 2:
		return 0.6
	case distance == 3:
		return 0.4
	default:
		return 0.2
	}
}

// Experience is one item of a candidate's work history relevant to recency
// scoring: the most recent role in which they used Skill.
type Experience struct {
	Skill      string
	IsCurrent  bool
	YearsSince float64
}

// RecencyBoost averages, over the required skills, how recently the
// candidate used each one. A required skill with no matching experience
// record does not contribute to the average (missing-overall data returns
// the 0.3 floor below).
func RecencyBoost(required []string, experience []Experience, resolve AliasResolver) float64 {
	if len(experience) == 0 {
		return 0.3
	}
	if resolve == nil {
		resolve = identity
	}

	bySkill := make(map[string]Experience, len(experience))
	for _, e := range experience {
		bySkill[resolve(e.Skill)] = e
	}

	var scores []float64
	for _, req := range required {
		exp, ok := bySkill[resolve(req)]
		if !ok {
			continue
		}
		if exp.IsCurrent {
			scores = append(scores, 1.0)
			continue
		}
		decayed := 1.0 - 0.16*exp.YearsSince
		if decayed < 0.1 {
			decayed = 0.1
		}
		scores = append(scores, decayed)
	}

	if len(scores) == 0 {
		return 0.3
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// CompanyRelevanceInputs holds the up-to-three optional sub-signals for
// company relevance; a nil pointer means "target context not present" and
// excludes that sub-signal from the average.
type CompanyRelevanceInputs struct {
	TargetCompanyMatch *float64
	TierScore          *float64
	IndustryMatch      *float64
}

// CompanyRelevance averages whichever of the up-to-three sub-signals have
// their target context present. With none present, returns neutral.
func CompanyRelevance(in CompanyRelevanceInputs) float64 {
	var sum float64
	var n int
	for _, v := range []*float64{in.TargetCompanyMatch, in.TierScore, in.IndustryMatch} {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return neutral
	}
	return sum / float64(n)
}

// TitleRecord is one entry in a candidate's title history, oldest first.
type TitleRecord struct {
	Title string
	Level int // resolved via LevelFromTitle; -1 when unrecognized
}

// Direction classifies consecutive-title movement.
type Direction string

const (
	DirectionUpward  Direction = "upward"
	DirectionLateral Direction = "lateral"
	DirectionDown    Direction = "downward"
)

// Velocity classifies how quickly a candidate has progressed.
type Velocity string

const (
	VelocityFast   Velocity = "fast"
	VelocityNormal Velocity = "normal"
	VelocitySlow   Velocity = "slow"
)

// TrajectoryType classifies the overall shape of a candidate's career.
type TrajectoryType string

const (
	TrajectoryTechnicalGrowth TrajectoryType = "technical_growth"
	TrajectoryLeadershipTrack TrajectoryType = "leadership_track"
	TrajectoryLateralMove     TrajectoryType = "lateral_move"
	TrajectoryCareerPivot     TrajectoryType = "career_pivot"
)

// JobContext supplies the target-role information trajectory fit is scored
// against.
type JobContext struct {
	TargetTrack        TrajectoryType
	RoleGrowthExpected  bool
	PivotsAcceptable    bool
	YearsSpan           float64
}

// managementLevelOffset marks where the management track begins in the
// combined 0-13 hierarchy; levels below it are the technical track.
const managementLevelOffset = 7

// normalizeTrackLevel folds an IC-track or management-track level into a
// common career-stage scale so switching tracks does not register as a
// spurious downward move.
func normalizeTrackLevel(level int) int {
	if level < 0 {
		return -1
	}
	if level >= managementLevelOffset {
		return level - managementLevelOffset
	}
	return level
}

// TrajectoryFit classifies a candidate's title sequence and scores it
// against the job's context. With fewer than two recognized titles, returns
// neutral.
func TrajectoryFit(titles []TitleRecord, ctx JobContext) float64 {
	recognized := make([]TitleRecord, 0, len(titles))
	for _, t := range titles {
		if t.Level >= 0 {
			recognized = append(recognized, t)
		}
	}
	if len(recognized) < 2 {
		return neutral
	}

	first := normalizeTrackLevel(recognized[0].Level)
	last := normalizeTrackLevel(recognized[len(recognized)-1].Level)
	delta := last - first

	direction := DirectionLateral
	switch {
	case delta > 0:
		direction = DirectionUpward
	case delta < 0:
		direction = DirectionDown
	}

	velocity := VelocityNormal
	if ctx.YearsSpan > 0 {
		rate := float64(delta) / ctx.YearsSpan
		switch {
		case rate >= 1.0:
			velocity = VelocityFast
		case rate <= 0.2:
			velocity = VelocitySlow
		}
	}

	trajType := classifyTrajectoryType(recognized, direction)

	return scoreTrajectory(direction, velocity, trajType, ctx)
}

func classifyTrajectoryType(titles []TitleRecord, direction Direction) TrajectoryType {
	crossedIntoManagement := false
	for _, t := range titles {
		if t.Level >= managementLevelOffset {
			crossedIntoManagement = true
		}
	}
	switch {
	case direction == DirectionLateral:
		return TrajectoryLateralMove
	case crossedIntoManagement:
		return TrajectoryLeadershipTrack
	case direction == DirectionDown:
		return TrajectoryCareerPivot
	default:
		return TrajectoryTechnicalGrowth
	}
}

func scoreTrajectory(direction Direction, velocity Velocity, trajType TrajectoryType, ctx JobContext) float64 {
	score := neutral
	switch direction {
	case DirectionUpward:
		score = 0.8
	case DirectionLateral:
		score = 0.6
	case DirectionDown:
		score = 0.4
	}

	if ctx.TargetTrack != "" && trajType == ctx.TargetTrack {
		score += 0.15
	}
	if ctx.RoleGrowthExpected && velocity == VelocityFast {
		score += 0.05
	}
	if !ctx.PivotsAcceptable && trajType == TrajectoryCareerPivot {
		score -= 0.3
	}

	return clamp01(score)
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

// titlePattern matches common seniority qualifiers in a free-form title so
// LevelFromTitle can resolve e.g. "Senior Staff Engineer" to its highest
// qualifier.
var titlePattern = regexp.MustCompile(`(?i)\b(intern|junior|jr\.?|mid|senior|sr\.?|staff|principal|lead|manager|director|vp|vice president|chief|c-level|cto|ceo|cfo)\b`)

var titleLevel = map[string]int{
	"intern": 0, "junior": 1, "jr": 1, "jr.": 1, "mid": 2,
	"senior": 3, "sr": 3, "sr.": 3, "staff": 4, "principal": 5, "lead": 6,
	"manager": 7, "director": 9, "vp": 11, "vice president": 11,
	"chief": 13, "c-level": 13, "cto": 13, "ceo": 13, "cfo": 13,
}

// LevelFromTitle resolves a free-form title string to a level in the
// combined 0-13 hierarchy, or -1 when no recognized qualifier is present.
func LevelFromTitle(title string) int {
	matches := titlePattern.FindAllString(strings.ToLower(title), -1)
	if len(matches) == 0 {
		return -1
	}
	best := -1
	for _, m := range matches {
		if level, ok := titleLevel[strings.ToLower(m)]; ok && level > best {
			best = level
		}
	}
	return best
}
