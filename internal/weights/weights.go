// Package weights resolves a per-request WeightConfig from a role-type
// preset overlaid with optional per-request overrides, normalizing the
// result to sum to 1.0.
package weights

import "github.com/sirupsen/logrus"

// RoleType selects a weight preset.
type RoleType string

const (
	RoleExecutive RoleType = "executive"
	RoleManager   RoleType = "manager"
	RoleIC        RoleType = "ic"
	RoleDefault   RoleType = "default"
)

// Config maps a signal name to its weight in [0,1].
type Config map[string]float64

// normalizeDeviationTolerance is the maximum allowed deviation from 1.0
// before the resolver normalizes and logs.
const normalizeDeviationTolerance = 0.001

var presets = map[RoleType]Config{
	RoleExecutive: {
		"vectorSimilarity":    0.10,
		"levelMatch":          0.20,
		"specialtyMatch":      0.10,
		"techStackMatch":      0.05,
		"functionMatch":       0.15,
		"trajectoryFit":       0.20,
		"companyPedigree":     0.20,
	},
	RoleManager: {
		"vectorSimilarity":    0.15,
		"levelMatch":          0.20,
		"specialtyMatch":      0.10,
		"techStackMatch":      0.10,
		"functionMatch":       0.15,
		"trajectoryFit":       0.20,
		"companyPedigree":     0.10,
	},
	RoleIC: {
		"vectorSimilarity":    0.20,
		"levelMatch":          0.15,
		"specialtyMatch":      0.15,
		"techStackMatch":      0.25,
		"functionMatch":       0.10,
		"trajectoryFit":       0.10,
		"companyPedigree":     0.05,
	},
	RoleDefault: {
		"vectorSimilarity":    0.25,
		"levelMatch":          0.15,
		"specialtyMatch":      0.10,
		"techStackMatch":      0.20,
		"functionMatch":       0.10,
		"trajectoryFit":       0.10,
		"companyPedigree":     0.10,
	},
}

// Preset returns a copy of the named preset, falling back to RoleDefault for
// an unrecognized role type.
func Preset(roleType RoleType) Config {
	preset, ok := presets[roleType]
	if !ok {
		preset = presets[RoleDefault]
	}
	return preset.clone()
}

func (c Config) clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (c Config) sum() float64 {
	var total float64
	for _, v := range c {
		total += v
	}
	return total
}

// Resolve starts from the preset for roleType, overlays overrides by key,
// and normalizes so present weights sum to 1.0 ± normalizeDeviationTolerance.
// An empty/unrecognized roleType resolves to RoleDefault.
func Resolve(roleType RoleType, overrides Config) Config {
	resolved := Preset(roleType)
	for signal, weight := range overrides {
		resolved[signal] = weight
	}

	sum := resolved.sum()
	deviation := sum - 1.0
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation > normalizeDeviationTolerance {
		logrus.WithFields(logrus.Fields{
			"role_type": roleType,
			"sum":       sum,
		}).Warn("weight config sum deviates from 1.0, normalizing")
		if sum == 0 {
			return resolved
		}
		for signal := range resolved {
			resolved[signal] /= sum
		}
	}
	return resolved
}
