package domain

import (
	"fmt"
	"strings"
)

// RiskLabel is an ordinal danger level.
type RiskLabel string

const (
	RiskLow    RiskLabel = "Low"
	RiskMedium RiskLabel = "Medium"
	RiskHigh   RiskLabel = "High"

	// RiskUnknown is only produced by the classifier path when the classifier
	// fails. It ranks below every known label so it never hides one.
	RiskUnknown RiskLabel = "Unknown"
)

// Severity returns a numeric rank for ordering (higher = more dangerous).
func (l RiskLabel) Severity() int {
	switch l {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// ParseRiskLabel accepts a label in any case, plus the Russian labels used in
// the operators' segment sheets.
func ParseRiskLabel(s string) (RiskLabel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "низкий":
		return RiskLow, nil
	case "medium", "средний":
		return RiskMedium, nil
	case "high", "высокий":
		return RiskHigh, nil
	case "unknown":
		return RiskUnknown, nil
	default:
		return "", fmt.Errorf("unknown risk label %q", s)
	}
}

// Probability thresholds shared by the classifier and heuristic paths.
const (
	probHighThreshold   = 0.7
	probMediumThreshold = 0.4
)

// Bounce amplitude thresholds in metres.
const (
	bounceHighThreshold   = 1.0
	bounceMediumThreshold = 0.5
)

// ProbabilityRisk maps a shedding probability to a label.
func ProbabilityRisk(p float64) RiskLabel {
	switch {
	case p > probHighThreshold:
		return RiskHigh
	case p > probMediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// BounceRisk maps a bounce amplitude in metres to a label.
func BounceRisk(amplitude float64) RiskLabel {
	switch {
	case amplitude > bounceHighThreshold:
		return RiskHigh
	case amplitude > bounceMediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Combine returns the most severe of the given labels. Unknown is returned
// only when no known label is present.
func Combine(labels ...RiskLabel) RiskLabel {
	combined := RiskUnknown
	for _, l := range labels {
		if l.Severity() > combined.Severity() {
			combined = l
		}
	}
	return combined
}

// CombinePolicy selects how the shedding side of an assessment is derived
// before it is combined with the bounce label.
type CombinePolicy string

const (
	// PolicyMax labels the classifier probability on its own and takes the
	// maximum with the bounce label.
	PolicyMax CombinePolicy = "max"

	// PolicyAverage averages the classifier and heuristic probabilities and
	// re-thresholds the mean. Kept for output compatibility with older reports.
	PolicyAverage CombinePolicy = "average"
)

// ParseCombinePolicy validates a policy name; empty selects PolicyMax.
func ParseCombinePolicy(s string) (CombinePolicy, error) {
	switch CombinePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyMax:
		return PolicyMax, nil
	case PolicyAverage:
		return PolicyAverage, nil
	default:
		return "", fmt.Errorf("unknown combine policy %q", s)
	}
}

// AveragedRisk is the legacy combination: mean of the two probabilities,
// re-thresholded.
func AveragedRisk(classifierProb, heuristicProb float64) RiskLabel {
	return ProbabilityRisk((classifierProb + heuristicProb) / 2)
}
