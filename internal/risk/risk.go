// Package risk derives the temporal-originality risk flag from
// aggregate classification counts.
package risk

import "fmt"

// Flag is the three-level categorical risk judgment.
type Flag string

const (
	FlagLow    Flag = "low"
	FlagMedium Flag = "medium"
	FlagHigh   Flag = "high"
)

// Fixed policy thresholds. Organizers who want different cutoffs layer
// that outside this package; the scorer itself is not configurable.
const (
	highPctThreshold     = 50.0
	mediumPctThreshold   = 20.0
	highFilesThreshold   = 20
	mediumFilesThreshold = 10
)

// Score derives a risk flag and a human-readable reason from the
// pre-window share of commits and the size of the largest pre-window
// commit. It is pure and deterministic; the checks run in a fixed
// order so percentage rules always win over file-count rules at the
// same severity.
func Score(totalCommits int, preWindowPct float64, largestPreFiles int) (Flag, string) {
	if totalCommits == 0 {
		return FlagLow, "No commits found; temporal originality risk is low."
	}

	if preWindowPct > highPctThreshold {
		return FlagHigh, fmt.Sprintf("%.1f%% of commits were made before the hackathon window.", preWindowPct)
	}
	if largestPreFiles > highFilesThreshold {
		return FlagHigh, fmt.Sprintf("Largest pre-window commit touched %d files (>%d).", largestPreFiles, highFilesThreshold)
	}
	if preWindowPct > mediumPctThreshold {
		return FlagMedium, fmt.Sprintf("%.1f%% of commits were made before the hackathon window (>%.0f%%).", preWindowPct, mediumPctThreshold)
	}
	if largestPreFiles > mediumFilesThreshold {
		return FlagMedium, fmt.Sprintf("Largest pre-window commit touched %d files (>%d).", largestPreFiles, mediumFilesThreshold)
	}
	return FlagLow, "Most commits were made during the hackathon window."
}
