package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreNoCommits(t *testing.T) {
	flag, reason := Score(0, 0, 0)
	assert.Equal(t, FlagLow, flag)
	assert.Contains(t, reason, "No commits found")
}

func TestScorePercentageChecksWinOverFileChecks(t *testing.T) {
	// 60% pre-window beats any file-count consideration.
	flag, reason := Score(10, 60.0, 5)
	assert.Equal(t, FlagHigh, flag)
	assert.Contains(t, reason, "60.0%")
}

func TestScoreLargePreCommitIsHigh(t *testing.T) {
	// Exactly 20% does not trip the >20% rule, so the 21-file
	// pre-window commit decides.
	flag, reason := Score(5, 20.0, 21)
	assert.Equal(t, FlagHigh, flag)
	assert.Contains(t, reason, "21")
	assert.Contains(t, reason, "files")
}

func TestScoreMediumByPercentage(t *testing.T) {
	flag, reason := Score(4, 25.0, 0)
	assert.Equal(t, FlagMedium, flag)
	assert.Contains(t, reason, "25.0%")
}

func TestScoreMediumByFiles(t *testing.T) {
	flag, reason := Score(10, 10.0, 11)
	assert.Equal(t, FlagMedium, flag)
	assert.Contains(t, reason, "11")
}

func TestScoreLowDefault(t *testing.T) {
	flag, reason := Score(10, 0, 0)
	assert.Equal(t, FlagLow, flag)
	assert.Contains(t, reason, "during the hackathon window")
}

func TestScoreMonotonicInPreWindowPct(t *testing.T) {
	// With the file count held at <=10, rising pre-window share moves
	// the flag low -> medium -> high.
	low, _ := Score(100, 0, 10)
	medium, _ := Score(100, 25, 10)
	high, _ := Score(100, 60, 10)

	assert.Equal(t, FlagLow, low)
	assert.Equal(t, FlagMedium, medium)
	assert.Equal(t, FlagHigh, high)
}

func TestScoreThresholdBoundaries(t *testing.T) {
	// Thresholds are strict: exactly-at values do not escalate.
	flag, _ := Score(10, 50.0, 0)
	assert.Equal(t, FlagMedium, flag, "50%% is not >50%%")

	flag, _ = Score(10, 20.0, 0)
	assert.Equal(t, FlagLow, flag, "20%% is not >20%%")

	flag, _ = Score(10, 0, 20)
	assert.Equal(t, FlagMedium, flag, "20 files is not >20")

	flag, _ = Score(10, 0, 10)
	assert.Equal(t, FlagLow, flag, "10 files is not >10")
}
