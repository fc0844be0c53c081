package fluency

import (
	"math"
	"strconv"
	"strings"
)

// baselineMinutes is the speech length the absolute count thresholds were
// calibrated against. Shorter expected durations scale the thresholds down
// proportionally; longer ones never scale them up.
const baselineMinutes = 7.0

// Baseline count thresholds at seven minutes.
const (
	baseFillerBurstModerate = 2
	baseFillerBurstHigh     = 4
	baseFillerBurstHeavy    = 6
	basePauseShort          = 3
	basePauseMedium         = 2
	basePauseLong           = 1
	basePauseTotal          = 8
)

// Thresholds holds the duration-adjusted absolute count thresholds used by
// the filler and pause scorers. Density breakpoints are never adjusted —
// a ratio is already duration-independent.
type Thresholds struct {
	// Scaling is the applied factor, min(expectedMinutes/7, 1).
	Scaling float64

	// FillerBurst* are the per-minute filler counts above which burst
	// penalties of 2, 3 and 4 points apply.
	FillerBurstModerate int
	FillerBurstHigh     int
	FillerBurstHeavy    int

	// Pause* are the mid-sentence pause counts per bucket above which the
	// pause penalties apply, and the total count above which the flat
	// 5-point penalty applies.
	PauseShort  int
	PauseMedium int
	PauseLong   int
	PauseTotal  int
}

// DefaultThresholds returns the unscaled seven-minute thresholds.
func DefaultThresholds() Thresholds {
	return scaledThresholds(1.0)
}

// ResolveThresholds parses an expected-duration string such as
// "5-7 minutes" and returns thresholds scaled by min(maxMinutes/7, 1).
// For a range the upper bound is used. A malformed or empty string falls
// back to the seven-minute defaults.
func ResolveThresholds(expectedDuration string) Thresholds {
	minutes, ok := parseMaxMinutes(expectedDuration)
	if !ok {
		return DefaultThresholds()
	}
	return scaledThresholds(math.Min(minutes/baselineMinutes, 1.0))
}

func scaledThresholds(scaling float64) Thresholds {
	scale := func(base int) int {
		return int(math.Round(float64(base) * scaling))
	}
	return Thresholds{
		Scaling:             scaling,
		FillerBurstModerate: scale(baseFillerBurstModerate),
		FillerBurstHigh:     scale(baseFillerBurstHigh),
		FillerBurstHeavy:    scale(baseFillerBurstHeavy),
		PauseShort:          scale(basePauseShort),
		PauseMedium:         scale(basePauseMedium),
		PauseLong:           scale(basePauseLong),
		PauseTotal:          scale(basePauseTotal),
	}
}

// parseMaxMinutes extracts the upper bound in minutes from strings like
// "5-7 minutes", "7 minutes" or "3—5 min".
func parseMaxMinutes(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "—", "-")))
	if s == "" {
		return 0, false
	}
	if i := strings.Index(s, "-"); i >= 0 {
		s = s[i+1:]
	}
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || minutes <= 0 {
		return 0, false
	}
	return minutes, true
}
