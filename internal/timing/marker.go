package timing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// markerPattern matches inline pause markers such as "[2.3 second pause]".
// Whole-second durations may appear without a decimal part.
var markerPattern = regexp.MustCompile(`\[([\d.]+) second pause\]`)

// Marker renders the inline pause marker for a duration in seconds.
func Marker(seconds float64) string {
	return fmt.Sprintf("[%.1f second pause]", seconds)
}

// StripMarkers removes all pause markers from text and normalises the
// remaining whitespace. Stripping the output of Normalize yields the plain
// transcript words.
func StripMarkers(text string) string {
	return normalizeSpace(markerPattern.ReplaceAllString(text, " "))
}

// Markers parses all pause markers present in text, returning their
// durations in order of appearance. Malformed durations are skipped.
func Markers(text string) []float64 {
	var out []float64
	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		d, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}
