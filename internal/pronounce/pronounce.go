// Package pronounce scores pronunciation quality from spectral features of
// the recording: a bright, stable spectrum reads as clear enunciation and a
// healthy zero-crossing rate as distinct consonant articulation.
package pronounce

import (
	"github.com/rostrumhq/rostrum/internal/acoustic"
	"github.com/rostrumhq/rostrum/internal/evaluate"
)

const (
	// Spectral centroid (Hz) that maps to a full clarity score.
	clarityReferenceHz = 2000.0

	// Zero-crossing rate that maps to a full articulation score.
	articulationReferenceZCR = 0.1

	componentScale = 20.0
)

// Analysis holds the pronunciation sub-scores and rating.
type Analysis struct {
	Clarity      float64
	Articulation float64
	Rating       string

	Score evaluate.ComponentScore
}

// Analyze derives a pronunciation score from the mean spectral centroid and
// mean zero-crossing rate of the feature track.
func Analyze(features acoustic.Features) Analysis {
	var centroidSum, zcrSum float64
	for _, fr := range features.Frames {
		centroidSum += fr.Centroid
		zcrSum += fr.ZCR
	}

	var a Analysis
	if n := float64(len(features.Frames)); n > 0 {
		a.Clarity = capScale(centroidSum / n / clarityReferenceHz * componentScale)
		a.Articulation = capScale(zcrSum / n / articulationReferenceZCR * componentScale)
	}

	value := (a.Clarity + a.Articulation) / 2
	a.Rating = ratingFor(value)
	a.Score = evaluate.ComponentScore{
		Name:     evaluate.ComponentPronunciation,
		Value:    value,
		Scale:    componentScale,
		Feedback: feedback(a.Clarity, a.Articulation),
	}
	return a
}

// Fallback is the neutral analysis used when audio features are
// unavailable and only the transcript survived.
func Fallback() Analysis {
	return Analysis{
		Clarity:      10,
		Articulation: 10,
		Rating:       ratingFor(10),
		Score: evaluate.ComponentScore{
			Name:  evaluate.ComponentPronunciation,
			Value: 10,
			Scale: componentScale,
		},
	}
}

func ratingFor(score float64) string {
	switch {
	case score >= 16:
		return "Excellent"
	case score >= 12:
		return "Good"
	case score >= 8:
		return "Average"
	default:
		return "Needs Improvement"
	}
}

func feedback(clarity, articulation float64) []string {
	var fb []string
	if clarity < 10 {
		fb = append(fb, "Focus on clearer enunciation of words")
	} else if clarity > 15 {
		fb = append(fb, "Excellent speech clarity")
	}
	if articulation < 10 {
		fb = append(fb, "Work on articulating consonants more distinctly")
	} else if articulation > 15 {
		fb = append(fb, "Great articulation")
	}
	if len(fb) == 0 {
		fb = append(fb, "Good pronunciation overall")
	}
	return fb
}

func capScale(v float64) float64 {
	if v > componentScale {
		return componentScale
	}
	return v
}
