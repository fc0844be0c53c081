// Package prosody scores voice modulation and emphasis from the acoustic
// feature track of a recording.
package prosody

import (
	"fmt"
	"math"

	"github.com/rostrumhq/rostrum/internal/acoustic"
	"github.com/rostrumhq/rostrum/internal/evaluate"
)

const (
	subScoreFloor   = 5.0
	subScoreCeiling = 10.0

	// One emphasis segment roughly every four seconds is the target rate.
	idealEmphasisSpacing = 4.0
)

// PitchStats summarizes the voiced pitch track.
type PitchStats struct {
	Mean  float64
	Std   float64
	Range float64
}

// VolumeStats summarizes the intensity track.
type VolumeStats struct {
	Mean  float64
	Std   float64
	Range float64
}

// Analysis holds the prosodic measurements and the two component scores
// derived from them.
type Analysis struct {
	Pitch   PitchStats
	Volume  VolumeStats
	Quality acoustic.Quality

	// VoiceModulation is on the 0-20 scale, Emphasis on 0-10.
	VoiceModulation evaluate.ComponentScore
	Emphasis        evaluate.ComponentScore
}

// Analyze scores voice modulation and emphasis for a recording of the given
// duration in seconds. Quality compensation is applied to each sub-score
// before summing so noisy recordings are not penalized twice.
func Analyze(features acoustic.Features, emphasis acoustic.Emphasis, quality acoustic.Quality, duration float64) Analysis {
	a := Analysis{
		Pitch:   pitchStats(features),
		Volume:  volumeStats(features),
		Quality: quality,
	}

	pitchScore := scorePitch(a.Pitch)
	volumeScore := scoreVolume(a.Volume)
	emphasisScore := scoreEmphasis(emphasis, duration)

	pitchVol := compensate((pitchScore+volumeScore)/2, quality.Compensation)
	emphasisAdj := compensate(emphasisScore, quality.Compensation)

	a.VoiceModulation = evaluate.ComponentScore{
		Name:     evaluate.ComponentVoiceModulation,
		Value:    pitchVol + emphasisAdj,
		Scale:    20,
		Feedback: modulationFeedback(a.Pitch, a.Volume),
	}
	a.Emphasis = evaluate.ComponentScore{
		Name:     evaluate.ComponentEmphasis,
		Value:    emphasisAdj,
		Scale:    10,
		Feedback: emphasisFeedback(emphasis, duration),
	}
	return a
}

func pitchStats(features acoustic.Features) PitchStats {
	voiced := features.VoicedPitches()
	if len(voiced) == 0 {
		return PitchStats{}
	}
	lo, hi := voiced[0], voiced[0]
	for _, p := range voiced {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return PitchStats{Mean: mean(voiced), Std: stddev(voiced), Range: hi - lo}
}

func volumeStats(features acoustic.Features) VolumeStats {
	vals := features.Intensities()
	if len(vals) == 0 {
		return VolumeStats{}
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return VolumeStats{Mean: mean(vals), Std: stddev(vals), Range: hi - lo}
}

// scorePitch rewards expressive but controlled pitch variation.
func scorePitch(p PitchStats) float64 {
	score := 10.0

	switch {
	case p.Std < 8:
		score -= 5
	case p.Std < 15:
		score -= 3
	case p.Std > 60:
		score -= 4
	}

	if p.Range < 40 {
		score -= 3
	} else if p.Range > 250 {
		score -= 2
	}

	if p.Std >= 15 && p.Std <= 50 && p.Range >= 50 && p.Range <= 200 {
		score++
	}
	return clampSub(score)
}

// scoreVolume rewards steady volume with moderate dynamics.
func scoreVolume(v VolumeStats) float64 {
	score := 10.0

	if v.Std > 20 {
		score -= 2
	}
	if v.Range > 50 {
		score -= 2
	}
	if v.Std >= 10 && v.Std <= 18 {
		score++
	}
	return clampSub(score)
}

// scoreEmphasis rates how often and how evenly the speaker stressed words.
func scoreEmphasis(em acoustic.Emphasis, duration float64) float64 {
	score := 10.0
	if duration <= 0 {
		return clampSub(score)
	}

	ideal := duration / idealEmphasisSpacing
	ratio := float64(len(em.Segments)) / math.Max(ideal, 1)
	if ratio < 0.4 {
		score -= 3
	} else if ratio > 2.5 {
		score -= 2
	}

	if maxBucket := maxDistribution(em); maxBucket > float64(len(em.Segments))*0.6 {
		score -= 2
	}

	// Emphasized stretches should stand out from the baseline volume, but
	// not overwhelm it.
	if len(em.Segments) > 0 && em.MeanIntensity > 0 {
		var sum float64
		for _, seg := range em.Segments {
			sum += seg.MeanIntensity
		}
		avg := sum / float64(len(em.Segments))
		if avg < em.MeanIntensity*1.05 {
			score--
		} else if avg > em.MeanIntensity*1.6 {
			score--
		}
	}

	if ratio >= 0.4 && ratio <= 2.5 {
		score++
	}
	return clampSub(score)
}

func maxDistribution(em acoustic.Emphasis) float64 {
	if len(em.Segments) == 0 {
		return 0
	}
	top := 0
	for _, n := range em.Distribution {
		if n > top {
			top = n
		}
	}
	return float64(top)
}

func modulationFeedback(p PitchStats, v VolumeStats) []string {
	var fb []string
	switch {
	case p.Std < 8:
		fb = append(fb, "Delivery sounds monotone; vary your pitch to hold attention")
	case p.Std < 15:
		fb = append(fb, "Pitch variation is limited; add more vocal expression")
	case p.Std > 60:
		fb = append(fb, "Pitch shifts are erratic; aim for smoother intonation changes")
	}
	if v.Std > 20 || v.Range > 50 {
		fb = append(fb, "Volume fluctuates sharply; keep loudness steadier between stressed words")
	}
	if len(fb) == 0 {
		fb = append(fb, fmt.Sprintf("Good vocal variety (pitch range %.0f Hz)", p.Range))
	}
	return fb
}

func emphasisFeedback(em acoustic.Emphasis, duration float64) []string {
	if duration <= 0 {
		return nil
	}
	ratio := float64(len(em.Segments)) / math.Max(duration/idealEmphasisSpacing, 1)
	switch {
	case ratio < 0.4:
		return []string{"Few words stand out; stress the terms that carry your message"}
	case ratio > 2.5:
		return []string{"Nearly everything is stressed; save emphasis for key points"}
	default:
		return []string{"Emphasis is well placed across the talk"}
	}
}

func compensate(score, compensation float64) float64 {
	return math.Min(subScoreCeiling, score+compensation)
}

func clampSub(score float64) float64 {
	return math.Max(subScoreFloor, math.Min(subScoreCeiling, score))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
