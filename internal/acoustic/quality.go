package acoustic

import "math"

const qualityEpsilon = 1e-10

// Quality summarizes how clean a recording is. Score is in [0, 1];
// Compensation is the scoring slack granted to noisy recordings.
type Quality struct {
	SNR          float64
	Score        float64
	Compensation float64
}

// AssessQuality estimates recording quality from the raw samples and the
// spectral centroid track. The SNR term compares overall signal level to a
// noise-floor estimate taken from the quieter half of the waveform; the
// stability term rewards a steady spectral centroid.
func AssessQuality(samples []float64, features Features) Quality {
	q := Quality{SNR: signalToNoise(samples)}

	snrTerm := q.SNR / 60
	stabilityTerm := (1 / (stddev(features.Centroids()) + qualityEpsilon)) / 100

	q.Score = clamp01(0.6*snrTerm + 0.4*stabilityTerm)
	q.Compensation = compensationFor(q.Score)
	return q
}

func signalToNoise(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	m := mean(samples)

	var signal float64
	var noise float64
	var noiseCount int
	for _, s := range samples {
		signal += math.Abs(s)
		if s < m {
			noise += math.Abs(s)
			noiseCount++
		}
	}
	signal /= float64(len(samples))
	if noiseCount > 0 {
		noise /= float64(noiseCount)
	}
	return 20 * math.Log10(signal/(noise+qualityEpsilon))
}

// compensationFor maps a quality score to the bonus added to prosody
// component scores so poor recordings are not double-penalized.
func compensationFor(score float64) float64 {
	switch {
	case score < 0.5:
		return 2.0
	case score < 0.7:
		return 1.5
	case score < 0.9:
		return 1.0
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
