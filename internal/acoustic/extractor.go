// Package acoustic extracts framewise prosodic features from mono PCM audio:
// fundamental frequency, intensity, spectral centroid and zero-crossing rate.
// It also detects emphasis segments and estimates overall recording quality.
package acoustic

import (
	"errors"
	"math"
)

const (
	// FrameSize is the analysis window length in samples.
	FrameSize = 2048
	// HopSize is the analysis hop in samples.
	HopSize = 512

	// Pitch search band for adult speech.
	pitchFloorHz   = 75.0
	pitchCeilingHz = 400.0

	// Minimum normalized autocorrelation peak for a frame to count as voiced.
	voicingThreshold = 0.30

	// Frames quieter than this RMS are treated as silence for pitch purposes.
	silenceRMS = 1e-4
)

// ErrTooShort is returned when the recording holds fewer samples than one
// analysis frame.
var ErrTooShort = errors.New("acoustic: recording shorter than one analysis frame")

// Frame holds the features of a single analysis window.
type Frame struct {
	// Time is the offset of the frame start in seconds.
	Time float64
	// Pitch is the fundamental frequency in Hz, 0 for unvoiced frames.
	Pitch float64
	// Intensity is the frame energy in dB above the reference floor.
	Intensity float64
	// Centroid is the spectral centroid in Hz.
	Centroid float64
	// ZCR is the zero-crossing rate in crossings per sample.
	ZCR float64
}

// Features is the framewise feature track of a recording.
type Features struct {
	Frames     []Frame
	SampleRate int
}

// VoicedPitches returns the pitch values of all voiced frames.
func (f Features) VoicedPitches() []float64 {
	out := make([]float64, 0, len(f.Frames))
	for _, fr := range f.Frames {
		if fr.Pitch > 0 {
			out = append(out, fr.Pitch)
		}
	}
	return out
}

// Intensities returns the intensity track in frame order.
func (f Features) Intensities() []float64 {
	out := make([]float64, len(f.Frames))
	for i, fr := range f.Frames {
		out[i] = fr.Intensity
	}
	return out
}

// Centroids returns the spectral centroid track in frame order.
func (f Features) Centroids() []float64 {
	out := make([]float64, len(f.Frames))
	for i, fr := range f.Frames {
		out[i] = fr.Centroid
	}
	return out
}

// Extract computes the framewise feature track of a mono recording.
func Extract(samples []float64, sampleRate int) (Features, error) {
	if sampleRate <= 0 {
		return Features{}, errors.New("acoustic: sample rate must be positive")
	}
	if len(samples) < FrameSize {
		return Features{}, ErrTooShort
	}

	window := hannWindow(FrameSize)
	minLag := int(float64(sampleRate) / pitchCeilingHz)
	maxLag := int(float64(sampleRate) / pitchFloorHz)
	if maxLag >= FrameSize {
		maxLag = FrameSize - 1
	}

	frameCount := 1 + (len(samples)-FrameSize)/HopSize
	frames := make([]Frame, 0, frameCount)
	for i := 0; i+FrameSize <= len(samples); i += HopSize {
		chunk := samples[i : i+FrameSize]
		rms := rootMeanSquare(chunk)

		fr := Frame{
			Time:      float64(i) / float64(sampleRate),
			Intensity: amplitudeDB(rms),
			ZCR:       zeroCrossingRate(chunk),
		}
		if rms > silenceRMS {
			fr.Pitch = estimatePitch(chunk, sampleRate, minLag, maxLag)
		}
		mags := magnitudeSpectrum(chunk, window)
		fr.Centroid = spectralCentroid(mags, sampleRate)

		frames = append(frames, fr)
	}

	return Features{Frames: frames, SampleRate: sampleRate}, nil
}

// estimatePitch finds the fundamental frequency of a frame by picking the
// strongest normalized autocorrelation peak in the search band. Returns 0
// when no peak clears the voicing threshold.
func estimatePitch(frame []float64, sampleRate, minLag, maxLag int) float64 {
	var energy float64
	for _, s := range frame {
		energy += s * s
	}
	if energy == 0 {
		return 0
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(frame); i++ {
			corr += frame[i] * frame[i+lag]
		}
		corr /= energy
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr < voicingThreshold {
		return 0
	}
	return float64(sampleRate) / float64(bestLag)
}

// spectralCentroid is the magnitude-weighted mean frequency of a spectrum.
func spectralCentroid(mags []float64, sampleRate int) float64 {
	var weighted, total float64
	binHz := float64(sampleRate) / float64(FrameSize)
	for i, m := range mags {
		weighted += float64(i) * binHz * m
		total += m
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

func zeroCrossingRate(frame []float64) float64 {
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame))
}

func rootMeanSquare(frame []float64) float64 {
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// amplitudeDB converts a linear amplitude to dB above a 1e-5 hearing-floor
// reference, so typical speech lands in the 40-90 dB range.
func amplitudeDB(amp float64) float64 {
	if amp <= 1e-5 {
		return 0
	}
	return 20 * math.Log10(amp/1e-5)
}

// mean and stddev are shared by the detector and quality assessor.

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
