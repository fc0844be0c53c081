// Package audio loads recorded speech from WAV files and converts it into
// the mono sample representations the analyzers consume.
//
// Two representations are used downstream: float64 samples for feature
// extraction (pitch, intensity, spectral statistics) and float32 samples at
// 16 kHz for whisper.cpp. Both are derived once per recording and passed as
// read-only views; no analyzer mutates them.
package audio

import "time"

// Recording holds the decoded audio of one speech performance.
type Recording struct {
	// Samples is the mono signal, one float64 per sample in [-1, 1].
	Samples []float64

	// SampleRate in Hz as stored in the source file.
	SampleRate int
}

// Duration returns the recording length.
func (r Recording) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(r.Samples)) / float64(r.SampleRate) * float64(time.Second))
}

// Seconds returns the recording length in seconds.
func (r Recording) Seconds() float64 {
	if r.SampleRate <= 0 {
		return 0
	}
	return float64(len(r.Samples)) / float64(r.SampleRate)
}

// Float32 converts the samples to float32, resampling to dstRate when it
// differs from the recording's rate. Used to feed speech recognition, which
// expects 16 kHz mono float32.
func (r Recording) Float32(dstRate int) []float32 {
	src := r.Samples
	if dstRate > 0 && dstRate != r.SampleRate {
		src = Resample(src, r.SampleRate, dstRate)
	}
	out := make([]float32, len(src))
	for i, s := range src {
		out[i] = float32(s)
	}
	return out
}

// Resample converts mono samples from srcRate to dstRate using linear
// interpolation. If the rates match, the input is returned unchanged.
func Resample(samples []float64, srcRate, dstRate int) []float64 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(samples) < 2 {
		return samples
	}
	dstLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if dstLen == 0 {
		return nil
	}

	out := make([]float64, dstLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range out {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := samples[srcIdx]
		s1 := s0
		if srcIdx+1 < len(samples) {
			s1 = samples[srcIdx+1]
		}
		out[i] = s0*(1-frac) + s1*frac
	}
	return out
}

// downmix averages interleaved multi-channel samples into mono.
func downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := range out {
		var sum float64
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}
