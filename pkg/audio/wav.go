package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/wav"
)

// ErrNotWAV is returned when the source is not a valid RIFF/WAVE file.
var ErrNotWAV = errors.New("audio: not a valid WAV file")

// LoadWAV opens and decodes a WAV file into a mono Recording. Multi-channel
// files are downmixed by averaging. The whole file is decoded up front;
// speech practice recordings are short enough that streaming decode is not
// worth the complexity.
func LoadWAV(path string) (Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return Recording{}, fmt.Errorf("audio: open %q: %w", path, err)
	}
	defer f.Close()

	rec, err := DecodeWAV(f)
	if err != nil {
		return Recording{}, fmt.Errorf("audio: decode %q: %w", path, err)
	}
	return rec, nil
}

// DecodeWAV decodes WAV data from rs into a mono Recording.
func DecodeWAV(rs io.ReadSeeker) (Recording, error) {
	d := wav.NewDecoder(rs)
	if !d.IsValidFile() {
		return Recording{}, ErrNotWAV
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Recording{}, fmt.Errorf("read pcm: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return Recording{}, errors.New("empty pcm data")
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}

	// Scale integer samples to [-1, 1] by the source bit depth.
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := math.Pow(2, float64(bitDepth-1))

	interleaved := make([]float64, len(buf.Data))
	for i, s := range buf.Data {
		interleaved[i] = float64(s) / scale
	}

	return Recording{
		Samples:    downmix(interleaved, channels),
		SampleRate: buf.Format.SampleRate,
	}, nil
}
