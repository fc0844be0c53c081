package audio_test

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/rostrumhq/rostrum/pkg/audio"
)

// writeWAV encodes interleaved 16-bit samples into a WAV file and returns
// its path.
func writeWAV(t *testing.T, rate, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestRecording_DurationAndSeconds(t *testing.T) {
	t.Parallel()
	rec := audio.Recording{Samples: make([]float64, 8000), SampleRate: 16000}
	if rec.Seconds() != 0.5 {
		t.Errorf("Seconds = %v, want 0.5", rec.Seconds())
	}
	if rec.Duration() != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", rec.Duration())
	}
	if (audio.Recording{}).Seconds() != 0 {
		t.Error("zero recording should have zero length")
	}
}

func TestRecording_Float32(t *testing.T) {
	t.Parallel()
	rec := audio.Recording{Samples: []float64{0.25, -0.5, 1}, SampleRate: 16000}

	same := rec.Float32(16000)
	if len(same) != 3 || same[0] != 0.25 || same[1] != -0.5 {
		t.Errorf("Float32 at source rate = %v", same)
	}

	up := rec.Float32(32000)
	if len(up) != 6 {
		t.Errorf("upsampled length = %d, want 6", len(up))
	}
}

func TestResample(t *testing.T) {
	t.Parallel()
	src := []float64{0, 1, 0, -1, 0, 1, 0, -1}

	if got := audio.Resample(src, 16000, 16000); len(got) != len(src) {
		t.Errorf("identity resample changed length: %d", len(got))
	}
	down := audio.Resample(src, 48000, 16000)
	if len(down) != len(src)/3 {
		t.Errorf("downsampled length = %d, want %d", len(down), len(src)/3)
	}
	// Linear interpolation halfway between 0 and 1.
	mid := audio.Resample([]float64{0, 1}, 16000, 32000)
	if len(mid) != 4 || math.Abs(mid[1]-0.5) > 1e-9 {
		t.Errorf("interpolated = %v", mid)
	}
}

func TestLoadWAV_RoundTrip(t *testing.T) {
	t.Parallel()
	const rate = 16000
	data := make([]int, rate/10)
	for i := range data {
		data[i] = int(0.3 * 32767 * math.Sin(2*math.Pi*440*float64(i)/rate))
	}
	path := writeWAV(t, rate, 1, data)

	rec, err := audio.LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if rec.SampleRate != rate {
		t.Errorf("rate = %d, want %d", rec.SampleRate, rate)
	}
	if len(rec.Samples) != len(data) {
		t.Errorf("samples = %d, want %d", len(rec.Samples), len(data))
	}
	var peak float64
	for _, s := range rec.Samples {
		peak = math.Max(peak, math.Abs(s))
	}
	if peak < 0.25 || peak > 0.35 {
		t.Errorf("peak = %v, want about 0.3", peak)
	}
}

func TestLoadWAV_StereoIsDownmixed(t *testing.T) {
	t.Parallel()
	// Left channel at 0.25, right at 0.5; the mono mix averages to 0.375.
	const frames = 400
	data := make([]int, 2*frames)
	for i := 0; i < frames; i++ {
		data[2*i] = 8192
		data[2*i+1] = 16384
	}
	path := writeWAV(t, 16000, 2, data)

	rec, err := audio.LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if len(rec.Samples) != frames {
		t.Fatalf("samples = %d, want %d", len(rec.Samples), frames)
	}
	if math.Abs(rec.Samples[10]-0.375) > 1e-3 {
		t.Errorf("sample = %v, want 0.375", rec.Samples[10])
	}
}

func TestDecodeWAV_RejectsNonWAV(t *testing.T) {
	t.Parallel()
	_, err := audio.DecodeWAV(bytes.NewReader([]byte("certainly not a RIFF file")))
	if !errors.Is(err, audio.ErrNotWAV) {
		t.Fatalf("err = %v, want ErrNotWAV", err)
	}
}

func TestLoadWAV_MissingFile(t *testing.T) {
	t.Parallel()
	if _, err := audio.LoadWAV(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
