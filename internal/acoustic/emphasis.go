package acoustic

import "math"

const (
	// A frame-to-frame change counts as emphasis when it exceeds this many
	// standard deviations of the feature across the whole recording.
	emphasisSigma = 1.5

	// Points at most this many frames apart merge into one segment.
	emphasisMergeGap = 3

	// distributionBuckets splits the recording into quarters for the
	// temporal spread of emphasis.
	distributionBuckets = 4
)

// EmphasisPoint marks a frame whose pitch or intensity jumped sharply
// relative to the previous frame.
type EmphasisPoint struct {
	FrameIndex int
	Time       float64
	// ByPitch and ByIntensity record which feature triggered the point.
	ByPitch     bool
	ByIntensity bool
}

// EmphasisSegment is a run of nearby emphasis points.
type EmphasisSegment struct {
	Start float64
	End   float64
	// MeanIntensity is the mean frame intensity (dB) inside the segment.
	MeanIntensity float64
}

// Emphasis is the emphasis structure of a recording.
type Emphasis struct {
	Points   []EmphasisPoint
	Segments []EmphasisSegment
	// Distribution counts segments per quarter of the recording.
	Distribution [distributionBuckets]int
	// MeanIntensity is the mean intensity (dB) across all frames.
	MeanIntensity float64
}

// DetectEmphasis finds emphasis points and segments in a feature track.
// Pitch deltas are only considered between consecutive voiced frames.
func DetectEmphasis(features Features) Emphasis {
	frames := features.Frames
	if len(frames) < 2 {
		return Emphasis{}
	}

	pitchThreshold := emphasisSigma * stddev(features.VoicedPitches())
	intensityThreshold := emphasisSigma * stddev(features.Intensities())

	var points []EmphasisPoint
	for i := 1; i < len(frames); i++ {
		p := EmphasisPoint{FrameIndex: i, Time: frames[i].Time}
		if pitchThreshold > 0 && frames[i].Pitch > 0 && frames[i-1].Pitch > 0 {
			if math.Abs(frames[i].Pitch-frames[i-1].Pitch) > pitchThreshold {
				p.ByPitch = true
			}
		}
		if intensityThreshold > 0 {
			if math.Abs(frames[i].Intensity-frames[i-1].Intensity) > intensityThreshold {
				p.ByIntensity = true
			}
		}
		if p.ByPitch || p.ByIntensity {
			points = append(points, p)
		}
	}

	em := Emphasis{
		Points:        points,
		Segments:      groupSegments(points, frames),
		MeanIntensity: mean(features.Intensities()),
	}

	totalTime := frames[len(frames)-1].Time
	if totalTime > 0 {
		for _, seg := range em.Segments {
			bucket := int(seg.Start / totalTime * distributionBuckets)
			if bucket >= distributionBuckets {
				bucket = distributionBuckets - 1
			}
			em.Distribution[bucket]++
		}
	}
	return em
}

// groupSegments merges emphasis points separated by at most
// emphasisMergeGap frames into contiguous segments.
func groupSegments(points []EmphasisPoint, frames []Frame) []EmphasisSegment {
	if len(points) == 0 {
		return nil
	}

	var segments []EmphasisSegment
	runStart := 0
	for i := 1; i <= len(points); i++ {
		if i < len(points) && points[i].FrameIndex-points[i-1].FrameIndex <= emphasisMergeGap {
			continue
		}
		first := points[runStart].FrameIndex
		last := points[i-1].FrameIndex

		var sum float64
		for f := first; f <= last; f++ {
			sum += frames[f].Intensity
		}
		segments = append(segments, EmphasisSegment{
			Start:         frames[first].Time,
			End:           frames[last].Time,
			MeanIntensity: sum / float64(last-first+1),
		})
		runStart = i
	}
	return segments
}
