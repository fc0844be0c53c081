package acoustic

import "math"

// fft computes an in-place iterative radix-2 FFT over re/im. len(re) must be
// a power of two and equal to len(im).
func fft(re, im []float64) {
	n := len(re)
	if n < 2 {
		return
	}

	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	// Butterflies.
	for length := 2; length <= n; length <<= 1 {
		angle := -2 * math.Pi / float64(length)
		wRe, wIm := math.Cos(angle), math.Sin(angle)
		for start := 0; start < n; start += length {
			curRe, curIm := 1.0, 0.0
			for k := range length / 2 {
				evenRe, evenIm := re[start+k], im[start+k]
				oddRe := re[start+k+length/2]*curRe - im[start+k+length/2]*curIm
				oddIm := re[start+k+length/2]*curIm + im[start+k+length/2]*curRe

				re[start+k], im[start+k] = evenRe+oddRe, evenIm+oddIm
				re[start+k+length/2], im[start+k+length/2] = evenRe-oddRe, evenIm-oddIm

				curRe, curIm = curRe*wRe-curIm*wIm, curRe*wIm+curIm*wRe
			}
		}
	}
}

// hannWindow returns the length-n Hann window.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// magnitudeSpectrum computes the single-sided magnitude spectrum of a
// windowed frame. The returned slice has len(frame)/2+1 bins.
func magnitudeSpectrum(frame, window []float64) []float64 {
	n := len(frame)
	re := make([]float64, n)
	im := make([]float64, n)
	for i, s := range frame {
		re[i] = s * window[i]
	}
	fft(re, im)

	mags := make([]float64, n/2+1)
	for i := range mags {
		mags[i] = math.Hypot(re[i], im[i])
	}
	return mags
}
