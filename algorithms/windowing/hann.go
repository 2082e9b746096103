package windowing

import "math"

// Hann generates a Hann window of the given size. The Hann window is the
// default analysis window for the extractor: good sidelobe suppression with
// moderate main-lobe width, appropriate for pitch and spectral estimation.
func Hann(size int) []float64 {
	window := make([]float64, size)
	if size == 1 {
		window[0] = 1.0
		return window
	}

	for i := range window {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}

// Apply multiplies a frame by a window in place and returns it.
// Panics are avoided by truncating to the shorter length.
func Apply(frame, window []float64) []float64 {
	n := len(frame)
	if len(window) < n {
		n = len(window)
	}
	for i := 0; i < n; i++ {
		frame[i] *= window[i]
	}
	return frame
}
