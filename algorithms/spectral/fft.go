package spectral

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the go-dsp FFT so the rest of the analysis code stays independent
// of the underlying transform library.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the forward transform of a real signal.
// go-dsp handles non-power-of-2 sizes, so frames never need padding here.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// PowerSpectrum computes the one-sided power spectrum of a real frame.
// Bin i corresponds to frequency i * sampleRate / len(frame).
func (f *FFT) PowerSpectrum(frame []float64) []float64 {
	spectrum := f.Compute(frame)
	if len(spectrum) == 0 {
		return []float64{}
	}

	half := len(spectrum)/2 + 1
	power := make([]float64, half)
	for i := 0; i < half; i++ {
		re := real(spectrum[i])
		im := imag(spectrum[i])
		power[i] = re*re + im*im
	}
	return power
}

// Centroid computes the spectral centroid in Hz from a one-sided power
// spectrum. Returns 0 for an empty or all-zero spectrum.
func Centroid(power []float64, sampleRate, frameLen int) float64 {
	if len(power) == 0 || frameLen == 0 {
		return 0
	}

	binWidth := float64(sampleRate) / float64(frameLen)
	weighted := 0.0
	total := 0.0
	for i, p := range power {
		weighted += float64(i) * binWidth * p
		total += p
	}

	if total == 0 || math.IsNaN(total) {
		return 0
	}
	return weighted / total
}

// ZeroCrossingRate computes the fraction of adjacent sample pairs that change
// sign. High values indicate noisy/fricative content, low values voiced content.
func ZeroCrossingRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}

	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i] >= 0) != (frame[i-1] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame)-1)
}
