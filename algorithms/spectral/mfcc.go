package spectral

import (
	"fmt"
	"math"
)

// MFCC computes Mel-Frequency Cepstral Coefficients for a single frame.
// The coefficients summarize the spectral envelope and drive the coarse
// phonetic-unit classification.
type MFCC struct {
	numCoefficients int
	numMelFilters   int
	sampleRate      int
	lowFreq         float64
	highFreq        float64

	fft        *FFT
	filterBank [][]float64 // built lazily per frame length
	frameLen   int
}

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	NumCoefficients int     `json:"num_coefficients"` // Number of coefficients (default: 13)
	NumMelFilters   int     `json:"num_mel_filters"`  // Number of mel filters (default: 26)
	LowFreq         float64 `json:"low_freq"`         // Low frequency bound (default: 0)
	HighFreq        float64 `json:"high_freq"`        // High frequency bound (default: sampleRate/2)
}

// NewMFCC creates an MFCC computer with default parameters
func NewMFCC(sampleRate int) *MFCC {
	return NewMFCCWithParams(sampleRate, MFCCParams{})
}

// NewMFCCWithParams creates an MFCC computer with custom parameters
func NewMFCCWithParams(sampleRate int, params MFCCParams) *MFCC {
	if params.NumCoefficients <= 0 {
		params.NumCoefficients = 13
	}
	if params.NumMelFilters <= 0 {
		params.NumMelFilters = 26
	}
	if params.HighFreq <= 0 {
		params.HighFreq = float64(sampleRate) / 2.0
	}

	return &MFCC{
		numCoefficients: params.NumCoefficients,
		numMelFilters:   params.NumMelFilters,
		sampleRate:      sampleRate,
		lowFreq:         params.LowFreq,
		highFreq:        params.HighFreq,
		fft:             NewFFT(),
	}
}

// hzToMel converts frequency in Hz to the mel scale
func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// melToHz converts mel-scale frequency back to Hz
func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// buildFilterBank constructs triangular mel filters for the given frame length
func (m *MFCC) buildFilterBank(frameLen int) [][]float64 {
	numBins := frameLen/2 + 1

	lowMel := hzToMel(m.lowFreq)
	highMel := hzToMel(m.highFreq)

	// Filter edge frequencies, evenly spaced on the mel scale
	melPoints := make([]float64, m.numMelFilters+2)
	for i := range melPoints {
		melPoints[i] = lowMel + (highMel-lowMel)*float64(i)/float64(m.numMelFilters+1)
	}

	binPoints := make([]int, len(melPoints))
	for i, mel := range melPoints {
		hz := melToHz(mel)
		binPoints[i] = int(math.Floor((float64(frameLen) + 1) * hz / float64(m.sampleRate)))
		if binPoints[i] >= numBins {
			binPoints[i] = numBins - 1
		}
	}

	bank := make([][]float64, m.numMelFilters)
	for f := 0; f < m.numMelFilters; f++ {
		filter := make([]float64, numBins)
		left, center, right := binPoints[f], binPoints[f+1], binPoints[f+2]

		for b := left; b < center; b++ {
			if center > left {
				filter[b] = float64(b-left) / float64(center-left)
			}
		}
		for b := center; b <= right && b < numBins; b++ {
			if right > center {
				filter[b] = float64(right-b) / float64(right-center)
			}
		}
		bank[f] = filter
	}

	return bank
}

// Compute computes MFCC coefficients for one audio frame
func (m *MFCC) Compute(frame []float64) ([]float64, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("empty frame")
	}

	if m.filterBank == nil || m.frameLen != len(frame) {
		m.filterBank = m.buildFilterBank(len(frame))
		m.frameLen = len(frame)
	}

	power := m.fft.PowerSpectrum(frame)

	// Apply mel filter bank and take log energies
	melEnergies := make([]float64, m.numMelFilters)
	for f, filter := range m.filterBank {
		sum := 0.0
		for b, w := range filter {
			if b < len(power) {
				sum += w * power[b]
			}
		}
		melEnergies[f] = math.Log(sum + 1e-10)
	}

	// DCT-II to decorrelate the log mel energies
	coeffs := make([]float64, m.numCoefficients)
	n := float64(m.numMelFilters)
	for c := 0; c < m.numCoefficients; c++ {
		sum := 0.0
		for f, e := range melEnergies {
			sum += e * math.Cos(math.Pi*float64(c)*(float64(f)+0.5)/n)
		}
		coeffs[c] = sum * math.Sqrt(2.0/n)
	}

	return coeffs, nil
}
