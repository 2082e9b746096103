package temporal

import "math"

// Energy computes short-time energy features over overlapping frames.
// The RMS envelope is the raw input for silence trimming and the rhythm signal.
type Energy struct {
	frameSize int
	hopSize   int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize int) *Energy {
	return &Energy{
		frameSize: frameSize,
		hopSize:   hopSize,
	}
}

// ComputeRMS calculates the per-frame RMS energy envelope
func (e *Energy) ComputeRMS(signal []float64) []float64 {
	if len(signal) < e.frameSize || e.hopSize <= 0 || e.frameSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-e.frameSize)/e.hopSize + 1
	energies := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		start := i * e.hopSize
		end := start + e.frameSize

		sumSquares := 0.0
		for j := start; j < end; j++ {
			sumSquares += signal[j] * signal[j]
		}
		energies[i] = math.Sqrt(sumSquares / float64(e.frameSize))
	}

	return energies
}

// LogRMS converts an RMS value to dB with a floor to keep silence finite
func LogRMS(rms, floor float64) float64 {
	if rms < floor {
		rms = floor
	}
	return 20.0 * math.Log10(rms)
}
