package tonal

import (
	"fmt"
	"math"
)

// YinDetector estimates the fundamental frequency of a single audio frame
// using the YIN algorithm.
//
// Reference:
//   - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency
//     estimator for speech and music"
//
// A frame without a difference-function minimum below the threshold is
// reported as unvoiced rather than forced to a frequency.
type YinDetector struct {
	params YinParams
}

// YinParams contains parameters for YIN pitch estimation
type YinParams struct {
	SampleRate int     `json:"sample_rate"`
	WindowSize int     `json:"window_size"`
	MinFreq    float64 `json:"min_freq"`  // Minimum frequency (Hz)
	MaxFreq    float64 `json:"max_freq"`  // Maximum frequency (Hz)
	Threshold  float64 `json:"threshold"` // YIN threshold (0.1-0.5)
}

// YinResult holds the pitch estimate for one frame
type YinResult struct {
	Pitch      float64 `json:"pitch"`      // Estimated F0 in Hz, 0 when unvoiced
	Confidence float64 `json:"confidence"` // 1 - cmndf at the chosen lag
	Voiced     bool    `json:"voiced"`
}

// NewYinDetector creates a detector with defaults covering speaking voices
func NewYinDetector(sampleRate, windowSize int) *YinDetector {
	return NewYinDetectorWithParams(YinParams{
		SampleRate: sampleRate,
		WindowSize: windowSize,
		MinFreq:    60.0,   // low male voice
		MaxFreq:    1000.0, // high female voice
		Threshold:  0.15,
	})
}

// NewYinDetectorWithParams creates a detector with custom parameters
func NewYinDetectorWithParams(params YinParams) *YinDetector {
	if params.Threshold <= 0 {
		params.Threshold = 0.15
	}
	if params.MinFreq <= 0 {
		params.MinFreq = 60.0
	}
	if params.MaxFreq <= params.MinFreq {
		params.MaxFreq = 1000.0
	}
	return &YinDetector{params: params}
}

// Detect estimates the pitch of one frame. The frame length must match the
// configured window size so lag bounds stay valid.
func (y *YinDetector) Detect(frame []float64) (*YinResult, error) {
	if len(frame) != y.params.WindowSize {
		return nil, fmt.Errorf("frame size (%d) doesn't match window size (%d)", len(frame), y.params.WindowSize)
	}

	halfN := len(frame) / 2

	// Difference function
	diff := make([]float64, halfN)
	for tau := 0; tau < halfN; tau++ {
		sum := 0.0
		for j := 0; j < halfN; j++ {
			delta := frame[j] - frame[j+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}

	// Cumulative mean normalized difference function
	cmndf := make([]float64, halfN)
	cmndf[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau < halfN; tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmndf[tau] = 1.0
			continue
		}
		cmndf[tau] = diff[tau] / (runningSum / float64(tau))
	}

	// Restrict the lag search to the configured frequency range
	minTau := int(float64(y.params.SampleRate) / y.params.MaxFreq)
	if minTau < 2 {
		minTau = 2
	}
	maxTau := int(float64(y.params.SampleRate) / y.params.MinFreq)
	if maxTau >= halfN {
		maxTau = halfN - 1
	}

	// First local minimum below threshold
	bestTau := -1
	for tau := minTau; tau < maxTau; tau++ {
		if cmndf[tau] < y.params.Threshold && cmndf[tau] <= cmndf[tau+1] {
			bestTau = tau
			break
		}
	}

	result := &YinResult{}
	if bestTau < 0 {
		return result, nil
	}

	period := parabolicInterpolation(cmndf, bestTau)
	if period <= 0 {
		return result, nil
	}

	frequency := float64(y.params.SampleRate) / period
	if frequency < y.params.MinFreq || frequency > y.params.MaxFreq {
		return result, nil
	}

	result.Pitch = frequency
	result.Confidence = 1.0 - cmndf[bestTau]
	result.Voiced = true
	return result, nil
}

// parabolicInterpolation refines the minimum location for sub-sample accuracy
func parabolicInterpolation(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	y1 := data[idx-1]
	y2 := data[idx]
	y3 := data[idx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2
	if a == 0 {
		return float64(idx)
	}

	return float64(idx) - b/(2*a)
}

// OctaveDistance returns the distance between two frequencies in octaves.
// Working in log2 space makes deviations symmetric between sharp and flat.
func OctaveDistance(f1, f2 float64) float64 {
	if f1 <= 0 || f2 <= 0 {
		return 0
	}
	return math.Abs(math.Log2(f1 / f2))
}
