package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kehngithub111/litalkon/algorithms/spectral"
	"github.com/kehngithub111/litalkon/algorithms/tonal"
	"github.com/kehngithub111/litalkon/algorithms/windowing"
	"github.com/kehngithub111/litalkon/logging"
	"github.com/kehngithub111/litalkon/transcode"
)

// FeatureParams fixes the framing and estimator settings for one deployment.
// Both sides of every comparison must be extracted with identical parameters;
// Version keys the reference-feature cache so a parameter change can never
// pair stale features with fresh ones.
type FeatureParams struct {
	SampleRate    int     `json:"sample_rate"`
	WindowMs      int     `json:"window_ms"` // analysis window, must exceed the hop
	HopMs         int     `json:"hop_ms"`
	MinPitch      float64 `json:"min_pitch"`
	MaxPitch      float64 `json:"max_pitch"`
	YinThreshold  float64 `json:"yin_threshold"`
	VoicingEnergy float64 `json:"voicing_energy"` // RMS floor below which frames are unvoiced
	EnergyFloor   float64 `json:"energy_floor"`   // floor for log-energy conversion
}

// DefaultFeatureParams returns the deployment defaults: 25 ms window, 10 ms hop
func DefaultFeatureParams() FeatureParams {
	return FeatureParams{
		SampleRate:    16000,
		WindowMs:      25,
		HopMs:         10,
		MinPitch:      60.0,
		MaxPitch:      1000.0,
		YinThreshold:  0.15,
		VoicingEnergy: 0.01,
		EnergyFloor:   1e-5,
	}
}

// Version is a stable identifier of the parameter set, used as part of
// cache keys.
func (p FeatureParams) Version() string {
	return fmt.Sprintf("v1:%d:%d:%d:%.0f-%.0f:%.2f:%.3f",
		p.SampleRate, p.WindowMs, p.HopMs, p.MinPitch, p.MaxPitch, p.YinThreshold, p.VoicingEnergy)
}

// Frame holds the features of one analysis window
type Frame struct {
	Time       time.Duration `json:"time"`
	Pitch      float64       `json:"pitch"` // Hz, meaningful only when Voiced
	Voiced     bool          `json:"voiced"`
	PitchConf  float64       `json:"pitch_conf"`
	Energy     float64       `json:"energy"`      // log-RMS in dB
	EnergyNorm float64       `json:"energy_norm"` // 0..1, used by alignment cost
	Phone      Phone         `json:"phone"`
	PhoneConf  float64       `json:"phone_conf"`
}

// FeatureSequence is the ordered frame sequence extracted from one signal.
// Owned exclusively by the pipeline invocation that produced it (or by the
// reference cache, where it is treated as immutable).
type FeatureSequence struct {
	Frames        []Frame       `json:"frames"`
	ParamsVersion string        `json:"params_version"`
	Duration      time.Duration `json:"duration"`
}

// VoicedCount returns the number of voiced frames
func (fs *FeatureSequence) VoicedCount() int {
	count := 0
	for _, f := range fs.Frames {
		if f.Voiced {
			count++
		}
	}
	return count
}

// Extractor computes FeatureSequences from normalized audio. It keeps no
// per-request state: the same extractor serves concurrent pipelines.
type Extractor struct {
	params FeatureParams
}

// NewExtractor creates a feature extractor
func NewExtractor(params FeatureParams) *Extractor {
	return &Extractor{params: params}
}

// Params returns the extraction parameters
func (e *Extractor) Params() FeatureParams {
	return e.params
}

// Extract computes the per-frame pitch track, energy envelope and coarse
// phonetic labels for a signal. Extraction is total over any valid signal:
// silence yields an all-unvoiced sequence, never an error. The context is
// checked between frames so an aborted request stops paying for extraction.
func (e *Extractor) Extract(ctx context.Context, signal *transcode.AudioSignal) (*FeatureSequence, error) {
	if signal.SampleRate != e.params.SampleRate {
		return nil, fmt.Errorf("signal sample rate %d does not match extractor rate %d",
			signal.SampleRate, e.params.SampleRate)
	}

	windowSize := e.params.SampleRate * e.params.WindowMs / 1000
	hopSize := e.params.SampleRate * e.params.HopMs / 1000

	seq := &FeatureSequence{
		ParamsVersion: e.params.Version(),
		Duration:      signal.Duration,
	}

	if len(signal.Samples) < windowSize {
		return seq, nil
	}

	yin := tonal.NewYinDetectorWithParams(tonal.YinParams{
		SampleRate: e.params.SampleRate,
		WindowSize: windowSize,
		MinFreq:    e.params.MinPitch,
		MaxFreq:    e.params.MaxPitch,
		Threshold:  e.params.YinThreshold,
	})
	mfcc := spectral.NewMFCC(e.params.SampleRate)
	fft := spectral.NewFFT()
	hann := windowing.Hann(windowSize)

	numFrames := (len(signal.Samples)-windowSize)/hopSize + 1
	seq.Frames = make([]Frame, 0, numFrames)

	windowed := make([]float64, windowSize)

	for i := 0; i < numFrames; i++ {
		// Extraction is CPU-bound; honor cancellation between frames
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := i * hopSize
		raw := signal.Samples[start : start+windowSize]

		frame := Frame{
			Time: time.Duration(start) * time.Second / time.Duration(e.params.SampleRate),
		}

		// RMS on the unwindowed frame so energy is comparable across frames
		rms := frameRMS(raw)
		frame.Energy = 20.0 * math.Log10(math.Max(rms, e.params.EnergyFloor))
		frame.EnergyNorm = math.Min(1.0, rms*5.0)

		// Pitch: frames below the energy floor are unvoiced outright;
		// otherwise YIN decides. Unvoiced frames keep Pitch at 0 but are
		// marked, never scored as "0 Hz".
		if rms >= e.params.VoicingEnergy {
			pitch, err := yin.Detect(raw)
			if err != nil {
				return nil, err
			}
			frame.Pitch = pitch.Pitch
			frame.Voiced = pitch.Voiced
			frame.PitchConf = pitch.Confidence
		}

		// Spectral shape on the windowed frame
		copy(windowed, raw)
		windowing.Apply(windowed, hann)

		power := fft.PowerSpectrum(windowed)
		centroid := spectral.Centroid(power, e.params.SampleRate, windowSize)
		zcr := spectral.ZeroCrossingRate(raw)

		coeffs, err := mfcc.Compute(windowed)
		if err != nil {
			return nil, err
		}
		tilt := 0.0
		if len(coeffs) > 1 {
			tilt = math.Tanh(coeffs[1] / 25.0)
		}

		voicedFlag := 0.0
		if frame.Voiced {
			voicedFlag = 1.0
		}

		frame.Phone, frame.PhoneConf = classifyPhone(phoneFeatures{
			Energy:   frame.EnergyNorm,
			ZCR:      zcr,
			Centroid: centroid / (float64(e.params.SampleRate) / 2.0),
			Voiced:   voicedFlag,
			Tilt:     tilt,
		})

		seq.Frames = append(seq.Frames, frame)
	}

	logging.FromContext(ctx).Debug("Feature extraction completed", logging.Fields{
		"component":     "feature_extractor",
		"frames":        len(seq.Frames),
		"voiced_frames": seq.VoicedCount(),
		"duration":      signal.Duration.Seconds(),
	})

	return seq, nil
}

func frameRMS(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}
