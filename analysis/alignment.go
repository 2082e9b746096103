package analysis

import (
	"math"

	"github.com/kehngithub111/litalkon/algorithms/stats"
	"github.com/kehngithub111/litalkon/algorithms/tonal"
)

// minAlignFrames is the shortest sequence worth aligning. Below this there
// is no pacing to warp and any score would be noise.
const minAlignFrames = 3

// AlignerConfig weights the terms of the local DTW cost
type AlignerConfig struct {
	PitchWeight  float64 `json:"pitch_weight"`  // octave distance on mutually voiced frames
	PhoneWeight  float64 `json:"phone_weight"`  // confidence-weighted label mismatch
	EnergyWeight float64 `json:"energy_weight"` // small envelope term, stabilizes boundaries
	// MaxPitchOctaves caps the pitch term so one octave-jump frame cannot
	// dominate the path search
	MaxPitchOctaves float64 `json:"max_pitch_octaves"`
	// BandFraction sizes the Sakoe-Chiba radius relative to the longer
	// sequence; the band is never narrower than MinBandFrames
	BandFraction  float64 `json:"band_fraction"`
	MinBandFrames int     `json:"min_band_frames"`
}

// DefaultAlignerConfig returns the tuned default cost weights
func DefaultAlignerConfig() AlignerConfig {
	return AlignerConfig{
		PitchWeight:     1.0,
		PhoneWeight:     1.0,
		EnergyWeight:    0.3,
		MaxPitchOctaves: 1.0,
		BandFraction:    0.15,
		MinBandFrames:   10,
	}
}

// Alignment is the monotonic, endpoint-pinned correspondence between a user
// FeatureSequence and a reference FeatureSequence, with the costs retained
// for scoring.
type Alignment struct {
	Path      []stats.AlignPoint `json:"path"`       // (user index, ref index) pairs
	TotalCost float64            `json:"total_cost"` // accumulated path cost
	Distance  float64            `json:"distance"`   // cost normalized by path length
	UserLen   int                `json:"user_len"`
	RefLen    int                `json:"ref_len"`
}

// Aligner time-aligns feature sequences with banded DTW
type Aligner struct {
	config AlignerConfig
}

// NewAligner creates an aligner with the given cost weights
func NewAligner(config AlignerConfig) *Aligner {
	return &Aligner{config: config}
}

// Align warps the user sequence onto the reference sequence. Fails with
// AlignmentError when either side is too short to align meaningfully.
func (a *Aligner) Align(ref, user *FeatureSequence) (*Alignment, error) {
	if len(ref.Frames) < minAlignFrames {
		return nil, &AlignmentError{Reason: "reference audio too short to align"}
	}
	if len(user.Frames) < minAlignFrames {
		return nil, &AlignmentError{Reason: "recording too short to align"}
	}

	n := len(user.Frames)
	m := len(ref.Frames)

	longer := n
	if m > longer {
		longer = m
	}
	radius := int(a.config.BandFraction * float64(longer))
	if radius < a.config.MinBandFrames {
		radius = a.config.MinBandFrames
	}

	dtw := stats.NewDTWWithBand(radius)
	result, err := dtw.Align(n, m, func(i, j int) float64 {
		return a.localCost(&user.Frames[i], &ref.Frames[j])
	})
	if err != nil {
		return nil, &AlignmentError{Reason: err.Error()}
	}

	return &Alignment{
		Path:      result.Path,
		TotalCost: result.TotalCost,
		Distance:  result.Distance,
		UserLen:   n,
		RefLen:    m,
	}, nil
}

// localCost combines pitch, phonetic-label and energy distance for one frame
// pair. The pitch term only applies when both frames are voiced: comparing a
// voiced frame against silence is a pronunciation problem, not a pitch one.
func (a *Aligner) localCost(user, ref *Frame) float64 {
	cost := 0.0

	if user.Voiced && ref.Voiced {
		oct := tonal.OctaveDistance(user.Pitch, ref.Pitch)
		cost += a.config.PitchWeight * math.Min(oct, a.config.MaxPitchOctaves) / a.config.MaxPitchOctaves
	}

	if user.Phone != ref.Phone {
		cost += a.config.PhoneWeight * (user.PhoneConf + ref.PhoneConf) / 2.0
	}

	cost += a.config.EnergyWeight * math.Abs(user.EnergyNorm-ref.EnergyNorm)

	return cost
}
