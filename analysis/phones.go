package analysis

import (
	"math"

	"github.com/kehngithub111/litalkon/algorithms/stats"
)

// Phone is a coarse acoustic-unit label. The inventory is deliberately small:
// the scorer only needs a stable notion of "same kind of sound", not a real
// phoneme transcription, and both sides of a comparison are always classified
// with the same prototypes.
type Phone string

const (
	PhoneSilence   Phone = "sil"
	PhoneVowel     Phone = "vow"
	PhoneNasal     Phone = "nas"
	PhoneGlide     Phone = "gli"
	PhonePlosive   Phone = "plo"
	PhoneFricative Phone = "fri"
)

// phoneFeatures is the normalized per-frame vector the classifier operates on:
// [energy, zero-crossing rate, spectral centroid, voicing, mfcc tilt]
type phoneFeatures struct {
	Energy   float64 // min(1, rms * 5)
	ZCR      float64 // 0..1
	Centroid float64 // centroid / nyquist
	Voiced   float64 // 1 or 0
	Tilt     float64 // tanh(c1 / 25), spectral tilt from the first MFCC
}

func (pf phoneFeatures) vector() []float64 {
	return []float64{pf.Energy, pf.ZCR, pf.Centroid, pf.Voiced, pf.Tilt}
}

// phonePrototype pairs a label with its expected feature vector
type phonePrototype struct {
	label  Phone
	vector []float64
}

// prototypes were tuned on 16 kHz speech frames. Values are constants rather
// than a trained model: classification must be byte-for-byte deterministic
// across runs and identical for reference and user extraction.
var prototypes = []phonePrototype{
	{PhoneSilence, []float64{0.05, 0.15, 0.15, 0, 0.0}},
	{PhoneVowel, []float64{0.85, 0.08, 0.12, 1, 0.6}},
	{PhoneNasal, []float64{0.50, 0.06, 0.07, 1, 0.75}},
	{PhoneGlide, []float64{0.65, 0.12, 0.20, 1, 0.45}},
	{PhonePlosive, []float64{0.35, 0.40, 0.45, 0, -0.2}},
	{PhoneFricative, []float64{0.50, 0.60, 0.60, 0, -0.5}},
}

// classifyPhone assigns the nearest prototype label. Confidence is the
// relative margin between the best and second-best match, so an ambiguous
// frame contributes less to the pronunciation score than a clear one.
func classifyPhone(pf phoneFeatures) (Phone, float64) {
	vec := pf.vector()

	best := 0
	bestDist := math.Inf(1)
	secondDist := math.Inf(1)

	for i, proto := range prototypes {
		dist := stats.EuclideanDistance(vec, proto.vector)
		if dist < bestDist {
			secondDist = bestDist
			bestDist = dist
			best = i
		} else if dist < secondDist {
			secondDist = dist
		}
	}

	confidence := 1.0
	if secondDist > 0 && !math.IsInf(secondDist, 1) {
		confidence = (secondDist - bestDist) / secondDist
	}
	if confidence < 0 {
		confidence = 0
	}

	return prototypes[best].label, confidence
}
