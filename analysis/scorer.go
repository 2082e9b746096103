package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kehngithub111/litalkon/algorithms/tonal"
)

// NeutralScore is returned for a dimension when the inputs carry too little
// signal to judge it (for example an all-unvoiced reference). Degenerate
// numeric cases are not errors: the pipeline always completes once alignment
// succeeded.
const NeutralScore = 0.5

const insufficientSignalFeedback = "Not enough voiced signal to judge this dimension. Try recording in a quieter place and speaking clearly."

// ScoreWeights are the fixed weights of the overall similarity score.
// They must sum to 1.
type ScoreWeights struct {
	Pitch         float64 `json:"pitch"`
	Rhythm        float64 `json:"rhythm"`
	Pronunciation float64 `json:"pronunciation"`
}

// ScorerConfig holds the scoring constants
type ScorerConfig struct {
	Weights ScoreWeights `json:"weights"`
	// MaxPitchOctaves is the mean octave deviation that maps to a pitch
	// score of 0
	MaxPitchOctaves float64 `json:"max_pitch_octaves"`
	// RhythmSensitivity scales the path's diagonal deviation before it is
	// subtracted from 1; higher values punish pacing differences harder
	RhythmSensitivity float64 `json:"rhythm_sensitivity"`
	// Buckets are the feedback boundaries: below Low, Low..High, above High
	BucketLow  float64 `json:"bucket_low"`
	BucketHigh float64 `json:"bucket_high"`
}

// DefaultScorerConfig returns the documented default scoring constants.
// Pronunciation carries the largest weight: it is the dimension learners
// ask about first.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		Weights: ScoreWeights{
			Pitch:         0.35,
			Rhythm:        0.25,
			Pronunciation: 0.40,
		},
		MaxPitchOctaves:   0.5,
		RhythmSensitivity: 4.0,
		BucketLow:         0.6,
		BucketHigh:        0.8,
	}
}

// feedback templates per dimension, indexed low/mid/high bucket
var pitchFeedback = [3]string{
	"Your intonation drifts a long way from the original. Listen again and follow the rise and fall of the speaker's voice.",
	"Your intonation is close in places. Focus on matching the melody of the sentence, especially at its ends.",
	"Excellent pitch control - your intonation closely follows the original.",
}

var rhythmFeedback = [3]string{
	"Your timing differs a lot from the original. Try speaking along with the clip to internalize its pace.",
	"Your pacing is mostly right but uneven in places. Watch for pauses and stressed syllables.",
	"Great rhythm - your pacing matches the original almost exactly.",
}

var pronunciationFeedback = [3]string{
	"Many sounds differ from the original. Slow down and exaggerate each syllable before returning to full speed.",
	"Most sounds match. Pick out the words that feel awkward and drill them separately.",
	"Very clear pronunciation - your sounds closely match the original.",
}

var overallFeedback = [3]string{
	"Keep practicing - repeat the clip a few times and try again.",
	"Good attempt. Work on the weakest dimension below and your score will climb quickly.",
	"Impressive match. You sound very close to the original speaker.",
}

// Scorer converts an alignment and its feature sequences into a Result.
// Score is deterministic and total: any aligned input produces a Result.
type Scorer struct {
	config ScorerConfig
}

// NewScorer creates a scorer
func NewScorer(config ScorerConfig) *Scorer {
	return &Scorer{config: config}
}

// Score computes the three sub-scores and the weighted overall score.
// The returned Result has empty clip ids; the pipeline fills them in.
func (s *Scorer) Score(alignment *Alignment, ref, user *FeatureSequence) *Result {
	pitchScore, pitchOK := s.pitchScore(alignment, ref, user)
	rhythmScore := s.rhythmScore(alignment)
	pronScore, pronOK := s.pronunciationScore(alignment, ref, user)

	overall := clamp01(s.config.Weights.Pitch*pitchScore +
		s.config.Weights.Rhythm*rhythmScore +
		s.config.Weights.Pronunciation*pronScore)

	result := &Result{
		SimilarityScore: overall,
		Feedback:        s.bucketText(overall, overallFeedback),
		AnalysisDetails: Details{
			Pitch:         DimensionScore{Score: pitchScore, Feedback: s.bucketText(pitchScore, pitchFeedback)},
			Rhythm:        DimensionScore{Score: rhythmScore, Feedback: s.bucketText(rhythmScore, rhythmFeedback)},
			Pronunciation: DimensionScore{Score: pronScore, Feedback: s.bucketText(pronScore, pronunciationFeedback)},
		},
	}

	if !pitchOK {
		result.AnalysisDetails.Pitch.Feedback = insufficientSignalFeedback
	}
	if !pronOK {
		result.AnalysisDetails.Pronunciation.Feedback = insufficientSignalFeedback
	}

	return result
}

// pitchScore averages octave deviation over aligned pairs where both frames
// are voiced. Pairs with an unvoiced side are excluded, not zero-penalized:
// silence mismatches belong to pronunciation, and counting them here would
// let an unvoiced tail dominate the average. The bool reports whether enough
// voiced overlap existed to score at all.
func (s *Scorer) pitchScore(alignment *Alignment, ref, user *FeatureSequence) (float64, bool) {
	deviations := make([]float64, 0, len(alignment.Path))

	for _, p := range alignment.Path {
		uf := &user.Frames[p.QueryIndex]
		rf := &ref.Frames[p.RefIndex]
		if uf.Voiced && rf.Voiced {
			deviations = append(deviations, tonal.OctaveDistance(uf.Pitch, rf.Pitch))
		}
	}

	if len(deviations) == 0 {
		return NeutralScore, false
	}

	mean := stat.Mean(deviations, nil)
	if math.IsNaN(mean) {
		return NeutralScore, false
	}

	return clamp01(1.0 - mean/s.config.MaxPitchOctaves), true
}

// rhythmScore measures how far the warping path strays from the identity
// diagonal in normalized time. Pacing is judged independently of pitch and
// content: a perfectly diagonal path scores 1 regardless of what was said.
func (s *Scorer) rhythmScore(alignment *Alignment) float64 {
	if len(alignment.Path) == 0 {
		return NeutralScore
	}

	lastUser := float64(alignment.UserLen - 1)
	lastRef := float64(alignment.RefLen - 1)
	if lastUser <= 0 || lastRef <= 0 {
		return NeutralScore
	}

	deviations := make([]float64, len(alignment.Path))
	for i, p := range alignment.Path {
		deviations[i] = math.Abs(float64(p.QueryIndex)/lastUser - float64(p.RefIndex)/lastRef)
	}

	mean := stat.Mean(deviations, nil)
	if math.IsNaN(mean) {
		return NeutralScore
	}

	return clamp01(1.0 - mean*s.config.RhythmSensitivity)
}

// pronunciationScore is 1 minus the confidence-weighted label mismatch rate
// over aligned pairs. Low-confidence frames contribute proportionally less,
// so ambiguous acoustics do not read as pronunciation mistakes.
func (s *Scorer) pronunciationScore(alignment *Alignment, ref, user *FeatureSequence) (float64, bool) {
	mismatch := 0.0
	totalWeight := 0.0

	for _, p := range alignment.Path {
		uf := &user.Frames[p.QueryIndex]
		rf := &ref.Frames[p.RefIndex]

		weight := (uf.PhoneConf + rf.PhoneConf) / 2.0
		totalWeight += weight
		if uf.Phone != rf.Phone {
			mismatch += weight
		}
	}

	if totalWeight == 0 {
		return NeutralScore, false
	}

	rate := mismatch / totalWeight
	if math.IsNaN(rate) {
		return NeutralScore, false
	}

	return clamp01(1.0 - rate), true
}

// bucketText selects the feedback template for a score
func (s *Scorer) bucketText(score float64, templates [3]string) string {
	switch {
	case score < s.config.BucketLow:
		return templates[0]
	case score < s.config.BucketHigh:
		return templates[1]
	default:
		return templates[2]
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return NeutralScore
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
