package analysis

import (
	"errors"
	"testing"
	"time"
)

// voicedSeq builds a fully voiced sequence from a pitch contour, one frame
// per value
func voicedSeq(pitches ...float64) *FeatureSequence {
	frames := make([]Frame, len(pitches))
	for i, p := range pitches {
		frames[i] = Frame{
			Time:       time.Duration(i) * 10 * time.Millisecond,
			Pitch:      p,
			Voiced:     true,
			PitchConf:  0.9,
			EnergyNorm: 0.8,
			Phone:      PhoneVowel,
			PhoneConf:  0.9,
		}
	}
	return &FeatureSequence{
		Frames:        frames,
		ParamsVersion: DefaultFeatureParams().Version(),
		Duration:      time.Duration(len(pitches)) * 10 * time.Millisecond,
	}
}

func TestAlign_TooShortRejected(t *testing.T) {
	aligner := NewAligner(DefaultAlignerConfig())
	long := voicedSeq(200, 210, 220, 230, 240)
	short := voicedSeq(200, 210)

	var alignErr *AlignmentError
	if _, err := aligner.Align(short, long); !errors.As(err, &alignErr) {
		t.Errorf("short reference: got %v, want AlignmentError", err)
	}
	if _, err := aligner.Align(long, short); !errors.As(err, &alignErr) {
		t.Errorf("short user: got %v, want AlignmentError", err)
	}
}

func TestAlign_IdenticalSequencesZeroCost(t *testing.T) {
	seq := voicedSeq(200, 220, 240, 260, 240, 220, 200)

	alignment, err := NewAligner(DefaultAlignerConfig()).Align(seq, seq)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	if alignment.TotalCost != 0 {
		t.Errorf("identical sequences aligned at cost %f, want 0", alignment.TotalCost)
	}
	if len(alignment.Path) != len(seq.Frames) {
		t.Errorf("expected diagonal path of %d steps, got %d", len(seq.Frames), len(alignment.Path))
	}
}

func TestAlign_PathPinnedAndMonotonic(t *testing.T) {
	ref := voicedSeq(200, 220, 240, 260, 240, 220, 200, 190)
	user := voicedSeq(205, 215, 245, 255, 235, 210)

	alignment, err := NewAligner(DefaultAlignerConfig()).Align(ref, user)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	first := alignment.Path[0]
	last := alignment.Path[len(alignment.Path)-1]
	if first.QueryIndex != 0 || first.RefIndex != 0 {
		t.Errorf("path start = (%d,%d), want (0,0)", first.QueryIndex, first.RefIndex)
	}
	if last.QueryIndex != len(user.Frames)-1 || last.RefIndex != len(ref.Frames)-1 {
		t.Errorf("path end = (%d,%d), want (%d,%d)",
			last.QueryIndex, last.RefIndex, len(user.Frames)-1, len(ref.Frames)-1)
	}

	for k := 1; k < len(alignment.Path); k++ {
		if alignment.Path[k].QueryIndex < alignment.Path[k-1].QueryIndex ||
			alignment.Path[k].RefIndex < alignment.Path[k-1].RefIndex {
			t.Fatalf("path regressed at step %d", k)
		}
	}
}

func TestAlign_PitchTermOnlyOnMutuallyVoicedFrames(t *testing.T) {
	aligner := NewAligner(DefaultAlignerConfig())

	voiced := Frame{Pitch: 200, Voiced: true, EnergyNorm: 0.8, Phone: PhoneVowel, PhoneConf: 0.9}
	unvoiced := Frame{EnergyNorm: 0.8, Phone: PhoneVowel, PhoneConf: 0.9}
	octaveOff := Frame{Pitch: 400, Voiced: true, EnergyNorm: 0.8, Phone: PhoneVowel, PhoneConf: 0.9}

	// Voiced vs unvoiced: same phone and energy, so no pitch cost at all
	if cost := aligner.localCost(&voiced, &unvoiced); cost != 0 {
		t.Errorf("voiced/unvoiced pair cost = %f, want 0", cost)
	}
	// Both voiced an octave apart: full capped pitch cost
	if cost := aligner.localCost(&voiced, &octaveOff); cost <= 0 {
		t.Errorf("octave-apart voiced pair cost = %f, want > 0", cost)
	}
}

func TestAlign_StretchedSequenceStillReachesEnd(t *testing.T) {
	ref := voicedSeq(200, 220, 240, 260, 280, 260, 240, 220, 200, 190)

	// User says the same contour at half speed
	stretched := make([]float64, 0, 20)
	for _, p := range []float64{200, 220, 240, 260, 280, 260, 240, 220, 200, 190} {
		stretched = append(stretched, p, p)
	}
	user := voicedSeq(stretched...)

	alignment, err := NewAligner(DefaultAlignerConfig()).Align(ref, user)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	last := alignment.Path[len(alignment.Path)-1]
	if last.QueryIndex != len(user.Frames)-1 || last.RefIndex != len(ref.Frames)-1 {
		t.Errorf("stretched alignment did not reach the final corner: (%d,%d)",
			last.QueryIndex, last.RefIndex)
	}
	if alignment.UserLen != 20 || alignment.RefLen != 10 {
		t.Errorf("lengths recorded as (%d,%d), want (20,10)", alignment.UserLen, alignment.RefLen)
	}
}
