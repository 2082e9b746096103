package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func testAnalyzerConfig() AnalyzerConfig {
	config := DefaultAnalyzerConfig()
	config.Timeout = 10 * time.Second
	return config
}

func TestAnalyze_SelfComparisonScoresHigh(t *testing.T) {
	decoder := newFakeDecoder()
	data := decoder.add("ref", synthUtterance(
		synthTone(220, 0.5, 300*time.Millisecond),
		synthSilence(150*time.Millisecond),
		synthTone(180, 0.5, 300*time.Millisecond),
	))

	analyzer := NewAnalyzer(decoder, testAnalyzerConfig())
	result, err := analyzer.Analyze(context.Background(),
		ClipInput{ID: "ref", Data: data, MIME: "audio/wav"},
		ClipInput{ID: "user-1", Data: data, MIME: "audio/wav"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.OriginalClipID != "ref" || result.UserClipID != "user-1" {
		t.Errorf("clip ids = (%q,%q), want (ref,user-1)", result.OriginalClipID, result.UserClipID)
	}
	if result.SimilarityScore < 0.9 {
		t.Errorf("self-comparison similarity = %f, want >= 0.9", result.SimilarityScore)
	}
	if result.Feedback == "" {
		t.Error("overall feedback is empty")
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	decoder := newFakeDecoder()
	refData := decoder.add("ref", synthUtterance(
		synthTone(220, 0.5, 400*time.Millisecond),
		synthSilence(100*time.Millisecond),
		synthTone(260, 0.5, 300*time.Millisecond),
	))
	userData := decoder.add("user", synthUtterance(
		synthTone(230, 0.4, 350*time.Millisecond),
		synthSilence(200*time.Millisecond),
		synthTone(250, 0.5, 350*time.Millisecond),
	))

	config := testAnalyzerConfig()
	config.CacheReferenceFeatures = false
	analyzer := NewAnalyzer(decoder, config)

	ref := ClipInput{ID: "ref", Data: refData, MIME: "audio/wav"}
	user := ClipInput{ID: "u", Data: userData, MIME: "audio/wav"}

	first, err := analyzer.Analyze(context.Background(), ref, user)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	for k := 0; k < 3; k++ {
		again, err := analyzer.Analyze(context.Background(), ref, user)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if *again != *first {
			t.Fatalf("results differ between runs:\n%+v\n%+v", *first, *again)
		}
	}
}

func TestAnalyze_PitchShiftLowersPitchScore(t *testing.T) {
	decoder := newFakeDecoder()
	refData := decoder.add("ref", synthTone(200, 0.5, 800*time.Millisecond))

	analyzer := NewAnalyzer(decoder, testAnalyzerConfig())
	ref := ClipInput{ID: "ref", Data: refData, MIME: "audio/wav"}

	prev := 2.0
	for _, freq := range []float64{200, 225, 250, 280} {
		key := fmt.Sprintf("user-%.0f", freq)
		userData := decoder.add(key, synthTone(freq, 0.5, 800*time.Millisecond))

		result, err := analyzer.Analyze(context.Background(), ref,
			ClipInput{ID: key, Data: userData, MIME: "audio/wav"})
		if err != nil {
			t.Fatalf("Analyze(%0.f Hz) failed: %v", freq, err)
		}

		score := result.AnalysisDetails.Pitch.Score
		if score > prev {
			t.Errorf("pitch score rose from %f to %f at %.0f Hz", prev, score, freq)
		}
		prev = score
	}
}

func TestAnalyze_SlowerDeliveryHurtsRhythmMost(t *testing.T) {
	decoder := newFakeDecoder()
	refData := decoder.add("ref", synthUtterance(
		synthTone(220, 0.5, 300*time.Millisecond),
		synthSilence(100*time.Millisecond),
		synthTone(180, 0.5, 300*time.Millisecond),
	))
	// Same two "syllables", but the pause in the middle is far longer
	userData := decoder.add("user", synthUtterance(
		synthTone(220, 0.5, 300*time.Millisecond),
		synthSilence(500*time.Millisecond),
		synthTone(180, 0.5, 300*time.Millisecond),
	))

	analyzer := NewAnalyzer(decoder, testAnalyzerConfig())
	result, err := analyzer.Analyze(context.Background(),
		ClipInput{ID: "ref", Data: refData, MIME: "audio/wav"},
		ClipInput{ID: "user", Data: userData, MIME: "audio/wav"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	details := result.AnalysisDetails
	if details.Rhythm.Score >= details.Pronunciation.Score {
		t.Errorf("stretched pause should hurt rhythm (%f) more than pronunciation (%f)",
			details.Rhythm.Score, details.Pronunciation.Score)
	}
	if details.Pitch.Score < 0.8 {
		t.Errorf("pitch score = %f for identical tones, want >= 0.8", details.Pitch.Score)
	}
}

func TestAnalyze_SilentRecordingStillCompletes(t *testing.T) {
	decoder := newFakeDecoder()
	refData := decoder.add("ref", synthTone(220, 0.5, 500*time.Millisecond))
	userData := decoder.add("user", synthSilence(500*time.Millisecond))

	analyzer := NewAnalyzer(decoder, testAnalyzerConfig())
	result, err := analyzer.Analyze(context.Background(),
		ClipInput{ID: "ref", Data: refData, MIME: "audio/wav"},
		ClipInput{ID: "user", Data: userData, MIME: "audio/wav"})
	if err != nil {
		t.Fatalf("silence must score, not fail: %v", err)
	}

	// No voiced overlap, so pitch falls back to neutral; the mismatch between
	// tone and silence shows up in pronunciation instead
	if got := result.AnalysisDetails.Pitch.Score; got != NeutralScore {
		t.Errorf("pitch score = %f, want neutral %f", got, NeutralScore)
	}
	if got := result.AnalysisDetails.Pronunciation.Score; got > 0.5 {
		t.Errorf("pronunciation score = %f for silence vs tone, want <= 0.5", got)
	}
}

func TestAnalyze_ReferenceFeaturesCached(t *testing.T) {
	decoder := newFakeDecoder()
	refData := decoder.add("ref", synthTone(220, 0.5, 500*time.Millisecond))
	userData := decoder.add("user", synthTone(230, 0.5, 500*time.Millisecond))

	analyzer := NewAnalyzer(decoder, testAnalyzerConfig())
	ref := ClipInput{ID: "ref", Data: refData, MIME: "audio/wav"}
	user := ClipInput{ID: "user", Data: userData, MIME: "audio/wav"}

	for k := 0; k < 3; k++ {
		if _, err := analyzer.Analyze(context.Background(), ref, user); err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
	}

	// 3 user decodes plus exactly one reference decode
	if got := decoder.callCount(); got != 4 {
		t.Errorf("decoder ran %d times, want 4 (reference cached after the first run)", got)
	}

	analyzer.InvalidateReference("ref")
	if _, err := analyzer.Analyze(context.Background(), ref, user); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if got := decoder.callCount(); got != 6 {
		t.Errorf("decoder ran %d times after invalidation, want 6", got)
	}
}

func TestAnalyze_TooShortUserClipFailsWithAlignmentError(t *testing.T) {
	decoder := newFakeDecoder()
	refData := decoder.add("ref", synthTone(220, 0.5, 500*time.Millisecond))
	userData := decoder.add("user", synthTone(220, 0.5, 30*time.Millisecond))

	analyzer := NewAnalyzer(decoder, testAnalyzerConfig())
	_, err := analyzer.Analyze(context.Background(),
		ClipInput{ID: "ref", Data: refData, MIME: "audio/wav"},
		ClipInput{ID: "user", Data: userData, MIME: "audio/wav"})

	var alignErr *AlignmentError
	if !errors.As(err, &alignErr) {
		t.Errorf("got %v, want AlignmentError", err)
	}
}

func TestAnalyze_CanceledContextAborts(t *testing.T) {
	decoder := newFakeDecoder()
	refData := decoder.add("ref", synthTone(220, 0.5, 500*time.Millisecond))
	userData := decoder.add("user", synthTone(220, 0.5, 500*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyzer := NewAnalyzer(decoder, testAnalyzerConfig())
	_, err := analyzer.Analyze(ctx,
		ClipInput{ID: "ref", Data: refData, MIME: "audio/wav"},
		ClipInput{ID: "user", Data: userData, MIME: "audio/wav"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestAnalyze_TimeoutSurfacesAsTimeoutError(t *testing.T) {
	decoder := newFakeDecoder()
	refData := decoder.add("ref", synthTone(220, 0.5, time.Second))
	userData := decoder.add("user", synthTone(220, 0.5, time.Second))

	config := testAnalyzerConfig()
	config.Timeout = time.Nanosecond
	analyzer := NewAnalyzer(decoder, config)

	_, err := analyzer.Analyze(context.Background(),
		ClipInput{ID: "ref", Data: refData, MIME: "audio/wav"},
		ClipInput{ID: "user", Data: userData, MIME: "audio/wav"})

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Errorf("got %v, want TimeoutError", err)
	}
}
