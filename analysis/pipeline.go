package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/kehngithub111/litalkon/logging"
	"github.com/kehngithub111/litalkon/transcode"
)

// AudioDecoder is the seam between the pipeline and the codec layer. The
// production implementation shells out to ffmpeg; tests substitute synthetic
// PCM without touching external binaries.
type AudioDecoder interface {
	Decode(ctx context.Context, data []byte, declaredMIME string) (*transcode.AudioSignal, error)
}

// ClipInput is one audio input to a comparison
type ClipInput struct {
	ID   string
	Data []byte
	MIME string
}

// AnalyzerConfig configures the end-to-end pipeline
type AnalyzerConfig struct {
	Features FeatureParams `json:"features"`
	Aligner  AlignerConfig `json:"aligner"`
	Scorer   ScorerConfig  `json:"scorer"`
	// Timeout bounds one full analysis; adversarial audio must fail fast
	// instead of pinning a worker
	Timeout time.Duration `json:"timeout"`
	// CacheReferenceFeatures enables the cross-request reference cache
	CacheReferenceFeatures bool `json:"cache_reference_features"`
}

// DefaultAnalyzerConfig returns the deployment defaults
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Features:               DefaultFeatureParams(),
		Aligner:                DefaultAlignerConfig(),
		Scorer:                 DefaultScorerConfig(),
		Timeout:                30 * time.Second,
		CacheReferenceFeatures: true,
	}
}

// Analyzer drives the full comparison pipeline: decode both inputs, extract
// feature sequences, align, score. It holds no per-request state; one
// Analyzer serves all requests concurrently.
type Analyzer struct {
	decoder   AudioDecoder
	extractor *Extractor
	aligner   *Aligner
	scorer    *Scorer
	cache     *FeatureCache
	timeout   time.Duration
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(decoder AudioDecoder, config AnalyzerConfig) *Analyzer {
	a := &Analyzer{
		decoder:   decoder,
		extractor: NewExtractor(config.Features),
		aligner:   NewAligner(config.Aligner),
		scorer:    NewScorer(config.Scorer),
		timeout:   config.Timeout,
	}
	if config.CacheReferenceFeatures {
		a.cache = NewFeatureCache()
	}
	return a
}

// InvalidateReference drops any cached features for a reference clip
func (a *Analyzer) InvalidateReference(clipID string) {
	if a.cache != nil {
		a.cache.Invalidate(clipID)
	}
}

type extractOutcome struct {
	seq *FeatureSequence
	err error
}

// Analyze compares a user recording against a reference clip and returns the
// scored result. The two decode+extract branches are independent and run
// concurrently; alignment and scoring follow once both finish. Cancellation
// of ctx (client disconnect) or the timeout aborts at the next stage
// boundary — a partial Result is never returned.
func (a *Analyzer) Analyze(ctx context.Context, ref, user ClipInput) (*Result, error) {
	logger := logging.FromContext(ctx).WithFields(logging.Fields{
		"component":        "analyzer",
		"original_clip_id": ref.ID,
		"user_clip_id":     user.ID,
	})

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	started := time.Now()

	refCh := make(chan extractOutcome, 1)
	userCh := make(chan extractOutcome, 1)

	go func() {
		seq, err := a.referenceFeatures(ctx, ref)
		refCh <- extractOutcome{seq, err}
	}()
	go func() {
		seq, err := a.decodeAndExtract(ctx, user)
		userCh <- extractOutcome{seq, err}
	}()

	refOut := <-refCh
	userOut := <-userCh

	if refOut.err != nil {
		return nil, a.stageError("reference extraction", refOut.err)
	}
	if userOut.err != nil {
		return nil, a.stageError("user extraction", userOut.err)
	}
	if err := ctx.Err(); err != nil {
		return nil, a.stageError("extraction", err)
	}

	alignment, err := a.aligner.Align(refOut.seq, userOut.seq)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, a.stageError("alignment", err)
	}

	result := a.scorer.Score(alignment, refOut.seq, userOut.seq)
	result.OriginalClipID = ref.ID
	result.UserClipID = user.ID

	logger.Info("Analysis completed", logging.Fields{
		"similarity":    result.SimilarityScore,
		"pitch":         result.AnalysisDetails.Pitch.Score,
		"rhythm":        result.AnalysisDetails.Rhythm.Score,
		"pronunciation": result.AnalysisDetails.Pronunciation.Score,
		"elapsed":       time.Since(started).Seconds(),
	})

	return result, nil
}

// referenceFeatures returns the reference clip's features, via the
// cross-request cache when enabled.
func (a *Analyzer) referenceFeatures(ctx context.Context, ref ClipInput) (*FeatureSequence, error) {
	if a.cache == nil || ref.ID == "" {
		return a.decodeAndExtract(ctx, ref)
	}

	return a.cache.GetOrCompute(ctx, ref.ID, a.extractor.Params().Version(),
		func(ctx context.Context) (*FeatureSequence, error) {
			return a.decodeAndExtract(ctx, ref)
		})
}

func (a *Analyzer) decodeAndExtract(ctx context.Context, input ClipInput) (*FeatureSequence, error) {
	signal, err := a.decoder.Decode(ctx, input.Data, input.MIME)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.extractor.Extract(ctx, signal)
}

// stageError converts a deadline hit into a typed TimeoutError and passes
// every other failure through unchanged.
func (a *Analyzer) stageError(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Stage: stage, Budget: a.timeout}
	}
	return err
}
