package analysis

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/kehngithub111/litalkon/transcode"
)

const testSampleRate = 16000

// synthTone generates a sine tone of the given duration
func synthTone(freq, amplitude float64, duration time.Duration) []float64 {
	n := int(duration.Seconds() * testSampleRate)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return samples
}

// synthSilence generates a silent span
func synthSilence(duration time.Duration) []float64 {
	return make([]float64, int(duration.Seconds()*testSampleRate))
}

// synthUtterance joins segments into one signal, a crude stand-in for a
// spoken phrase: tone bursts separated by pauses
func synthUtterance(segments ...[]float64) []float64 {
	var out []float64
	for _, seg := range segments {
		out = append(out, seg...)
	}
	return out
}

func asSignal(samples []float64) *transcode.AudioSignal {
	return &transcode.AudioSignal{
		Samples:    samples,
		SampleRate: testSampleRate,
		Duration:   time.Duration(len(samples)) * time.Second / testSampleRate,
	}
}

// fakeDecoder maps input bytes straight to pre-built signals so pipeline
// tests never shell out to ffmpeg. The pipeline decodes reference and user
// audio concurrently, so the call counter is locked.
type fakeDecoder struct {
	mu      sync.Mutex
	signals map[string][]float64
	calls   int
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{signals: make(map[string][]float64)}
}

func (d *fakeDecoder) add(key string, samples []float64) []byte {
	d.signals[key] = samples
	return []byte(key)
}

func (d *fakeDecoder) Decode(ctx context.Context, data []byte, declaredMIME string) (*transcode.AudioSignal, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	samples, ok := d.signals[string(data)]
	if !ok {
		return nil, &transcode.DecodeError{Reason: "unknown test clip"}
	}
	return asSignal(samples), nil
}

func (d *fakeDecoder) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// extractSeq is a shortcut for tests that need a FeatureSequence directly
func extractSeq(samples []float64) (*FeatureSequence, error) {
	return NewExtractor(DefaultFeatureParams()).Extract(context.Background(), asSignal(samples))
}
