package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kehngithub111/litalkon/algorithms/temporal"
	"github.com/kehngithub111/litalkon/logging"
)

// AudioSignal is the canonical decoded form every analysis stage consumes:
// mono PCM in [-1,1] at a fixed sample rate. Immutable once produced and
// discarded when the request completes.
type AudioSignal struct {
	Samples    []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	Codec      string        `json:"codec,omitempty"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	MaxBytes         int64         `json:"max_bytes"`    // 0 disables the size limit
	MaxDuration      time.Duration `json:"max_duration"` // 0 disables the duration limit
	FFmpegPath       string        `json:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout"` // per ffmpeg/ffprobe invocation

	// Silence trimming
	TrimSilence      bool          `json:"trim_silence"`
	SilenceThreshold float64       `json:"silence_threshold"` // RMS threshold on [-1,1] PCM
	GuardBand        time.Duration `json:"guard_band"`        // kept on each side of the voiced span
}

// DefaultDecoderConfig returns the decoder configuration used by the
// analysis pipeline: 16 kHz mono with the service's upload limits.
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 16000,
		MaxBytes:         10 * 1024 * 1024,
		MaxDuration:      60 * time.Second,
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          30 * time.Second,
		TrimSilence:      true,
		SilenceThreshold: 0.008,
		GuardBand:        100 * time.Millisecond,
	}
}

// supportedCodecs are the codecs the accepted upload containers carry.
// mp4/m4a wrap aac or alac; mp3 wraps mp3; wav wraps pcm variants.
var supportedCodecs = map[string]bool{
	"mp3":           true,
	"aac":           true,
	"alac":          true,
	"pcm_s16le":     true,
	"pcm_s24le":     true,
	"pcm_s32le":     true,
	"pcm_f32le":     true,
	"pcm_f64le":     true,
	"pcm_u8":        true,
	"pcm_s16be":     true,
	"adpcm_ima_wav": true,
}

// Decoder turns uploaded audio bytes into an AudioSignal using ffmpeg,
// enforcing the size and duration limits along the way.
type Decoder struct {
	config *DecoderConfig
}

// probedMetadata holds detected audio properties from ffprobe
type probedMetadata struct {
	SampleRate int
	Channels   int
	Codec      string
	Duration   float64
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// Decode decodes raw audio bytes into a normalized AudioSignal.
// declaredMIME is the client-declared content type; it is recorded for
// logging but the probe result decides whether the input is acceptable,
// so a spoofed extension cannot smuggle in an unsupported stream.
func (d *Decoder) Decode(ctx context.Context, data []byte, declaredMIME string) (*AudioSignal, error) {
	logger := logging.FromContext(ctx).WithFields(logging.Fields{
		"component":     "audio_decoder",
		"declared_mime": declaredMIME,
		"data_size":     len(data),
	})

	if len(data) == 0 {
		return nil, &DecodeError{Reason: "empty audio data"}
	}

	if d.config.MaxBytes > 0 && int64(len(data)) > d.config.MaxBytes {
		return nil, &SizeExceededError{Size: int64(len(data)), Limit: d.config.MaxBytes}
	}

	metadata, err := d.probe(ctx, data)
	if err != nil {
		logger.Error(err, "Failed to probe audio input")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
	})

	if !supportedCodecs[metadata.Codec] {
		return nil, &FormatError{Format: metadata.Codec}
	}

	// Cheap early rejection for grossly oversized audio. The exact check
	// happens on decoded sample counts below; the one-second slack keeps
	// container-level duration rounding from rejecting audio at the limit.
	if d.config.MaxDuration > 0 && metadata.Duration > d.config.MaxDuration.Seconds()+1.0 {
		return nil, &DurationExceededError{
			Duration: time.Duration(metadata.Duration * float64(time.Second)),
			Limit:    d.config.MaxDuration,
		}
	}

	samples, err := d.decodePCM(ctx, data)
	if err != nil {
		logger.Error(err, "FFmpeg decode failed")
		return nil, err
	}

	if d.exceedsDurationLimit(len(samples)) {
		return nil, &DurationExceededError{
			Duration: samplesToDuration(len(samples), d.config.TargetSampleRate),
			Limit:    d.config.MaxDuration,
		}
	}

	if d.config.TrimSilence {
		samples = d.trimSilence(samples)
	}

	signal := &AudioSignal{
		Samples:    samples,
		SampleRate: d.config.TargetSampleRate,
		Duration:   samplesToDuration(len(samples), d.config.TargetSampleRate),
		Codec:      metadata.Codec,
	}

	logger.Debug("Decode completed", logging.Fields{
		"output_samples":  len(samples),
		"output_duration": signal.Duration.Seconds(),
	})

	return signal, nil
}

// probe runs ffprobe over the input bytes and extracts the first audio stream
func (d *Decoder) probe(ctx context.Context, data []byte) (*probedMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		"pipe:0",
	}

	probeCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, d.config.FFprobePath, args...)
	cmd.Stdin = bytes.NewReader(data)

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, &DecodeError{
				Reason: fmt.Sprintf("ffprobe failed: %s", strings.TrimSpace(string(exitError.Stderr))),
				Err:    err,
			}
		}
		return nil, &DecodeError{Reason: "ffprobe failed", Err: err}
	}

	return parseProbeOutput(output)
}

// parseProbeOutput parses ffprobe JSON into probedMetadata
func parseProbeOutput(jsonData []byte) (*probedMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, &DecodeError{Reason: "unparseable ffprobe output", Err: err}
	}

	if len(probe.Streams) == 0 {
		return nil, &DecodeError{Reason: "no audio streams found"}
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, &FormatError{Format: stream.CodecType + " stream"}
	}
	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid channel count: %d", stream.Channels)}
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 0
	}
	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	return &probedMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
	}, nil
}

// decodePCM runs ffmpeg to produce f64le mono PCM at the target sample rate
func (d *Decoder) decodePCM(ctx context.Context, data []byte) ([]float64, error) {
	args := []string{
		"-i", "pipe:0",
		"-vn", // video streams are never decoded
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
		"-af", fmt.Sprintf("aresample=%d:resampler=soxr", d.config.TargetSampleRate),
		"-v", "error",
		"pipe:1",
	}

	decodeCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(decodeCtx, d.config.FFmpegPath, args...)
	cmd.Stdin = bytes.NewReader(data)

	output, err := cmd.Output()
	if err != nil {
		if decodeCtx.Err() == context.DeadlineExceeded {
			return nil, &DecodeError{Reason: "decode timed out", Err: decodeCtx.Err()}
		}
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, &DecodeError{
				Reason: fmt.Sprintf("ffmpeg failed: %s", strings.TrimSpace(string(exitError.Stderr))),
				Err:    err,
			}
		}
		return nil, &DecodeError{Reason: "ffmpeg failed", Err: err}
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, &DecodeError{Reason: "no audio samples decoded"}
	}

	return samples, nil
}

// exceedsDurationLimit reports whether a decoded sample count breaks the
// configured limit. Exactly at the limit passes; one extra sample fails.
func (d *Decoder) exceedsDurationLimit(sampleCount int) bool {
	if d.config.MaxDuration <= 0 {
		return false
	}
	maxSamples := int(d.config.MaxDuration.Seconds() * float64(d.config.TargetSampleRate))
	return sampleCount > maxSamples
}

// trimSilence removes outer silence while keeping the configured guard band
func (d *Decoder) trimSilence(samples []float64) []float64 {
	frameSize := d.config.TargetSampleRate / 100 // 10ms
	guard := int(d.config.GuardBand.Seconds() * float64(d.config.TargetSampleRate))
	trimmer := temporal.NewSilenceTrimmer(frameSize, frameSize, d.config.SilenceThreshold, guard)
	return trimmer.Trim(samples)
}

func (d *Decoder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.config.Timeout > 0 {
		return context.WithTimeout(ctx, d.config.Timeout)
	}
	return context.WithCancel(ctx)
}

// bytesToFloat64 converts raw f64le bytes to samples
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		data = data[:len(data)-(len(data)%8)]
	}
	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)
	for i := 0; i < sampleCount; i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}

func samplesToDuration(samples, sampleRate int) time.Duration {
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// CheckAvailability verifies the ffmpeg and ffprobe binaries can be executed
func (d *Decoder) CheckAvailability() error {
	if err := exec.Command(d.config.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	if err := exec.Command(d.config.FFprobePath, "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}
	return nil
}
