package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kehngithub111/litalkon/analysis"
	"github.com/kehngithub111/litalkon/transcode"
)

// Config is the full service configuration, loaded from the environment
type Config struct {
	Port         string
	ClipsDir     string
	HistoryLimit int

	MaxUploadBytes  int64
	MaxAudioSeconds int
	AnalysisTimeout time.Duration

	FFmpegPath  string
	FFprobePath string

	Analyzer analysis.AnalyzerConfig
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is the normal production case
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		ClipsDir:        getEnv("CLIPS_DIR", "./clips"),
		HistoryLimit:    getEnvInt("HISTORY_LIMIT", 1000),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		MaxAudioSeconds: getEnvInt("MAX_AUDIO_SECONDS", 60),
		AnalysisTimeout: time.Duration(getEnvInt("ANALYSIS_TIMEOUT_SECONDS", 30)) * time.Second,
		FFmpegPath:      getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:     getEnv("FFPROBE_PATH", "ffprobe"),
	}

	analyzer := analysis.DefaultAnalyzerConfig()
	analyzer.Timeout = cfg.AnalysisTimeout
	analyzer.Scorer.Weights.Pitch = getEnvFloat("SCORE_WEIGHT_PITCH", analyzer.Scorer.Weights.Pitch)
	analyzer.Scorer.Weights.Rhythm = getEnvFloat("SCORE_WEIGHT_RHYTHM", analyzer.Scorer.Weights.Rhythm)
	analyzer.Scorer.Weights.Pronunciation = getEnvFloat("SCORE_WEIGHT_PRONUNCIATION", analyzer.Scorer.Weights.Pronunciation)
	analyzer.Scorer.BucketLow = getEnvFloat("FEEDBACK_BUCKET_LOW", analyzer.Scorer.BucketLow)
	analyzer.Scorer.BucketHigh = getEnvFloat("FEEDBACK_BUCKET_HIGH", analyzer.Scorer.BucketHigh)
	cfg.Analyzer = analyzer

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.MaxAudioSeconds <= 0 {
		return fmt.Errorf("MAX_AUDIO_SECONDS must be positive")
	}

	w := c.Analyzer.Scorer.Weights
	sum := w.Pitch + w.Rhythm + w.Pronunciation
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("score weights must sum to 1, got %.3f", sum)
	}

	if c.Analyzer.Scorer.BucketLow >= c.Analyzer.Scorer.BucketHigh {
		return fmt.Errorf("FEEDBACK_BUCKET_LOW must be below FEEDBACK_BUCKET_HIGH")
	}

	return nil
}

// DecoderConfig builds the transcode configuration from the service limits
func (c *Config) DecoderConfig() *transcode.DecoderConfig {
	dc := transcode.DefaultDecoderConfig()
	dc.MaxBytes = c.MaxUploadBytes
	dc.MaxDuration = time.Duration(c.MaxAudioSeconds) * time.Second
	dc.FFmpegPath = c.FFmpegPath
	dc.FFprobePath = c.FFprobePath
	return dc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
