package transcode

import (
	"fmt"
	"time"
)

// DecodeError indicates the input container or stream could not be decoded
// (corrupt data, no audio stream, decoder failure).
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FormatError indicates the input uses a codec or container outside the
// supported set.
type FormatError struct {
	Format string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported audio format: %s", e.Format)
}

// SizeExceededError indicates the raw input is larger than the configured limit
type SizeExceededError struct {
	Size  int64
	Limit int64
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("audio payload %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

// DurationExceededError indicates the decoded audio is longer than the
// configured limit. The check runs on exact decoded sample counts, so audio
// at precisely the limit passes and one extra sample fails.
type DurationExceededError struct {
	Duration time.Duration
	Limit    time.Duration
}

func (e *DurationExceededError) Error() string {
	return fmt.Sprintf("audio duration %v exceeds limit of %v", e.Duration, e.Limit)
}
