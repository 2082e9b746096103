package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kehngithub111/litalkon/analysis"
	"github.com/kehngithub111/litalkon/transcode"
)

// analysisError maps pipeline failures to the response envelope and HTTP
// status. Client-correctable failures (bad audio, too long, too short) map
// to 4xx; only genuine pipeline faults and timeouts surface as 500.
func (h *Handler) analysisError(c echo.Context, originalClipID string, err error) error {
	var (
		formatErr    *transcode.FormatError
		decodeErr    *transcode.DecodeError
		sizeErr      *transcode.SizeExceededError
		durationErr  *transcode.DurationExceededError
		alignmentErr *analysis.AlignmentError
		timeoutErr   *analysis.TimeoutError
	)

	switch {
	case errors.As(err, &formatErr):
		return c.JSON(http.StatusUnsupportedMediaType,
			failure(CodeInvalidParameters, formatErr.Error()))

	case errors.As(err, &sizeErr):
		return c.JSON(http.StatusRequestEntityTooLarge,
			failure(CodeInvalidParameters, sizeErr.Error()))

	case errors.As(err, &durationErr):
		return c.JSON(http.StatusBadRequest,
			failure(CodeInvalidParameters, durationErr.Error()))

	case errors.As(err, &decodeErr):
		return c.JSON(http.StatusBadRequest,
			failure(CodeInvalidParameters, "audio could not be decoded; please resubmit a valid file"))

	case errors.As(err, &alignmentErr):
		return c.JSON(http.StatusBadRequest,
			failure(CodeInvalidParameters, alignmentErr.Error()))

	case errors.As(err, &timeoutErr):
		h.logger.Error("Analysis timed out",
			zap.String("original_clip_id", originalClipID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError,
			failure(CodeServerError, "analysis timed out; please retry"))

	default:
		h.logger.Error("Analysis failed",
			zap.String("original_clip_id", originalClipID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError,
			failure(CodeServerError, "analysis failed"))
	}
}
