package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kehngithub111/litalkon/analysis"
	"github.com/kehngithub111/litalkon/internal/clips"
	"github.com/kehngithub111/litalkon/internal/history"
)

// AnalyzerService is the handler's view of the analysis pipeline,
// narrowed to an interface so handler tests can stub it.
type AnalyzerService interface {
	Analyze(ctx context.Context, ref, user analysis.ClipInput) (*analysis.Result, error)
}

// Handler serves the voice-analysis endpoints
type Handler struct {
	analyzer  AnalyzerService
	clipStore clips.Store
	history   history.Store
	maxUpload int64
	logger    *zap.Logger
}

// NewHandler creates the API handler
func NewHandler(analyzer AnalyzerService, clipStore clips.Store, historyStore history.Store, maxUpload int64, logger *zap.Logger) *Handler {
	return &Handler{
		analyzer:  analyzer,
		clipStore: clipStore,
		history:   historyStore,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// acceptedExtensions is the upload allowlist from the API contract
var acceptedExtensions = map[string]bool{
	".mp3": true,
	".mp4": true,
	".wav": true,
	".m4a": true,
}

// acceptedContentTypes are the MIME types those containers legitimately
// declare. mp4 audio is routinely sent as audio/mp4; anything video/* is
// rejected outright even when the filename claims an audio extension.
var acceptedContentTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/mp4":   true,
	"audio/x-m4a": true,
	"audio/m4a":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/wave":  true,
}

// AnalyzeVoice handles POST /api/v1/analyze-voice
func (h *Handler) AnalyzeVoice(c echo.Context) error {
	ctx := c.Request().Context()

	originalClipID := strings.TrimSpace(c.FormValue("originalClipId"))
	if originalClipID == "" {
		return c.JSON(http.StatusBadRequest,
			failure(CodeInvalidParameters, "originalClipId is required"))
	}

	fileHeader, err := c.FormFile("userAudio")
	if err != nil {
		return c.JSON(http.StatusBadRequest,
			failure(CodeInvalidParameters, "userAudio file is required"))
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !acceptedExtensions[ext] {
		return c.JSON(http.StatusUnsupportedMediaType,
			failure(CodeInvalidParameters, "unsupported file type; accepted: mp3, mp4, wav, m4a"))
	}

	contentType := strings.ToLower(strings.TrimSpace(
		strings.Split(fileHeader.Header.Get("Content-Type"), ";")[0]))
	if strings.HasPrefix(contentType, "video/") {
		return c.JSON(http.StatusUnsupportedMediaType,
			failure(CodeInvalidParameters, "video uploads are not accepted"))
	}
	if contentType != "" && contentType != "application/octet-stream" && !acceptedContentTypes[contentType] {
		return c.JSON(http.StatusUnsupportedMediaType,
			failure(CodeInvalidParameters, "unsupported media type: "+contentType))
	}

	if h.maxUpload > 0 && fileHeader.Size > h.maxUpload {
		return c.JSON(http.StatusRequestEntityTooLarge,
			failure(CodeInvalidParameters, "audio file exceeds the upload size limit"))
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusBadRequest,
			failure(CodeInvalidParameters, "could not read uploaded file"))
	}
	defer src.Close()

	userData, err := io.ReadAll(src)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		return c.JSON(http.StatusBadRequest,
			failure(CodeInvalidParameters, "could not read uploaded file"))
	}

	refClip, err := h.clipStore.Get(ctx, originalClipID)
	if err != nil {
		if errors.Is(err, clips.ErrNotFound) {
			return c.JSON(http.StatusNotFound,
				failure(CodeResourceNotFound, "unknown originalClipId: "+originalClipID))
		}
		h.logger.Error("Clip store lookup failed",
			zap.String("original_clip_id", originalClipID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError,
			failure(CodeServerError, "failed to load reference clip"))
	}

	userClipID := uuid.NewString()

	result, err := h.analyzer.Analyze(ctx,
		analysis.ClipInput{ID: refClip.ID, Data: refClip.Data, MIME: refClip.MIME},
		analysis.ClipInput{ID: userClipID, Data: userData, MIME: contentType},
	)
	if err != nil {
		return h.analysisError(c, originalClipID, err)
	}

	// History persistence is best-effort: the user already has their result
	if h.history != nil {
		if err := h.history.Save(ctx, result); err != nil {
			h.logger.Warn("Failed to persist analysis result",
				zap.String("original_clip_id", originalClipID), zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: result})
}

// ClipHistory handles GET /api/v1/clips/:id/history
func (h *Handler) ClipHistory(c echo.Context) error {
	clipID := c.Param("id")
	if clipID == "" {
		return c.JSON(http.StatusBadRequest,
			failure(CodeInvalidParameters, "clip id is required"))
	}

	entries, err := h.history.ListByClip(c.Request().Context(), clipID)
	if err != nil {
		h.logger.Error("History lookup failed", zap.String("clip_id", clipID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError,
			failure(CodeServerError, "failed to load history"))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    entries,
	})
}
