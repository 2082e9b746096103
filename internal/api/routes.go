package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// InitRoutes wires the API routes onto the echo instance
func InitRoutes(e *echo.Echo, h *Handler) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "litalkon-analysis",
		})
	})

	v1 := e.Group("/api/v1")
	v1.POST("/analyze-voice", h.AnalyzeVoice)
	v1.GET("/clips/:id/history", h.ClipHistory)
}
