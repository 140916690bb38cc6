package http

import (
	"github.com/labstack/echo/v4"

	"github.com/panuavakul/v-video-compressor-sub001/internal/compressor"
)

func MapCompressorRoutes(group *echo.Group, h compressor.Handler) {
	group.POST("/estimate", h.Estimate())
	group.POST("/jobs", h.SubmitJob())
	group.GET("/jobs", h.ListJobs())
	group.GET("/jobs/:job_id", h.GetJob())
	group.GET("/jobs/:job_id/progress", h.GetProgress())
	group.DELETE("/jobs/:job_id", h.CancelJob())
	group.GET("/active", h.IsActive())
}
