package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/panuavakul/v-video-compressor-sub001/internal/compressor"
	"github.com/panuavakul/v-video-compressor-sub001/internal/models"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/logger"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/utils"
)

// CompressRequest is the JSON body for estimate and submit calls. When
// Source is omitted the daemon probes Path itself.
type CompressRequest struct {
	Path   string                        `json:"path"`
	Source *models.SourceVideoProperties `json:"source,omitempty"`
	Spec   models.CompressionSpec        `json:"spec"`
}

type compressorHandler struct {
	compressorUC compressor.UseCase
	logger       logger.Logger
}

func NewCompressorHandler(compressorUC compressor.UseCase, log logger.Logger) compressor.Handler {
	return &compressorHandler{
		compressorUC: compressorUC,
		logger:       log,
	}
}

func (h *compressorHandler) resolveSource(c echo.Context, req *CompressRequest) (*models.SourceVideoProperties, error) {
	if req.Source != nil {
		return req.Source, nil
	}
	return h.compressorUC.ProbeSource(c.Request().Context(), req.Path)
}

func (h *compressorHandler) Estimate() echo.HandlerFunc {
	return func(c echo.Context) error {
		req := &CompressRequest{}
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		src, err := h.resolveSource(c, req)
		if err != nil {
			return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
		}
		estimate, err := h.compressorUC.Estimate(c.Request().Context(), *src, req.Spec)
		if err != nil {
			return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, estimate)
	}
}

func (h *compressorHandler) SubmitJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		req := &CompressRequest{}
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		src, err := h.resolveSource(c, req)
		if err != nil {
			return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
		}
		jobID, err := h.compressorUC.SubmitJob(c.Request().Context(), *src, req.Spec, compressor.JobCallbacks{})
		if err != nil {
			return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusAccepted, map[string]string{"job_id": jobID})
	}
}

func (h *compressorHandler) GetJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		job, err := h.compressorUC.GetJob(c.Param("job_id"))
		if err != nil {
			return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, job)
	}
}

func (h *compressorHandler) GetProgress() echo.HandlerFunc {
	return func(c echo.Context) error {
		job, err := h.compressorUC.GetJob(c.Param("job_id"))
		if err != nil {
			return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"job_id":   job.JobID,
			"state":    job.State,
			"progress": job.Progress,
		})
	}
}

func (h *compressorHandler) CancelJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := h.compressorUC.Cancel(c.Param("job_id")); err != nil {
			return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Job cancelled"})
	}
}

func (h *compressorHandler) IsActive() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"active": h.compressorUC.IsActive()})
	}
}

func (h *compressorHandler) ListJobs() echo.HandlerFunc {
	return func(c echo.Context) error {
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		jobs, err := h.compressorUC.ListJobs(c.Request().Context(), pagination)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, jobs)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, compressor.ErrInvalidInput), errors.Is(err, compressor.ErrNoVideoTrack):
		return http.StatusBadRequest
	case errors.Is(err, compressor.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, compressor.ErrJobActive):
		return http.StatusConflict
	case errors.Is(err, compressor.ErrInsufficientStorage), errors.Is(err, compressor.ErrInsufficientMemory):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}
