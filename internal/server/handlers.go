package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	compressorHttp "github.com/panuavakul/v-video-compressor-sub001/internal/compressor/delivery/http"
	compressorRepository "github.com/panuavakul/v-video-compressor-sub001/internal/compressor/repository"
	compressorUsecase "github.com/panuavakul/v-video-compressor-sub001/internal/compressor/usecase"
	"github.com/panuavakul/v-video-compressor-sub001/internal/exporter/ffmpeg"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	repo, err := compressorRepository.NewJobRepo(s.db)
	if err != nil {
		return err
	}
	exporter := ffmpeg.NewExporter(s.cfg, s.logger)

	compressorUC := compressorUsecase.NewCompressorUseCase(s.cfg, exporter, exporter, repo, s.logger)
	compressorHandlers := compressorHttp.NewCompressorHandler(compressorUC, s.logger)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	compressGroup := v1.Group("/compress")

	compressorHttp.MapCompressorRoutes(compressGroup, compressorHandlers)
	health.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
