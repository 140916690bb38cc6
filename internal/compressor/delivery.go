package compressor

import "github.com/labstack/echo/v4"

type Handler interface {
	Estimate() echo.HandlerFunc
	SubmitJob() echo.HandlerFunc
	GetJob() echo.HandlerFunc
	GetProgress() echo.HandlerFunc
	CancelJob() echo.HandlerFunc
	IsActive() echo.HandlerFunc
	ListJobs() echo.HandlerFunc
}
