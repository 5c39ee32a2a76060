package api

import (
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// CreateProfilingService serves the net/http/pprof endpoints under
// /debug/pprof/ for the profiling port.
func CreateProfilingService() *echo.Echo {
	profiling := echo.New()
	profiling.HideBanner = true

	profiling.Use(middleware.Recover())

	pprof.Register(profiling)

	return profiling
}
