package httpapi

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"

	"indicatorEngine/internal/ports"
)

// Recover turns handler panics into 500 responses.
func Recover(logger ports.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					logger.Error(c.Request().Context(), perr, "HTTP handler panic", map[string]interface{}{
						"path": c.Path(), "stack": string(debug.Stack()),
					})
					err = c.JSON(http.StatusInternalServerError, APIResponse{
						Status:  http.StatusInternalServerError,
						Message: http.StatusText(http.StatusInternalServerError),
					})
				}
			}()
			return next(c)
		}
	}
}

// RequestLogging logs one line per request.
func RequestLogging(logger ports.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Debug(req.Context(), "HTTP request", map[string]interface{}{
				"method":    req.Method,
				"uri":       req.RequestURI,
				"remote":    req.RemoteAddr,
				"status":    c.Response().Status,
				"latencyMs": time.Since(start).Milliseconds(),
			})
			return nil
		}
	}
}
