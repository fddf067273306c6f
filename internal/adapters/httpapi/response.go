package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"indicatorEngine/internal/ports"
)

// APIResponse is the envelope of every API response.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// DataResponse writes data with the given status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes a 200 response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// ErrorResponse writes err with the status StatusFor assigns to it.
func ErrorResponse(c echo.Context, err error) error {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Something went wrong"
	}
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Error:   msg,
	})
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrInvalidRequest),
		errors.Is(err, ports.ErrInvalidParameter),
		errors.Is(err, ports.ErrConfigurationError),
		errors.Is(err, ports.ErrUnknownSymbol):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ports.ErrTimeout), errors.Is(err, ports.ErrContextCanceled):
		return http.StatusGatewayTimeout
	case errors.Is(err, ports.ErrProvider):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
