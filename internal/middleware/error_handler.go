package middleware

import (
	"net/http"

	"github.com/Eursukkul/trainer-booking-service/internal/dto"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NewErrorHandler renders every error as {"code","message"}. Handlers return
// *echo.HTTPError with a dto.ErrorResponse message for domain failures.
func NewErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := dto.ErrorResponse{Code: "internal", Message: "internal server error"}

		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			switch m := he.Message.(type) {
			case dto.ErrorResponse:
				body = m
			case string:
				body = dto.ErrorResponse{Code: codeFor(status), Message: m}
			default:
				body = dto.ErrorResponse{Code: codeFor(status), Message: http.StatusText(status)}
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("Request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusPreconditionFailed:
		return "version_conflict"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "internal"
	}
	return "error"
}
