package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Eursukkul/trainer-booking-service/internal/dto"
	"github.com/Eursukkul/trainer-booking-service/internal/middleware"
	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/service"
	"github.com/labstack/echo/v4"
)

// toHTTP maps the lifecycle error taxonomy onto status codes.
func toHTTP(err error) error {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, service.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, service.ErrDuplicateApplication):
		status, code = http.StatusConflict, "duplicate_application"
	case errors.Is(err, service.ErrDuplicateSubmission):
		status, code = http.StatusConflict, "duplicate_submission"
	case errors.Is(err, service.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, service.ErrVersionConflict):
		status, code = http.StatusPreconditionFailed, "version_conflict"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusServiceUnavailable, "timeout"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	return echo.NewHTTPError(status, dto.ErrorResponse{Code: code, Message: msg}).SetInternal(err)
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func caller(c echo.Context) (models.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return models.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return actor, nil
}

// bind decodes the body and runs the registered validator.
func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(v)
}
