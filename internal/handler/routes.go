package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Requests     *RequestHandler
	Applications *ApplicationHandler
	Bookings     *BookingHandler
	Agreements   *AgreementHandler
	Feedback     *FeedbackHandler
}

// Register mounts the lifecycle API under /api/v1. Everything except health and
// feedback submission sits behind auth.
func (h Handlers) Register(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.GET("/health", Health)

	api := e.Group("/api/v1")
	api.GET("/health", Health)
	h.Feedback.RegisterPublicRoutes(api)

	secured := api.Group("", auth)
	h.Requests.RegisterRoutes(secured)
	h.Applications.RegisterRoutes(secured)
	h.Bookings.RegisterRoutes(secured)
	h.Agreements.RegisterRoutes(secured)
	h.Feedback.RegisterRoutes(secured)
}

func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "trainer-booking-service"})
}
