package handler

import (
	"net/http"

	"github.com/Eursukkul/trainer-booking-service/internal/dto"
	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/bookings", h.CreateBooking)
	g.GET("/bookings", h.ListBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.PATCH("/bookings/:id/status", h.TransitionBooking)
	g.POST("/bookings/:id/assign", h.AssignTrainer)
	g.POST("/bookings/:id/payment", h.MarkPaid)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateBookingRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), actor, service.CreateBookingInput{
		RequestID:     req.RequestID,
		ClientID:      req.ClientID,
		TrainerID:     req.TrainerID,
		TrainingTopic: req.TrainingTopic,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		DurationHours: req.DurationHours,
		TotalAmount:   req.TotalAmount,
		Paid:          req.Paid,
		Organization:  req.Organization,
		Department:    req.Department,
		Participants:  req.Participants,
		Notes:         req.Notes,
	})
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	booking, err := h.svc.GetBooking(c.Request().Context(), actor, id)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}

	var status *models.BookingStatus
	if s := c.QueryParam("status"); s != "" {
		bs := models.BookingStatus(s)
		status = &bs
	}

	bookings, err := h.svc.ListBookings(c.Request().Context(), actor, status)
	if err != nil {
		return toHTTP(err)
	}
	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) TransitionBooking(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.TransitionBookingRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	booking, err := h.svc.Transition(c.Request().Context(), actor, id, models.BookingStatus(req.Status), req.Version)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) AssignTrainer(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AssignTrainerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	booking, err := h.svc.AssignTrainer(c.Request().Context(), actor, id, req.TrainerID)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) MarkPaid(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	booking, err := h.svc.MarkPaid(c.Request().Context(), actor, id)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}
