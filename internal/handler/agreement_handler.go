package handler

import (
	"context"
	"net/http"

	"github.com/Eursukkul/trainer-booking-service/internal/dto"
	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/service"
	"github.com/labstack/echo/v4"
)

type AgreementHandler struct {
	svc service.AgreementService
}

func NewAgreementHandler(svc service.AgreementService) *AgreementHandler {
	return &AgreementHandler{svc: svc}
}

func (h *AgreementHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/bookings/:id/agreement", h.EnsureAgreement)
	g.GET("/bookings/:id/agreement", h.GetBookingAgreement)
	g.GET("/agreements/:id", h.GetAgreement)
	g.POST("/agreements/:id/sign", h.SignAgreement)
	g.POST("/agreements/:id/reject", h.RejectAgreement)
}

// EnsureAgreement answers 201 whether or not the agreement already existed; the body is the same.
func (h *AgreementHandler) EnsureAgreement(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	bookingID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.EnsureAgreement(c.Request().Context(), actor, bookingID)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, dto.ToAgreementResponse(a))
}

func (h *AgreementHandler) GetBookingAgreement(c echo.Context) error {
	return h.read(c, h.svc.GetByBooking)
}

func (h *AgreementHandler) GetAgreement(c echo.Context) error {
	return h.read(c, h.svc.GetAgreement)
}

func (h *AgreementHandler) SignAgreement(c echo.Context) error {
	return h.act(c, h.svc.Sign)
}

func (h *AgreementHandler) RejectAgreement(c echo.Context) error {
	return h.act(c, h.svc.Reject)
}

func (h *AgreementHandler) read(c echo.Context, op func(ctx context.Context, actor models.Actor, id uint) (*models.Agreement, error)) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	a, err := op(c.Request().Context(), actor, id)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToAgreementResponse(a))
}

func (h *AgreementHandler) act(c echo.Context, op func(ctx context.Context, actor models.Actor, id uint, party models.Party) (*models.Agreement, error)) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AgreementActionRequest
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	a, err := op(c.Request().Context(), actor, id, models.Party(req.Party))
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToAgreementResponse(a))
}
