package handler

import (
	"context"
	"net/http"

	"github.com/Eursukkul/trainer-booking-service/internal/dto"
	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/service"
	"github.com/labstack/echo/v4"
)

type RequestHandler struct {
	svc service.RequestService
}

func NewRequestHandler(svc service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

func (h *RequestHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/requests", h.CreateRequest)
	g.GET("/requests", h.ListRequests)
	g.GET("/requests/:id", h.GetRequest)
	g.POST("/requests/:id/close", h.CloseRequest)
	g.POST("/requests/:id/cancel", h.CancelRequest)
}

func (h *RequestHandler) CreateRequest(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateTrainingRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	created, err := h.svc.CreateRequest(c.Request().Context(), actor, service.CreateRequestInput{
		Title:               req.Title,
		Description:         req.Description,
		TargetAudience:      req.TargetAudience,
		ExpectedStartDate:   req.ExpectedStartDate,
		ExpectedEndDate:     req.ExpectedEndDate,
		DurationHours:       req.DurationHours,
		DeliveryMode:        models.DeliveryMode(req.DeliveryMode),
		Location:            req.Location,
		BudgetMin:           req.BudgetMin,
		BudgetMax:           req.BudgetMax,
		ApplicationDeadline: req.ApplicationDeadline,
	})
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, dto.ToTrainingRequestResponse(created))
}

// ListRequests filters by ?status= and ?mine=true.
func (h *RequestHandler) ListRequests(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}

	var filter models.RequestFilter
	if s := c.QueryParam("status"); s != "" {
		rs := models.RequestStatus(s)
		filter.Status = &rs
	}
	if c.QueryParam("mine") == "true" {
		filter.ClientID = actor.UserID
	}

	requests, err := h.svc.ListRequests(c.Request().Context(), filter)
	if err != nil {
		return toHTTP(err)
	}

	resp := make([]dto.TrainingRequestResponse, len(requests))
	for i, r := range requests {
		resp[i] = dto.ToTrainingRequestResponse(&r)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RequestHandler) GetRequest(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.svc.GetRequest(c.Request().Context(), id)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToTrainingRequestResponse(req))
}

func (h *RequestHandler) CloseRequest(c echo.Context) error {
	return h.move(c, h.svc.CloseRequest)
}

func (h *RequestHandler) CancelRequest(c echo.Context) error {
	return h.move(c, h.svc.CancelRequest)
}

func (h *RequestHandler) move(c echo.Context, op func(ctx context.Context, actor models.Actor, id uint) (*models.TrainingRequest, error)) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	req, err := op(c.Request().Context(), actor, id)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToTrainingRequestResponse(req))
}
