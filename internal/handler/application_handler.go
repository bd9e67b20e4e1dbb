package handler

import (
	"net/http"

	"github.com/Eursukkul/trainer-booking-service/internal/dto"
	"github.com/Eursukkul/trainer-booking-service/internal/models"
	"github.com/Eursukkul/trainer-booking-service/internal/service"
	"github.com/labstack/echo/v4"
)

type ApplicationHandler struct {
	svc service.ApplicationService
}

func NewApplicationHandler(svc service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

func (h *ApplicationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/requests/:id/applications", h.SubmitApplication)
	g.GET("/requests/:id/applications", h.ListApplications)
	g.POST("/requests/:id/select", h.SelectTrainer)
	g.GET("/applications/:id", h.GetApplication)
	g.PATCH("/applications/:id", h.UpdateApplicationStatus)
}

func (h *ApplicationHandler) SubmitApplication(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	requestID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.SubmitApplicationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	app, err := h.svc.SubmitApplication(c.Request().Context(), actor, requestID, service.ApplicationInput{
		ProposedPrice:         req.ProposedPrice,
		ProposedStartDate:     req.ProposedStartDate,
		ProposedEndDate:       req.ProposedEndDate,
		ProposedDurationHours: req.ProposedDurationHours,
		Message:               req.Message,
		Syllabus:              req.Syllabus,
	})
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, dto.ToApplicationResponse(app))
}

func (h *ApplicationHandler) ListApplications(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	requestID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	apps, err := h.svc.ListApplications(c.Request().Context(), actor, requestID)
	if err != nil {
		return toHTTP(err)
	}
	resp := make([]dto.ApplicationResponse, len(apps))
	for i, a := range apps {
		resp[i] = dto.ToApplicationResponse(&a)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ApplicationHandler) GetApplication(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	app, err := h.svc.GetApplication(c.Request().Context(), actor, id)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToApplicationResponse(app))
}

func (h *ApplicationHandler) UpdateApplicationStatus(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateApplicationStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	app, err := h.svc.UpdateApplicationStatus(c.Request().Context(), actor, id, models.ApplicationStatus(req.Status))
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToApplicationResponse(app))
}

func (h *ApplicationHandler) SelectTrainer(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	requestID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.SelectTrainerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	sel, err := h.svc.SelectTrainer(c.Request().Context(), actor, requestID, req.ApplicationID)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.SelectionResponse{
		Request:     dto.ToTrainingRequestResponse(sel.Request),
		Application: dto.ToApplicationResponse(sel.Application),
		RejectedIDs: sel.Rejected,
	})
}
