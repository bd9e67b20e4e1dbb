package handler

import (
	"net/http"

	"github.com/Eursukkul/trainer-booking-service/internal/dto"
	"github.com/Eursukkul/trainer-booking-service/internal/service"
	"github.com/labstack/echo/v4"
)

type FeedbackHandler struct {
	svc service.FeedbackService
}

func NewFeedbackHandler(svc service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

func (h *FeedbackHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/bookings/:id/feedback-link", h.IssueLink)
	g.DELETE("/bookings/:id/feedback-link", h.DeactivateLink)
}

// RegisterPublicRoutes mounts the token-authenticated submission endpoint.
func (h *FeedbackHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/feedback/:token", h.GetLink)
	g.POST("/feedback/:token", h.SubmitFeedback)
}

func (h *FeedbackHandler) IssueLink(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	bookingID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	link, err := h.svc.IssueLink(c.Request().Context(), actor, bookingID)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToFeedbackLinkResponse(link))
}

func (h *FeedbackHandler) DeactivateLink(c echo.Context) error {
	actor, err := caller(c)
	if err != nil {
		return err
	}
	bookingID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeactivateLink(c.Request().Context(), actor, bookingID); err != nil {
		return toHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetLink lets the feedback form check its token before showing questions.
func (h *FeedbackHandler) GetLink(c echo.Context) error {
	link, err := h.svc.ResolveLink(c.Request().Context(), c.Param("token"))
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, dto.ToFeedbackFormResponse(link))
}

// SubmitFeedback resolves the token before reading the body, so a dead link is
// reported as such whatever was posted.
func (h *FeedbackHandler) SubmitFeedback(c echo.Context) error {
	token := c.Param("token")
	if _, err := h.svc.ResolveLink(c.Request().Context(), token); err != nil {
		return toHTTP(err)
	}
	var req dto.SubmitFeedbackRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.svc.SubmitFeedback(c.Request().Context(), token, req.RespondentEmail, service.FeedbackInput{
		Rating:  req.Rating,
		Comment: req.Comment,
		Answers: req.Answers,
	})
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, dto.ToFeedbackSubmissionResponse(resp))
}
