package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getmentor/portfolio-api/internal/form"
	"github.com/getmentor/portfolio-api/internal/middleware"
	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/getmentor/portfolio-api/internal/services"
	apperrors "github.com/getmentor/portfolio-api/pkg/errors"
	"github.com/gin-gonic/gin"
)

// FormHandler serves the hosted portfolio forms of the authenticated user
type FormHandler struct {
	service services.FormServiceInterface
}

func NewFormHandler(service services.FormServiceInterface) *FormHandler {
	return &FormHandler{service: service}
}

// OpenForm handles POST /api/v1/portfolio-forms
func (h *FormHandler) OpenForm(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	state, err := h.service.Open(c.Request.Context(), session.UserID)
	if err != nil {
		respondServiceError(c, err, "Failed to open portfolio form")
		return
	}

	c.JSON(http.StatusCreated, state)
}

// GetForm handles GET /api/v1/portfolio-forms/:id
func (h *FormHandler) GetForm(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	state, err := h.service.Get(c.Request.Context(), session.UserID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch portfolio form")
		return
	}

	c.JSON(http.StatusOK, state)
}

// UpdateFields handles PATCH /api/v1/portfolio-forms/:id/fields
func (h *FormHandler) UpdateFields(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	var req models.UpdatePortfolioFormFieldsRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		respondBindError(c, bindErr)
		return
	}

	state, err := h.service.UpdateFields(c.Request.Context(), session.UserID, c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err, "Failed to update portfolio form")
		return
	}

	c.JSON(http.StatusOK, state)
}

// SetSkills handles PUT /api/v1/portfolio-forms/:id/skills
func (h *FormHandler) SetSkills(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	var req models.SetPortfolioFormSkillsRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		respondBindError(c, bindErr)
		return
	}

	state, err := h.service.SetSkills(c.Request.Context(), session.UserID, c.Param("id"), req.Skills)
	if err != nil {
		respondServiceError(c, err, "Failed to update skills")
		return
	}

	c.JSON(http.StatusOK, state)
}

// SetImages handles PUT /api/v1/portfolio-forms/:id/images
func (h *FormHandler) SetImages(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	var req models.SetPortfolioFormImagesRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		respondBindError(c, bindErr)
		return
	}

	state, err := h.service.SetImages(c.Request.Context(), session.UserID, c.Param("id"), req.Images)
	if err != nil {
		respondServiceError(c, err, "Failed to update images")
		return
	}

	c.JSON(http.StatusOK, state)
}

// Submit handles POST /api/v1/portfolio-forms/:id/submit
// Every outcome returns the form state; the status reflects the outcome.
func (h *FormHandler) Submit(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), session.UserID, c.Param("id"))
	if resp == nil {
		respondServiceError(c, err, "Failed to submit portfolio form")
		return
	}

	attachError(c, err)
	c.JSON(submitStatus(resp.Outcome, err), resp)
}

func submitStatus(outcome string, err error) int {
	switch outcome {
	case form.OutcomeCreated.String():
		return http.StatusCreated
	case form.OutcomeInvalid.String(), form.OutcomeNoSkills.String(), form.OutcomeNoImages.String():
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, apperrors.ErrInvalidInput) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

// Reset handles POST /api/v1/portfolio-forms/:id/reset
func (h *FormHandler) Reset(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	state, err := h.service.Reset(c.Request.Context(), session.UserID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to reset portfolio form")
		return
	}

	c.JSON(http.StatusOK, state)
}

// Notifications handles GET /api/v1/portfolio-forms/:id/notifications
// Returned notifications are removed from the form.
func (h *FormHandler) Notifications(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	notifications, err := h.service.Notifications(c.Request.Context(), session.UserID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch notifications")
		return
	}

	c.JSON(http.StatusOK, models.NotificationsResponse{Notifications: notifications})
}

// Discard handles DELETE /api/v1/portfolio-forms/:id
func (h *FormHandler) Discard(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	if err := h.service.Discard(c.Request.Context(), session.UserID, c.Param("id")); err != nil {
		respondServiceError(c, err, "Failed to discard portfolio form")
		return
	}

	c.Status(http.StatusNoContent)
}

// requireSession returns the caller's session or responds 401
func requireSession(c *gin.Context) (*models.UserSession, bool) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondServiceError(c, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err), "Unauthorized")
		return nil, false
	}
	return session, true
}
