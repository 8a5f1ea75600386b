package handlers

import (
	"context"
	"net/http"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/gin-gonic/gin"
)

// SkillSource provides the selectable skills
type SkillSource interface {
	Get(ctx context.Context) ([]models.Skill, error)
}

type SkillsHandler struct {
	skills SkillSource
}

func NewSkillsHandler(skills SkillSource) *SkillsHandler {
	return &SkillsHandler{skills: skills}
}

// GetSkills handles GET /api/v1/skills
func (h *SkillsHandler) GetSkills(c *gin.Context) {
	skills, err := h.skills.Get(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "Skills are not available", err)
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, models.SkillsResponse{Skills: skills})
}
