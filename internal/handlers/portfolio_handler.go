package handlers

import (
	"net/http"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/getmentor/portfolio-api/internal/services"
	"github.com/gin-gonic/gin"
)

type PortfolioHandler struct {
	service services.PortfolioServiceInterface
}

func NewPortfolioHandler(service services.PortfolioServiceInterface) *PortfolioHandler {
	return &PortfolioHandler{service: service}
}

// CreatePortfolio handles POST /api/v1/portfolios
// Creates a portfolio from an already normalized payload
func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	var payload models.SubmissionPayload
	if bindErr := c.ShouldBindJSON(&payload); bindErr != nil {
		respondBindError(c, bindErr)
		return
	}

	result, err := h.service.SubmitPortfolio(c.Request.Context(), session.UserID, &payload)
	if err != nil {
		respondServiceError(c, err, "Failed to create portfolio")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListPortfolios handles GET /api/v1/portfolios
func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	portfolios, err := h.service.ListPortfolios(c.Request.Context(), session.UserID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch portfolios")
		return
	}

	c.JSON(http.StatusOK, models.PortfoliosResponse{Portfolios: portfolios})
}
