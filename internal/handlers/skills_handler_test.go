package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSkillsHandler_GetSkills(t *testing.T) {
	source := new(MockSkillSource)
	source.On("Get", mock.Anything).Return([]models.Skill{{Value: "go", Label: "Go"}}, nil).Once()

	router := gin.New()
	router.GET("/api/v1/skills", NewSkillsHandler(source).GetSkills)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/skills", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"skills":[{"value":"go","label":"Go"}]}`, w.Body.String())
	source.AssertExpectations(t)
}

func TestSkillsHandler_GetSkills_Unavailable(t *testing.T) {
	source := new(MockSkillSource)
	source.On("Get", mock.Anything).Return(nil, errors.New("db down")).Once()

	router := gin.New()
	router.GET("/api/v1/skills", NewSkillsHandler(source).GetSkills)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/skills", http.NoBody))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Skills are not available"}`, w.Body.String())
}
