package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/getmentor/portfolio-api/pkg/jwt"
	"github.com/gin-gonic/gin"
)

const (
	// UserSessionCookieName is the session cookie set by the GetMentor login flow
	UserSessionCookieName = "user_session"

	// UserSessionContextKey is the key used to store the session in the gin context
	UserSessionContextKey = "user_session"

	bearerPrefix = "Bearer "
)

var (
	ErrSessionNotFound = errors.New("session not found in context")
	ErrInvalidSession  = errors.New("invalid session type")
)

// UserSessionMiddleware validates the session token and adds the session to
// the context. The token is read from the session cookie, falling back to an
// Authorization: Bearer header.
func UserSessionMiddleware(tokenManager *jwt.TokenManager, cookieDomain string, cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromCookie := sessionToken(c)
		if token == "" {
			_ = c.Error(fmt.Errorf("missing session token")) //nolint:errcheck
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := tokenManager.ValidateToken(token)
		if err != nil {
			_ = c.Error(fmt.Errorf("invalid session token: %w", err)) //nolint:errcheck

			if fromCookie {
				clearSessionCookie(c, cookieDomain, cookieSecure)
			}

			if errors.Is(err, jwt.ErrExpiredToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			}
			c.Abort()
			return
		}

		session := &models.UserSession{
			UserID: claims.Subject,
			Email:  claims.Email,
			Name:   claims.Name,
		}
		if claims.ExpiresAt != nil {
			session.ExpiresAt = claims.ExpiresAt.Unix()
		}
		if claims.IssuedAt != nil {
			session.IssuedAt = claims.IssuedAt.Unix()
		}

		c.Set(UserSessionContextKey, session)
		c.Next()
	}
}

func sessionToken(c *gin.Context) (token string, fromCookie bool) {
	if cookie, err := c.Cookie(UserSessionCookieName); err == nil && cookie != "" {
		return cookie, true
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)), false
	}
	return "", false
}

// GetUserSession extracts the session from the context
func GetUserSession(c *gin.Context) (*models.UserSession, error) {
	val, exists := c.Get(UserSessionContextKey)
	if !exists {
		return nil, ErrSessionNotFound
	}

	session, ok := val.(*models.UserSession)
	if !ok {
		return nil, ErrInvalidSession
	}

	return session, nil
}

func clearSessionCookie(c *gin.Context, domain string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		UserSessionCookieName,
		"",
		-1,
		"/",
		domain,
		secure,
		true, // HttpOnly
	)
}
