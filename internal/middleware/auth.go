package middleware

import (
	"log"
	"net/http"
	"strings"

	"doc-compliance-checker/internal/models"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// TokenValidator checks a bearer token
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.Claims, error)
}

// Authenticate requires a valid bearer token. Browsers cannot set headers on
// websocket upgrades, so a "token" query parameter is accepted as well.
func Authenticate(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Detail: "Not authenticated."})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			log.Printf("[AUTH] Rejected token from %s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Detail: "Invalid or expired token."})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// GetClaims returns the authenticated claims, or nil
func GetClaims(c *gin.Context) *models.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*models.Claims)
	return claims
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
