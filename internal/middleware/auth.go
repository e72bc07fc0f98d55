package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/pkg/jwt"
	"tractorbooking/internal/pkg/response"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// JWTAuth authenticates customers, owners and admins by bearer token.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, string(claims.Role))
		c.Next()
	}
}

// ActorFromContext returns the authenticated caller set by JWTAuth or InternalToken.
func ActorFromContext(c *gin.Context) domain.Actor {
	return domain.Actor{
		ID:   c.GetInt64(ctxUserID),
		Role: domain.UserRole(c.GetString(ctxRole)),
	}
}
