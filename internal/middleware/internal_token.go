package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/pkg/response"
)

const InternalTokenHeader = "X-Internal-Token"

// InternalTokenConfig guards the routes used by the payment and reservation collaborators.
type InternalTokenConfig struct {
	Token      string
	AllowedIPs []string
}

// InternalToken authenticates collaborator calls by a shared static token,
// sent either in X-Internal-Token or as a bearer token. Authenticated calls
// act as the system actor.
func InternalToken(cfg InternalTokenConfig, log logrus.FieldLogger) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.AllowedIPs))
	for _, ip := range cfg.AllowedIPs {
		if ip = strings.TrimSpace(ip); ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		if cfg.Token == "" {
			logAuthFailure(log, c, http.StatusInternalServerError, "token_not_configured")
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal token is not configured")
			c.Abort()
			return
		}

		if len(allowed) > 0 && !allowed[c.ClientIP()] {
			logAuthFailure(log, c, http.StatusForbidden, "ip_not_allowed")
			response.Error(c, http.StatusForbidden, "AUTH_INVALID", "IP not allowed")
			c.Abort()
			return
		}

		token := c.GetHeader(InternalTokenHeader)
		if token == "" {
			parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				token = parts[1]
			}
		}
		if token == "" {
			logAuthFailure(log, c, http.StatusUnauthorized, "missing_token")
			response.Error(c, http.StatusUnauthorized, "AUTH_MISSING", "Internal token is required")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) != 1 {
			logAuthFailure(log, c, http.StatusForbidden, "invalid_token")
			response.Error(c, http.StatusForbidden, "AUTH_INVALID", "Invalid internal token")
			c.Abort()
			return
		}

		c.Set(ctxRole, string(domain.RoleSystem))
		c.Next()
	}
}

func logAuthFailure(log logrus.FieldLogger, c *gin.Context, status int, reason string) {
	log.WithFields(logrus.Fields{
		"status":     status,
		"request_id": requestID(c),
		"client_ip":  c.ClientIP(),
		"reason":     reason,
	}).Warn("internal auth rejected")
}
