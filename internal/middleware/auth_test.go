package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/pkg/jwt"
	"tractorbooking/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTAuth_ValidToken(t *testing.T) {
	jwtService := jwt.New("test-secret-123", time.Hour)
	validToken, _ := jwtService.GenerateToken(42, domain.RoleCustomer)

	router := gin.New()
	router.Use(JWTAuth(jwtService))
	router.GET("/protected", func(c *gin.Context) {
		actor := ActorFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.ID, "role": actor.Role})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
	assert.Contains(t, w.Body.String(), "customer")
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuth(jwt.New("wrong-secret", time.Hour)))
	router.GET("/protected", func(c *gin.Context) {
		t.Fatal("This handler should not be reached")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid-jwt-here")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuth_NoToken(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuth(jwt.New("secret", time.Hour)))
	router.GET("/protected", func(c *gin.Context) {
		t.Fatal("Should not reach here")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_HEADER_MISSING")
}

func TestJWTAuth_WrongFormat(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuth(jwt.New("secret", time.Hour)))
	router.GET("/protected", func(c *gin.Context) {
		t.Fatal("Should not reach here")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dGVzdA==")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
}

func TestRequireRole(t *testing.T) {
	jwtService := jwt.New("secret", time.Hour)
	router := gin.New()
	router.Use(JWTAuth(jwtService), RequireRole(domain.RoleOwner, domain.RoleAdmin))
	router.GET("/owner", func(c *gin.Context) { c.Status(http.StatusOK) })

	for role, want := range map[domain.UserRole]int{
		domain.RoleOwner:    http.StatusOK,
		domain.RoleAdmin:    http.StatusOK,
		domain.RoleCustomer: http.StatusForbidden,
	} {
		token, _ := jwtService.GenerateToken(1, role)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/owner", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, string(role))
	}
}

func TestInternalToken(t *testing.T) {
	router := gin.New()
	router.Use(InternalToken(InternalTokenConfig{Token: "s3cret"}, logger.Discard()))
	router.POST("/internal", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": ActorFromContext(c).Role})
	})

	cases := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"header", InternalTokenHeader, "s3cret", http.StatusOK},
		{"bearer", "Authorization", "Bearer s3cret", http.StatusOK},
		{"wrong", InternalTokenHeader, "nope", http.StatusForbidden},
		{"missing", "", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/internal", nil)
		if tc.header != "" {
			req.Header.Set(tc.header, tc.value)
		}
		router.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, tc.name)
		if tc.want == http.StatusOK {
			assert.Contains(t, w.Body.String(), "system")
		}
	}
}

func TestLogger_RecoversPanic(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), Logger(logger.Discard()))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
