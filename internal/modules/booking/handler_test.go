package booking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tractorbooking/internal/domain"
)

func newTestRouter(h *Handler, actor domain.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", actor.ID)
		c.Set("role", string(actor.Role))
		c.Next()
	})
	h.RegisterInternalRoutes(r.Group("/internal"))
	h.RegisterCustomerRoutes(r.Group("/customer"))
	return r
}

func TestHandler_CreateAndCancel(t *testing.T) {
	svc, _, _ := setupService(t)
	h := NewHandler(svc)

	body, err := json.Marshal(createRequest())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter(h, domain.SystemActor()).ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Success bool `json:"success"`
		Data    struct {
			Booking domain.Booking `json:"booking"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, domain.Money(7500), created.Data.Booking.InitialPrice)

	customerRouter := newTestRouter(h, customer)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/customer/bookings/"+created.Data.Booking.ID.String()+"/cancel", nil)
	customerRouter.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"refund_requested":false`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/customer/bookings/"+created.Data.Booking.ID.String()+"/cancel", nil)
	customerRouter.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TRANSITION")
}

func TestHandler_RejectsBadInput(t *testing.T) {
	svc, _, _ := setupService(t)
	r := newTestRouter(NewHandler(svc), customer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customer/bookings/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ID")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/bookings", bytes.NewBufferString(`{"customer_id":7}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}
