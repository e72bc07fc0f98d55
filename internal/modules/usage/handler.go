package usage

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tractorbooking/internal/middleware"
	"tractorbooking/internal/modules/booking"
	"tractorbooking/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterCustomerRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/:id/usage/start", h.Start)
	rg.POST("/bookings/:id/usage/stop", h.Stop)
	rg.GET("/bookings/:id/usage", h.CurrentElapsed)
}

func (h *Handler) RegisterOwnerRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings/:id/usage", h.CurrentElapsed)
}

func (h *Handler) Start(c *gin.Context) {
	id, ok := booking.ParseBookingID(c)
	if !ok {
		return
	}

	b, err := h.service.Start(c.Request.Context(), id, middleware.ActorFromContext(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Stop(c *gin.Context) {
	id, ok := booking.ParseBookingID(c)
	if !ok {
		return
	}

	b, err := h.service.Stop(c.Request.Context(), id, middleware.ActorFromContext(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) CurrentElapsed(c *gin.Context) {
	id, ok := booking.ParseBookingID(c)
	if !ok {
		return
	}

	el, err := h.service.CurrentElapsed(c.Request.Context(), id, middleware.ActorFromContext(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, el)
}
