package payout

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

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/:id/release", h.Release)
}

func (h *Handler) Release(c *gin.Context) {
	id, ok := booking.ParseBookingID(c)
	if !ok {
		return
	}

	res, err := h.service.Release(c.Request.Context(), id, middleware.ActorFromContext(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}
