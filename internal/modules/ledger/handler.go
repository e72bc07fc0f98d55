package ledger

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tractorbooking/internal/modules/booking"
	"tractorbooking/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type pageQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (h *Handler) GetMyWallet(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	h.writeWallet(c, userID)
}

func (h *Handler) ListMyEntries(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	h.writeEntries(c, userID)
}

func (h *Handler) GetAccountWallet(c *gin.Context) {
	accountID, ok := parseAccount(c)
	if !ok {
		return
	}
	h.writeWallet(c, accountID)
}

func (h *Handler) ListAccountEntries(c *gin.Context) {
	accountID, ok := parseAccount(c)
	if !ok {
		return
	}
	h.writeEntries(c, accountID)
}

func (h *Handler) ListBookingEntries(c *gin.Context) {
	id, ok := booking.ParseBookingID(c)
	if !ok {
		return
	}

	entries, err := h.service.BookingEntries(c.Request.Context(), id)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) writeWallet(c *gin.Context, accountID int64) {
	wallet, err := h.service.Wallet(c.Request.Context(), accountID)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"account_id": wallet.AccountID, "balance": wallet.Balance})
}

func (h *Handler) writeEntries(c *gin.Context, accountID int64) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	entries, err := h.service.Entries(c.Request.Context(), accountID, q.Limit, q.Offset)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"entries": entries})
}

func parseAccount(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("account"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid account ID")
		return 0, false
	}
	return id, true
}
