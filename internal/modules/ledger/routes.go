package ledger

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterOwnerRoutes(rg *gin.RouterGroup) {
	wallet := rg.Group("/wallet")
	{
		wallet.GET("", h.GetMyWallet)
		wallet.GET("/entries", h.ListMyEntries)
	}
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	wallets := rg.Group("/wallets")
	{
		wallets.GET("/:account", h.GetAccountWallet)
		wallets.GET("/:account/entries", h.ListAccountEntries)
	}
	rg.GET("/bookings/:id/ledger", h.ListBookingEntries)
}
