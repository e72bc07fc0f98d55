package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/middleware"
	"tractorbooking/internal/modules/booking"
	"tractorbooking/internal/modules/delivery"
	"tractorbooking/internal/modules/ledger"
	"tractorbooking/internal/modules/payout"
	"tractorbooking/internal/modules/usage"
	"tractorbooking/internal/pkg/jwt"
)

type RouterConfig struct {
	JWT         *jwt.Service
	Internal    middleware.InternalTokenConfig
	CORSOrigins []string
	Log         logrus.FieldLogger
}

func NewRouter(cfg RouterConfig, s Services) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(cfg.Log), middleware.CORS(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	bookingHandler := booking.NewHandler(s.Bookings)
	deliveryHandler := delivery.NewHandler(s.Delivery)
	usageHandler := usage.NewHandler(s.Usage)
	payoutHandler := payout.NewHandler(s.Payout)
	ledgerHandler := ledger.NewHandler(s.Ledger)

	v1 := r.Group("/api/v1")
	{
		// payment and reservation collaborators
		internal := v1.Group("/internal")
		internal.Use(middleware.InternalToken(cfg.Internal, cfg.Log))
		bookingHandler.RegisterInternalRoutes(internal)

		auth := middleware.JWTAuth(cfg.JWT)

		customer := v1.Group("/customer")
		customer.Use(auth, middleware.RequireRole(domain.RoleCustomer))
		{
			bookingHandler.RegisterCustomerRoutes(customer)
			deliveryHandler.RegisterCustomerRoutes(customer)
			usageHandler.RegisterCustomerRoutes(customer)
		}

		owner := v1.Group("/owner")
		owner.Use(auth, middleware.RequireRole(domain.RoleOwner))
		{
			bookingHandler.RegisterOwnerRoutes(owner)
			deliveryHandler.RegisterOwnerRoutes(owner)
			usageHandler.RegisterOwnerRoutes(owner)
			ledgerHandler.RegisterOwnerRoutes(owner)
		}

		admin := v1.Group("/admin")
		admin.Use(auth, middleware.AdminOnly())
		{
			bookingHandler.RegisterAdminRoutes(admin)
			deliveryHandler.RegisterAdminRoutes(admin)
			payoutHandler.RegisterAdminRoutes(admin)
			ledgerHandler.RegisterAdminRoutes(admin)
		}
	}

	return r
}
