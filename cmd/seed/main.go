package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"tractorbooking/internal/config"
	"tractorbooking/internal/database"
	"tractorbooking/internal/domain"
	"tractorbooking/internal/modules/billing"
	"tractorbooking/internal/modules/booking"
	"tractorbooking/internal/pkg/jwt"
	"tractorbooking/internal/pkg/logger"
	"tractorbooking/internal/server"
)

const (
	customerID = 7
	ownerID    = 3
	adminID    = 1
)

var (
	customer = domain.Actor{ID: customerID, Role: domain.RoleCustomer}
	owner    = domain.Actor{ID: ownerID, Role: domain.RoleOwner}
	admin    = domain.Actor{ID: adminID, Role: domain.RoleAdmin}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}
	appLog := logger.New("warn", cfg.App.Env)

	db, err := database.Connect(cfg.Database.URL, appLog)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (children first)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM ledger_entries")
	db.Exec("DELETE FROM wallets")
	db.Exec("DELETE FROM booking_events")
	db.Exec("DELETE FROM bookings")

	svc := server.NewServices(db, server.Options{
		Billing: billing.Policy{
			MinBookingMinutes: cfg.Billing.MinMinutes,
			CommissionBPS:     cfg.Billing.CommissionBPS,
		},
		PlatformAccountID: cfg.Billing.PlatformAccountID,
		PollInterval:      cfg.Tracking.PollInterval,
		PositionTTL:       cfg.Tracking.PositionTTL,
		Log:               appLog,
	})
	ctx := context.Background()

	log.Println("Seeding bookings...")
	pending := create(ctx, svc, domain.PaymentOnline, 2*time.Hour, "Field 4, North farm")

	paid := create(ctx, svc, domain.PaymentOnline, 3*time.Hour, "Barn road 12")
	must(svc.Bookings.ConfirmPayment(ctx, paid.ID))

	delivering := create(ctx, svc, domain.PaymentOnline, time.Hour, "Orchard gate")
	must(svc.Bookings.ConfirmPayment(ctx, delivering.ID))
	advance(ctx, svc, delivering, domain.DeliveryOrdered, domain.DeliveryDelivering)

	cash := create(ctx, svc, domain.PaymentCashOnDelivery, 90*time.Minute, "Greenhouse 2")
	must(svc.Bookings.ApproveBooking(ctx, cash.ID, owner))
	advance(ctx, svc, cash, domain.DeliveryOrdered, domain.DeliveryDelivering, domain.DeliveryDelivered)
	must(svc.Usage.Start(ctx, cash.ID, customer))

	released := create(ctx, svc, domain.PaymentOnline, time.Hour, "South pasture")
	must(svc.Bookings.ConfirmPayment(ctx, released.ID))
	advance(ctx, svc, released, domain.DeliveryOrdered, domain.DeliveryDelivering, domain.DeliveryDelivered)
	must(svc.Usage.Start(ctx, released.ID, customer))
	must(svc.Usage.Stop(ctx, released.ID, customer))
	if _, err := svc.Payout.Release(ctx, released.ID, admin); err != nil {
		log.Fatal("release failed:", err)
	}

	cancelled := create(ctx, svc, domain.PaymentOnline, time.Hour, "East field")
	must(svc.Bookings.ConfirmPayment(ctx, cancelled.ID))
	if _, err := svc.Bookings.RequestCancellation(ctx, cancelled.ID, customer, "rain forecast"); err != nil {
		log.Fatal("cancel failed:", err)
	}

	fmt.Println("Seeded bookings:")
	for _, b := range []*domain.Booking{pending, paid, delivering, cash, released, cancelled} {
		cur, err := svc.Bookings.GetBooking(ctx, b.ID, admin)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  %s  %-16s delivery=%-10s payment=%s\n", cur.ID, cur.Status, cur.DeliveryStatus, cur.PaymentStatus)
	}

	j := jwt.New(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	fmt.Println("Demo tokens:")
	for _, a := range []domain.Actor{customer, owner, admin} {
		tok, err := j.GenerateToken(a.ID, a.Role)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  %-8s id=%d  %s\n", a.Role, a.ID, tok)
	}
	fmt.Printf("Internal token header %s: %s\n", "X-Internal-Token", cfg.Auth.InternalToken)
}

func create(ctx context.Context, svc server.Services, method domain.PaymentMethod, length time.Duration, address string) *domain.Booking {
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	b, err := svc.Bookings.CreateBooking(ctx, booking.CreateBookingRequest{
		CustomerID:       customerID,
		OwnerID:          ownerID,
		TractorID:        11,
		StartAt:          start,
		EndAt:            start.Add(length),
		HourlyRate:       domain.Money(12000),
		PaymentMethod:    method,
		DeliveryAddress:  address,
		DeliveryLocation: domain.Location{Lat: 43.25, Lng: 76.95},
		OriginalLocation: domain.Location{Lat: 43.20, Lng: 76.90},
	})
	if err != nil {
		log.Fatal("create booking failed:", err)
	}
	return b
}

func advance(ctx context.Context, svc server.Services, b *domain.Booking, steps ...domain.DeliveryStatus) {
	for _, st := range steps {
		must(svc.Delivery.Advance(ctx, b.ID, owner, st))
	}
}

func must(_ *domain.Booking, err error) {
	if err != nil {
		log.Fatal(err)
	}
}
