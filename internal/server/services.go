package server

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tractorbooking/internal/modules/billing"
	"tractorbooking/internal/modules/booking"
	"tractorbooking/internal/modules/delivery"
	"tractorbooking/internal/modules/ledger"
	"tractorbooking/internal/modules/payout"
	"tractorbooking/internal/modules/usage"
	"tractorbooking/internal/pkg/events"
	"tractorbooking/internal/pkg/geo"
	"tractorbooking/internal/pkg/lock"
	"tractorbooking/internal/repository"
)

type Services struct {
	Bookings *booking.Service
	Delivery *delivery.Service
	Usage    *usage.Service
	Payout   *payout.Service
	Ledger   *ledger.Service
}

// Options selects the collaborators behind the services. Nil fields fall
// back to in-process implementations.
type Options struct {
	ReleaseLocker     lock.Locker
	Positions         delivery.PositionStore
	Estimator         delivery.Estimator
	Publisher         events.Publisher
	Billing           billing.Policy
	PlatformAccountID int64
	PollInterval      time.Duration
	PositionTTL       time.Duration
	Log               logrus.FieldLogger
}

func NewServices(db *gorm.DB, opts Options) Services {
	if opts.Positions == nil {
		opts.Positions = repository.NewMemoryPositionStore(opts.PositionTTL)
	}
	if opts.Estimator == nil {
		opts.Estimator = geo.NewHaversine(0)
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NewLogPublisher(opts.Log)
	}

	bookingRepo := repository.NewBookingRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	// One keyed lock per process so every component serializes on the same booking key.
	mutator := booking.NewMutator(bookingRepo, lock.NewKeyed())
	engine := billing.NewEngine(opts.Billing)

	return Services{
		Bookings: booking.NewService(bookingRepo, mutator, engine, opts.Publisher, opts.Log),
		Delivery: delivery.NewService(mutator, opts.Positions, opts.Estimator, opts.PollInterval, opts.Log),
		Usage:    usage.NewService(mutator, engine, opts.Log),
		Payout:   payout.NewService(mutator, opts.ReleaseLocker, engine, opts.Publisher, opts.PlatformAccountID, opts.Log),
		Ledger:   ledger.NewService(ledgerRepo),
	}
}
