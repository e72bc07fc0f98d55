package usage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/modules/billing"
	"tractorbooking/internal/modules/booking"
	"tractorbooking/internal/pkg/events"
	"tractorbooking/internal/pkg/lock"
	applog "tractorbooking/internal/pkg/logger"
	"tractorbooking/internal/repository"
)

var (
	customer = domain.Actor{ID: 7, Role: domain.RoleCustomer}
	owner    = domain.Actor{ID: 3, Role: domain.RoleOwner}
	start    = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc     *Service
	repo    *repository.BookingRepository
	mutator *booking.Mutator
	clock   *time.Time
}

func setup(t *testing.T) fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:usage_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(repository.Models()...))

	repo := repository.NewBookingRepository(db)
	mutator := booking.NewMutator(repo, lock.NewKeyed())
	svc := NewService(mutator, billing.NewEngine(billing.DefaultPolicy()), applog.Discard())
	clock := start
	svc.now = func() time.Time { return clock }
	return fixture{svc: svc, repo: repo, mutator: mutator, clock: &clock}
}

// delivered stores a booking of 45 booked minutes at 100.00/h whose tractor has arrived.
func (f fixture) delivered(t *testing.T, status domain.BookingStatus, method domain.PaymentMethod) *domain.Booking {
	t.Helper()
	b := &domain.Booking{
		CustomerID:     customer.ID,
		OwnerID:        owner.ID,
		TractorID:      11,
		Status:         status,
		PaymentStatus:  domain.PaymentPaid,
		PaymentMethod:  method,
		DeliveryStatus: domain.DeliveryDelivered,
		StartAt:        start,
		EndAt:          start.Add(45 * time.Minute),
		BookedMinutes:  45,
		HourlyRate:     10000,
		InitialPrice:   7500,
	}
	if method.IsDeferred() {
		b.PaymentStatus = domain.PaymentUnpaid
		b.OwnerApproved = true
	}
	require.NoError(t, f.repo.Create(context.Background(), b))
	return b
}

func TestStart_RequiresDelivered(t *testing.T) {
	f := setup(t)
	b := f.delivered(t, domain.BookingDelivered, domain.PaymentOnline)
	_, err := f.repo.Update(context.Background(), b.ID, func(cur *domain.Booking) (*domain.Change, error) {
		cur.DeliveryStatus = domain.DeliveryDelivering
		return &domain.Change{Event: domain.EventDeliveryOverride, Actor: domain.SystemActor()}, nil
	})
	require.NoError(t, err)

	_, err = f.svc.Start(context.Background(), b.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrPreconditionFailed))
}

func TestStart_SecondStartRejectedAndStartUnchanged(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.delivered(t, domain.BookingDelivered, domain.PaymentOnline)

	first, err := f.svc.Start(ctx, b.ID, customer)
	require.NoError(t, err)
	require.NotNil(t, first.ActualUsageStartAt)

	*f.clock = start.Add(3 * time.Minute)
	_, err = f.svc.Start(ctx, b.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrPreconditionFailed))

	got, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, start.Equal(*got.ActualUsageStartAt))
}

func TestStart_RejectedAfterReturnOrCancel(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	returned := f.delivered(t, domain.BookingDelivered, domain.PaymentOnline)
	_, err := f.repo.Update(ctx, returned.ID, func(cur *domain.Booking) (*domain.Change, error) {
		cur.DeliveryStatus = domain.DeliveryReturned
		return &domain.Change{Event: domain.EventDeliveryAdvanced, Actor: owner}, nil
	})
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, returned.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrPreconditionFailed))

	cancelled := f.delivered(t, domain.BookingCancelled, domain.PaymentOnline)
	_, err = f.svc.Start(ctx, cancelled.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrPreconditionFailed))
}

func TestStart_RejectsUnpaidOnlineBooking(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := &domain.Booking{
		CustomerID:     customer.ID,
		OwnerID:        owner.ID,
		TractorID:      11,
		Status:         domain.BookingPending,
		PaymentStatus:  domain.PaymentUnpaid,
		PaymentMethod:  domain.PaymentOnline,
		DeliveryStatus: domain.DeliveryDelivered,
		StartAt:        start,
		EndAt:          start.Add(45 * time.Minute),
		BookedMinutes:  45,
		HourlyRate:     10000,
		InitialPrice:   7500,
	}
	require.NoError(t, f.repo.Create(ctx, b))

	_, err := f.svc.Start(ctx, b.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrPreconditionFailed))

	got, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ActualUsageStartAt)
	assert.Equal(t, domain.BookingPending, got.Status)

	// A deferred booking the owner has not approved is refused the same way.
	cod := f.delivered(t, domain.BookingPending, domain.PaymentCashOnDelivery)
	_, err = f.repo.Update(ctx, cod.ID, func(cur *domain.Booking) (*domain.Change, error) {
		cur.OwnerApproved = false
		return &domain.Change{Event: domain.EventDeliveryOverride, Actor: domain.SystemActor()}, nil
	})
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, cod.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrPreconditionFailed))
}

func TestStart_ConcurrentCallsStartOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.delivered(t, domain.BookingDelivered, domain.PaymentOnline)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Start(ctx, b.ID, customer); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	evs, err := f.repo.ListEvents(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, evs, 1)
	got, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActualUsageStartAt)
	assert.True(t, start.Equal(*got.ActualUsageStartAt))
}

func TestStop_SettlesBelowFloor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.delivered(t, domain.BookingDelivered, domain.PaymentOnline)

	_, err := f.svc.Start(ctx, b.ID, customer)
	require.NoError(t, err)
	*f.clock = start.Add(20 * time.Minute)

	got, err := f.svc.Stop(ctx, b.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, got.Status)
	require.NotNil(t, got.ActualUsageMinutes)
	assert.Equal(t, int64(20), *got.ActualUsageMinutes)
	require.NotNil(t, got.FinalPrice)
	assert.Equal(t, domain.Money(5000), *got.FinalPrice)
	assert.Equal(t, domain.Money(2500), got.RefundAmount)
	assert.Equal(t, domain.Money(0), got.OverageAmount)

	evs, err := f.repo.ListEvents(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, domain.EventUsageStopped, evs[1].Kind)
	assert.Equal(t, domain.BookingCompleted, evs[1].StatusTo)
}

func TestStop_SameInstantCountsOneMinute(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.delivered(t, domain.BookingDelivered, domain.PaymentOnline)

	_, err := f.svc.Start(ctx, b.ID, customer)
	require.NoError(t, err)

	got, err := f.svc.Stop(ctx, b.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *got.ActualUsageMinutes)
	assert.True(t, got.ActualUsageStopAt.After(*got.ActualUsageStartAt))
	assert.Equal(t, domain.Money(5000), *got.FinalPrice)
}

func TestStop_WithoutStartOrTwice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.delivered(t, domain.BookingDelivered, domain.PaymentOnline)

	_, err := f.svc.Stop(ctx, b.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrPreconditionFailed))

	_, err = f.svc.Start(ctx, b.ID, customer)
	require.NoError(t, err)
	*f.clock = start.Add(50 * time.Minute)
	_, err = f.svc.Stop(ctx, b.ID, customer)
	require.NoError(t, err)

	_, err = f.svc.Stop(ctx, b.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrPreconditionFailed))
	_, err = f.svc.Start(ctx, b.ID, customer)
	assert.True(t, errors.Is(err, domain.ErrPreconditionFailed))
}

func TestStop_OverageRecordedWithoutChangingRefund(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.delivered(t, domain.BookingDelivered, domain.PaymentOnline)

	_, err := f.svc.Start(ctx, b.ID, customer)
	require.NoError(t, err)
	*f.clock = start.Add(90*time.Minute + 10*time.Second)

	got, err := f.svc.Stop(ctx, b.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, int64(91), *got.ActualUsageMinutes)
	assert.Equal(t, domain.Money(15167), *got.FinalPrice)
	assert.Equal(t, domain.Money(0), got.RefundAmount)
	assert.Equal(t, domain.Money(7667), got.OverageAmount)
}

func TestCurrentElapsed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.delivered(t, domain.BookingDelivered, domain.PaymentOnline)

	el, err := f.svc.CurrentElapsed(ctx, b.ID, customer)
	require.NoError(t, err)
	assert.False(t, el.Running)
	assert.Nil(t, el.Minutes)

	_, err = f.svc.Start(ctx, b.ID, customer)
	require.NoError(t, err)
	*f.clock = start.Add(5*time.Minute + 30*time.Second)

	el, err = f.svc.CurrentElapsed(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.True(t, el.Running)
	assert.Equal(t, int64(5), *el.Minutes)

	_, err = f.svc.Stop(ctx, b.ID, customer)
	require.NoError(t, err)
	*f.clock = start.Add(time.Hour)

	el, err = f.svc.CurrentElapsed(ctx, b.ID, customer)
	require.NoError(t, err)
	assert.False(t, el.Running)
	assert.Equal(t, int64(6), *el.Minutes)
}

func TestDeferredPayment_SettlesThenCollects(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.delivered(t, domain.BookingPending, domain.PaymentCashOnDelivery)

	_, err := f.svc.Start(ctx, b.ID, customer)
	require.NoError(t, err)
	*f.clock = start.Add(40 * time.Minute)
	settled, err := f.svc.Stop(ctx, b.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, settled.Status)
	assert.Equal(t, domain.PaymentUnpaid, settled.PaymentStatus)

	bookings := booking.NewService(f.repo, f.mutator, billing.NewEngine(billing.DefaultPolicy()), events.NewLogPublisher(applog.Discard()), applog.Discard())
	paid, err := bookings.ConfirmPayment(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, paid.Status)
	assert.Equal(t, domain.PaymentPaid, paid.PaymentStatus)
}
