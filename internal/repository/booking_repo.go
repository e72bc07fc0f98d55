package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tractorbooking/internal/domain"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID int64     `gorm:"column:customer_id;index"`
	OwnerID    int64     `gorm:"column:owner_id;index"`
	TractorID  int64     `gorm:"column:tractor_id"`

	Status         string `gorm:"column:status;type:varchar(24);index"`
	PaymentStatus  string `gorm:"column:payment_status;type:varchar(16)"`
	PaymentMethod  string `gorm:"column:payment_method;type:varchar(24)"`
	OwnerApproved  bool   `gorm:"column:owner_approved"`
	DeliveryStatus string `gorm:"column:delivery_status;type:varchar(16)"`

	StartAt       time.Time `gorm:"column:start_at"`
	EndAt         time.Time `gorm:"column:end_at"`
	BookedMinutes int64     `gorm:"column:booked_minutes"`
	HourlyRate    int64     `gorm:"column:hourly_rate"`
	InitialPrice  int64     `gorm:"column:initial_price"`

	ActualUsageStartAt *time.Time `gorm:"column:actual_usage_start_at"`
	ActualUsageStopAt  *time.Time `gorm:"column:actual_usage_stop_at"`
	ActualUsageMinutes *int64     `gorm:"column:actual_usage_minutes"`

	FinalPrice    *int64 `gorm:"column:final_price"`
	RefundAmount  int64  `gorm:"column:refund_amount"`
	OverageAmount int64  `gorm:"column:overage_amount"`

	CommissionAmount *int64     `gorm:"column:commission_amount"`
	OwnerAmount      *int64     `gorm:"column:owner_amount"`
	PaymentReleased  bool       `gorm:"column:payment_released"`
	ReleasedAt       *time.Time `gorm:"column:released_at"`

	CancelledAt            *time.Time `gorm:"column:cancelled_at"`
	CancelledPaymentStatus *string    `gorm:"column:cancelled_payment_status"`
	CancellationReason     *string    `gorm:"column:cancellation_reason;type:text"`
	RefundRequestedAt      *time.Time `gorm:"column:refund_requested_at"`
	RefundRequestedFrom    *string    `gorm:"column:refund_requested_from"`

	DeliveryAddress string  `gorm:"column:delivery_address;type:text"`
	DeliveryLat     float64 `gorm:"column:delivery_lat"`
	DeliveryLng     float64 `gorm:"column:delivery_lng"`
	OriginLat       float64 `gorm:"column:origin_lat"`
	OriginLng       float64 `gorm:"column:origin_lng"`

	Version   int64     `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

// Models lists the tables owned by this package, for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&bookingModel{},
		&domain.BookingEvent{},
		&domain.Wallet{},
		&domain.LedgerEntry{},
	}
}

func toDomainBooking(m bookingModel) *domain.Booking {
	return &domain.Booking{
		ID:         m.ID,
		CustomerID: m.CustomerID,
		OwnerID:    m.OwnerID,
		TractorID:  m.TractorID,

		Status:         domain.BookingStatus(m.Status),
		PaymentStatus:  domain.PaymentStatus(m.PaymentStatus),
		PaymentMethod:  domain.PaymentMethod(m.PaymentMethod),
		OwnerApproved:  m.OwnerApproved,
		DeliveryStatus: domain.DeliveryStatus(m.DeliveryStatus),

		StartAt:       m.StartAt,
		EndAt:         m.EndAt,
		BookedMinutes: m.BookedMinutes,
		HourlyRate:    domain.Money(m.HourlyRate),
		InitialPrice:  domain.Money(m.InitialPrice),

		ActualUsageStartAt: m.ActualUsageStartAt,
		ActualUsageStopAt:  m.ActualUsageStopAt,
		ActualUsageMinutes: m.ActualUsageMinutes,

		FinalPrice:    toMoneyPtr(m.FinalPrice),
		RefundAmount:  domain.Money(m.RefundAmount),
		OverageAmount: domain.Money(m.OverageAmount),

		CommissionAmount: toMoneyPtr(m.CommissionAmount),
		OwnerAmount:      toMoneyPtr(m.OwnerAmount),
		PaymentReleased:  m.PaymentReleased,
		ReleasedAt:       m.ReleasedAt,

		CancelledAt:            m.CancelledAt,
		CancelledPaymentStatus: domain.PaymentStatus(deref(m.CancelledPaymentStatus)),
		CancellationReason:     deref(m.CancellationReason),
		RefundRequestedAt:      m.RefundRequestedAt,
		RefundRequestedFrom:    domain.BookingStatus(deref(m.RefundRequestedFrom)),

		DeliveryAddress:  m.DeliveryAddress,
		DeliveryLocation: domain.Location{Lat: m.DeliveryLat, Lng: m.DeliveryLng},
		OriginalLocation: domain.Location{Lat: m.OriginLat, Lng: m.OriginLng},

		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	return bookingModel{
		ID:         b.ID,
		CustomerID: b.CustomerID,
		OwnerID:    b.OwnerID,
		TractorID:  b.TractorID,

		Status:         string(b.Status),
		PaymentStatus:  string(b.PaymentStatus),
		PaymentMethod:  string(b.PaymentMethod),
		OwnerApproved:  b.OwnerApproved,
		DeliveryStatus: string(b.DeliveryStatus),

		StartAt:       b.StartAt,
		EndAt:         b.EndAt,
		BookedMinutes: b.BookedMinutes,
		HourlyRate:    int64(b.HourlyRate),
		InitialPrice:  int64(b.InitialPrice),

		ActualUsageStartAt: b.ActualUsageStartAt,
		ActualUsageStopAt:  b.ActualUsageStopAt,
		ActualUsageMinutes: b.ActualUsageMinutes,

		FinalPrice:    fromMoneyPtr(b.FinalPrice),
		RefundAmount:  int64(b.RefundAmount),
		OverageAmount: int64(b.OverageAmount),

		CommissionAmount: fromMoneyPtr(b.CommissionAmount),
		OwnerAmount:      fromMoneyPtr(b.OwnerAmount),
		PaymentReleased:  b.PaymentReleased,
		ReleasedAt:       b.ReleasedAt,

		CancelledAt:            b.CancelledAt,
		CancelledPaymentStatus: optional(string(b.CancelledPaymentStatus)),
		CancellationReason:     optional(b.CancellationReason),
		RefundRequestedAt:      b.RefundRequestedAt,
		RefundRequestedFrom:    optional(string(b.RefundRequestedFrom)),

		DeliveryAddress: b.DeliveryAddress,
		DeliveryLat:     b.DeliveryLocation.Lat,
		DeliveryLng:     b.DeliveryLocation.Lng,
		OriginLat:       b.OriginalLocation.Lat,
		OriginLng:       b.OriginalLocation.Lng,

		Version:   b.Version,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if err := b.Validate(); err != nil {
		return err
	}
	m := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: booking %s already exists", domain.ErrConflict, b.ID)
		}
		return err
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return toDomainBooking(m), nil
}

// ListFilter selects bookings of one actor; zero fields are ignored.
type ListFilter struct {
	CustomerID int64
	OwnerID    int64
	Status     domain.BookingStatus
	Limit      int
	Offset     int
}

func (r *BookingRepository) List(ctx context.Context, f ListFilter) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{})
	if f.CustomerID > 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.OwnerID > 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}

	var rows []bookingModel
	if err := q.Order("created_at desc").Limit(f.Limit).Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

func (r *BookingRepository) ListEvents(ctx context.Context, bookingID uuid.UUID) ([]domain.BookingEvent, error) {
	var evs []domain.BookingEvent
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("created_at asc").Find(&evs).Error; err != nil {
		return nil, err
	}
	return evs, nil
}

// Update runs fn on a locked copy of the booking and commits the new state,
// its audit event and any ledger postings in one transaction. fn returning an
// error, or a new state failing validation, leaves the record untouched.
// A nil change from fn means nothing to write.
func (r *BookingRepository) Update(ctx context.Context, id uuid.UUID, fn func(b *domain.Booking) (*domain.Change, error)) (*domain.Booking, error) {
	var out *domain.Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m bookingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		before := toDomainBooking(m)
		next := before.Clone()
		change, err := fn(next)
		if err != nil {
			return err
		}
		if change == nil {
			out = before
			return nil
		}
		if err := next.Validate(); err != nil {
			return err
		}

		next.ID = before.ID
		next.CreatedAt = before.CreatedAt
		next.Version = before.Version + 1
		next.UpdatedAt = time.Now().UTC()
		nm := toBookingModel(next)
		res := tx.Model(&m).
			Where("version = ?", before.Version).
			Select("*").
			Omit("id", "created_at").
			Updates(&nm)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		ev := domain.BookingEvent{
			BookingID:    id,
			Kind:         change.Event,
			ActorRole:    change.Actor.Role,
			ActorID:      change.Actor.ID,
			StatusFrom:   before.Status,
			StatusTo:     next.Status,
			DeliveryFrom: before.DeliveryStatus,
			DeliveryTo:   next.DeliveryStatus,
			Note:         change.Note,
		}
		if err := tx.Create(&ev).Error; err != nil {
			return err
		}

		for _, p := range change.Postings {
			if err := postEntry(tx, id, p); err != nil {
				return err
			}
		}

		out = toDomainBooking(nm)
		out.CreatedAt = before.CreatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toMoneyPtr(v *int64) *domain.Money {
	if v == nil {
		return nil
	}
	return domain.MoneyPtr(domain.Money(*v))
}

func fromMoneyPtr(m *domain.Money) *int64 {
	if m == nil {
		return nil
	}
	v := int64(*m)
	return &v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
