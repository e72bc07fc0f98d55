package booking

import (
	"context"

	"github.com/google/uuid"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/repository"
)

// MutateFunc edits a booking copy and describes the change for the audit log.
// Returning a nil change with a nil error commits nothing.
type MutateFunc = func(b *domain.Booking) (*domain.Change, error)

// BookingStore defines the persistence the lifecycle components share.
type BookingStore interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	List(ctx context.Context, f repository.ListFilter) ([]domain.Booking, error)
	ListEvents(ctx context.Context, bookingID uuid.UUID) ([]domain.BookingEvent, error)
	Update(ctx context.Context, id uuid.UUID, fn MutateFunc) (*domain.Booking, error)
}
