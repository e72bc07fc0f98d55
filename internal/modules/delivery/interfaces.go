package delivery

import (
	"context"

	"github.com/google/uuid"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/pkg/geo"
	"tractorbooking/internal/repository"
)

// Estimator is the geolocation collaborator.
type Estimator interface {
	Estimate(ctx context.Context, from, to domain.Location) (geo.Estimate, error)
}

// PositionStore keeps the tractor's last reported position outside the booking record.
type PositionStore interface {
	Save(ctx context.Context, bookingID uuid.UUID, p repository.Position) error
	Get(ctx context.Context, bookingID uuid.UUID) (*repository.Position, error)
	Delete(ctx context.Context, bookingID uuid.UUID) error
}
