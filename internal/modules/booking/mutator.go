package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tractorbooking/internal/domain"
	"tractorbooking/internal/pkg/lock"
)

const lockTTL = 15 * time.Second

func LockKey(id uuid.UUID) string {
	return "booking:" + id.String()
}

// Mutator serializes every change to one booking across all components of
// the process. Cross-instance safety comes from the store's row lock and
// version check.
type Mutator struct {
	store BookingStore
	locks lock.Locker
}

func NewMutator(store BookingStore, locks lock.Locker) *Mutator {
	if locks == nil {
		locks = lock.NewKeyed()
	}
	return &Mutator{store: store, locks: locks}
}

func (m *Mutator) Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*domain.Booking, error) {
	release, err := m.locks.Acquire(ctx, LockKey(id), lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	return m.store.Update(ctx, id, fn)
}

func (m *Mutator) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return m.store.GetByID(ctx, id)
}
