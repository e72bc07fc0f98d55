// Package ledger exposes the wallets credited by payout releases.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tractorbooking/internal/domain"
)

type Store interface {
	GetWallet(ctx context.Context, accountID int64) (*domain.Wallet, error)
	ListEntries(ctx context.Context, accountID int64, limit, offset int) ([]domain.LedgerEntry, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.LedgerEntry, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Wallet(ctx context.Context, accountID int64) (*domain.Wallet, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("%w: invalid account id", domain.ErrValidation)
	}
	return s.store.GetWallet(ctx, accountID)
}

func (s *Service) Entries(ctx context.Context, accountID int64, limit, offset int) ([]domain.LedgerEntry, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("%w: invalid account id", domain.ErrValidation)
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListEntries(ctx, accountID, limit, offset)
}

func (s *Service) BookingEntries(ctx context.Context, bookingID uuid.UUID) ([]domain.LedgerEntry, error) {
	return s.store.ListByBooking(ctx, bookingID)
}
