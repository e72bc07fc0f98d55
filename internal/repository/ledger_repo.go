package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tractorbooking/internal/domain"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetWallet returns the account's wallet, or an empty one if nothing was posted yet.
func (r *LedgerRepository) GetWallet(ctx context.Context, accountID int64) (*domain.Wallet, error) {
	var w domain.Wallet
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.Wallet{AccountID: accountID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *LedgerRepository) ListEntries(ctx context.Context, accountID int64, limit, offset int) ([]domain.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var entries []domain.LedgerEntry
	err := r.db.WithContext(ctx).
		Joins("JOIN wallets ON wallets.id = ledger_entries.wallet_id").
		Where("wallets.account_id = ?", accountID).
		Order("ledger_entries.created_at desc").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *LedgerRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("type asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// postEntry credits p to its wallet inside tx. The (booking, type) unique
// index turns a second posting for the same booking into ErrAlreadyReleased.
func postEntry(tx *gorm.DB, bookingID uuid.UUID, p domain.Posting) error {
	if p.Amount < 0 {
		return fmt.Errorf("%w: negative posting %s", domain.ErrValidation, p.Amount)
	}

	var wallet domain.Wallet
	if err := getOrCreateWalletForUpdate(tx, p.AccountID, &wallet); err != nil {
		return err
	}

	entry := domain.LedgerEntry{WalletID: wallet.ID, BookingID: bookingID, Type: p.Type, Amount: p.Amount}
	if err := tx.Create(&entry).Error; err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s entry exists for booking %s", domain.ErrAlreadyReleased, p.Type, bookingID)
		}
		return err
	}

	wallet.Balance += p.Amount
	return tx.Model(&domain.Wallet{}).Where("id = ?", wallet.ID).Update("balance", wallet.Balance).Error
}

func getOrCreateWalletForUpdate(tx *gorm.DB, accountID int64, wallet *domain.Wallet) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("account_id = ?", accountID).First(wallet).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		*wallet = domain.Wallet{AccountID: accountID, Balance: 0}
		if err := tx.Create(wallet).Error; err != nil {
			if isUniqueConstraintError(err) {
				return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("account_id = ?", accountID).First(wallet).Error
			}
			return err
		}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
