package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EntryType string

const (
	EntryPayout     EntryType = "PAYOUT"
	EntryCommission EntryType = "COMMISSION"
)

// Wallet accumulates released payouts for one account (an owner or the platform).
type Wallet struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	AccountID int64     `json:"account_id" gorm:"not null;uniqueIndex"`
	Balance   Money     `json:"balance" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

func (w *Wallet) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// LedgerEntry records one credit produced by a payout release.
type LedgerEntry struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	WalletID  uuid.UUID `json:"wallet_id" gorm:"type:uuid;not null;index"`
	BookingID uuid.UUID `json:"booking_id" gorm:"type:uuid;not null;uniqueIndex:idx_ledger_booking_type"`
	Type      EntryType `json:"type" gorm:"type:varchar(16);not null;uniqueIndex:idx_ledger_booking_type;check:type IN ('PAYOUT','COMMISSION')"`
	Amount    Money     `json:"amount" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	Wallet *Wallet `json:"wallet,omitempty" gorm:"foreignKey:WalletID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

func (e *LedgerEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Posting is a wallet credit requested by a booking change.
type Posting struct {
	AccountID int64
	Type      EntryType
	Amount    Money
}

// BookingEvent is the audit trail row written with every accepted change.
type BookingEvent struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	BookingID    uuid.UUID       `json:"booking_id" gorm:"type:uuid;not null;index"`
	Kind         TransitionEvent `json:"kind" gorm:"type:varchar(32);not null"`
	ActorRole    UserRole        `json:"actor_role" gorm:"type:varchar(16)"`
	ActorID      int64           `json:"actor_id"`
	StatusFrom   BookingStatus   `json:"status_from" gorm:"type:varchar(24)"`
	StatusTo     BookingStatus   `json:"status_to" gorm:"type:varchar(24)"`
	DeliveryFrom DeliveryStatus  `json:"delivery_from" gorm:"type:varchar(16)"`
	DeliveryTo   DeliveryStatus  `json:"delivery_to" gorm:"type:varchar(16)"`
	Note         string          `json:"note,omitempty" gorm:"type:text"`
	CreatedAt    time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (BookingEvent) TableName() string {
	return "booking_events"
}

func (e *BookingEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Change describes what a mutation did, for the audit trail and the ledger.
type Change struct {
	Event    TransitionEvent
	Actor    Actor
	Note     string
	Postings []Posting
}
