package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankTransaction is immutable once imported. Amount is signed: positive for
// credits (incoming), negative for debits (outgoing).
type BankTransaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID       uuid.UUID  `gorm:"type:uuid;index"`
	BankAccountID   uuid.UUID  `gorm:"type:uuid;index"`
	ImportJobID     *uuid.UUID `gorm:"type:uuid;index"`
	TransactionDate time.Time  `gorm:"column:transaction_date;index"`
	Description     string
	Reference       string
	Counterparty    string
	Amount          decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency        string          `gorm:"size:3"`
	CreatedAt       time.Time
}
