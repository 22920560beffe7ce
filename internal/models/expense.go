package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ExpenseStatusDraft     = "DRAFT"
	ExpenseStatusPending   = "PENDING"
	ExpenseStatusPaid      = "PAID"
	ExpenseStatusCancelled = "CANCELLED"
)

// Expense is the debit-side match candidate. StatusBeforeMatch exists solely
// so an unlink can restore the status a match overwrote.
type Expense struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID         uuid.UUID `gorm:"type:uuid;index"`
	VendorName        string    `gorm:"index"`
	ExpenseDate       time.Time
	TotalAmount       decimal.Decimal `gorm:"type:decimal(20,2);index"`
	Status            string          `gorm:"index"`
	PaymentDate       *time.Time
	StatusBeforeMatch *string
	CreatedAt         time.Time
}
