package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice statuses as the matcher sees them. Anything without a PaidAt is an
// open candidate.
const (
	InvoiceStatusSent    = "sent"
	InvoiceStatusOverdue = "overdue"
	InvoiceStatusPaid    = "paid"
)

type Invoice struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID      uuid.UUID `gorm:"type:uuid;index"`
	InvoiceNumber  string    `gorm:"index"`
	BuyerReference string
	CustomerName   string `gorm:"index"`
	IssueDate      time.Time
	DueDate        time.Time
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,2);index"`
	NetAmount      decimal.Decimal `gorm:"type:decimal(20,2)"`
	Status         string          `gorm:"index"`
	PaidAt         *time.Time
	CreatedAt      time.Time
}
