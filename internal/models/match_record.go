package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MatchStatusUnmatched     = "UNMATCHED"
	MatchStatusAutoMatched   = "AUTO_MATCHED"
	MatchStatusManualMatched = "MANUAL_MATCHED"
	MatchStatusIgnored       = "IGNORED"
)

const (
	MatchKindInvoice = "INVOICE"
	MatchKindExpense = "EXPENSE"
	MatchKindUnmatch = "UNMATCH"
)

const (
	MatchSourceAuto   = "AUTO"
	MatchSourceManual = "MANUAL"
)

// MatchRecord is the append-only match ledger. Records are never updated or
// deleted; the current status of a transaction is its most recent record
// (latest CreatedAt, ties broken by the serial ID). The serial primary key
// keeps insertion order queryable.
type MatchRecord struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement"`
	CompanyID         uuid.UUID `gorm:"type:uuid;index"`
	BankTransactionID uuid.UUID `gorm:"type:uuid;index"`
	MatchStatus       string    `gorm:"index"`
	MatchKind         string
	MatchedInvoiceID  *uuid.UUID `gorm:"type:uuid"`
	MatchedExpenseID  *uuid.UUID `gorm:"type:uuid"`
	ConfidenceScore   int
	Reason            string
	Source            string
	CreatedBy         string
	Details           datatypes.JSON
	CreatedAt         time.Time `gorm:"index"`
}

// IsMatch reports whether the record assigns a target to the transaction.
func (m *MatchRecord) IsMatch() bool {
	return m.MatchStatus == MatchStatusAutoMatched || m.MatchStatus == MatchStatusManualMatched
}
