package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ImportJobStatusUploaded   = "UPLOADED"
	ImportJobStatusProcessing = "PROCESSING"
	ImportJobStatusCompleted  = "COMPLETED"
	ImportJobStatusFailed     = "FAILED"
)

const (
	ImportTierStructured = "STRUCTURED"
	ImportTierOCR        = "OCR"
)

// ImportJob is one row per uploaded statement file. The unique index on
// (bank_account_id, checksum) is what makes byte-identical re-uploads
// collapse onto the existing job.
type ImportJob struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID     uuid.UUID `gorm:"type:uuid;index"`
	BankAccountID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_import_jobs_account_checksum"`
	Checksum      string    `gorm:"size:64;uniqueIndex:idx_import_jobs_account_checksum"`
	Filename      string
	StoragePath   string
	Status        string `gorm:"index"`
	Tier          string
	CreatedAt     time.Time
}
