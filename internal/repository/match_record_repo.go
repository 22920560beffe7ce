package repository

import (
	"errors"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MatchRecordRepository owns the append-only match ledger. There is no
// update or delete here on purpose.
type MatchRecordRepository struct {
	db *gorm.DB
}

func NewMatchRecordRepository(db *gorm.DB) *MatchRecordRepository {
	return &MatchRecordRepository{db: db}
}

func (r *MatchRecordRepository) Append(rec *models.MatchRecord) error {
	return r.db.Create(rec).Error
}

// LatestByTransaction returns the record that defines the transaction's
// current status, or nil when the transaction has never been touched
// (implicitly UNMATCHED).
func (r *MatchRecordRepository) LatestByTransaction(txID uuid.UUID) (*models.MatchRecord, error) {
	var rec models.MatchRecord
	err := r.db.
		Where("bank_transaction_id = ?", txID).
		Order("created_at DESC, id DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// LatestForCompany returns the latest record per transaction for a whole
// company in a single query, so status derivation for a batch never degrades
// into per-transaction lookups.
func (r *MatchRecordRepository) LatestForCompany(companyID uuid.UUID) (map[uuid.UUID]*models.MatchRecord, error) {
	var records []models.MatchRecord
	err := r.db.
		Where("company_id = ?", companyID).
		Where("id = (SELECT m2.id FROM match_records m2 WHERE m2.bank_transaction_id = match_records.bank_transaction_id ORDER BY m2.created_at DESC, m2.id DESC LIMIT 1)").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	latest := make(map[uuid.UUID]*models.MatchRecord, len(records))
	for i := range records {
		latest[records[i].BankTransactionID] = &records[i]
	}
	return latest, nil
}

// History returns the full ledger for one transaction, oldest first.
func (r *MatchRecordRepository) History(txID uuid.UUID) ([]models.MatchRecord, error) {
	var records []models.MatchRecord
	err := r.db.
		Where("bank_transaction_id = ?", txID).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	return records, err
}
