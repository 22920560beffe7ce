package repository

import (
	"errors"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BankTransactionRepository struct {
	db *gorm.DB
}

func NewBankTransactionRepository(db *gorm.DB) *BankTransactionRepository {
	return &BankTransactionRepository{db: db}
}

// Expose DB if needed
func (r *BankTransactionRepository) DB() *gorm.DB {
	return r.db
}

func (r *BankTransactionRepository) Create(tx *models.BankTransaction) error {
	return r.db.Create(tx).Error
}

func (r *BankTransactionRepository) GetByID(id uuid.UUID) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	err := r.db.First(&tx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrEntityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListByScope returns all transactions for a company, optionally narrowed to
// a single bank account.
func (r *BankTransactionRepository) ListByScope(companyID uuid.UUID, accountID *uuid.UUID) ([]models.BankTransaction, error) {
	var txs []models.BankTransaction
	query := r.db.Where("company_id = ?", companyID).Order("transaction_date ASC, id ASC")
	if accountID != nil {
		query = query.Where("bank_account_id = ?", *accountID)
	}
	err := query.Find(&txs).Error
	return txs, err
}
