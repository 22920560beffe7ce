package repository

import (
	"errors"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(exp *models.Expense) error {
	return r.db.Create(exp).Error
}

func (r *ExpenseRepository) GetByID(id uuid.UUID) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.First(&expense, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrEntityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// ListOpen returns expenses still eligible for matching (DRAFT or PENDING).
func (r *ExpenseRepository) ListOpen(companyID uuid.UUID) ([]models.Expense, error) {
	var expenses []models.Expense
	err := r.db.
		Where("company_id = ?", companyID).
		Where("status IN ?", []string{models.ExpenseStatusDraft, models.ExpenseStatusPending}).
		Find(&expenses).Error
	return expenses, err
}

func (r *ExpenseRepository) ListByIDs(ids []uuid.UUID) ([]models.Expense, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var expenses []models.Expense
	err := r.db.Where("id IN ?", ids).Find(&expenses).Error
	return expenses, err
}
