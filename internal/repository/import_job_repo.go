package repository

import (
	"errors"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Create(job *models.ImportJob) error {
	return r.db.Create(job).Error
}

func (r *ImportJobRepository) GetByID(id uuid.UUID) (*models.ImportJob, error) {
	var job models.ImportJob
	err := r.db.First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrEntityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindByAccountAndChecksum returns nil without error when no prior job
// matches; the gate uses that as its dedup probe.
func (r *ImportJobRepository) FindByAccountAndChecksum(accountID uuid.UUID, checksum string) (*models.ImportJob, error) {
	var job models.ImportJob
	err := r.db.
		Where("bank_account_id = ? AND checksum = ?", accountID, checksum).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *ImportJobRepository) UpdateStatus(id uuid.UUID, status string) error {
	return r.db.Model(&models.ImportJob{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}
