package repository

import (
	"errors"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Expose DB if needed
func (r *InvoiceRepository) DB() *gorm.DB {
	return r.db
}

func (r *InvoiceRepository) Create(inv *models.Invoice) error {
	return r.db.Create(inv).Error
}

// GetByID fetch a single invoice by ID
func (r *InvoiceRepository) GetByID(id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrEntityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListOpen returns outbound invoices still awaiting payment.
func (r *InvoiceRepository) ListOpen(companyID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.
		Where("company_id = ?", companyID).
		Where("paid_at IS NULL").
		Where("status <> ?", models.InvoiceStatusPaid).
		Find(&invoices).Error
	return invoices, err
}

func (r *InvoiceRepository) ListByIDs(ids []uuid.UUID) ([]models.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var invoices []models.Invoice
	err := r.db.Where("id IN ?", ids).Find(&invoices).Error
	return invoices, err
}
