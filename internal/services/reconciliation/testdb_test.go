package reconciliation

import (
	"testing"
	"time"

	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/repository"
	"bank-reconciliation-backend/internal/services/matching"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Invoice{},
		&models.Expense{},
		&models.BankTransaction{},
		&models.MatchRecord{},
		&models.ImportJob{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	svc := NewService(
		db,
		repository.NewBankTransactionRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewExpenseRepository(db),
		repository.NewMatchRecordRepository(db),
		matching.Config{},
	)
	return svc, db
}

func seedTransaction(t *testing.T, db *gorm.DB, companyID uuid.UUID, amount string, date time.Time, reference string) *models.BankTransaction {
	t.Helper()
	tx := &models.BankTransaction{
		ID:              uuid.New(),
		CompanyID:       companyID,
		BankAccountID:   uuid.New(),
		TransactionDate: date,
		Amount:          decimal.RequireFromString(amount),
		Reference:       reference,
		Currency:        "EUR",
		CreatedAt:       time.Now(),
	}
	if err := repository.NewBankTransactionRepository(db).Create(tx); err != nil {
		t.Fatalf("failed to seed transaction: %v", err)
	}
	return tx
}

func seedInvoice(t *testing.T, db *gorm.DB, companyID uuid.UUID, number, total string, issued time.Time) *models.Invoice {
	t.Helper()
	inv := &models.Invoice{
		ID:            uuid.New(),
		CompanyID:     companyID,
		InvoiceNumber: number,
		IssueDate:     issued,
		DueDate:       issued.AddDate(0, 0, 14),
		TotalAmount:   decimal.RequireFromString(total),
		NetAmount:     decimal.RequireFromString(total),
		Status:        models.InvoiceStatusSent,
		CreatedAt:     time.Now(),
	}
	if err := repository.NewInvoiceRepository(db).Create(inv); err != nil {
		t.Fatalf("failed to seed invoice: %v", err)
	}
	return inv
}

func seedExpense(t *testing.T, db *gorm.DB, companyID uuid.UUID, vendor, total, status string, date time.Time) *models.Expense {
	t.Helper()
	exp := &models.Expense{
		ID:          uuid.New(),
		CompanyID:   companyID,
		VendorName:  vendor,
		ExpenseDate: date,
		TotalAmount: decimal.RequireFromString(total),
		Status:      status,
		CreatedAt:   time.Now(),
	}
	if err := repository.NewExpenseRepository(db).Create(exp); err != nil {
		t.Fatalf("failed to seed expense: %v", err)
	}
	return exp
}

func utcDay(yy int, mm time.Month, dd int) time.Time {
	return time.Date(yy, mm, dd, 0, 0, 0, 0, time.UTC)
}
