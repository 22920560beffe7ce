package reconciliation

import (
	"context"
	"errors"
	"testing"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/repository"

	"github.com/google/uuid"
)

func TestLinkUnlinkExpenseIsReversible(t *testing.T) {
	svc, db := newTestService(t)
	companyID := uuid.New()
	base := utcDay(2025, 3, 10)

	tx := seedTransaction(t, db, companyID, "-90.00", base, "")
	exp := seedExpense(t, db, companyID, "Acme", "90.00", models.ExpenseStatusDraft, base)

	rec, err := svc.Link(tx.ID, exp.ID, models.MatchKindExpense, "reviewer@test")
	if err != nil {
		t.Fatalf("Link() error: %v", err)
	}
	if rec.MatchStatus != models.MatchStatusManualMatched || rec.ConfidenceScore != 100 {
		t.Errorf("link record = %q/%d, expected MANUAL_MATCHED/100", rec.MatchStatus, rec.ConfidenceScore)
	}

	var linked models.Expense
	if err := db.First(&linked, "id = ?", exp.ID).Error; err != nil {
		t.Fatalf("failed to reload expense: %v", err)
	}
	if linked.Status != models.ExpenseStatusPaid {
		t.Fatalf("expense status after link = %q, expected PAID", linked.Status)
	}
	if linked.StatusBeforeMatch == nil || *linked.StatusBeforeMatch != models.ExpenseStatusDraft {
		t.Fatalf("StatusBeforeMatch = %v, expected DRAFT snapshot", linked.StatusBeforeMatch)
	}

	if _, err := svc.Unlink(tx.ID, "reviewer@test"); err != nil {
		t.Fatalf("Unlink() error: %v", err)
	}

	var restored models.Expense
	if err := db.First(&restored, "id = ?", exp.ID).Error; err != nil {
		t.Fatalf("failed to reload expense: %v", err)
	}
	if restored.Status != models.ExpenseStatusDraft {
		t.Errorf("expense status after unlink = %q, expected exact pre-link DRAFT", restored.Status)
	}
	if restored.PaymentDate != nil {
		t.Errorf("PaymentDate after unlink = %v, expected cleared", restored.PaymentDate)
	}
	if restored.StatusBeforeMatch != nil {
		t.Errorf("StatusBeforeMatch after unlink = %v, expected cleared", restored.StatusBeforeMatch)
	}

	// The ledger keeps the full history: link record intact plus one UNMATCH.
	ledger := repository.NewMatchRecordRepository(db)
	history, err := ledger.History(tx.ID)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("ledger has %d records, expected 2", len(history))
	}
	if history[0].MatchStatus != models.MatchStatusManualMatched {
		t.Errorf("first record = %q, expected the original MANUAL_MATCHED entry", history[0].MatchStatus)
	}
	if history[1].MatchStatus != models.MatchStatusUnmatched || history[1].MatchKind != models.MatchKindUnmatch {
		t.Errorf("second record = %q/%q, expected UNMATCHED/UNMATCH", history[1].MatchStatus, history[1].MatchKind)
	}

	// A second unlink appends again but leaves the expense alone.
	if _, err := svc.Unlink(tx.ID, "reviewer@test"); err != nil {
		t.Fatalf("second Unlink() error: %v", err)
	}
	var again models.Expense
	db.First(&again, "id = ?", exp.ID)
	if again.Status != models.ExpenseStatusDraft {
		t.Errorf("expense status after second unlink = %q, expected DRAFT", again.Status)
	}
	history, _ = ledger.History(tx.ID)
	if len(history) != 3 {
		t.Errorf("ledger has %d records after second unlink, expected 3", len(history))
	}
}

func TestLinkInvoiceSetsPaidAt(t *testing.T) {
	svc, db := newTestService(t)
	companyID := uuid.New()
	base := utcDay(2025, 3, 10)

	tx := seedTransaction(t, db, companyID, "250.00", base, "")
	inv := seedInvoice(t, db, companyID, "INV-9", "250.00", base)

	if _, err := svc.Link(tx.ID, inv.ID, models.MatchKindInvoice, "reviewer@test"); err != nil {
		t.Fatalf("Link() error: %v", err)
	}

	var linked models.Invoice
	db.First(&linked, "id = ?", inv.ID)
	if linked.PaidAt == nil || !linked.PaidAt.Equal(tx.TransactionDate) {
		t.Errorf("invoice PaidAt = %v, expected %v", linked.PaidAt, tx.TransactionDate)
	}

	if _, err := svc.Unlink(tx.ID, "reviewer@test"); err != nil {
		t.Fatalf("Unlink() error: %v", err)
	}
	var restored models.Invoice
	db.First(&restored, "id = ?", inv.ID)
	if restored.PaidAt != nil {
		t.Errorf("invoice PaidAt after unlink = %v, expected cleared", restored.PaidAt)
	}
}

func TestLinkRejectsCrossTenantTarget(t *testing.T) {
	svc, db := newTestService(t)
	base := utcDay(2025, 3, 10)

	tx := seedTransaction(t, db, uuid.New(), "250.00", base, "")
	otherInvoice := seedInvoice(t, db, uuid.New(), "INV-X", "250.00", base)

	_, err := svc.Link(tx.ID, otherInvoice.ID, models.MatchKindInvoice, "reviewer@test")
	if !errors.Is(err, apperrors.ErrEntityNotFound) {
		t.Errorf("Link() error = %v, expected ErrEntityNotFound", err)
	}
}

func TestLinkRejectsUnknownKind(t *testing.T) {
	svc, db := newTestService(t)
	base := utcDay(2025, 3, 10)
	companyID := uuid.New()

	tx := seedTransaction(t, db, companyID, "250.00", base, "")

	var vErr *apperrors.ValidationError
	_, err := svc.Link(tx.ID, uuid.New(), "RECEIPT", "reviewer@test")
	if !errors.As(err, &vErr) {
		t.Errorf("Link() error = %v, expected ValidationError", err)
	}
}

func TestUnlinkMissingTransaction(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Unlink(uuid.New(), "reviewer@test")
	if !errors.Is(err, apperrors.ErrEntityNotFound) {
		t.Errorf("Unlink() error = %v, expected ErrEntityNotFound", err)
	}
}

func TestUnlinkDefaultsExpenseToPending(t *testing.T) {
	svc, db := newTestService(t)
	companyID := uuid.New()
	base := utcDay(2025, 3, 10)

	tx := seedTransaction(t, db, companyID, "-90.00", base, "")
	exp := seedExpense(t, db, companyID, "Acme", "90.00", models.ExpenseStatusPaid, base)

	// Ledger says matched, but no snapshot was ever recorded.
	ledger := repository.NewMatchRecordRepository(db)
	err := ledger.Append(&models.MatchRecord{
		CompanyID:         companyID,
		BankTransactionID: tx.ID,
		MatchStatus:       models.MatchStatusManualMatched,
		MatchKind:         models.MatchKindExpense,
		MatchedExpenseID:  &exp.ID,
		ConfidenceScore:   100,
		Source:            models.MatchSourceManual,
		CreatedAt:         base,
	})
	if err != nil {
		t.Fatalf("failed to seed ledger record: %v", err)
	}

	if _, err := svc.Unlink(tx.ID, "reviewer@test"); err != nil {
		t.Fatalf("Unlink() error: %v", err)
	}

	var restored models.Expense
	db.First(&restored, "id = ?", exp.ID)
	if restored.Status != models.ExpenseStatusPending {
		t.Errorf("expense status = %q, expected PENDING default", restored.Status)
	}
}

func TestMarkIgnoredSkippedByAutoMatch(t *testing.T) {
	svc, db := newTestService(t)
	companyID := uuid.New()
	base := utcDay(2025, 3, 10)

	tx := seedTransaction(t, db, companyID, "250.00", base, "")
	seedInvoice(t, db, companyID, "INV-1", "250.00", base)

	if _, err := svc.MarkIgnored(tx.ID, "reviewer@test", "internal transfer"); err != nil {
		t.Fatalf("MarkIgnored() error: %v", err)
	}

	result, err := svc.RunAutoMatch(context.Background(), companyID, nil, 85)
	if err != nil {
		t.Fatalf("RunAutoMatch() error: %v", err)
	}
	if result.Evaluated != 0 || result.MatchedCount != 0 {
		t.Errorf("ignored transaction was evaluated: %+v", result)
	}

	summary, err := svc.ReconciliationSummary(companyID, nil)
	if err != nil {
		t.Fatalf("ReconciliationSummary() error: %v", err)
	}
	if summary.Ignored != 1 {
		t.Errorf("ignored = %d, expected 1", summary.Ignored)
	}
}
