package reconciliation

import (
	"time"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Link records a human reviewer's match. The target must live in the same
// company as the transaction; a cross-tenant id is indistinguishable from a
// missing one.
func (s *Service) Link(txID, targetID uuid.UUID, kind, actor string) (*models.MatchRecord, error) {
	tx, err := s.transactions.GetByID(txID)
	if err != nil {
		return nil, err
	}

	rec := &models.MatchRecord{
		CompanyID:         tx.CompanyID,
		BankTransactionID: tx.ID,
		MatchStatus:       models.MatchStatusManualMatched,
		MatchKind:         kind,
		ConfidenceScore:   100,
		Source:            models.MatchSourceManual,
		CreatedBy:         actor,
		CreatedAt:         time.Now(),
	}

	switch kind {
	case models.MatchKindInvoice:
		inv, err := s.invoices.GetByID(targetID)
		if err != nil {
			return nil, err
		}
		if inv.CompanyID != tx.CompanyID {
			return nil, apperrors.ErrEntityNotFound
		}
		rec.MatchedInvoiceID = &inv.ID
		rec.Reason = "manually linked to invoice " + inv.InvoiceNumber
		err = s.db.Transaction(func(dtx *gorm.DB) error {
			if err := dtx.Create(rec).Error; err != nil {
				return err
			}
			return markInvoicePaid(dtx, inv.ID, tx.TransactionDate)
		})
		if err != nil {
			return nil, err
		}

	case models.MatchKindExpense:
		exp, err := s.expenses.GetByID(targetID)
		if err != nil {
			return nil, err
		}
		if exp.CompanyID != tx.CompanyID {
			return nil, apperrors.ErrEntityNotFound
		}
		rec.MatchedExpenseID = &exp.ID
		rec.Reason = "manually linked to expense from " + exp.VendorName
		err = s.db.Transaction(func(dtx *gorm.DB) error {
			if err := dtx.Create(rec).Error; err != nil {
				return err
			}
			return markExpensePaid(dtx, exp.ID, tx.TransactionDate)
		})
		if err != nil {
			return nil, err
		}

	default:
		return nil, apperrors.NewValidation("kind", "must be INVOICE or EXPENSE")
	}

	return rec, nil
}

// Unlink appends an UNMATCH record and restores the previously matched
// entity. Prior ledger records stay untouched. An expense reverts to its
// StatusBeforeMatch (PENDING when none was recorded) with PaymentDate
// cleared; the snapshot is cleared too, so unlinking again changes nothing
// on the entity.
func (s *Service) Unlink(txID uuid.UUID, actor string) (*models.MatchRecord, error) {
	tx, err := s.transactions.GetByID(txID)
	if err != nil {
		return nil, err
	}

	latest, err := s.ledger.LatestByTransaction(txID)
	if err != nil {
		return nil, err
	}

	rec := &models.MatchRecord{
		CompanyID:         tx.CompanyID,
		BankTransactionID: tx.ID,
		MatchStatus:       models.MatchStatusUnmatched,
		MatchKind:         models.MatchKindUnmatch,
		Source:            models.MatchSourceManual,
		CreatedBy:         actor,
		Reason:            "manually unlinked",
		CreatedAt:         time.Now(),
	}

	err = s.db.Transaction(func(dtx *gorm.DB) error {
		if err := dtx.Create(rec).Error; err != nil {
			return err
		}
		if latest == nil || !latest.IsMatch() {
			return nil
		}
		if latest.MatchedInvoiceID != nil {
			return restoreInvoice(dtx, *latest.MatchedInvoiceID)
		}
		if latest.MatchedExpenseID != nil {
			return restoreExpense(dtx, *latest.MatchedExpenseID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkIgnored records that a transaction should be left out of matching,
// e.g. internal transfers or bank fees.
func (s *Service) MarkIgnored(txID uuid.UUID, actor, reason string) (*models.MatchRecord, error) {
	tx, err := s.transactions.GetByID(txID)
	if err != nil {
		return nil, err
	}

	rec := &models.MatchRecord{
		CompanyID:         tx.CompanyID,
		BankTransactionID: tx.ID,
		MatchStatus:       models.MatchStatusIgnored,
		MatchKind:         models.MatchKindUnmatch,
		Source:            models.MatchSourceManual,
		CreatedBy:         actor,
		Reason:            reason,
		CreatedAt:         time.Now(),
	}
	if err := s.ledger.Append(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func restoreInvoice(dtx *gorm.DB, invoiceID uuid.UUID) error {
	var inv models.Invoice
	if err := dtx.First(&inv, "id = ?", invoiceID).Error; err != nil {
		return err
	}
	inv.PaidAt = nil
	if inv.Status == models.InvoiceStatusPaid {
		inv.Status = models.InvoiceStatusSent
	}
	return dtx.Save(&inv).Error
}

func restoreExpense(dtx *gorm.DB, expenseID uuid.UUID) error {
	var exp models.Expense
	if err := dtx.First(&exp, "id = ?", expenseID).Error; err != nil {
		return err
	}
	if exp.StatusBeforeMatch != nil {
		exp.Status = *exp.StatusBeforeMatch
	} else {
		exp.Status = models.ExpenseStatusPending
	}
	exp.PaymentDate = nil
	exp.StatusBeforeMatch = nil
	return dtx.Save(&exp).Error
}
