package reconciliation

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/repository"
	"bank-reconciliation-backend/internal/services/matching"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// mismatchEpsilon is the amount drift beyond which a matched transaction is
// counted as mismatched in the summary, regardless of match status.
var mismatchEpsilon = decimal.NewFromFloat(0.01)

type Service struct {
	db           *gorm.DB
	transactions *repository.BankTransactionRepository
	invoices     *repository.InvoiceRepository
	expenses     *repository.ExpenseRepository
	ledger       *repository.MatchRecordRepository
	matchCfg     matching.Config
	runStats     sync.Map // runID -> *RunResult
}

func NewService(
	db *gorm.DB,
	transactions *repository.BankTransactionRepository,
	invoices *repository.InvoiceRepository,
	expenses *repository.ExpenseRepository,
	ledger *repository.MatchRecordRepository,
	matchCfg matching.Config,
) *Service {
	return &Service{
		db:           db,
		transactions: transactions,
		invoices:     invoices,
		expenses:     expenses,
		ledger:       ledger,
		matchCfg:     matchCfg,
	}
}

// RunResult summarizes one auto-match pass.
type RunResult struct {
	RunID        uuid.UUID  `json:"run_id"`
	MatchedCount int        `json:"matched_count"`
	Evaluated    int        `json:"evaluated"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// RunAutoMatch scans transactions whose current ledger status is UNMATCHED
// (or that have no record at all), resolves each against a snapshot of open
// invoices and expenses, and commits only confident, unambiguous matches.
// Re-running with no new transactions yields MatchedCount = 0.
//
// A threshold below the matched cutoff is raised to it; auto-commit never
// acts on partial-band scores.
func (s *Service) RunAutoMatch(ctx context.Context, companyID uuid.UUID, accountID *uuid.UUID, threshold int) (*RunResult, error) {
	if threshold < matching.ScoreExactAmount {
		threshold = matching.ScoreExactAmount
	}

	txs, err := s.transactions.ListByScope(companyID, accountID)
	if err != nil {
		return nil, err
	}
	latest, err := s.ledger.LatestForCompany(companyID)
	if err != nil {
		return nil, err
	}

	var pending []models.BankTransaction
	for _, tx := range txs {
		rec, ok := latest[tx.ID]
		if !ok || rec.MatchStatus == models.MatchStatusUnmatched {
			pending = append(pending, tx)
		}
	}

	result := &RunResult{RunID: uuid.New(), StartedAt: time.Now()}
	s.runStats.Store(result.RunID, result)

	if len(pending) == 0 {
		now := time.Now()
		result.CompletedAt = &now
		return result, nil
	}

	// Snapshot of open candidates; entities claimed earlier in this pass are
	// filtered out so two transactions cannot claim the same target.
	openInvoices, err := s.invoices.ListOpen(companyID)
	if err != nil {
		return nil, err
	}
	openExpenses, err := s.expenses.ListOpen(companyID)
	if err != nil {
		return nil, err
	}

	claimedInvoices := make(map[uuid.UUID]bool)
	claimedExpenses := make(map[uuid.UUID]bool)

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		tx := &pending[i]
		result.Evaluated++

		invoices := availableInvoices(openInvoices, claimedInvoices)
		expenses := availableExpenses(openExpenses, claimedExpenses)

		res := matching.Resolve(tx, invoices, expenses, s.matchCfg)
		if res.Status != matching.StatusMatched || res.Score < threshold {
			continue
		}
		if res.MatchedInvoiceID == nil && res.MatchedExpenseID == nil {
			continue
		}

		if err := s.commitAutoMatch(tx, res); err != nil {
			log.Printf("auto-match commit failed for transaction %s: %v", tx.ID, err)
			continue
		}

		if res.MatchedInvoiceID != nil {
			claimedInvoices[*res.MatchedInvoiceID] = true
		}
		if res.MatchedExpenseID != nil {
			claimedExpenses[*res.MatchedExpenseID] = true
		}
		result.MatchedCount++
	}

	now := time.Now()
	result.CompletedAt = &now
	return result, nil
}

// commitAutoMatch appends the ledger record and applies the entity side
// effect in one DB transaction, so a matched entity can never end up with a
// status the ledger does not explain.
func (s *Service) commitAutoMatch(tx *models.BankTransaction, res matching.Resolution) error {
	details, _ := json.Marshal(map[string]interface{}{
		"score":           res.Score,
		"candidate_count": res.CandidateCount,
		"decision":        res.Status,
	})

	return s.db.Transaction(func(dtx *gorm.DB) error {
		rec := models.MatchRecord{
			CompanyID:         tx.CompanyID,
			BankTransactionID: tx.ID,
			MatchStatus:       models.MatchStatusAutoMatched,
			MatchKind:         res.Kind,
			MatchedInvoiceID:  res.MatchedInvoiceID,
			MatchedExpenseID:  res.MatchedExpenseID,
			ConfidenceScore:   res.Score,
			Reason:            res.Reason,
			Source:            models.MatchSourceAuto,
			CreatedBy:         "auto-match",
			Details:           details,
			CreatedAt:         time.Now(),
		}
		if err := dtx.Create(&rec).Error; err != nil {
			return err
		}

		if res.MatchedInvoiceID != nil {
			return markInvoicePaid(dtx, *res.MatchedInvoiceID, tx.TransactionDate)
		}
		return markExpensePaid(dtx, *res.MatchedExpenseID, tx.TransactionDate)
	})
}

func markInvoicePaid(dtx *gorm.DB, invoiceID uuid.UUID, paidAt time.Time) error {
	var inv models.Invoice
	if err := dtx.First(&inv, "id = ?", invoiceID).Error; err != nil {
		return err
	}
	inv.PaidAt = &paidAt
	inv.Status = models.InvoiceStatusPaid
	return dtx.Save(&inv).Error
}

func markExpensePaid(dtx *gorm.DB, expenseID uuid.UUID, paymentDate time.Time) error {
	var exp models.Expense
	if err := dtx.First(&exp, "id = ?", expenseID).Error; err != nil {
		return err
	}
	prev := exp.Status
	exp.StatusBeforeMatch = &prev
	exp.Status = models.ExpenseStatusPaid
	exp.PaymentDate = &paymentDate
	return dtx.Save(&exp).Error
}

func availableInvoices(all []models.Invoice, claimed map[uuid.UUID]bool) []models.Invoice {
	if len(claimed) == 0 {
		return all
	}
	out := make([]models.Invoice, 0, len(all))
	for _, inv := range all {
		if !claimed[inv.ID] {
			out = append(out, inv)
		}
	}
	return out
}

func availableExpenses(all []models.Expense, claimed map[uuid.UUID]bool) []models.Expense {
	if len(claimed) == 0 {
		return all
	}
	out := make([]models.Expense, 0, len(all))
	for _, exp := range all {
		if !claimed[exp.ID] {
			out = append(out, exp)
		}
	}
	return out
}

// GetRunStats returns the in-memory stats for a past run of this process.
func (s *Service) GetRunStats(runID uuid.UUID) (*RunResult, bool) {
	val, ok := s.runStats.Load(runID)
	if !ok {
		return nil, false
	}
	return val.(*RunResult), true
}

// CurrentStatus derives a transaction's status from the ledger: the latest
// record wins, no records means UNMATCHED.
func (s *Service) CurrentStatus(txID uuid.UUID) (string, *models.MatchRecord, error) {
	rec, err := s.ledger.LatestByTransaction(txID)
	if err != nil {
		return "", nil, err
	}
	if rec == nil {
		return models.MatchStatusUnmatched, nil, nil
	}
	return rec.MatchStatus, rec, nil
}

// CandidateList holds all scored candidates for one transaction, both sides,
// for human review. Not just the winner.
type CandidateList struct {
	InvoiceCandidates []matching.Candidate `json:"invoice_candidates"`
	ExpenseCandidates []matching.Candidate `json:"expense_candidates"`
}

func (s *Service) ListCandidates(txID uuid.UUID) (*CandidateList, error) {
	tx, err := s.transactions.GetByID(txID)
	if err != nil {
		return nil, err
	}

	openInvoices, err := s.invoices.ListOpen(tx.CompanyID)
	if err != nil {
		return nil, err
	}
	openExpenses, err := s.expenses.ListOpen(tx.CompanyID)
	if err != nil {
		return nil, err
	}

	list := &CandidateList{
		InvoiceCandidates: []matching.Candidate{},
		ExpenseCandidates: []matching.Candidate{},
	}
	for _, c := range matching.RankCandidates(tx, openInvoices, openExpenses, s.matchCfg) {
		if c.Kind == models.MatchKindExpense {
			list.ExpenseCandidates = append(list.ExpenseCandidates, c)
		} else {
			list.InvoiceCandidates = append(list.InvoiceCandidates, c)
		}
	}
	return list, nil
}

// Summary buckets a company's transactions by current ledger status.
// Mismatched counts matched transactions whose unsigned amount drifts from
// the target total by more than the epsilon, whatever their match status.
type Summary struct {
	Unmatched     int64 `json:"unmatched"`
	AutoMatched   int64 `json:"auto_matched"`
	ManualMatched int64 `json:"manual_matched"`
	Ignored       int64 `json:"ignored"`
	Mismatched    int64 `json:"mismatched"`
}

func (s *Service) ReconciliationSummary(companyID uuid.UUID, accountID *uuid.UUID) (*Summary, error) {
	txs, err := s.transactions.ListByScope(companyID, accountID)
	if err != nil {
		return nil, err
	}
	latest, err := s.ledger.LatestForCompany(companyID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	var invoiceIDs, expenseIDs []uuid.UUID
	type matchedPair struct {
		amount    decimal.Decimal
		invoiceID *uuid.UUID
		expenseID *uuid.UUID
	}
	var matched []matchedPair

	for _, tx := range txs {
		rec, ok := latest[tx.ID]
		if !ok || rec.MatchStatus == models.MatchStatusUnmatched {
			summary.Unmatched++
			continue
		}
		switch rec.MatchStatus {
		case models.MatchStatusAutoMatched:
			summary.AutoMatched++
		case models.MatchStatusManualMatched:
			summary.ManualMatched++
		case models.MatchStatusIgnored:
			summary.Ignored++
			continue
		}
		if rec.MatchedInvoiceID != nil {
			invoiceIDs = append(invoiceIDs, *rec.MatchedInvoiceID)
		}
		if rec.MatchedExpenseID != nil {
			expenseIDs = append(expenseIDs, *rec.MatchedExpenseID)
		}
		matched = append(matched, matchedPair{
			amount:    tx.Amount.Abs(),
			invoiceID: rec.MatchedInvoiceID,
			expenseID: rec.MatchedExpenseID,
		})
	}

	invoiceTotals, expenseTotals, err := s.loadTargetTotals(invoiceIDs, expenseIDs)
	if err != nil {
		return nil, err
	}

	for _, m := range matched {
		var total decimal.Decimal
		var ok bool
		if m.invoiceID != nil {
			total, ok = invoiceTotals[*m.invoiceID]
		} else if m.expenseID != nil {
			total, ok = expenseTotals[*m.expenseID]
		}
		if ok && m.amount.Sub(total).Abs().GreaterThan(mismatchEpsilon) {
			summary.Mismatched++
		}
	}

	return summary, nil
}

func (s *Service) loadTargetTotals(invoiceIDs, expenseIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, map[uuid.UUID]decimal.Decimal, error) {
	invoices, err := s.invoices.ListByIDs(invoiceIDs)
	if err != nil {
		return nil, nil, err
	}
	expenses, err := s.expenses.ListByIDs(expenseIDs)
	if err != nil {
		return nil, nil, err
	}

	invoiceTotals := make(map[uuid.UUID]decimal.Decimal, len(invoices))
	for _, inv := range invoices {
		invoiceTotals[inv.ID] = inv.TotalAmount
	}
	expenseTotals := make(map[uuid.UUID]decimal.Decimal, len(expenses))
	for _, exp := range expenses {
		expenseTotals[exp.ID] = exp.TotalAmount
	}
	return invoiceTotals, expenseTotals, nil
}
