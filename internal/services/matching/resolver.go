package matching

import (
	"fmt"
	"sort"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
)

// Resolution statuses.
const (
	StatusMatched   = "matched"
	StatusPartial   = "partial"
	StatusAmbiguous = "ambiguous"
	StatusUnmatched = "unmatched"
)

// Config holds the direction policy. By default credits are scored against
// invoices only and debits against expenses only; CrossDirection scores every
// transaction against both sides.
type Config struct {
	CrossDirection bool
}

// Candidate is one scored invoice or expense.
type Candidate struct {
	Kind      string     `json:"kind"`
	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`
	ExpenseID *uuid.UUID `json:"expense_id,omitempty"`
	Label     string     `json:"label"`
	Score     int        `json:"score"`
}

// Resolution is the outcome for one transaction. An ambiguous resolution
// never carries a matched id.
type Resolution struct {
	Status           string
	MatchedInvoiceID *uuid.UUID
	MatchedExpenseID *uuid.UUID
	Kind             string
	Score            int
	Reason           string
	CandidateCount   int
}

// RankCandidates scores every candidate per the direction policy and returns
// the nonzero ones, ranked descending. Ranking is stable so equal scores keep
// their input order.
func RankCandidates(tx *models.BankTransaction, invoices []models.Invoice, expenses []models.Expense, cfg Config) []Candidate {
	scoreInvoices := cfg.CrossDirection || !tx.Amount.IsNegative()
	scoreExpenses := cfg.CrossDirection || !tx.Amount.IsPositive()

	var candidates []Candidate
	if scoreInvoices {
		for i := range invoices {
			inv := &invoices[i]
			if score := ScoreInvoice(tx, inv); score > 0 {
				id := inv.ID
				candidates = append(candidates, Candidate{
					Kind:      models.MatchKindInvoice,
					InvoiceID: &id,
					Label:     inv.InvoiceNumber,
					Score:     score,
				})
			}
		}
	}
	if scoreExpenses {
		for i := range expenses {
			exp := &expenses[i]
			if score := ScoreExpense(tx, exp); score > 0 {
				id := exp.ID
				candidates = append(candidates, Candidate{
					Kind:      models.MatchKindExpense,
					ExpenseID: &id,
					Label:     exp.VendorName,
					Score:     score,
				})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// Resolve ranks all candidates for a transaction and classifies the outcome.
// A top-two score tie is ambiguous regardless of how high the tied score is.
func Resolve(tx *models.BankTransaction, invoices []models.Invoice, expenses []models.Expense, cfg Config) Resolution {
	candidates := RankCandidates(tx, invoices, expenses, cfg)
	if len(candidates) == 0 {
		return Resolution{Status: StatusUnmatched, Reason: "no candidate scored above zero"}
	}

	top := candidates[0]
	if len(candidates) > 1 && candidates[1].Score == top.Score {
		tied := 2
		for _, c := range candidates[2:] {
			if c.Score != top.Score {
				break
			}
			tied++
		}
		return Resolution{
			Status:         StatusAmbiguous,
			Score:          top.Score,
			Reason:         fmt.Sprintf("%d candidates tied at score %d", tied, top.Score),
			CandidateCount: len(candidates),
		}
	}

	res := Resolution{
		MatchedInvoiceID: top.InvoiceID,
		MatchedExpenseID: top.ExpenseID,
		Kind:             top.Kind,
		Score:            top.Score,
		CandidateCount:   len(candidates),
	}

	switch {
	case top.Score >= ScoreExactAmount:
		res.Status = StatusMatched
	case top.Score >= ScoreTolerantAmount:
		res.Status = StatusPartial
	default:
		res.Status = StatusUnmatched
		res.MatchedInvoiceID = nil
		res.MatchedExpenseID = nil
		res.Kind = ""
	}
	res.Reason = reasonFor(res.Status, top)
	return res
}

func reasonFor(status string, top Candidate) string {
	if status == StatusUnmatched {
		return fmt.Sprintf("best candidate %q scored %d, below the candidate threshold", top.Label, top.Score)
	}

	var rule string
	switch {
	case top.Score >= ScoreReference:
		rule = "reference contains the document number"
	case top.Score >= ScoreExactAmount:
		rule = "exact amount with close date"
	default:
		rule = "amount within tolerance with close date"
	}
	return fmt.Sprintf("%s %q: %s (score %d)", kindLabel(top.Kind), top.Label, rule, top.Score)
}

func kindLabel(kind string) string {
	if kind == models.MatchKindExpense {
		return "expense"
	}
	return "invoice"
}
