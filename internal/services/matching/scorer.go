package matching

import (
	"strings"
	"time"

	"bank-reconciliation-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Score tiers. A reference hit is authoritative and skips amount/date checks
// entirely; the two lower tiers are amount+date agreement at decreasing
// strictness.
const (
	ScoreReference      = 100
	ScoreExactAmount    = 85
	ScoreTolerantAmount = 70

	// CandidateThreshold is the floor for surfacing a candidate to review
	// UIs; DefaultAutoMatchThreshold gates unattended commits. The two are
	// tuned independently per deployment, but auto-commit may never dip
	// below the matched cutoff.
	CandidateThreshold        = 70
	DefaultAutoMatchThreshold = 85

	exactAmountDays    = 3
	tolerantAmountDays = 5

	// Vendor similarity only ranks candidates inside the partial band
	// (70-84); it never promotes one across the auto-commit cutoff.
	similarityCap = 14
)

var (
	exactAmountTolerance = decimal.NewFromInt(1)
	tolerantAmountRatio  = decimal.NewFromFloat(0.05)
)

// ScoreInvoice scores one transaction against one invoice candidate.
// Pure and side-effect free; amounts are compared unsigned.
func ScoreInvoice(tx *models.BankTransaction, inv *models.Invoice) int {
	if referenceMatch(tx.Reference, inv.InvoiceNumber) || referenceMatch(tx.Description, inv.InvoiceNumber) {
		return ScoreReference
	}
	return amountDateTier(tx.Amount.Abs(), inv.TotalAmount, tx.TransactionDate, inv.IssueDate)
}

// ScoreExpense scores one transaction against one expense candidate. Debits
// are stored negative, so the transaction amount is normalized before
// comparing. Vendor-name similarity adds secondary weight within the partial
// band only; amount and date dominate.
func ScoreExpense(tx *models.BankTransaction, exp *models.Expense) int {
	score := amountDateTier(tx.Amount.Abs(), exp.TotalAmount, tx.TransactionDate, exp.ExpenseDate)
	if score != ScoreTolerantAmount {
		return score
	}

	sim := nameSimilarity(tx.Counterparty+" "+tx.Description, exp.VendorName)
	score += int(sim * similarityCap / 100)
	if score >= ScoreExactAmount {
		score = ScoreExactAmount - 1
	}
	return score
}

func amountDateTier(amount, total decimal.Decimal, txDate, candidateDate time.Time) int {
	diff := amount.Sub(total).Abs()
	gap := dayGap(txDate, candidateDate)

	if diff.LessThan(exactAmountTolerance) && gap <= exactAmountDays {
		return ScoreExactAmount
	}
	if total.IsPositive() && gap <= tolerantAmountDays {
		if diff.Div(total).LessThanOrEqual(tolerantAmountRatio) {
			return ScoreTolerantAmount
		}
	}
	return 0
}

// referenceMatch reports whether either text contains the other as a
// substring, case-insensitively. Empty values never match.
func referenceMatch(text, number string) bool {
	text = strings.ToUpper(strings.TrimSpace(text))
	number = strings.ToUpper(strings.TrimSpace(number))
	if text == "" || number == "" {
		return false
	}
	return strings.Contains(text, number) || strings.Contains(number, text)
}

// dayGap is the whole-day difference between two instants, both truncated to
// UTC midnight first so timezones cannot shift a date across a boundary.
func dayGap(a, b time.Time) int {
	days := int(utcMidnight(a).Sub(utcMidnight(b)).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

func utcMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
