package model

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTopCategories is the limit used by callers that do not pick one.
const DefaultTopCategories = 5

var hundred = decimal.NewFromInt(100)

// CategorySpending aggregates the transactions of one category within a report.
type CategorySpending struct {
	TotalSpent        Money
	PercentageOfTotal float64
	TransactionCount  int
	CategoryID        uuid.UUID
}

// FormattedTotal renders the category total.
func (c CategorySpending) FormattedTotal() string {
	return c.TotalSpent.Formatted()
}

// FormattedPercentage renders the share of the report total with one decimal, e.g. "70.0%".
func (c CategorySpending) FormattedPercentage() string {
	return fmt.Sprintf("%.1f%%", c.PercentageOfTotal)
}

// AveragePerTransaction returns the mean amount; ok is false when the count is zero.
func (c CategorySpending) AveragePerTransaction() (Money, bool) {
	if c.TransactionCount <= 0 {
		return Money{}, false
	}
	avg, err := c.TotalSpent.Divide(decimal.NewFromInt(int64(c.TransactionCount)))
	if err != nil {
		return Money{}, false
	}
	return avg.Round(), true
}

// SpendingReport is an immutable summary of the spending inside a date range.
type SpendingReport struct {
	GeneratedAt              time.Time
	DateRange                DateRange
	TotalSpent               Money
	AverageTransactionAmount Money
	CategoryBreakdown        []CategorySpending
	TransactionCount         int
}

// GenerateSpendingReport aggregates the transactions that fall inside dr.
//
// Transactions outside the range are ignored. All remaining transactions must
// share a currency; a mismatch fails the whole report. With no transactions in
// range the report is zero-valued in the first input transaction's currency,
// or USD when the input is empty.
func GenerateSpendingReport(txns []Transaction, dr DateRange) (SpendingReport, error) {
	relevant := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if dr.Contains(t.Date) {
			relevant = append(relevant, t)
		}
	}

	if len(relevant) == 0 {
		currency := USD
		if len(txns) > 0 {
			currency = txns[0].Money.Currency()
		}
		return emptyReport(dr, currency), nil
	}

	currency := relevant[0].Money.Currency()
	total := Zero(currency)
	totals := make(map[uuid.UUID]Money)
	counts := make(map[uuid.UUID]int)
	for _, t := range relevant {
		var err error
		if total, err = total.Add(t.Money); err != nil {
			return SpendingReport{}, err
		}
		sum, ok := totals[t.CategoryID]
		if !ok {
			sum = Zero(currency)
		}
		if totals[t.CategoryID], err = sum.Add(t.Money); err != nil {
			return SpendingReport{}, err
		}
		counts[t.CategoryID]++
	}

	breakdown := make([]CategorySpending, 0, len(totals))
	for id, sum := range totals {
		breakdown = append(breakdown, CategorySpending{
			CategoryID:        id,
			TotalSpent:        sum,
			TransactionCount:  counts[id],
			PercentageOfTotal: percentage(sum, total),
		})
	}
	slices.SortFunc(breakdown, func(a, b CategorySpending) int {
		if c := b.TotalSpent.Amount().Cmp(a.TotalSpent.Amount()); c != 0 {
			return c
		}
		return strings.Compare(a.CategoryID.String(), b.CategoryID.String())
	})

	avg, err := total.Divide(decimal.NewFromInt(int64(len(relevant))))
	if err != nil {
		return SpendingReport{}, err
	}

	return SpendingReport{
		DateRange:                dr,
		TotalSpent:               total,
		TransactionCount:         len(relevant),
		CategoryBreakdown:        breakdown,
		AverageTransactionAmount: avg.Round(),
		GeneratedAt:              now(),
	}, nil
}

// GenerateSpendingReportsByCurrency builds one report per currency present in
// the range, ordered by currency code. A ledger with nothing in range yields
// a single empty report.
func GenerateSpendingReportsByCurrency(txns []Transaction, dr DateRange) ([]SpendingReport, error) {
	byCurrency := make(map[Currency][]Transaction)
	for _, t := range txns {
		if dr.Contains(t.Date) {
			byCurrency[t.Money.Currency()] = append(byCurrency[t.Money.Currency()], t)
		}
	}
	if len(byCurrency) == 0 {
		r, err := GenerateSpendingReport(txns, dr)
		if err != nil {
			return nil, err
		}
		return []SpendingReport{r}, nil
	}

	currencies := make([]Currency, 0, len(byCurrency))
	for c := range byCurrency {
		currencies = append(currencies, c)
	}
	slices.Sort(currencies)

	reports := make([]SpendingReport, 0, len(currencies))
	for _, c := range currencies {
		r, err := GenerateSpendingReport(byCurrency[c], dr)
		if err != nil {
			return nil, fmt.Errorf("generating %s report: %w", c, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func emptyReport(dr DateRange, currency Currency) SpendingReport {
	return SpendingReport{
		DateRange:                dr,
		TotalSpent:               Zero(currency),
		AverageTransactionAmount: Zero(currency),
		CategoryBreakdown:        []CategorySpending{},
		GeneratedAt:              now(),
	}
}

func percentage(part, total Money) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Amount().Div(total.Amount()).Mul(hundred).InexactFloat64()
}

// Currency returns the currency every amount in the report is expressed in.
func (r SpendingReport) Currency() Currency {
	return r.TotalSpent.Currency()
}

// SpendingForCategory looks up the breakdown row for id.
func (r SpendingReport) SpendingForCategory(id uuid.UUID) (CategorySpending, bool) {
	for _, c := range r.CategoryBreakdown {
		if c.CategoryID == id {
			return c, true
		}
	}
	return CategorySpending{}, false
}

// TopCategories returns up to limit rows of the breakdown, largest first.
func (r SpendingReport) TopCategories(limit int) []CategorySpending {
	if limit <= 0 {
		return []CategorySpending{}
	}
	if limit > len(r.CategoryBreakdown) {
		limit = len(r.CategoryBreakdown)
	}
	return slices.Clone(r.CategoryBreakdown[:limit])
}

// HasTransactions reports whether any transaction fell inside the range.
func (r SpendingReport) HasTransactions() bool {
	return r.TransactionCount > 0
}

// DailyAverage divides the total by the range length in days. ok is false
// for ongoing ranges and ranges shorter than a day.
func (r SpendingReport) DailyAverage() (Money, bool) {
	days, ok := r.DateRange.DurationInDays()
	if !ok || days <= 0 {
		return Money{}, false
	}
	avg, err := r.TotalSpent.Divide(decimal.NewFromInt(int64(days)))
	if err != nil {
		return Money{}, false
	}
	return avg.Round(), true
}

// FormattedTotal renders the total spent.
func (r SpendingReport) FormattedTotal() string {
	return r.TotalSpent.Formatted()
}

// FormattedAverage renders the average transaction amount.
func (r SpendingReport) FormattedAverage() string {
	return r.AverageTransactionAmount.Formatted()
}

// Summary is a one-line description such as "3 transactions totaling $100.00 in Mar 1 - 31".
func (r SpendingReport) Summary() string {
	period := r.DateRange.ShortFormatted()
	switch r.TransactionCount {
	case 0:
		return "No transactions in " + period
	case 1:
		return fmt.Sprintf("1 transaction totaling %s in %s", r.FormattedTotal(), period)
	default:
		return fmt.Sprintf("%d transactions totaling %s in %s", r.TransactionCount, r.FormattedTotal(), period)
	}
}

// DetailedSummary extends Summary with per-transaction and daily averages.
func (r SpendingReport) DetailedSummary() string {
	if !r.HasTransactions() {
		return "No spending data available for this period"
	}
	lines := []string{r.Summary(), "Average per transaction: " + r.FormattedAverage()}
	if daily, ok := r.DailyAverage(); ok {
		lines = append(lines, "Daily average: "+daily.Formatted())
	}
	return strings.Join(lines, "\n")
}
