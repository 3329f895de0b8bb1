package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/report"
	"github.com/Veraticus/spice-budget/internal/service"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// newTable returns a bordered table whose rightAligned columns hold amounts.
func newTable(headers []string, rightAligned ...int) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(TableBorderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			for _, c := range rightAligned {
				if c == col {
					return AmountStyle
				}
			}
			return TableCellStyle
		})
}

// RenderTable renders rows under headers with the standard table style.
func RenderTable(headers []string, rows [][]string, rightAligned ...int) string {
	return newTable(headers, rightAligned...).Rows(rows...).String()
}

// RenderReport renders a spending report as a summary box followed by the
// category breakdown.
func RenderReport(title string, r model.SpendingReport, rows []report.NamedCategorySpending) string {
	var summary strings.Builder
	summary.WriteString(r.Summary())
	if r.HasTransactions() {
		summary.WriteString("\nAverage per transaction: " + r.FormattedAverage())
		if daily, ok := r.DailyAverage(); ok {
			summary.WriteString("\nDaily average: " + daily.Formatted())
		}
	}

	out := RenderBox(ChartIcon+" "+title, summary.String())
	if len(rows) == 0 {
		return out
	}

	t := newTable([]string{"Category", "Transactions", "Amount", "Share"}, 1, 2, 3)
	for _, row := range rows {
		name := row.Name
		if row.Icon != "" {
			name = row.Icon + " " + name
		}
		t.Row(name, strconv.Itoa(row.TransactionCount), row.FormattedTotal(), row.FormattedPercentage())
	}
	return out + "\n" + t.String()
}

// RenderTransactions renders transactions with their category names.
// Unknown category ids are shown as report.UnknownCategoryName.
func RenderTransactions(txns []model.Transaction, categoryNames map[uuid.UUID]string) string {
	if len(txns) == 0 {
		return SubtleStyle.Render("No transactions found")
	}

	t := newTable([]string{"ID", "Date", "Name", "Category", "Amount", "Description"}, 4)
	for _, txn := range txns {
		category, ok := categoryNames[txn.CategoryID]
		if !ok {
			category = report.UnknownCategoryName
		}
		t.Row(shortID(txn.ID), txn.Date.Format(dateLayout), txn.Name, category, txn.FormattedAmount(), txn.Description)
	}
	return t.String()
}

// RenderCategories renders categories with how often each is used.
func RenderCategories(usage []service.CategoryUsage) string {
	if len(usage) == 0 {
		return SubtleStyle.Render("No categories found")
	}

	t := newTable([]string{"Name", "Icon", "Color", "Kind", "Transactions"}, 4)
	for _, u := range usage {
		kind := "predefined"
		if u.Category.IsCustom {
			kind = "custom"
		}
		t.Row(u.Category.Name, u.Category.Icon, u.Category.ColorHex, kind, strconv.Itoa(u.TransactionCount))
	}
	return t.String()
}

// PeriodStatus describes where a period stands relative to now.
func PeriodStatus(p model.ExpensePeriod) string {
	switch {
	case p.IsOngoing():
		return "ongoing"
	case p.HasEnded():
		return "closed"
	case p.DateRange.Start().After(model.Now()):
		return "upcoming"
	default:
		return "active"
	}
}

// RenderPeriods renders expense periods with their status.
func RenderPeriods(periods []model.ExpensePeriod) string {
	if len(periods) == 0 {
		return SubtleStyle.Render("No expense periods found")
	}

	t := newTable([]string{"ID", "Name", "Dates", "Status"})
	for _, p := range periods {
		t.Row(shortID(p.ID), p.Name, p.DateRange.Formatted(), PeriodStatus(p))
	}
	return t.String()
}

// shortID is the id prefix the commands accept for lookups.
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// Pluralize renders "1 transaction" or "3 transactions".
func Pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}
