package sheets

import (
	"time"

	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/report"
)

// TransactionRow represents a single row in the Transaction Details section.
type TransactionRow struct {
	Date        time.Time
	Amount      model.Money
	Name        string
	Category    string
	Description string
}

// ReportData holds everything written for one report.
type ReportData struct {
	Report       model.SpendingReport
	Categories   []report.NamedCategorySpending
	Transactions []TransactionRow
}

// layout records where each section landed so formatting can target it.
type layout struct {
	summaryAmountRows  []int
	breakdownStart     int
	breakdownEnd       int
	transactionsHeader int
	totalRows          int
}
