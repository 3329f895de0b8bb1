package sheets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Veraticus/spice-budget/internal/common"
	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/report"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

var testNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	config := DefaultConfig()
	config.ServiceAccountPath = "/path/to/key.json"
	config.RetryDelay = time.Millisecond
	return config
}

// sampleData builds a $100 report: Food $70 over two expenses, Transport $30.
func sampleData(t *testing.T) ReportData {
	t.Helper()
	restore := model.SetClock(func() time.Time { return testNow })
	t.Cleanup(restore)

	food, transport := uuid.New(), uuid.New()
	var txns []model.Transaction
	var rows []TransactionRow
	for _, e := range []struct {
		amount   int64
		category uuid.UUID
		label    string
		daysAgo  int
	}{
		{50, food, "Food", 3},
		{30, transport, "Transport", 1},
		{20, food, "Food", 2},
	} {
		txn, err := model.NewDetailedTransaction(model.TransactionDetails{
			Money:      model.NewMoneyFromInt(e.amount, model.USD),
			Name:       "Expense",
			CategoryID: e.category,
			Date:       testNow.AddDate(0, 0, -e.daysAgo),
		})
		require.NoError(t, err)
		txns = append(txns, txn)
		rows = append(rows, TransactionRow{Date: txn.Date, Amount: txn.Money, Name: txn.Name, Category: e.label})
	}

	dr, err := model.LastDays(30)
	require.NoError(t, err)
	r, err := model.GenerateSpendingReport(txns, dr)
	require.NoError(t, err)

	names := map[uuid.UUID]string{food: "Food", transport: "Transport"}
	categories := make([]report.NamedCategorySpending, 0, len(r.CategoryBreakdown))
	for _, cs := range r.CategoryBreakdown {
		categories = append(categories, report.NamedCategorySpending{Name: names[cs.CategoryID], CategorySpending: cs})
	}

	return ReportData{Report: r, Categories: categories, Transactions: rows}
}

func TestPrepareReportData(t *testing.T) {
	data := sampleData(t)

	values, lay := prepareReportData(data)

	assert.Equal(t, "Spending Report", values[0][0])
	assert.Equal(t, []any{"Currency", "USD"}, values[3])
	assert.Equal(t, []any{"Total Spent", 100.0}, values[4])
	assert.Equal(t, []any{"Transactions", 3}, values[5])
	assert.Equal(t, []any{"Average Transaction", 33.33}, values[6])
	assert.Equal(t, []any{"Daily Average", 3.33}, values[7])

	require.Equal(t, 2, lay.breakdownEnd-lay.breakdownStart)
	assert.Equal(t, []any{"Category", "Transactions", "Amount", "Share"}, values[lay.breakdownStart-1])
	assert.Equal(t, []any{"Food", 2, 70.0, "70.0%"}, values[lay.breakdownStart])
	assert.Equal(t, []any{"Transport", 1, 30.0, "30.0%"}, values[lay.breakdownStart+1])

	require.Positive(t, lay.transactionsHeader)
	first := values[lay.transactionsHeader+1]
	assert.Equal(t, "2026-10-15", first[0], "newest transaction first")
	assert.Equal(t, "Transport", first[2])
	assert.Equal(t, lay.totalRows, len(values))
}

func TestPrepareReportData_NoTransactions(t *testing.T) {
	data := sampleData(t)
	data.Transactions = nil
	data.Categories = nil

	values, lay := prepareReportData(data)
	assert.Equal(t, -1, lay.transactionsHeader)
	assert.Equal(t, lay.breakdownStart, lay.breakdownEnd)
	assert.Len(t, values, lay.breakdownStart)
}

func TestWriter_WriteReport_CreatesSpreadsheet(t *testing.T) {
	client := NewMockClient()
	writer := NewWriterWithClient(testConfig(), client, quietLogger())

	id, err := writer.WriteReport(context.Background(), sampleData(t))
	require.NoError(t, err)

	assert.Equal(t, "mock-spreadsheet", id)
	assert.Equal(t, []string{DefaultSpreadsheetName}, client.Created)
	assert.Equal(t, []string{"A:Z"}, client.Cleared)
	require.Len(t, client.Updates, 1)
	assert.Equal(t, "A1", client.Updates[0].Range)
	require.Len(t, client.BatchRequests, 1)
	assert.NotEmpty(t, client.BatchRequests[0])
}

func TestWriter_WriteReport_Batches(t *testing.T) {
	config := testConfig()
	config.SpreadsheetID = "existing"
	config.BatchSize = 5
	config.EnableFormatting = false
	client := NewMockClient()
	writer := NewWriterWithClient(config, client, quietLogger())

	data := sampleData(t)
	id, err := writer.WriteReport(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "existing", id)
	assert.Empty(t, client.Created)
	assert.Empty(t, client.BatchRequests)

	expected, _ := prepareReportData(data)
	assert.Equal(t, expected, client.Rows())
	require.Greater(t, len(client.Updates), 1)
	assert.Equal(t, "A1", client.Updates[0].Range)
	assert.Equal(t, "A6", client.Updates[1].Range)
	for _, u := range client.Updates {
		assert.LessOrEqual(t, len(u.Values), 5)
		assert.Equal(t, "existing", u.SpreadsheetID)
	}
}

func TestWriter_WriteReport_Errors(t *testing.T) {
	tests := []struct {
		setup     func(*MockClient, *Config)
		check     func(*testing.T, *MockClient)
		name      string
		errSubstr string
	}{
		{
			name: "transient update failure is retried",
			setup: func(m *MockClient, _ *Config) {
				m.UpdateErrors = []error{errors.New("connection reset")}
			},
			check: func(t *testing.T, m *MockClient) {
				t.Helper()
				assert.Equal(t, 2, m.UpdateCalls)
			},
		},
		{
			name: "permanent update failure stops immediately",
			setup: func(m *MockClient, _ *Config) {
				m.UpdateErrors = []error{&common.RetryableError{Err: errors.New("bad range"), Retryable: false}}
			},
			errSubstr: "bad range",
			check: func(t *testing.T, m *MockClient) {
				t.Helper()
				assert.Equal(t, 1, m.UpdateCalls)
			},
		},
		{
			name: "inaccessible spreadsheet",
			setup: func(m *MockClient, c *Config) {
				c.SpreadsheetID = "missing"
				m.CheckErr = errors.New("not found")
			},
			errSubstr: "unable to access spreadsheet missing",
		},
		{
			name: "create failure",
			setup: func(m *MockClient, _ *Config) {
				m.CreateErr = errors.New("quota")
			},
			errSubstr: "unable to create spreadsheet",
		},
		{
			name: "formatting failure is not fatal",
			setup: func(m *MockClient, _ *Config) {
				m.BatchErr = &common.RetryableError{Err: errors.New("bad request"), Retryable: false}
			},
			check: func(t *testing.T, m *MockClient) {
				t.Helper()
				assert.Len(t, m.Updates, 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig()
			client := NewMockClient()
			tt.setup(client, &config)

			_, err := NewWriterWithClient(config, client, quietLogger()).WriteReport(context.Background(), sampleData(t))
			if tt.errSubstr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
			} else {
				require.NoError(t, err)
			}
			if tt.check != nil {
				tt.check(t, client)
			}
		})
	}
}

func TestCurrencyPattern(t *testing.T) {
	assert.Equal(t, `"$"#,##0.00`, currencyPattern(model.USD))
	assert.Equal(t, `"¥"#,##0`, currencyPattern(model.JPY))
	assert.Equal(t, `"CHF"#,##0.00`, currencyPattern(model.CHF))
}

func TestFormattingRequests(t *testing.T) {
	_, lay := prepareReportData(sampleData(t))

	requests := formattingRequests(lay, model.USD)

	var currencyRanges int
	for _, r := range requests {
		if r.RepeatCell != nil && r.RepeatCell.Cell.UserEnteredFormat.NumberFormat != nil {
			currencyRanges++
			assert.Equal(t, `"$"#,##0.00`, r.RepeatCell.Cell.UserEnteredFormat.NumberFormat.Pattern)
		}
	}
	// three summary cells, the breakdown column and the transaction column
	assert.Equal(t, 5, currencyRanges)
}

func TestClassifyError(t *testing.T) {
	assert.NoError(t, classifyError(nil))

	rateLimited := classifyError(&googleapi.Error{Code: 429})
	assert.ErrorIs(t, rateLimited, common.ErrRateLimit)

	var retryable *common.RetryableError
	notFound := classifyError(&googleapi.Error{Code: 404})
	require.ErrorAs(t, notFound, &retryable)
	assert.False(t, retryable.Retryable)

	serverErr := &googleapi.Error{Code: 503}
	assert.Equal(t, error(serverErr), classifyError(serverErr))

	plain := errors.New("dial tcp: timeout")
	assert.Equal(t, plain, classifyError(plain))
}
