package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/spice-budget/internal/common"
	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/service"
	"google.golang.org/api/sheets/v4"
)

// SheetTitle is the title of the tab created for new spreadsheets.
const SheetTitle = "Report"

const (
	amountColumnBreakdown    = 2
	amountColumnTransactions = 3
)

// Writer writes spending reports to Google Sheets.
type Writer struct {
	client Client
	logger *slog.Logger
	config Config
}

// NewWriter creates a new Google Sheets report writer using the live API.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client, err := NewAPIClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewWriterWithClient(config, client, logger), nil
}

// NewWriterWithClient creates a writer around an existing client.
func NewWriterWithClient(config Config, client Client, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Writer{
		config: config,
		client: client,
		logger: logger,
	}
}

func (w *Writer) retryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// WriteReport replaces the sheet contents with data and returns the
// spreadsheet id written to.
func (w *Writer) WriteReport(ctx context.Context, data ReportData) (string, error) {
	w.logger.Info("starting report export",
		"categories", len(data.Categories),
		"transactions", len(data.Transactions),
		"date_range", data.Report.DateRange.String())

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	retryOpts := w.retryOptions()

	if err := common.WithRetry(ctx, func() error {
		return w.client.ClearValues(ctx, spreadsheetID, "A:Z")
	}, retryOpts); err != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", err)
	}

	values, lay := prepareReportData(data)

	if err := w.writeData(ctx, spreadsheetID, values, retryOpts); err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		requests := formattingRequests(lay, data.Report.Currency())
		err = common.WithRetry(ctx, func() error {
			return w.client.BatchUpdate(ctx, spreadsheetID, requests)
		}, retryOpts)
		if err != nil {
			// formatting is cosmetic; the data is already written
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("report export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return spreadsheetID, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		if err := w.client.CheckSpreadsheet(ctx, w.config.SpreadsheetID); err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	name := w.config.SpreadsheetName
	if name == "" {
		name = DefaultSpreadsheetName
	}
	id, url, err := w.client.CreateSpreadsheet(ctx, name, w.config.TimeZone, SheetTitle)
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet", "id", id, "url", url)
	return id, nil
}

// writeData writes values in batches to stay under API payload limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any, opts service.RetryOptions) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]
		rng := fmt.Sprintf("A%d", i+1)

		err := common.WithRetry(ctx, func() error {
			return w.client.UpdateValues(ctx, spreadsheetID, rng, batch)
		}, opts)
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}
	return nil
}

func amountCell(m model.Money) float64 {
	return m.Round().Amount().InexactFloat64()
}

// prepareReportData lays out the report as sheet rows.
func prepareReportData(data ReportData) ([][]any, layout) {
	r := data.Report
	values := make([][]any, 0, 16+len(data.Categories)+len(data.Transactions))
	var lay layout

	daily := any("")
	if avg, ok := r.DailyAverage(); ok {
		daily = amountCell(avg)
	}

	values = append(values,
		[]any{"Spending Report", r.DateRange.Formatted()},
		[]any{},
		[]any{"Summary"},
		[]any{"Currency", r.Currency().Code()},
		[]any{"Total Spent", amountCell(r.TotalSpent)},
		[]any{"Transactions", r.TransactionCount},
		[]any{"Average Transaction", amountCell(r.AverageTransactionAmount)},
		[]any{"Daily Average", daily},
		[]any{"Generated", r.GeneratedAt.UTC().Format(time.RFC3339)},
	)
	lay.summaryAmountRows = []int{4, 6, 7}

	values = append(values,
		[]any{},
		[]any{"Category Breakdown"},
		[]any{"Category", "Transactions", "Amount", "Share"},
	)
	lay.breakdownStart = len(values)
	for _, row := range data.Categories {
		values = append(values, []any{
			row.Name,
			row.TransactionCount,
			amountCell(row.TotalSpent),
			row.FormattedPercentage(),
		})
	}
	lay.breakdownEnd = len(values)

	lay.transactionsHeader = -1
	if len(data.Transactions) > 0 {
		values = append(values,
			[]any{},
			[]any{"Transaction Details"},
			[]any{"Date", "Name", "Category", "Amount", "Description"},
		)
		lay.transactionsHeader = len(values) - 1

		txns := slices.Clone(data.Transactions)
		slices.SortStableFunc(txns, func(a, b TransactionRow) int {
			return b.Date.Compare(a.Date)
		})
		for _, t := range txns {
			values = append(values, []any{
				t.Date.Format("2006-01-02"),
				t.Name,
				t.Category,
				amountCell(t.Amount),
				t.Description,
			})
		}
	}

	lay.totalRows = len(values)
	return values, lay
}

// currencyPattern builds a Sheets number format such as "$"#,##0.00.
func currencyPattern(c model.Currency) string {
	pattern := `"` + c.Symbol() + `"#,##0`
	if places := c.DecimalPlaces(); places > 0 {
		pattern += "." + strings.Repeat("0", places)
	}
	return pattern
}

func boldRows(start, end int64, size int64) *sheets.Request {
	format := &sheets.TextFormat{Bold: true}
	if size > 0 {
		format.FontSize = size
	}
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:       0,
				StartRowIndex: start,
				EndRowIndex:   end,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{TextFormat: format},
			},
			Fields: "userEnteredFormat.textFormat",
		},
	}
}

func currencyCells(startRow, endRow, column int64, pattern string) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          0,
				StartRowIndex:    startRow,
				EndRowIndex:      endRow,
				StartColumnIndex: column,
				EndColumnIndex:   column + 1,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					NumberFormat: &sheets.NumberFormat{
						Type:    "CURRENCY",
						Pattern: pattern,
					},
				},
			},
			Fields: "userEnteredFormat.numberFormat",
		},
	}
}

// formattingRequests styles headers and amount cells for the given layout.
func formattingRequests(lay layout, currency model.Currency) []*sheets.Request {
	pattern := currencyPattern(currency)

	requests := []*sheets.Request{
		boldRows(0, 1, 16),
		boldRows(2, 3, 0),
		boldRows(int64(lay.breakdownStart-2), int64(lay.breakdownStart), 0),
	}
	for _, row := range lay.summaryAmountRows {
		requests = append(requests, currencyCells(int64(row), int64(row+1), 1, pattern))
	}
	if lay.breakdownEnd > lay.breakdownStart {
		requests = append(requests,
			currencyCells(int64(lay.breakdownStart), int64(lay.breakdownEnd), amountColumnBreakdown, pattern))
	}
	if lay.transactionsHeader >= 0 {
		requests = append(requests,
			boldRows(int64(lay.transactionsHeader-1), int64(lay.transactionsHeader+1), 0),
			currencyCells(int64(lay.transactionsHeader+1), int64(lay.totalRows), amountColumnTransactions, pattern))
	}

	requests = append(requests,
		&sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   5,
				},
			},
		},
		&sheets.Request{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        0,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	)
	return requests
}
