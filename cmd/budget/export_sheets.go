package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/spice-budget/internal/cli"
	"github.com/Veraticus/spice-budget/internal/common"
	"github.com/Veraticus/spice-budget/internal/config"
	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/report"
	"github.com/Veraticus/spice-budget/internal/service"
	"github.com/Veraticus/spice-budget/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newSheetsWriter builds the writer used by export-sheets. Tests replace it.
var newSheetsWriter = func(ctx context.Context, cfg sheets.Config) (*sheets.Writer, error) {
	return sheets.NewWriter(ctx, cfg, slog.Default())
}

var errSeveralCurrencies = errors.New("the range holds several currencies; pick one with --currency")

func exportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-sheets",
		Short: "Export a spending report to Google Sheets",
		Long: `Write a spending report and its transactions to a Google Sheets spreadsheet.

Authentication is read from the sheets section of the config file, BUDGET_SHEETS_*
or GOOGLE_SHEETS_* environment variables. Use either a service account key file
or OAuth2 client credentials with a refresh token (see "export-sheets auth").

Without a spreadsheet id a new spreadsheet is created. An existing spreadsheet
is cleared before the report is written.`,
		Example: `  # Export this month's report to a new spreadsheet
  budget export-sheets

  # Refresh an existing spreadsheet with a trip's expenses
  budget export-sheets --period "Japan trip" --spreadsheet-id 1AbC...`,
		Args: cobra.NoArgs,
		RunE: runExportSheets,
	}

	addRangeFlags(cmd)
	cmd.Flags().String("currency", "", "Report currency when the range holds several")
	cmd.Flags().String("spreadsheet-id", "", "Spreadsheet to overwrite (default: sheets.spreadsheet_id)")

	cmd.AddCommand(sheetsAuthCmd())

	return cmd
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("google sheets is not configured: %w", err)
	}
	if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
		cfg.SpreadsheetID = id
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	dr, title, err := rangeFromFlags(ctx, cmd, store)
	if err != nil {
		return err
	}

	code, _ := cmd.Flags().GetString("currency")
	data, err := buildReportData(ctx, store, dr, code)
	if err != nil {
		return err
	}

	writer, err := newSheetsWriter(ctx, *cfg)
	if err != nil {
		return err
	}

	spreadsheetID, err := writer.WriteReport(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported %s (%s, %s)",
		title, data.Report.FormattedTotal(), cli.Pluralize(len(data.Transactions), "transaction", "transactions"))))
	fmt.Fprintf(out, "%s https://docs.google.com/spreadsheets/d/%s\n", cli.ChartIcon, spreadsheetID)
	return nil
}

// buildReportData generates the report for dr in one currency and collects
// the rows behind it. code may be empty when the range holds one currency.
func buildReportData(ctx context.Context, store service.Storage, dr model.DateRange, code string) (sheets.ReportData, error) {
	reports := report.NewService(store, store, store)
	generated, err := reports.GenerateByCurrency(ctx, dr)
	if err != nil {
		return sheets.ReportData{}, err
	}

	chosen, err := pickReport(generated, code)
	if err != nil {
		return sheets.ReportData{}, err
	}

	rows, err := reports.Resolve(ctx, chosen)
	if err != nil {
		return sheets.ReportData{}, err
	}

	start := dr.Start()
	txns, err := store.GetTransactions(ctx, service.TransactionFilter{
		StartDate: &start,
		EndDate:   dr.EndPtr(),
		Currency:  chosen.Currency(),
	})
	if err != nil {
		return sheets.ReportData{}, fmt.Errorf("failed to load transactions: %w", err)
	}

	names, err := categoryNames(ctx, store)
	if err != nil {
		return sheets.ReportData{}, err
	}

	details := make([]sheets.TransactionRow, 0, len(txns))
	for _, t := range txns {
		name, ok := names[t.CategoryID]
		if !ok {
			name = report.UnknownCategoryName
		}
		details = append(details, sheets.TransactionRow{
			Date:        t.Date,
			Amount:      t.Money,
			Name:        t.Name,
			Category:    name,
			Description: t.Description,
		})
	}

	return sheets.ReportData{
		Report:       chosen,
		Categories:   rows,
		Transactions: details,
	}, nil
}

func pickReport(generated []model.SpendingReport, code string) (model.SpendingReport, error) {
	if code == "" {
		if len(generated) > 1 {
			codes := make([]string, 0, len(generated))
			for _, r := range generated {
				codes = append(codes, r.Currency().Code())
			}
			return model.SpendingReport{}, fmt.Errorf("%w (%s)", errSeveralCurrencies, strings.Join(codes, ", "))
		}
		return generated[0], nil
	}

	currency, err := model.ParseCurrency(code)
	if err != nil {
		return model.SpendingReport{}, err
	}
	for _, r := range generated {
		if r.Currency() == currency {
			return r, nil
		}
	}
	return model.SpendingReport{}, fmt.Errorf("no %s transactions in the range", currency.Code())
}

func sheetsAuthCmd() *cobra.Command {
	var callback string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Obtain an OAuth2 refresh token for Google Sheets",
		Long: `Run the browser-based OAuth2 flow with sheets.client_id and sheets.client_secret
and store the token in sheets.token_file. Put the printed refresh token in
sheets.refresh_token to use it for exports.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.GetViper()
			if err := config.BindSheetsEnv(v); err != nil {
				return err
			}
			clientID := v.GetString("sheets.client_id")
			clientSecret := v.GetString("sheets.client_secret")
			if clientID == "" || clientSecret == "" {
				return fmt.Errorf("%w: sheets.client_id and sheets.client_secret must be set", common.ErrMissingConfig)
			}

			token, err := sheets.GetOrCreateToken(cmd.Context(), sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    config.TokenFile(v),
				CallbackAddr: callback,
			})
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess("Authenticated with Google Sheets"))
			fmt.Fprintf(out, "Refresh token: %s\n", token.RefreshToken)
			return nil
		},
	}

	cmd.Flags().StringVar(&callback, "callback", sheets.DefaultCallbackAddr, "Address for the OAuth2 redirect listener")

	return cmd
}
