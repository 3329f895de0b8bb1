package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/spice-budget/internal/common"
	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/sheets"
	"github.com/Veraticus/spice-budget/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func recordedID(t *testing.T, out string) string {
	t.Helper()
	id := uuidPattern.FindString(out)
	require.NotEmpty(t, id, "no id in %q", out)
	return id
}

func TestCategoriesCommands(t *testing.T) {
	env := newBudgetEnv(t)

	out := env.mustRun("categories", "list")
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "Restaurants")
	assert.Contains(t, out, "predefined")

	out = env.mustRun("categories", "add", "Pets", "--icon", "pawprint", "--color", "#AA5500")
	assert.Contains(t, out, `Created category "Pets"`)

	_, err := env.run("", "categories", "add", "pets")
	require.Error(t, err)

	out = env.mustRun("categories", "update", "Pets", "--name", "Pet care")
	assert.Contains(t, out, `Updated category "Pet care"`)

	_, err = env.run("", "categories", "update", "Food", "--name", "Groceries")
	require.ErrorIs(t, err, model.ErrCannotEditPredefinedCategory)
	assert.Contains(t, err.Error(), "predefined")

	out = env.mustRun("categories", "list", "--custom")
	assert.Contains(t, out, "Pet care")
	assert.NotContains(t, out, "Restaurants")

	out, err = env.run("n\n", "categories", "delete", "Pet care")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing deleted")

	out, err = env.run("y\n", "categories", "delete", "Pet care")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted category "Pet care"`)

	out = env.mustRun("categories", "seed")
	assert.Contains(t, out, "Added 0 predefined categories")
}

func TestCategoryInUseCannotBeDeleted(t *testing.T) {
	env := newBudgetEnv(t)

	env.mustRun("categories", "add", "Pets")
	env.mustRun("transactions", "add", "30", "Vet", "--category", "Pets", "--date", "2026-10-03")

	_, err := env.run("", "categories", "delete", "Pets", "--yes")
	require.ErrorIs(t, err, storage.ErrCategoryInUse)
	assert.Contains(t, common.UserMessage(err), "still has transactions")

	out := env.mustRun("categories", "list", "--top", "1")
	assert.Contains(t, out, "Pets")
	assert.NotContains(t, out, "Food")
}

func TestTransactionsCommands(t *testing.T) {
	env := newBudgetEnv(t)

	env.mustRun("periods", "month")

	out := env.mustRun("transactions", "add", "12.50", "Lunch", "--category", "Restaurants", "--date", "2026-10-05")
	assert.Contains(t, out, `Recorded $12.50 "Lunch" in Restaurants`)
	lunchID := recordedID(t, out)

	out = env.mustRun("tx", "add", "40", "Train ticket", "--category", "transport", "--currency", "EUR", "--date", "2026-10-09", "-d", "to Lyon")
	assert.Contains(t, out, "Train ticket")
	assert.Contains(t, out, "€40.00")

	_, err := env.run("", "tx", "add", "abc", "Broken", "--category", "Food")
	require.Error(t, err)
	_, err = env.run("", "tx", "add", "5", "Nowhere", "--category", "No such")
	require.ErrorIs(t, err, model.ErrCategoryNotFound)

	out = env.mustRun("tx", "list")
	assert.Contains(t, out, "Lunch")
	assert.Contains(t, out, "Train ticket")
	assert.Contains(t, out, lunchID[:8])

	out = env.mustRun("tx", "list", "--currency", "EUR")
	assert.Contains(t, out, "Train ticket")
	assert.NotContains(t, out, "Lunch")

	out = env.mustRun("tx", "list", "--category", "Restaurants")
	assert.Contains(t, out, "Lunch")
	assert.NotContains(t, out, "Train ticket")

	out = env.mustRun("tx", "list", "--period", "October 2026")
	assert.Contains(t, out, "Lunch")
	assert.Contains(t, out, "Train ticket")

	out = env.mustRun("tx", "list", "--from", "2026-10-06", "--to", "2026-10-31")
	assert.Contains(t, out, "Train ticket")
	assert.NotContains(t, out, "Lunch")

	out = env.mustRun("tx", "update", lunchID[:8], "--amount", "15", "--name", "Team lunch", "--no-period")
	assert.Contains(t, out, `Updated "Team lunch" ($15.00)`)

	out = env.mustRun("tx", "list", "--period", "October 2026")
	assert.NotContains(t, out, "Team lunch")

	_, err = env.run("", "tx", "update", lunchID, "--period", "October 2026", "--no-period")
	require.Error(t, err)

	out, err = env.run("y\n", "tx", "delete", lunchID)
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted "Team lunch"`)

	_, err = env.run("", "tx", "delete", lunchID, "--yes")
	require.ErrorIs(t, err, model.ErrTransactionNotFound)
}

func TestPeriodsCommands(t *testing.T) {
	env := newBudgetEnv(t)

	out := env.mustRun("periods", "month")
	assert.Contains(t, out, `Created period "October 2026"`)

	_, err := env.run("", "periods", "month", "--month", "10", "--year", "2026")
	require.ErrorIs(t, err, model.ErrOverlappingPeriod)

	out = env.mustRun("periods", "add", "Japan trip", "--start", "2026-11-02")
	assert.Contains(t, out, "ongoing")

	out = env.mustRun("periods", "list", "--active")
	assert.Contains(t, out, "Japan trip")
	assert.Contains(t, out, "October 2026")

	out = env.mustRun("periods", "close", "Japan trip", "--end", "2026-11-16")
	assert.Contains(t, out, "Nov 2, 2026 - Nov 16, 2026")

	out = env.mustRun("periods", "list")
	assert.Contains(t, out, "upcoming")

	out = env.mustRun("periods", "reopen", "Japan trip")
	assert.Contains(t, out, "ongoing again")

	env.mustRun("tx", "add", "9", "Sushi", "--category", "Restaurants", "--date", "2026-10-10")

	out = env.mustRun("periods", "delete", "October 2026", "--yes")
	assert.Contains(t, out, `Deleted period "October 2026"`)

	out = env.mustRun("tx", "list")
	assert.Contains(t, out, "Sushi")

	env.mustRun("periods", "month")
	env.mustRun("tx", "add", "11", "Ramen", "--category", "Restaurants", "--date", "2026-10-11")
	out = env.mustRun("periods", "delete", "October 2026", "--yes", "--with-transactions")
	assert.Contains(t, out, "and 1 transaction")

	out = env.mustRun("tx", "list")
	assert.Contains(t, out, "Sushi")
	assert.NotContains(t, out, "Ramen")
}

func TestReportCommand(t *testing.T) {
	env := newBudgetEnv(t)

	out := env.mustRun("report")
	assert.Contains(t, out, "October 2026")
	assert.Contains(t, out, "No transactions in Oct 1 - 31")

	env.mustRun("tx", "add", "12.50", "Lunch", "--category", "Restaurants", "--date", "2026-10-05")
	env.mustRun("tx", "add", "50", "Groceries", "--category", "Food", "--date", "2026-10-06")
	env.mustRun("tx", "add", "20", "Museum", "--category", "Entertainment", "--currency", "EUR", "--date", "2026-10-07")

	out = env.mustRun("report")
	assert.Contains(t, out, "October 2026 (USD)")
	assert.Contains(t, out, "October 2026 (EUR)")
	assert.Contains(t, out, "2 transactions totaling $62.50")
	assert.Contains(t, out, "Restaurants")
	assert.Contains(t, out, "€20.00")

	out = env.mustRun("report", "--from", "2026-10-06", "--to", "2026-10-06")
	assert.Contains(t, out, "1 transaction totaling $50.00")
	assert.NotContains(t, out, "(EUR)")

	_, err := env.run("", "report", "--last", "7", "--from", "2026-10-01")
	require.ErrorIs(t, err, errInvalidRange)
}

const statementOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20261015120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20261001120000[0:GMT]
<DTEND>20261015120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20261005120000[0:GMT]
<TRNAMT>-25.50
<FITID>OCT01
<NAME>CORNER BAKERY
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20261008120000[0:GMT]
<TRNAMT>-74.50
<FITID>OCT02
<NAME>CITY GROCER
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20261010120000[0:GMT]
<TRNAMT>1500.00
<FITID>OCT03
<NAME>PAYROLL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20261015120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func writeStatement(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(statementOFX), 0o600))
	return path
}

func TestImportOFX(t *testing.T) {
	env := newBudgetEnv(t)
	env.mustRun("periods", "month")
	statement := writeStatement(t, "checking.qfx")

	out := env.mustRun("import-ofx", "--dry-run", "--category", "Food", statement)
	assert.Contains(t, out, "CORNER BAKERY")
	assert.NotContains(t, out, "PAYROLL")
	assert.Contains(t, out, "Dry run: 2 expenses would be imported into Food")

	out = env.mustRun("tx", "list")
	assert.Contains(t, out, "No transactions found")

	out = env.mustRun("import-ofx", "--category", "Food", statement)
	assert.Contains(t, out, "Imported 2 expenses into Food, 0 already present")

	out = env.mustRun("import-ofx", "--category", "Food", statement)
	assert.Contains(t, out, "Imported 0 expenses into Food, 2 already present")

	out = env.mustRun("tx", "list", "--period", "October 2026")
	assert.Contains(t, out, "CITY GROCER")

	out = env.mustRun("backup", "list")
	assert.Contains(t, out, "auto")

	out = env.mustRun("report")
	assert.Contains(t, out, "2 transactions totaling $100.00")
}

func TestImportOFXSameStatementTwiceInOneRun(t *testing.T) {
	env := newBudgetEnv(t)
	first := writeStatement(t, "a.ofx")
	second := writeStatement(t, "b.ofx")

	out := env.mustRun("import-ofx", "--no-backup", first, second)
	assert.Contains(t, out, "Imported 2 expenses into Other")

	out = env.mustRun("backup", "list")
	assert.Contains(t, out, "No backups found")
}

func TestImportOFXMissingFiles(t *testing.T) {
	env := newBudgetEnv(t)
	_, err := env.run("", "import-ofx", filepath.Join(t.TempDir(), "*.qfx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files found")
}

func TestBackupCommands(t *testing.T) {
	env := newBudgetEnv(t)

	env.mustRun("tx", "add", "10", "Before", "--category", "Food", "--date", "2026-10-02")

	out := env.mustRun("backup", "create", "--tag", "before-cleanup", "-d", "ahead of cleanup")
	assert.Contains(t, out, "Created backup before-cleanup")
	assert.Contains(t, out, "ahead of cleanup")

	_, err := env.run("", "backup", "create", "--tag", "before-cleanup")
	require.Error(t, err)

	env.mustRun("tx", "add", "20", "After", "--category", "Food", "--date", "2026-10-03")

	out = env.mustRun("backup", "list")
	assert.Contains(t, out, "before-cleanup")
	assert.Contains(t, out, "manual")

	out, err = env.run("n\n", "backup", "restore", "before-cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "Restore cancelled")

	out = env.mustRun("backup", "restore", "before-cleanup", "--yes")
	assert.Contains(t, out, "Restored backup before-cleanup (1 transaction)")

	out = env.mustRun("tx", "list")
	assert.Contains(t, out, "Before")
	assert.NotContains(t, out, "After")

	out = env.mustRun("backup", "delete", "before-cleanup")
	assert.Contains(t, out, "Deleted backup before-cleanup")

	_, err = env.run("", "backup", "delete", "before-cleanup")
	require.Error(t, err)
}

func TestExportSheets(t *testing.T) {
	env := newBudgetEnv(t)
	t.Setenv("BUDGET_SHEETS_SERVICE_ACCOUNT_PATH", "/tmp/key.json")

	mock := sheets.NewMockClient()
	original := newSheetsWriter
	t.Cleanup(func() { newSheetsWriter = original })
	newSheetsWriter = func(_ context.Context, cfg sheets.Config) (*sheets.Writer, error) {
		return sheets.NewWriterWithClient(cfg, mock, nil), nil
	}

	env.mustRun("tx", "add", "12.50", "Lunch", "--category", "Restaurants", "--date", "2026-10-05")
	env.mustRun("tx", "add", "20", "Museum", "--category", "Entertainment", "--currency", "EUR", "--date", "2026-10-07")

	_, err := env.run("", "export-sheets")
	require.ErrorIs(t, err, errSeveralCurrencies)

	out := env.mustRun("export-sheets", "--currency", "USD")
	assert.Contains(t, out, "Exported October 2026 ($12.50, 1 transaction)")
	assert.Contains(t, out, "mock-spreadsheet")
	assert.Equal(t, []string{sheets.DefaultSpreadsheetName}, mock.Created)

	var flat []any
	for _, row := range mock.Rows() {
		flat = append(flat, row...)
	}
	assert.Contains(t, flat, "Lunch")
	assert.NotContains(t, flat, "Museum")

	_, err = env.run("", "export-sheets", "--currency", "GBP")
	require.Error(t, err)
}

func TestExportSheetsNotConfigured(t *testing.T) {
	env := newBudgetEnv(t)
	for _, key := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
	} {
		t.Setenv(key, "")
	}

	_, err := env.run("", "export-sheets")
	require.ErrorIs(t, err, common.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSheetsAuthNeedsClientCredentials(t *testing.T) {
	env := newBudgetEnv(t)
	_, err := env.run("", "export-sheets", "auth")
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestParseStatementsLogsSummary(t *testing.T) {
	t.Cleanup(model.SetClock(func() time.Time { return testNow }))
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var logs bytes.Buffer
	require.NoError(t, common.SetupLoggerTo(&logs, slog.LevelInfo, "text"))

	path := filepath.Join(t.TempDir(), "october.qfx")
	require.NoError(t, os.WriteFile(path, []byte(statementOFX), 0o600))

	drafts, err := parseStatements(context.Background(), []string{path, path})
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	out := logs.String()
	assert.Equal(t, 2, strings.Count(out, `msg="Processed file"`))
	assert.Contains(t, out, "expenses=2 file=october.qfx")
	assert.Contains(t, out, "duplicates=2")
}
