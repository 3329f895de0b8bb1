package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestNotFound = errors.New("thing not found")

func TestMatchID(t *testing.T) {
	a := uuid.MustParse("a1b2c3d4-0000-4000-8000-000000000001")
	b := uuid.MustParse("a1b2ffff-0000-4000-8000-000000000002")
	items := []uuid.UUID{a, b}
	idOf := func(id uuid.UUID) uuid.UUID { return id }

	tests := []struct {
		name    string
		ref     string
		want    uuid.UUID
		wantErr error
	}{
		{name: "full id", ref: a.String(), want: a},
		{name: "full id uppercase", ref: "A1B2C3D4-0000-4000-8000-000000000001", want: a},
		{name: "unique prefix", ref: "a1b2c3", want: a},
		{name: "other prefix", ref: "a1b2f", want: b},
		{name: "ambiguous prefix", ref: "a1b2", wantErr: errAmbiguousID},
		{name: "too short", ref: "a1b", wantErr: errTestNotFound},
		{name: "no match", ref: "ffffffff", wantErr: errTestNotFound},
		{name: "unknown full id", ref: uuid.NewString(), wantErr: errTestNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matchID(tt.ref, items, idOf, errTestNotFound)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		want  string
		bytes int64
	}{
		{bytes: 0, want: "0 B"},
		{bytes: 1023, want: "1023 B"},
		{bytes: 1024, want: "1.0 KB"},
		{bytes: 1536, want: "1.5 KB"},
		{bytes: 5 * 1024 * 1024, want: "5.0 MB"},
		{bytes: 3 * 1024 * 1024 * 1024, want: "3.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFileSize(tt.bytes))
		})
	}
}

func TestEndOfDay(t *testing.T) {
	day := time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)
	end := endOfDay(day)
	assert.Equal(t, 16, end.Day())
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 17, end.Add(time.Nanosecond).Day())
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.Local), got)

	_, err = parseDate("28/02/2026")
	require.Error(t, err)
}

func TestPickReport(t *testing.T) {
	t.Cleanup(model.SetClock(func() time.Time { return testNow }))

	dr, err := model.Month(2026, time.October)
	require.NoError(t, err)

	usd := mustMoney(t, "10", model.USD)
	eur := mustMoney(t, "20", model.EUR)
	cat := uuid.New()
	txns := []model.Transaction{
		mustTxn(t, usd, cat, time.Date(2026, time.October, 3, 12, 0, 0, 0, time.Local)),
		mustTxn(t, eur, cat, time.Date(2026, time.October, 4, 12, 0, 0, 0, time.Local)),
	}
	reports, err := model.GenerateSpendingReportsByCurrency(txns, dr)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	_, err = pickReport(reports, "")
	require.ErrorIs(t, err, errSeveralCurrencies)

	got, err := pickReport(reports, "eur")
	require.NoError(t, err)
	assert.Equal(t, model.EUR, got.Currency())

	_, err = pickReport(reports, "GBP")
	require.Error(t, err)

	single, err := pickReport(reports[:1], "")
	require.NoError(t, err)
	assert.Equal(t, reports[0].Currency(), single.Currency())
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.qfx", "b.qfx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.qfx")})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = expandFiles([]string{filepath.Join(dir, "notes.txt"), filepath.Join(dir, "missing.ofx")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, files)

	_, err = expandFiles([]string{filepath.Join(dir, "*.ofx")})
	require.Error(t, err)
}

func mustMoney(t *testing.T, amount string, c model.Currency) model.Money {
	t.Helper()
	m, err := model.ParseMoney(amount, c)
	require.NoError(t, err)
	return m
}

func mustTxn(t *testing.T, m model.Money, categoryID uuid.UUID, when time.Time) model.Transaction {
	t.Helper()
	txn, err := model.NewDetailedTransaction(model.TransactionDetails{
		Money:      m,
		Name:       "Test",
		CategoryID: categoryID,
		Date:       when,
	})
	require.NoError(t, err)
	return txn
}
