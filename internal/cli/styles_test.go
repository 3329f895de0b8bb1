package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNotices(t *testing.T) {
	tests := []struct {
		format func(string) string
		name   string
		icon   string
	}{
		{name: "success", format: FormatSuccess, icon: SuccessIcon},
		{name: "error", format: FormatError, icon: ErrorIcon},
		{name: "warning", format: FormatWarning, icon: WarningIcon},
		{name: "info", format: FormatInfo, icon: InfoIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.format("Imported 3 expenses")
			assert.Contains(t, got, tt.icon+" Imported 3 expenses")
		})
	}
}

func TestRenderBox(t *testing.T) {
	got := RenderBox("October 2026", "Total: $42.00")
	assert.Contains(t, got, "October 2026")
	assert.Contains(t, got, "Total: $42.00")
	assert.Contains(t, got, "╭")
}
