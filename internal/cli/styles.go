// Package cli provides styled terminal output and prompts for the budget commands.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	accent   = lipgloss.Color("#4D96FF")
	teal     = lipgloss.Color("#4ECDC4")
	amber    = lipgloss.Color("#FFE66D")
	coral    = lipgloss.Color("#FF6B6B")
	mint     = lipgloss.Color("#95E1D3")
	gray     = lipgloss.Color("#666666")
	charcoal = lipgloss.Color("#333")
)

var (
	// SubtleStyle dims secondary text such as empty-list notices and paths.
	SubtleStyle = lipgloss.NewStyle().Foreground(gray)

	// AmountStyle right-aligns money columns.
	AmountStyle = lipgloss.NewStyle().Align(lipgloss.Right).PaddingRight(2)

	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).PaddingRight(2)
	TableBorderStyle = lipgloss.NewStyle().Foreground(charcoal)
	TableCellStyle   = lipgloss.NewStyle().PaddingRight(2)

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(charcoal).
			Padding(1, 2)
)

const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	BudgetIcon  = "💰"
	ChartIcon   = "📊"
	FolderIcon  = "🗄️"
)

// notice renders a one-line status message: an icon, then the text, in color.
type notice struct {
	icon  string
	style lipgloss.Style
}

func (n notice) format(message string) string {
	return n.style.Render(n.icon + " " + message)
}

var (
	successNotice = notice{SuccessIcon, lipgloss.NewStyle().Foreground(teal)}
	errorNotice   = notice{ErrorIcon, lipgloss.NewStyle().Foreground(coral)}
	warningNotice = notice{WarningIcon, lipgloss.NewStyle().Foreground(amber)}
	infoNotice    = notice{InfoIcon, lipgloss.NewStyle().Foreground(mint)}
)

func FormatSuccess(message string) string { return successNotice.format(message) }
func FormatError(message string) string   { return errorNotice.format(message) }
func FormatWarning(message string) string { return warningNotice.format(message) }
func FormatInfo(message string) string    { return infoNotice.format(message) }

// FormatTitle renders a section heading followed by a blank line.
func FormatTitle(title string) string {
	return titleStyle.MarginBottom(1).Render(BudgetIcon + " " + title)
}

// FormatPrompt renders a question waiting for input.
func FormatPrompt(prompt string) string {
	return promptStyle.Render(prompt + " → ")
}

// RenderBox frames content under a bold title.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), content))
}
