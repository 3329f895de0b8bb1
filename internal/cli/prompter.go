package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// ErrNoChoices is returned when Choose is given nothing to pick from.
var ErrNoChoices = errors.New("no options to choose from")

// Prompter asks the user questions on a terminal.
type Prompter struct {
	writer io.Writer
	reader *LineReader
}

// NewPrompter creates a prompter reading from reader and writing to writer.
// Nil arguments default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: NewLineReader(reader),
		writer: writer,
	}
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	line, err := p.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("input terminated: %w", err)
	}
	return line, err
}

// Confirm asks a yes/no question. An empty answer means no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		if _, err := fmt.Fprintf(p.writer, "%s ", FormatPrompt(question+" [y/N]")); err != nil {
			return false, fmt.Errorf("failed to write prompt: %w", err)
		}

		answer, err := p.readLine(ctx)
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Please answer y or n.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

// Ask prompts for free text, returning def when the answer is empty.
func (p *Prompter) Ask(ctx context.Context, question, def string) (string, error) {
	prompt := question
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]", question, def)
	}
	if _, err := fmt.Fprintf(p.writer, "%s ", FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Choose shows a numbered list and returns the index of the picked option.
func (p *Prompter) Choose(ctx context.Context, question string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, ErrNoChoices
	}

	for i, option := range options {
		if _, err := fmt.Fprintf(p.writer, "  [%d] %s\n", i+1, option); err != nil {
			return 0, fmt.Errorf("failed to write option: %w", err)
		}
	}

	for {
		if _, err := fmt.Fprintf(p.writer, "%s ", FormatPrompt(question)); err != nil {
			return 0, fmt.Errorf("failed to write prompt: %w", err)
		}

		answer, err := p.readLine(ctx)
		if err != nil {
			return 0, err
		}

		if n, convErr := strconv.Atoi(answer); convErr == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		for i, option := range options {
			if strings.EqualFold(answer, option) {
				return i, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

// NewProgressBar returns a progress bar counting to total on w.
func NewProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
