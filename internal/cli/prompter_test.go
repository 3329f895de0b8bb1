package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    bool
		wantErr bool
		retried bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes", input: "YES\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty defaults to no", input: "\n", want: false},
		{name: "invalid then yes", input: "maybe\ny\n", want: true, retried: true},
		{name: "answer without newline", input: "y", want: true},
		{name: "no input", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm(context.Background(), "Delete category Coffee?")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Delete category Coffee? [y/N]")
			if tt.retried {
				assert.Contains(t, out.String(), "Please answer y or n.")
			}
		})
	}
}

func TestPrompter_Ask(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\nGroceries\n"), &out)
	ctx := context.Background()

	got, err := p.Ask(ctx, "Name", "Lunch")
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got)
	assert.Contains(t, out.String(), "Name [Lunch]")

	got, err = p.Ask(ctx, "Name", "")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got)
}

func TestPrompter_Choose(t *testing.T) {
	options := []string{"Food", "Transport", "Health"}

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "by number", input: "2\n", want: 1},
		{name: "by name", input: "health\n", want: 2},
		{name: "out of range then valid", input: "7\n1\n", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Choose(context.Background(), "Category", options)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "[3] Health")
		})
	}

	t.Run("no options", func(t *testing.T) {
		p := NewPrompter(strings.NewReader("1\n"), &bytes.Buffer{})
		_, err := p.Choose(context.Background(), "Category", nil)
		assert.ErrorIs(t, err, ErrNoChoices)
	})
}

func TestPrompter_Canceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	reader, writer := io.Pipe()
	defer func() { _ = writer.Close() }()

	p := NewPrompter(reader, &bytes.Buffer{})
	_, err := p.Confirm(ctx, "Continue?")
	assert.ErrorIs(t, err, ErrPromptCanceled)
}

func TestNewProgressBar(t *testing.T) {
	var out bytes.Buffer
	bar := NewProgressBar(&out, 3, "Importing transactions...")
	for i := 0; i < 3; i++ {
		require.NoError(t, bar.Add(1))
	}
	assert.True(t, bar.IsFinished())
	assert.Contains(t, out.String(), "Importing transactions...")
}
