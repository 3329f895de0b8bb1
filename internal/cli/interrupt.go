package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
)

// InterruptHandler cancels a command's context on SIGINT or SIGTERM and
// tells the user the unfinished step was abandoned.
type InterruptHandler struct {
	out         io.Writer
	once        sync.Once
	interrupted atomic.Bool
}

// NewInterruptHandler reports interruptions to out, or stdout when out is nil.
func NewInterruptHandler(out io.Writer) *InterruptHandler {
	if out == nil {
		out = os.Stdout
	}
	return &InterruptHandler{out: out}
}

// HandleInterrupts derives a context that ends on the first interrupt signal.
// operation names the work in the message, e.g. "Import".
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, operation string) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			h.interrupt(operation, cancel)
		case <-ctx.Done():
		}
	}()

	return ctx
}

// interrupt runs at most once per handler.
func (h *InterruptHandler) interrupt(operation string, cancel context.CancelFunc) {
	h.once.Do(func() {
		h.interrupted.Store(true)
		_, _ = io.WriteString(h.out, interruptMessage(operation))
		cancel()
	})
}

func interruptMessage(operation string) string {
	if operation == "" {
		operation = "Operation"
	}
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(FormatWarning(operation + " interrupted!"))
	b.WriteString("\n")
	b.WriteString(FormatInfo("Nothing was saved from the unfinished step."))
	b.WriteString("\n")
	return b.String()
}

// WasInterrupted reports whether a signal ended the handled context.
func (h *InterruptHandler) WasInterrupted() bool {
	return h.interrupted.Load()
}
