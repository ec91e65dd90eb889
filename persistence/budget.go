package persistence

import (
	"io"

	"github.com/maplumi/braine-sub000/braineerr"
)

// BudgetedWriter wraps an io.Writer with a hard byte budget, the same
// capacity-ceiling shape as a rate limiter applied to byte count instead of
// release frequency. Once the budget is exhausted, Write returns
// CapacityExceeded; a write that would cross the budget is
// truncated to what still fits (io.Writer's contract allows n < len(p)
// alongside a non-nil error) so the caller sees exactly how much landed
// before aborting.
type BudgetedWriter struct {
	w       io.Writer
	budget  int64
	written int64
}

// NewBudgetedWriter wraps w with a maximum total byte budget.
func NewBudgetedWriter(w io.Writer, budget int64) *BudgetedWriter {
	return &BudgetedWriter{w: w, budget: budget}
}

// Written returns the number of bytes successfully written so far.
func (b *BudgetedWriter) Written() int64 { return b.written }

func (b *BudgetedWriter) Write(p []byte) (int, error) {
	if b.written >= b.budget {
		return 0, braineerr.New(braineerr.CapacityExceeded, "persistence: write budget exhausted")
	}
	remaining := b.budget - b.written
	if int64(len(p)) > remaining {
		n, err := b.w.Write(p[:remaining])
		b.written += int64(n)
		if err != nil {
			return n, braineerr.Wrap(braineerr.IoError, "persistence: underlying write failed", err)
		}
		return n, braineerr.New(braineerr.CapacityExceeded, "persistence: write budget exhausted mid-write")
	}
	n, err := b.w.Write(p)
	b.written += int64(n)
	if err != nil {
		return n, braineerr.Wrap(braineerr.IoError, "persistence: underlying write failed", err)
	}
	return n, nil
}
