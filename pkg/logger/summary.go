package logger

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// RunSummary accumulates counters for a single processing run. Recoverable
// conditions (pages without a table, invoices without rows) are absorbed by
// the pipeline and surfaced here instead of failing the run.
type RunSummary struct {
	mu sync.Mutex

	StartTime time.Time

	PagesProcessed  int
	PagesSkipped    int
	InvoicesEmitted int
	InvoicesSkipped int
	RowsCollected   int
	RowsWritten     int

	warnings []string
}

// NewRunSummary creates a summary with the start time set to now
func NewRunSummary() *RunSummary {
	return &RunSummary{StartTime: time.Now()}
}

// AddWarning records a human-readable warning for the final report
func (rs *RunSummary) AddWarning(format string, args ...interface{}) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.warnings = append(rs.warnings, fmt.Sprintf(format, args...))
}

// Warnings returns the recorded warnings in order
func (rs *RunSummary) Warnings() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]string, len(rs.warnings))
	copy(out, rs.warnings)
	return out
}

// String renders the summary as a multi-line report
func (rs *RunSummary) String() string {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d pages (%d skipped), %d invoices (%d skipped), %d rows collected, %d rows written in %s",
		rs.PagesProcessed, rs.PagesSkipped,
		rs.InvoicesEmitted, rs.InvoicesSkipped,
		rs.RowsCollected, rs.RowsWritten,
		time.Since(rs.StartTime).Round(time.Millisecond))

	for _, w := range rs.warnings {
		fmt.Fprintf(&b, "\n  warning: %s", w)
	}
	return b.String()
}

// Log writes the summary through the given logger at info level, with
// warnings logged individually at warn level
func (rs *RunSummary) Log(log Logger) {
	log.WithFields(Fields{
		"pages_processed":  rs.PagesProcessed,
		"pages_skipped":    rs.PagesSkipped,
		"invoices_emitted": rs.InvoicesEmitted,
		"invoices_skipped": rs.InvoicesSkipped,
		"rows_collected":   rs.RowsCollected,
		"rows_written":     rs.RowsWritten,
	}).Info("Run completed")

	for _, w := range rs.Warnings() {
		log.Warn(w)
	}
}
