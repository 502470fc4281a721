package memory

import (
	"context"
	"sync"
	"time"

	"soda/internal/sheets"
)

// Report is one written weekly report.
type Report struct {
	Rows      []sheets.WeekRow
	WrittenAt time.Time
}

// Writer keeps written reports in memory. It is used when no spreadsheet is
// configured and in tests.
type Writer struct {
	mu      sync.Mutex
	reports []Report
	err     error
}

var _ sheets.ReportWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

// FailWith makes subsequent writes return err. Pass nil to clear.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

func (w *Writer) WriteWeeklyReport(_ context.Context, rows []sheets.WeekRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.reports = append(w.reports, Report{Rows: append([]sheets.WeekRow(nil), rows...), WrittenAt: time.Now()})
	return nil
}

// Last returns the most recent report.
func (w *Writer) Last() (Report, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.reports) == 0 {
		return Report{}, false
	}
	return w.reports[len(w.reports)-1], true
}

// Writes returns how many reports were written.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.reports)
}
