package pipeline

import (
	"fmt"
	"log/slog"
	"time"
)

// RunStatus is a snapshot of run-level progress counters, computed by
// the orchestrator after each document completes.
type RunStatus struct {
	Done      int
	Total     int
	Elapsed   time.Duration
	AvgPerDoc time.Duration
	ETA       time.Duration
}

// Observer receives discrete progress events. Implementations format
// and display; the pipeline never depends on them for correctness.
type Observer interface {
	RunStart(totalDocs int)
	DocStart(idx, total int, name string)
	Step(name, msg string)
	BatchStart(batch, total, pageStart, pageEnd int, carry string)
	BatchDone(batch int, sections int, nextCarry string, elapsed time.Duration)
	DocDone(name string, elapsed time.Duration)
	DocFail(name string, err error)
	RunStatus(status RunStatus)
	RunDone(status RunStatus)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) RunStart(int)                                   {}
func (NopObserver) DocStart(int, int, string)                      {}
func (NopObserver) Step(string, string)                            {}
func (NopObserver) BatchStart(int, int, int, int, string)          {}
func (NopObserver) BatchDone(int, int, string, time.Duration)      {}
func (NopObserver) DocDone(string, time.Duration)                  {}
func (NopObserver) DocFail(string, error)                          {}
func (NopObserver) RunStatus(RunStatus)                            {}
func (NopObserver) RunDone(RunStatus)                              {}

// ConsoleObserver logs progress events through slog.
type ConsoleObserver struct {
	Logger *slog.Logger

	doc string // current document, prefixes step/batch events
}

// NewConsoleObserver creates a console observer.
func NewConsoleObserver(logger *slog.Logger) *ConsoleObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleObserver{Logger: logger}
}

func (o *ConsoleObserver) RunStart(totalDocs int) {
	o.Logger.Info("run start", "documents", totalDocs)
}

func (o *ConsoleObserver) DocStart(idx, total int, name string) {
	o.doc = name
	o.Logger.Info("document start", "doc", name, "index", fmt.Sprintf("%d/%d", idx, total))
}

func (o *ConsoleObserver) Step(name, msg string) {
	o.Logger.Info(msg, "doc", name)
}

func (o *ConsoleObserver) BatchStart(batch, total, pageStart, pageEnd int, carry string) {
	args := []any{"doc", o.doc, "batch", fmt.Sprintf("%d/%d", batch, total), "pages", fmt.Sprintf("%d-%d", pageStart, pageEnd)}
	if carry != "" {
		args = append(args, "carry", carry)
	}
	o.Logger.Info("extraction batch start", args...)
}

func (o *ConsoleObserver) BatchDone(batch int, sections int, nextCarry string, elapsed time.Duration) {
	args := []any{"doc", o.doc, "batch", batch, "sections", sections, "time", fmtDuration(elapsed)}
	if nextCarry != "" {
		args = append(args, "next_carry", nextCarry)
	}
	o.Logger.Info("extraction batch done", args...)
}

func (o *ConsoleObserver) DocDone(name string, elapsed time.Duration) {
	o.Logger.Info("document done", "doc", name, "time", fmtDuration(elapsed))
}

func (o *ConsoleObserver) DocFail(name string, err error) {
	o.Logger.Error("document failed", "doc", name, "error", err)
}

func (o *ConsoleObserver) RunStatus(s RunStatus) {
	o.Logger.Info("run status",
		"done", fmt.Sprintf("%d/%d", s.Done, s.Total),
		"remaining", s.Total-s.Done,
		"elapsed", fmtDuration(s.Elapsed),
		"avg_per_doc", fmtDuration(s.AvgPerDoc),
		"eta", fmtDuration(s.ETA),
	)
}

func (o *ConsoleObserver) RunDone(s RunStatus) {
	o.Logger.Info("run complete",
		"documents", s.Done,
		"elapsed", fmtDuration(s.Elapsed),
		"avg_per_doc", fmtDuration(s.AvgPerDoc),
	)
}

// fmtDuration renders a duration as 1h 02m 03s / 2m 03s / 3s.
func fmtDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
