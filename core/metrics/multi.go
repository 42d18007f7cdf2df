package metrics

import (
	"errors"
	"time"

	"github.com/kilianp07/logvault/core/category"
)

// MultiSink fans records out to multiple sinks. Every sink is called; the
// errors are joined.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) each(f func(Sink) error) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := f(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordWrite(c category.Category, level string) error {
	return m.each(func(s Sink) error { return s.RecordWrite(c, level) })
}

func (m *MultiSink) RecordDrop(c category.Category, reason string) error {
	return m.each(func(s Sink) error { return s.RecordDrop(c, reason) })
}

func (m *MultiSink) RecordRotation(c category.Category) error {
	return m.each(func(s Sink) error { return s.RecordRotation(c) })
}

func (m *MultiSink) RecordPurge(c category.Category, failed bool) error {
	return m.each(func(s Sink) error { return s.RecordPurge(c, failed) })
}

func (m *MultiSink) RecordBackup(c category.Category, action string, ok bool, files int, elapsed time.Duration) error {
	return m.each(func(s Sink) error { return s.RecordBackup(c, action, ok, files, elapsed) })
}

func (m *MultiSink) SetQueueDepth(n int) error {
	return m.each(func(s Sink) error { return s.SetQueueDepth(n) })
}
