package metrics

import (
	"time"

	"github.com/kilianp07/logvault/core/category"
)

// Sink records log lifecycle activity for observability purposes.
type Sink interface {
	RecordWrite(c category.Category, level string) error
	RecordDrop(c category.Category, reason string) error
	RecordRotation(c category.Category) error
	RecordPurge(c category.Category, failed bool) error
	RecordBackup(c category.Category, action string, ok bool, files int, elapsed time.Duration) error
	SetQueueDepth(n int) error
}

// NopSink discards all metrics.
type NopSink struct{}

func (NopSink) RecordWrite(category.Category, string) error { return nil }
func (NopSink) RecordDrop(category.Category, string) error  { return nil }
func (NopSink) RecordRotation(category.Category) error      { return nil }
func (NopSink) RecordPurge(category.Category, bool) error   { return nil }
func (NopSink) SetQueueDepth(int) error                     { return nil }
func (NopSink) RecordBackup(category.Category, string, bool, int, time.Duration) error {
	return nil
}
