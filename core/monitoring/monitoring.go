// Package monitoring defines the diagnostics sink that receives failures the
// log lifecycle absorbs instead of returning to producers.
package monitoring

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// Recover reports a panic value the caller already recovered.
	Recover(r any, tags map[string]string)
	Flush(timeout time.Duration)
}

// NopMonitor discards everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover(any, map[string]string)            {}
func (NopMonitor) Flush(time.Duration)                       {}

// OrNop returns m, or NopMonitor when m is nil.
func OrNop(m Monitor) Monitor {
	if m == nil {
		return NopMonitor{}
	}
	return m
}

// ErrPanic marks errors the Recorder built from recovered panics.
var ErrPanic = errors.New("panic")

// Recorder keeps captured errors in memory. Tests use it to assert on
// diagnostics.
type Recorder struct {
	mu     sync.Mutex
	errors []error
	tags   []map[string]string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.mu.Lock()
	r.errors = append(r.errors, err)
	r.tags = append(r.tags, tags)
	r.mu.Unlock()
}

// Recover records a recovered panic as an error wrapping ErrPanic.
func (r *Recorder) Recover(v any, tags map[string]string) {
	if v == nil {
		return
	}
	r.CaptureException(fmt.Errorf("%w: %v", ErrPanic, v), tags)
}

func (r *Recorder) Flush(time.Duration) {}

// Errors returns a copy of the captured errors.
func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errors))
	copy(out, r.errors)
	return out
}

// Tags returns the tags captured with the i-th error.
func (r *Recorder) Tags(i int) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tags[i]
}
