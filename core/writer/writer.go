// Package writer is the producer-facing side of the log lifecycle. Calls
// enqueue formatted rows and return at once; a single worker goroutine
// appends them to the category files and runs maintenance after each write.
package writer

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/events"
	"github.com/kilianp07/logvault/core/logfile"
	"github.com/kilianp07/logvault/core/logger"
	"github.com/kilianp07/logvault/core/maintenance"
	"github.com/kilianp07/logvault/core/monitoring"
	"github.com/kilianp07/logvault/internal/eventbus"
)

// PathResolver returns the current file of a category, or an empty path when
// the category must not be written.
type PathResolver interface {
	ResolveLogFile(c category.Category) (string, error)
}

// Maintainer runs the post-write maintenance pass.
type Maintainer interface {
	Apply(ctx context.Context, cfg category.Config, current string) maintenance.Report
}

// Settings tunes the writer. Zero values fall back to defaults.
type Settings struct {
	// Source fills the last column of every row.
	Source string
	// RetryAttempts bounds the append attempts per entry.
	RetryAttempts int
	// RetryInitialInterval is the first backoff delay between attempts.
	RetryInitialInterval time.Duration
	// RetryMaxInterval caps the backoff delay.
	RetryMaxInterval time.Duration
}

const (
	defaultRetryAttempts   = 5
	defaultRetryInitial    = 20 * time.Millisecond
	defaultRetryMax        = 200 * time.Millisecond
	defaultSource          = "logvault"
	callerSkipFromLogError = 2
)

func (s *Settings) setDefaults() {
	if s.Source == "" {
		if host, err := os.Hostname(); err == nil && host != "" {
			s.Source = host
		} else {
			s.Source = defaultSource
		}
	}
	if s.RetryAttempts <= 0 {
		s.RetryAttempts = defaultRetryAttempts
	}
	if s.RetryInitialInterval <= 0 {
		s.RetryInitialInterval = defaultRetryInitial
	}
	if s.RetryMaxInterval <= 0 {
		s.RetryMaxInterval = defaultRetryMax
	}
	if s.RetryMaxInterval < s.RetryInitialInterval {
		s.RetryMaxInterval = s.RetryInitialInterval
	}
}

// Option configures a Writer.
type Option func(*Writer)

// WithSettings overrides the default settings.
func WithSettings(s Settings) Option { return func(w *Writer) { w.settings = s } }

// WithBus publishes write, drop and queue events on b.
func WithBus(b eventbus.EventBus) Option { return func(w *Writer) { w.bus = b } }

// WithMonitor reports dropped entries and worker panics to m.
func WithMonitor(m monitoring.Monitor) Option {
	return func(w *Writer) {
		w.monitor = monitoring.OrNop(m)
	}
}

// WithClock replaces time.Now for row timestamps.
func WithClock(now func() time.Time) Option { return func(w *Writer) { w.now = now } }

type entry struct {
	category category.Category
	level    logfile.Level
	line     string
	// internal entries report failures of earlier entries; their own
	// failures are not reported again.
	internal bool
}

// Writer serialises log entries to the category files. It is safe for use
// by any number of goroutines.
type Writer struct {
	lookup   category.Lookup
	resolver PathResolver
	maint    Maintainer
	log      logger.Logger
	monitor  monitoring.Monitor
	bus      eventbus.EventBus
	now      func() time.Time
	settings Settings

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []entry
	closed  bool
	done    chan struct{}
	workCtx context.Context
}

// New creates a Writer and starts its worker. maint may be nil to skip
// maintenance.
func New(lookup category.Lookup, resolver PathResolver, maint Maintainer, log logger.Logger, opts ...Option) *Writer {
	w := &Writer{
		lookup:   lookup,
		resolver: resolver,
		maint:    maint,
		log:      logger.OrNop(log),
		monitor:  monitoring.NopMonitor{},
		now:      time.Now,
		done:     make(chan struct{}),
		workCtx:  context.Background(),
	}
	for _, o := range opts {
		o(w)
	}
	w.settings.setDefaults()
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// LogInfo queues message as an INFO row of c.
func (w *Writer) LogInfo(message string, c category.Category) {
	w.enqueue(c, logfile.LevelInfo, message, false)
}

// LogWarning queues message as a WARN row of c.
func (w *Writer) LogWarning(message string, c category.Category) {
	w.enqueue(c, logfile.LevelWarn, message, false)
}

// LogError queues message as an ERROR row of c. For the Diagnostics
// category the message is prefixed with the calling function and line.
func (w *Writer) LogError(message string, c category.Category) {
	if c == category.Diagnostics {
		message = callerContext(callerSkipFromLogError) + " " + message
	}
	w.enqueue(c, logfile.LevelError, message, false)
}

// callerContext renders the frame skip levels above it as
// "[pkg.Type.Method() Line:N]".
func callerContext(skip int) string {
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+1, pcs) == 0 {
		return "[unknown() Line:0]"
	}
	frame, _ := runtime.CallersFrames(pcs).Next()
	name := frame.Function
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("[%s() Line:%d]", name, frame.Line)
}

// Pending returns the number of queued entries not yet taken by the worker.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *Writer) enqueue(c category.Category, level logfile.Level, message string, internal bool) {
	defer func() {
		// producers must never see a panic from the log path
		if r := recover(); r != nil {
			w.log.Errorf("enqueue %s: %v", c, r)
		}
	}()
	e := entry{
		category: c,
		level:    level,
		internal: internal,
		line: logfile.FormatLine(logfile.Entry{
			Timestamp: w.now(),
			Level:     level,
			Message:   message,
			Source:    w.settings.Source,
		}),
	}
	w.mu.Lock()
	if w.closed && !internal {
		w.mu.Unlock()
		eventbus.Publish(w.bus, events.DropEvent{Category: c, Reason: events.DropClosed})
		return
	}
	w.queue = append(w.queue, e)
	w.mu.Unlock()
	w.cond.Signal()
}

// Close stops accepting entries, writes everything already queued and
// waits for the worker to exit. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.cond.Broadcast()
	<-w.done
	return nil
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return
		}
		batch := w.queue
		w.queue = nil
		w.mu.Unlock()

		eventbus.Publish(w.bus, events.QueueEvent{Depth: len(batch)})
		for _, e := range batch {
			w.process(e)
		}
		eventbus.Publish(w.bus, events.QueueEvent{Depth: w.Pending()})
	}
}

func (w *Writer) process(e entry) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Errorf("writer panic on %s entry: %v", e.category, r)
			w.monitor.Recover(r, map[string]string{"category": e.category.String()})
		}
	}()

	cfg, ok := w.lookup.GetConfig(e.category)
	if !ok {
		w.drop(e, events.DropNoConfig, nil)
		return
	}
	if !cfg.Enabled {
		w.drop(e, events.DropDisabled, nil)
		return
	}
	path, err := w.resolver.ResolveLogFile(e.category)
	if err != nil || path == "" {
		w.drop(e, events.DropNoPath, err)
		return
	}
	if err := w.appendLine(path, e.line); err != nil {
		w.drop(e, events.DropIOError, err)
		return
	}
	eventbus.Publish(w.bus, events.WriteEvent{Category: e.category, Level: string(e.level), Path: path})

	if w.maint == nil {
		return
	}
	rep := w.maint.Apply(w.workCtx, cfg, path)
	for _, merr := range rep.Errors {
		w.reportInternal(e, fmt.Sprintf("maintenance of %s failed: %v", e.category, merr))
	}
}

// appendLine appends line to path, retrying with exponential backoff while
// the file is held by another process.
func (w *Writer) appendLine(path, line string) error {
	op := func() error {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		_, werr := f.WriteString(line + "\n")
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		return werr
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.settings.RetryInitialInterval
	b.MaxInterval = w.settings.RetryMaxInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithMaxRetries(b, uint64(w.settings.RetryAttempts-1))
	return backoff.RetryNotify(op, policy, func(err error, next time.Duration) {
		w.log.Debugw("append retry", map[string]any{"path": path, "error": err.Error(), "next": next.String()})
	})
}

func (w *Writer) drop(e entry, reason string, err error) {
	eventbus.Publish(w.bus, events.DropEvent{Category: e.category, Reason: reason, Err: err})
	switch reason {
	case events.DropNoConfig, events.DropDisabled:
		w.log.Debugf("dropping %s entry: %s", e.category, reason)
		return
	}
	w.log.Warnf("dropping %s entry (%s): %v", e.category, reason, err)
	if err != nil {
		w.monitor.CaptureException(err, map[string]string{"category": e.category.String(), "reason": reason})
	}
	w.reportInternal(e, fmt.Sprintf("entry for %s dropped (%s): %v", e.category, reason, err))
}

// reportInternal queues a WARN row in the Diagnostics category describing a
// failure caused by e. Failures of internal rows are only logged, which
// bounds the recursion to one level.
func (w *Writer) reportInternal(e entry, message string) {
	if e.internal {
		w.log.Warnf("%s", message)
		return
	}
	if cfg, ok := w.lookup.GetConfig(category.Diagnostics); !ok || !cfg.Enabled {
		w.log.Warnf("%s", message)
		return
	}
	w.enqueue(category.Diagnostics, logfile.LevelWarn, message, true)
}
