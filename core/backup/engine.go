package backup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/events"
	"github.com/kilianp07/logvault/core/logger"
	"github.com/kilianp07/logvault/core/monitoring"
	"github.com/kilianp07/logvault/internal/eventbus"
)

// ErrNoBackupFolder is returned when a category has no backup folder.
var ErrNoBackupFolder = errors.New("no backup folder configured")

// Engine performs backups and restores of category folders.
type Engine struct {
	log     logger.Logger
	monitor monitoring.Monitor
	bus     eventbus.EventBus
	now     func() time.Time

	mu      sync.Mutex
	lastRun map[category.Category]time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMonitor reports failed runs to m.
func WithMonitor(m monitoring.Monitor) Option {
	return func(e *Engine) {
		e.monitor = monitoring.OrNop(m)
	}
}

// WithBus publishes a BackupEvent per run on b.
func WithBus(b eventbus.EventBus) Option { return func(e *Engine) { e.bus = b } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine creates an Engine.
func NewEngine(log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		log:     logger.OrNop(log),
		monitor: monitoring.NopMonitor{},
		now:     time.Now,
		lastRun: make(map[category.Category]time.Time),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// IsBackupDue reports whether cfg's schedule fires at now and no backup of
// the category was started in that minute yet. Maintenance runs after every
// write, so without the second condition a busy category would be copied
// once per entry during the due minute.
func (e *Engine) IsBackupDue(cfg category.Config, now time.Time) bool {
	if !IsBackupDue(cfg, now) {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	last, ok := e.lastRun[cfg.Category]
	return !ok || !last.Equal(now.Truncate(time.Minute))
}

// PerformBackup copies the data folder of cfg, and its secondary asset tree
// when configured, into the backup locations. A missing source folder is
// logged and skipped.
func (e *Engine) PerformBackup(ctx context.Context, cfg category.Config) error {
	e.mu.Lock()
	e.lastRun[cfg.Category] = e.now().Truncate(time.Minute)
	e.mu.Unlock()
	return e.run(ctx, cfg, "backup", func(c category.Config) []pair {
		ps := []pair{{c.DataFolder, c.BackupFolder, "data"}}
		if c.HasSecondaryAssets() {
			ps = append(ps, pair{c.SecondaryAssetSourcePath, c.SecondaryAssetBackupPath, "assets"})
		}
		return ps
	})
}

// PerformRestore copies the backup folders of cfg back over the data
// folder and the secondary asset tree. It is never triggered automatically.
func (e *Engine) PerformRestore(ctx context.Context, cfg category.Config) error {
	return e.run(ctx, cfg, "restore", func(c category.Config) []pair {
		ps := []pair{{c.BackupFolder, c.DataFolder, "data"}}
		if c.HasSecondaryAssets() {
			ps = append(ps, pair{c.SecondaryAssetBackupPath, c.SecondaryAssetSourcePath, "assets"})
		}
		return ps
	})
}

type pair struct {
	src, dst, name string
}

func (e *Engine) run(ctx context.Context, cfg category.Config, action string, pairs func(category.Config) []pair) error {
	runID := uuid.NewString()
	start := time.Now()
	var (
		errs  []error
		files int
	)
	if cfg.BackupFolder == "" {
		errs = append(errs, fmt.Errorf("%s %s: %w", action, cfg.Category, ErrNoBackupFolder))
	} else {
		for _, p := range pairs(cfg) {
			n, err := copyTree(ctx, p.src, p.dst)
			files += n
			switch {
			case errors.Is(err, errSourceMissing):
				e.log.Infof("%s %s: %s source %s missing, nothing to copy", action, cfg.Category, p.name, p.src)
			case err != nil:
				errs = append(errs, fmt.Errorf("%s %s %s: %w", action, cfg.Category, p.name, err))
			}
		}
	}
	err := errors.Join(errs...)
	elapsed := time.Since(start)
	eventbus.Publish(e.bus, events.BackupEvent{
		Category: cfg.Category,
		Action:   action,
		RunID:    runID,
		Files:    files,
		Duration: elapsed,
		Err:      err,
	})
	if err != nil {
		e.log.Errorf("%s run %s failed: %v", action, runID, err)
		e.monitor.CaptureException(err, map[string]string{
			"category": cfg.Category.String(),
			"action":   action,
			"run_id":   runID,
		})
		return err
	}
	e.log.Debugw(action+" finished", map[string]any{
		"category": cfg.Category.String(),
		"run_id":   runID,
		"files":    files,
		"elapsed":  elapsed.String(),
	})
	return nil
}
