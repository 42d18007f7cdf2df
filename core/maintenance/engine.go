// Package maintenance runs the post-write lifecycle pass of a category:
// size rotation, time retention and the scheduled backup trigger.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/events"
	"github.com/kilianp07/logvault/core/logfile"
	"github.com/kilianp07/logvault/core/logger"
	"github.com/kilianp07/logvault/core/monitoring"
	"github.com/kilianp07/logvault/internal/eventbus"
)

const bytesPerMB = 1024 * 1024

// rotationLayout is the suffix appended to a rotated file's base name.
const rotationLayout = "20060102150405.000"

// Backupper is the part of the backup engine maintenance depends on.
type Backupper interface {
	IsBackupDue(cfg category.Config, now time.Time) bool
	PerformBackup(ctx context.Context, cfg category.Config) error
}

// Report summarises one maintenance pass. Errors holds every failure the
// pass absorbed; none of them interrupted the remaining steps.
type Report struct {
	RotatedTo string
	Purged    []string
	BackedUp  bool
	Errors    []error
}

// Engine applies maintenance to a category file.
type Engine struct {
	backup  Backupper
	log     logger.Logger
	monitor monitoring.Monitor
	bus     eventbus.EventBus
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMonitor reports absorbed failures to m.
func WithMonitor(m monitoring.Monitor) Option {
	return func(e *Engine) {
		e.monitor = monitoring.OrNop(m)
	}
}

// WithBus publishes rotation and purge events on b.
func WithBus(b eventbus.EventBus) Option { return func(e *Engine) { e.bus = b } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New creates an Engine. backup may be nil, which disables the backup trigger.
func New(backup Backupper, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		backup:  backup,
		log:     logger.OrNop(log),
		monitor: monitoring.NopMonitor{},
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Apply runs rotation, retention and the backup trigger for the file at
// current. It never panics and never returns an error; failures are logged,
// sent to the monitor and listed in the report.
func (e *Engine) Apply(ctx context.Context, cfg category.Config, current string) (rep Report) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("maintenance %s panicked: %v", cfg.Category, r)
			rep.Errors = append(rep.Errors, err)
			e.log.Errorf("%v", err)
			e.monitor.Recover(r, map[string]string{"category": cfg.Category.String(), "step": "panic"})
		}
	}()
	if !cfg.Enabled || current == "" {
		return rep
	}
	now := e.now()

	if cfg.RetentionSizeMB > 0 {
		to, err := e.rotate(cfg, current, now)
		if err != nil {
			rep.Errors = append(rep.Errors, err)
			e.capture(cfg, "rotation", err)
		}
		rep.RotatedTo = to
	}

	if cfg.AutoPurge && cfg.RetentionDays > 0 {
		purged, errs := e.purge(cfg, current, now)
		rep.Purged = purged
		for _, err := range errs {
			rep.Errors = append(rep.Errors, err)
			e.capture(cfg, "retention", err)
		}
	}

	if e.backup != nil && e.backup.IsBackupDue(cfg, now) {
		if err := e.backup.PerformBackup(ctx, cfg); err != nil {
			rep.Errors = append(rep.Errors, err)
			e.log.Warnf("scheduled backup of %s failed: %v", cfg.Category, err)
		} else {
			rep.BackedUp = true
		}
	}
	return rep
}

// rotate moves current aside when it exceeds the size threshold and puts a
// fresh file with the header in its place.
func (e *Engine) rotate(cfg category.Config, current string, now time.Time) (string, error) {
	info, err := os.Stat(current)
	if err != nil {
		return "", fmt.Errorf("rotate %s: %w", cfg.Category, err)
	}
	if info.Size() <= int64(cfg.RetentionSizeMB)*bytesPerMB {
		return "", nil
	}
	target, err := rotatedName(current, now)
	if err != nil {
		return "", fmt.Errorf("rotate %s: %w", cfg.Category, err)
	}
	if err := os.Rename(current, target); err != nil {
		return "", fmt.Errorf("rotate %s: %w", cfg.Category, err)
	}
	if err := logfile.EnsureFile(current); err != nil {
		return target, fmt.Errorf("recreate %s: %w", cfg.Category, err)
	}
	e.log.Infof("rotated %s (%d bytes) to %s", current, info.Size(), filepath.Base(target))
	eventbus.Publish(e.bus, events.RotationEvent{Category: cfg.Category, From: current, To: target})
	return target, nil
}

// rotatedName returns a free sibling of path named <base>_<timestamp>.csv,
// adding a counter when several rotations share a millisecond.
func rotatedName(path string, now time.Time) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	stamp := strings.Replace(now.Format(rotationLayout), ".", "", 1)
	candidate := fmt.Sprintf("%s_%s%s", base, stamp, ext)
	for i := 1; i < 1000; i++ {
		if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%s_%d%s", base, stamp, i, ext)
	}
	return "", fmt.Errorf("no free rotation name for %s", path)
}

// purge deletes files in the data folder last written before the retention
// cutoff. The current file is never deleted.
func (e *Engine) purge(cfg category.Config, current string, now time.Time) ([]string, []error) {
	entries, err := os.ReadDir(cfg.DataFolder)
	if err != nil {
		return nil, []error{fmt.Errorf("retention %s: %w", cfg.Category, err)}
	}
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)
	currentAbs, _ := filepath.Abs(current)

	var (
		purged []string
		errs   []error
	)
	for _, d := range entries {
		if !d.Type().IsRegular() {
			continue
		}
		path := filepath.Join(cfg.DataFolder, d.Name())
		if abs, _ := filepath.Abs(path); abs == currentAbs {
			continue
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			err = fmt.Errorf("retention %s: %w", cfg.Category, err)
			errs = append(errs, err)
			eventbus.Publish(e.bus, events.PurgeEvent{Category: cfg.Category, Path: path, Err: err})
			continue
		}
		purged = append(purged, path)
		eventbus.Publish(e.bus, events.PurgeEvent{Category: cfg.Category, Path: path})
	}
	if len(purged) > 0 {
		e.log.Infof("purged %d expired files of %s", len(purged), cfg.Category)
	}
	return purged, errs
}

func (e *Engine) capture(cfg category.Config, step string, err error) {
	e.log.Warnf("maintenance %s/%s: %v", cfg.Category, step, err)
	e.monitor.CaptureException(err, map[string]string{"category": cfg.Category.String(), "step": step})
}
