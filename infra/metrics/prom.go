package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/logvault/core/category"
	coremetrics "github.com/kilianp07/logvault/core/metrics"
)

// PromSink records lifecycle activity in Prometheus metrics.
type PromSink struct {
	writes    *prometheus.CounterVec
	drops     *prometheus.CounterVec
	rotations *prometheus.CounterVec
	purges    *prometheus.CounterVec
	backups   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	queue     prometheus.Gauge
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logvault_entries_written_total",
			Help: "Rows appended to category log files",
		}, []string{"category", "level"}),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logvault_entries_dropped_total",
			Help: "Entries discarded before reaching disk",
		}, []string{"category", "reason"}),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logvault_rotations_total",
			Help: "Size based rotations",
		}, []string{"category"}),
		purges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logvault_purged_files_total",
			Help: "Files removed by retention",
		}, []string{"category", "failed"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logvault_backup_runs_total",
			Help: "Backup and restore runs",
		}, []string{"category", "action", "ok"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "logvault_backup_duration_seconds",
			Help:    "Duration of backup and restore runs",
			Buckets: prometheus.DefBuckets,
		}, []string{"category", "action"}),
		queue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logvault_queue_depth",
			Help: "Entries waiting for the writer",
		}),
	}

	var err error
	if s.writes, err = register(reg, s.writes); err != nil {
		return nil, err
	}
	if s.drops, err = register(reg, s.drops); err != nil {
		return nil, err
	}
	if s.rotations, err = register(reg, s.rotations); err != nil {
		return nil, err
	}
	if s.purges, err = register(reg, s.purges); err != nil {
		return nil, err
	}
	if s.backups, err = register(reg, s.backups); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.queue, err = register(reg, s.queue); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing the existing collector when one with the
// same descriptor is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordWrite(c category.Category, level string) error {
	s.writes.WithLabelValues(c.String(), level).Inc()
	return nil
}

func (s *PromSink) RecordDrop(c category.Category, reason string) error {
	s.drops.WithLabelValues(c.String(), reason).Inc()
	return nil
}

func (s *PromSink) RecordRotation(c category.Category) error {
	s.rotations.WithLabelValues(c.String()).Inc()
	return nil
}

func (s *PromSink) RecordPurge(c category.Category, failed bool) error {
	s.purges.WithLabelValues(c.String(), strconv.FormatBool(failed)).Inc()
	return nil
}

func (s *PromSink) RecordBackup(c category.Category, action string, ok bool, _ int, elapsed time.Duration) error {
	s.backups.WithLabelValues(c.String(), action, strconv.FormatBool(ok)).Inc()
	s.duration.WithLabelValues(c.String(), action).Observe(elapsed.Seconds())
	return nil
}

// SetQueueDepth sets the gauge to the writer's backlog.
func (s *PromSink) SetQueueDepth(n int) error {
	s.queue.Set(float64(n))
	return nil
}

var _ coremetrics.Sink = (*PromSink)(nil)
