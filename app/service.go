package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kilianp07/logvault/config"
	"github.com/kilianp07/logvault/core/backup"
	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/logfile"
	"github.com/kilianp07/logvault/core/maintenance"
	coremetrics "github.com/kilianp07/logvault/core/metrics"
	coremon "github.com/kilianp07/logvault/core/monitoring"
	"github.com/kilianp07/logvault/core/writer"
	_ "github.com/kilianp07/logvault/infra/catalog"
	"github.com/kilianp07/logvault/infra/logger"
	"github.com/kilianp07/logvault/infra/metrics"
	"github.com/kilianp07/logvault/infra/monitoring"
	"github.com/kilianp07/logvault/internal/eventbus"
)

const flushTimeout = 2 * time.Second

// watcher is implemented by providers able to signal changes of their store.
type watcher interface {
	Watch(onChange func(err error)) error
}

// Service wires the log lifecycle components together.
type Service struct {
	Registry *category.Registry
	Resolver *logfile.Resolver
	Reader   *logfile.Reader
	Backup   *backup.Engine
	Writer   *writer.Writer

	cfg       *config.Config
	provider  category.Provider
	bus       *eventbus.Bus
	sink      coremetrics.Sink
	monitor   coremon.Monitor
	log       logger.Logger
	logCloser io.Closer
}

// New creates a Service from the configuration and loads the category
// registry. The writer is running when New returns.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logCloser, err := logger.Configure(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("sentry: %w", err)
	}
	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	provider, err := category.NewProvider(cfg.Catalog.Provider)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("category provider: %w", err)
	}
	registry := category.NewRegistry(provider, logger.New("registry"))
	if err := registry.Initialize(ctx); err != nil {
		closeProvider(provider)
		_ = logCloser.Close()
		return nil, err
	}

	bus := eventbus.New()
	backupEngine := backup.NewEngine(logger.New("backup"), backup.WithMonitor(mon), backup.WithBus(bus))
	maint := maintenance.New(backupEngine, logger.New("maintenance"), maintenance.WithMonitor(mon), maintenance.WithBus(bus))
	resolver := logfile.NewResolver(registry, nil)
	w := writer.New(registry, resolver, maint, logger.New("writer"),
		writer.WithSettings(writer.Settings{
			Source:               cfg.Writer.Source,
			RetryAttempts:        cfg.Writer.RetryAttempts,
			RetryInitialInterval: cfg.Writer.RetryInitial(),
			RetryMaxInterval:     cfg.Writer.RetryMax(),
		}),
		writer.WithBus(bus),
		writer.WithMonitor(mon),
	)

	return &Service{
		Registry:  registry,
		Resolver:  resolver,
		Reader:    logfile.NewReader(registry, logger.New("reader")),
		Backup:    backupEngine,
		Writer:    w,
		cfg:       cfg,
		provider:  provider,
		bus:       bus,
		sink:      sink,
		monitor:   mon,
		log:       logg,
		logCloser: logCloser,
	}, nil
}

// Run starts metrics collection, the optional /metrics endpoint and the
// catalog watcher, then blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	collected := metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.cfg.Metrics.Address != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.Address, logger.New("metrics")); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.Catalog.Watch {
		if err := s.watch(ctx); err != nil {
			s.log.Warnf("catalog watch disabled: %v", err)
		}
	}
	s.log.Infof("logvault running with %d categories", len(s.Registry.Categories()))
	<-ctx.Done()
	<-collected
	return nil
}

func (s *Service) watch(ctx context.Context) error {
	w, ok := s.provider.(watcher)
	if !ok {
		return fmt.Errorf("provider %q cannot be watched", s.cfg.Catalog.Provider.Type)
	}
	return w.Watch(func(err error) {
		if err != nil {
			s.log.Warnf("catalog watch: %v", err)
			return
		}
		if err := s.Registry.Initialize(ctx); err != nil {
			s.log.Errorf("reload categories: %v", err)
			s.monitor.CaptureException(err, map[string]string{"step": "reload"})
		}
	})
}

// Close drains the writer and releases every resource held by the service.
func (s *Service) Close() error {
	errs := []error{s.Writer.Close()}
	s.bus.Close()
	closeProvider(s.provider)
	s.monitor.Flush(flushTimeout)
	errs = append(errs, s.logCloser.Close())
	return errors.Join(errs...)
}

func closeProvider(p category.Provider) {
	if c, ok := p.(io.Closer); ok {
		_ = c.Close()
	}
}
