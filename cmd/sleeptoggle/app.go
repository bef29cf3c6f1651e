package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/config"
	"github.com/yourname/sleeptoggle/internal/health"
	"github.com/yourname/sleeptoggle/internal/metrics"
	"github.com/yourname/sleeptoggle/internal/service"
	"github.com/yourname/sleeptoggle/internal/storage"
	"github.com/yourname/sleeptoggle/internal/tracker"
)

// application owns every long-lived dependency and implements api.App.
type application struct {
	cfg      *config.Config
	logger   internal.Logger
	backends *storage.Backends
	sink     health.Sink
	sleep    *service.SleepService
	metrics  *metrics.Recorder
	closers  []func() error
}

func (a *application) Logger() internal.Logger      { return a.logger }
func (a *application) Sleep() *service.SleepService { return a.sleep }
func (a *application) Metrics() *metrics.Recorder   { return a.metrics }

func newApplication(ctx context.Context, cfg *config.Config, logger internal.Logger) (*application, error) {
	backends, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	app := &application{
		cfg:      cfg,
		logger:   logger,
		backends: backends,
		metrics:  metrics.New(),
	}

	perms := health.NewPermissions(backends.State, logger)
	switch cfg.HealthBackend {
	case "none":
		app.sink = health.Unavailable{}
	case "mqtt":
		sink, err := health.NewMQTTSink(cfg.MQTTBroker, cfg.DeviceName, cfg.MQTTTopic, perms, logger)
		if err != nil {
			// The store is simply missing; the notice tells the user.
			logger.Errorf("mqtt sink unavailable: %v", err)
			app.sink = health.Unavailable{}
		} else {
			app.sink = sink
			app.closers = append(app.closers, sink.Close)
		}
	default:
		app.sink = health.NewRepositorySink(backends.Samples, perms, logger)
	}

	clock := clockwork.NewRealClock()
	tr := tracker.New(backends.State, clock, logger)
	if err := tr.Initialize(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	app.sleep = service.NewSleepService(service.Options{
		Tracker: tr,
		Sink:    app.sink,
		Metrics: app.metrics,
		Clock:   clock,
		Logger:  logger,
		Source:  cfg.DeviceName,
	})
	return app, nil
}

func (a *application) Close() error {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warnf("close: %v", err)
		}
	}
	a.closers = nil
	return a.backends.Close()
}
