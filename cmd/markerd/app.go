package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/overlaykit/markers/internal/cache"
	"github.com/overlaykit/markers/internal/camera"
	"github.com/overlaykit/markers/internal/config"
	"github.com/overlaykit/markers/internal/dispatcher"
	"github.com/overlaykit/markers/internal/handlers"
	"github.com/overlaykit/markers/internal/logging"
	"github.com/overlaykit/markers/internal/marker"
	"github.com/overlaykit/markers/internal/monitor"
	intOtel "github.com/overlaykit/markers/internal/otel"
	"github.com/overlaykit/markers/internal/panel"
	"github.com/overlaykit/markers/internal/panel/remote"
	"github.com/overlaykit/markers/internal/projector"
	"github.com/overlaykit/markers/internal/scheduler"
	"github.com/overlaykit/markers/internal/storage"
	"github.com/overlaykit/markers/pkg/core"
	"github.com/overlaykit/markers/pkg/hostapi"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// appOptions selects how the service is assembled.
type appOptions struct {
	// LoopHandlers runs marker commands on the scheduler loop. Only valid when the
	// loop is running; the demo drives the clock by hand instead.
	LoopHandlers bool
	// Console also logs to stdout. Never set it when stdout carries responses.
	Console bool
	// WrapBackend decorates the trace backend, nil keeps it as is.
	WrapBackend func(storage.Backend) storage.Backend
}

// app owns every long-lived component of one markerd session.
type app struct {
	startedAt time.Time

	logFile     *os.File
	slogManager *logging.SlogManager
	logger      *slog.Logger
	zlog        zerolog.Logger
	otel        *intOtel.Provider
	graylog     io.Closer

	backend  storage.Backend
	remote   *remote.Host
	panels   panel.Factory
	entities *cache.EntityCache
	camera   *camera.TopDown
	loop     *scheduler.Loop
	manager  *marker.Manager
	monitor  *monitor.Service

	dispatcher *dispatcher.Dispatcher
	host       *hostapi.Host
}

func newApp(opts appOptions) (*app, error) {
	a := &app{startedAt: time.Now()}

	a.setupLogging(opts.Console)

	if err := a.setupStorage(opts.WrapBackend); err != nil {
		a.close()
		return nil, err
	}

	if err := a.setupMarkers(opts.LoopHandlers); err != nil {
		a.close()
		return nil, err
	}

	monCfg := config.GetMonitorConfig()
	a.monitor = monitor.NewService(monitor.Dependencies{
		Markers:    a.manager,
		Clock:      a.loop.Clock(),
		Entities:   a.entities,
		Storage:    a.backend,
		Logger:     a.logger,
		StatusFile: monCfg.StatusFile,
		Interval:   monCfg.Interval,
	})

	a.logger.Info("markerd ready",
		"version", CurrentVersion,
		"build", BuildDate,
		"commands", a.dispatcher.Commands())
	return a, nil
}

func (a *app) setupLogging(console bool) {
	level := config.GetString("logLevel")

	a.slogManager = logging.NewSlogManager()

	var out io.Writer
	f, err := logging.OpenLogFile(config.GetString("logsDir"), ServiceName, a.startedAt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file, logging to stderr: %v\n", err)
		out = os.Stderr
	} else {
		a.logFile = f
		out = f
	}

	otelCfg := config.GetOTelConfig()
	var logProvider *sdklog.LoggerProvider
	if otelCfg.Enabled {
		p, err := intOtel.New(intOtel.FromConfig(otelCfg, CurrentVersion, out))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize OTel provider: %v\n", err)
		} else {
			a.otel = p
			logProvider = p.LoggerProvider()
		}
	}

	var graylog io.Writer
	if gc := config.GetGraylogConfig(); gc.Enabled {
		w, err := logging.NewGraylogWriter(gc.Address, ServiceName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect graylog: %v\n", err)
		} else {
			a.graylog = w
			graylog = w
		}
	}

	ctx := logging.JoinContext(
		logging.CountContext("liveMarkers", func() int {
			if a.manager == nil {
				return 0
			}
			return a.manager.Count()
		}),
	)

	a.slogManager.Setup(logging.Options{
		File:        out,
		Console:     console,
		Level:       level,
		ServiceName: otelCfg.ServiceName,
		Provider:    logProvider,
		Graylog:     graylog,
		Context:     ctx,
	})
	a.logger = a.slogManager.Logger()
	a.zlog = logging.NewZerolog(out, level, ctx)

	if a.logFile != nil {
		a.logger.Info("Logging to file", "path", a.logFile.Name())
	}
}

func (a *app) setupStorage(wrap func(storage.Backend) storage.Backend) error {
	storageCfg := config.GetStorageConfig()

	backend, err := storage.NewBackend(storageCfg, storage.Options{
		Version:     CurrentVersion,
		ScreenWidth: config.GetFloat("screen.width"),
		StartedAt:   a.startedAt,
		DB:          config.GetDBConfig(),
		Influx:      config.GetInfluxConfig(),
		Logger:      a.logger,
		ZeroLogger:  a.zlog,
	})
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}

	if err := backend.Init(); err != nil {
		a.logger.Error("Failed to initialize storage backend, traces are discarded", "type", storageCfg.Type, "error", err)
		backend = storage.Noop{}
	} else {
		a.logger.Info("Storage backend initialized", "type", storageCfg.Type)
	}

	if wrap != nil {
		backend = wrap(backend)
	}
	a.backend = backend
	return nil
}

func (a *app) setupMarkers(onLoop bool) error {
	camCfg := config.GetCameraConfig()
	a.entities = cache.NewEntityCache()
	a.camera = camera.NewTopDown(core.WorldVector{}, camCfg.Zoom, core.ScreenVector{X: camCfg.Width, Y: camCfg.Height})

	a.panels = panel.NewTree()
	if rc := config.GetRemoteConfig(); rc.Enabled {
		h := remote.New(remote.Config{URL: rc.URL, Secret: rc.Secret, Version: CurrentVersion}, a.logger)
		if err := h.Init(); err != nil {
			a.logger.Warn("Remote renderer unavailable, keeping panels in process", "url", rc.URL, "error", err)
			_ = h.Close()
		} else {
			a.remote = h
			a.panels = h
		}
	}

	loop, err := scheduler.NewLoop(config.GetDuration("scheduler.resolution"), a.logger)
	if err != nil {
		return err
	}
	a.loop = loop

	mc := config.GetMarkerConfig()
	a.manager = marker.NewManager(marker.Dependencies{
		Projector: projector.New(camCfg.Width),
		Camera:    a.camera,
		Entities:  a.entities,
		Panels:    a.panels,
		Scheduler: a.loop,
		Backend:   a.backend,
		Logger:    a.logger,
	}, marker.Options{
		Duration:       mc.Duration,
		UpdateInterval: mc.UpdateInterval,
		FadeOut:        mc.FadeOut,
		Parent:         mc.Parent,
		BodyImage:      mc.BodyImage,
		IconImage:      mc.IconImage,
	})

	d, err := dispatcher.New(logging.NewDispatcherLogger(a.zlog))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	a.dispatcher = d

	deps := handlers.Dependencies{
		Manager:  a.manager,
		Entities: a.entities,
		Camera:   a.camera,
		Logger:   a.logger,
		Version:  CurrentVersion,
	}
	if onLoop {
		deps.Loop = a.loop
	}
	handlers.NewService(deps).Register(d)

	a.host = hostapi.New(d, CurrentVersion)
	return nil
}

// close tears down in reverse order of construction. Safe on partial apps.
func (a *app) close() error {
	var errs []error

	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
		if exp, ok := a.backend.(storage.Exportable); ok && exp.GetExportedFilePath() != "" {
			a.logger.Info("Trace exported", "path", exp.GetExportedFilePath())
		}
	}
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close remote renderer: %w", err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.slogManager.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush logs: %w", err))
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown otel: %w", err))
		}
	}
	if a.graylog != nil {
		_ = a.graylog.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
	return errors.Join(errs...)
}
