package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"marketpipe/internal/config"
	"marketpipe/internal/dataprocessing"
	"marketpipe/internal/exporter"
	"marketpipe/internal/files"
	"marketpipe/internal/infrastructure"
	"marketpipe/internal/operations"
	"marketpipe/internal/publisher"
	"marketpipe/internal/store"
)

// Application wires the pipeline components for a single batch run
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Store         *store.Store
	Manager       *operations.Manager

	logFile       *infrastructure.Logger
	systemMetrics *infrastructure.SystemMetrics
}

// Dependencies replaces externally connected components. Nil fields are
// built from the configuration.
type Dependencies struct {
	Logger      *slog.Logger
	DB          *sql.DB
	ObjectStore publisher.ObjectStore
}

// NewApplication loads the configuration and builds the application
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return New(ctx, cfg, Dependencies{})
}

// New builds the application from cfg
func New(ctx context.Context, cfg *config.Config, deps Dependencies) (*Application, error) {
	a := &Application{Config: cfg, Logger: deps.Logger}

	if a.Logger == nil {
		logFile, err := infrastructure.NewLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.logFile = logFile
		a.Logger = logFile.Logger
	}

	a.Logger.InfoContext(ctx, "application_starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	if err := a.initialize(ctx, deps); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

// initialize builds telemetry, the store and the step manager
func (a *Application) initialize(ctx context.Context, deps Dependencies) error {
	cfg := a.Config

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	a.systemMetrics, err = infrastructure.NewSystemMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to initialize system metrics: %w", err)
	}

	if deps.DB != nil {
		a.Store = store.New(deps.DB, cfg.Load.BatchSize, a.Logger)
	} else {
		a.Store, err = store.Open(cfg.Database, cfg.Load.BatchSize, a.Logger)
		if err != nil {
			return err
		}
	}

	objectStore := deps.ObjectStore
	if objectStore == nil {
		objectStore, err = publisher.NewObjectStore(ctx, cfg.Publish, a.Logger)
		if err != nil {
			return err
		}
	}

	engine := dataprocessing.NewEngine(dataprocessing.ProcessingOptions{
		Diagnostics:          cfg.Transform.Diagnostics,
		LegacyWholeFrameFill: cfg.Transform.LegacyWholeFrameFill,
	}, a.Logger)

	registry := operations.NewRegistry()
	err = operations.RegisterPipeline(registry,
		operations.NewVerifyConnectionStage(a.Store),
		operations.NewBootstrapRawStage(a.Store),
		operations.NewSeedRawStage(files.NewReader("", a.Logger), a.Store, cfg.Source.Path),
		operations.NewReadRawStage(a.Store),
		operations.NewTransformStage(engine),
		operations.NewLoadDerivedStage(store.NewLoader(a.Store, a.Logger)),
		operations.NewPublishStage(publisher.New(objectStore, a.Logger), cfg.Publish.Bucket, cfg.Publish.Key),
	)
	if err != nil {
		return fmt.Errorf("failed to register pipeline steps: %w", err)
	}

	tracer := operations.NewOperationTracer(providers.Tracer, providers.Metrics)
	a.Manager = operations.NewManager(registry, tracer, a.Logger)
	return nil
}

// Run executes one pipeline run and logs its terminal outcome
func (a *Application) Run(ctx context.Context) (err error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)
	start := time.Now()

	a.Logger.InfoContext(ctx, "process_started",
		slog.String("run_id", runID),
		slog.String("source", a.Config.Source.Path),
		slog.String("backend", a.Config.Publish.Backend),
		slog.String("bucket", a.Config.Publish.Bucket),
		slog.String("key", a.Config.Publish.Key))

	defer func() {
		if r := recover(); r != nil {
			err = operations.NewFatalError("unexpected failure", fmt.Errorf("%v", r))
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "process_failed")
		}
	}()

	state, err := a.Manager.Execute(ctx, runID)
	duration := time.Since(start)

	if state != nil {
		a.writeDiagnostics(ctx, state)
	}

	infrastructure.RecordRunMetrics(ctx, a.OTelProviders.Metrics, duration, err == nil)
	stats := a.systemMetrics.Collect(ctx, start)
	a.pushMetrics(ctx, runID)

	if err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "process_failed",
			slog.Any("failed_steps", failedSteps(state)),
			slog.Duration("duration", duration),
			slog.Any("system", stats))
		return err
	}

	a.Logger.InfoContext(ctx, "process_completed_successfully",
		slog.Any("failed_steps", failedSteps(state)),
		slog.Duration("duration", duration),
		slog.Any("system", stats))
	return nil
}

// writeDiagnostics writes the diagnostic frames of the transform step as
// CSV files when a diagnostics directory is configured
func (a *Application) writeDiagnostics(ctx context.Context, state *operations.OperationState) {
	dir := a.Config.Transform.DiagnosticsDir
	if dir == "" {
		return
	}
	report, ok := state.TransformReport()
	if !ok {
		return
	}

	writer := exporter.NewCSVWriter(filepath.Join(dir, state.ID), a.Logger)
	names := make([]string, 0, len(report.Diagnostics))
	for name := range report.Diagnostics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := writer.WriteFrame(name+".csv", report.Diagnostics[name]); err != nil {
			a.Logger.WarnContext(ctx, "diagnostic_write_failed",
				slog.String("diagnostic", name),
				slog.String("error", err.Error()))
		}
	}
}

// pushMetrics sends the run metrics to the Pushgateway when one is configured
func (a *Application) pushMetrics(ctx context.Context, runID string) {
	url := a.Config.Telemetry.PushgatewayURL
	if url == "" {
		return
	}
	hostname, _ := os.Hostname()
	if err := infrastructure.PushMetrics(ctx, url, a.Config.Telemetry.JobName, hostname, a.OTelProviders.Registry); err != nil {
		a.Logger.WarnContext(ctx, "metrics_push_failed",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return
	}
	a.Logger.DebugContext(ctx, "metrics_pushed", slog.String("url", url), slog.String("run_id", runID))
}

// Close releases the store, flushes telemetry and closes the log file.
// It is safe to call on a partly built application.
func (a *Application) Close(ctx context.Context) {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "store_close_failed", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "opentelemetry_shutdown_failed", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "application_stopped")
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func failedSteps(state *operations.OperationState) []string {
	if state == nil {
		return nil
	}
	failed := state.FailedSteps()
	sort.Strings(failed)
	return failed
}
