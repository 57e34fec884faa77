package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/guttosm/brokerflow/config"
	"github.com/guttosm/brokerflow/internal/app"
	"github.com/guttosm/brokerflow/internal/logger"
	"github.com/guttosm/brokerflow/internal/pipeline"
	"github.com/guttosm/brokerflow/internal/progress"
	"github.com/guttosm/brokerflow/internal/telemetry"
)

// startServer starts the HTTP server in a separate goroutine.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown waits for ctx to end (SIGINT/SIGTERM), stops the server
// and runs cleanup.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	<-ctx.Done()
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// options holds the CLI flags.
type options struct {
	mode     string
	pipeline string
	limit    int
	batch    int
	parallel int
	port     string
}

func parseFlags(fs *flag.FlagSet, args []string, defaultPort string) (options, error) {
	var o options
	fs.StringVar(&o.mode, "mode", "aggregate", "Mode: aggregate or api")
	fs.StringVar(&o.pipeline, "pipeline", pipeline.All, "Pipeline to run: top_broker, segment or all")
	fs.IntVar(&o.limit, "limit", 0, "Process only the newest N input files (0 = all)")
	fs.IntVar(&o.batch, "batch", 0, "Override the batch size of every pipeline (0 = config)")
	fs.IntVar(&o.parallel, "parallel", 0, "Override MAX_CONCURRENCY (0 = config)")
	fs.StringVar(&o.port, "port", defaultPort, "Port for API mode")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.limit < 0 || o.batch < 0 || o.parallel < 0 {
		return o, errors.New("limit, batch and parallel must not be negative")
	}
	return o, nil
}

// applyOverrides folds CLI overrides into the pipeline settings.
func applyOverrides(cfg config.Config, o options) config.Config {
	if o.batch > 0 {
		cfg.Pipeline.TopBrokerBatchSize = o.batch
		cfg.Pipeline.SegmentBatchSize = o.batch
	}
	if o.parallel > 0 {
		cfg.Pipeline.MaxConcurrency = o.parallel
	}
	return cfg
}

// runAggregate executes the selected pipelines once and reports whether
// every run completed.
func runAggregate(ctx context.Context, cfg config.Config, o options) (bool, error) {
	store, err := app.NewObjectStore(cfg.Storage)
	if err != nil {
		return false, err
	}

	var rep progress.Reporter = progress.LogReporter{Log: logger.With("progress")}
	if cfg.Postgres.ProgressEnabled {
		ps, db, err := app.OpenProgress(ctx, cfg)
		if err != nil {
			return false, err
		}
		defer func() { _ = db.Close() }()
		rep = progress.Multi(ps, rep)
	}

	jobID := uuid.NewString()
	results, err := app.NewRunner(store, cfg).Run(ctx, o.pipeline, jobID, o.limit, rep)
	if err != nil {
		return false, err
	}

	ok := true
	for _, r := range results {
		logger.L().Info().
			Str("job_id", jobID).
			Str("pipeline", r.Pipeline).
			Bool("success", r.Success).
			Int("processed", r.Processed).
			Int("succeeded", r.Succeeded).
			Int("failed", r.Failed).
			Int("skipped", r.Skipped).
			Int("no_data", r.NoData).
			Dur("elapsed", r.Duration).
			Msg(r.Message)
		ok = ok && r.Success
	}
	return ok, nil
}

// main is the entry point of brokerflow.
//
// Modes (selected via --mode flag):
//   - aggregate: runs the selected pipelines over every pending input file.
//   - api:       starts the ops API (health, metrics, run trigger, job progress).
//
// Flags:
//   - --pipeline: top_broker, segment or all. Default: all.
//   - --limit:    newest N input files only. Default: 0 (all).
//   - --batch:    batch size override. Default: from config.
//   - --parallel: concurrency override. Default: from config.
//   - --port:     API port. Default: SERVER_PORT.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.LoadConfig()
	logger.Init()

	opts, err := parseFlags(flag.CommandLine, os.Args[1:], config.AppConfig.Server.Port)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("invalid flags")
	}
	cfg := applyOverrides(config.AppConfig, opts)
	config.AppConfig = cfg

	if err := telemetry.Init(cfg.Telemetry.TracingEnabled, os.Stderr); err != nil {
		logger.L().Fatal().Err(err).Msg("tracing init error")
	}
	defer func() { _ = telemetry.Shutdown(context.WithoutCancel(ctx)) }()

	switch opts.mode {
	case "aggregate":
		logger.L().Info().Str("pipeline", opts.pipeline).Int("limit", opts.limit).Msg("running aggregation")
		ok, err := runAggregate(ctx, cfg, opts)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("aggregation failed")
		}
		if !ok {
			logger.L().Error().Msg("aggregation did not complete")
			_ = telemetry.Shutdown(context.WithoutCancel(ctx))
			os.Exit(1)
		}
		logger.L().Info().Msg("aggregation completed")

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp(ctx)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, opts.port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", opts.mode).Msg("unknown mode")
	}
}
