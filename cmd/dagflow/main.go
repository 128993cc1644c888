package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aescanero/dagflow/internal/application/scheduler"
	"github.com/aescanero/dagflow/internal/config"
	"github.com/aescanero/dagflow/internal/loader"
	"github.com/aescanero/dagflow/pkg/adapters/events/memory"
	"github.com/aescanero/dagflow/pkg/adapters/executor/local"
	"github.com/aescanero/dagflow/pkg/adapters/executor/pool"
	"github.com/aescanero/dagflow/pkg/adapters/executor/process"
	"github.com/aescanero/dagflow/pkg/adapters/logging"
	promcollector "github.com/aescanero/dagflow/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/dagflow/pkg/adapters/storage"
	filestorage "github.com/aescanero/dagflow/pkg/adapters/storage/file"
	redisstorage "github.com/aescanero/dagflow/pkg/adapters/storage/redis"
	httpapi "github.com/aescanero/dagflow/pkg/api/http"
	"github.com/aescanero/dagflow/pkg/api/websocket"
	"github.com/aescanero/dagflow/pkg/domain"
	"github.com/aescanero/dagflow/pkg/ports"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var (
		workflowFile = flag.String("f", "", "workflow file to run (required)")
		executorKind = flag.String("executor", "", "execution backend: sequential, threads or processes")
		workers      = flag.Int("workers", 0, "worker count for pool backends")
		checkpoint   = flag.String("checkpoint", "", "checkpoint file path (overrides DAGFLOW_CHECKPOINT_PATH)")
		resume       = flag.Bool("resume", false, "restore task states from the checkpoint before running")
		serve        = flag.Bool("serve", false, "expose the HTTP status API while the run is in progress")
	)
	flag.Parse()

	if *workflowFile == "" {
		fmt.Fprintln(os.Stderr, "usage: dagflow -f workflow.yaml [-executor KIND] [-workers N] [-checkpoint PATH] [-resume] [-serve]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override environment configuration
	if *executorKind != "" {
		cfg.Executor.Kind = *executorKind
	}
	if *workers > 0 {
		cfg.Executor.Workers = *workers
	}
	if *checkpoint != "" {
		cfg.Checkpoint.Path = *checkpoint
	}
	if *serve {
		cfg.ServeAPI = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting dagflow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	wf, dag, err := loader.LoadFile(*workflowFile)
	if err != nil {
		logger.Fatal("failed to load workflow", zap.Error(err))
	}
	logger.Info("workflow loaded",
		zap.String("workflow", wf.Name),
		zap.Int("tasks", dag.Len()))

	// Event fabric plus observability listeners
	eventBus := memory.NewEventManager(logger)
	logging.NewEventLogger(logger).Attach(eventBus)
	promcollector.NewCollector(nil).Attach(eventBus)

	store, cleanup, err := buildStore(cfg, wf.Name, logger)
	if err != nil {
		logger.Fatal("failed to create checkpoint store", zap.Error(err))
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if store != nil {
		if *resume {
			if err := restoreCheckpoint(ctx, store, dag, logger); err != nil {
				logger.Fatal("failed to restore checkpoint", zap.Error(err))
			}
		}
		saver := storage.NewAutoSaver(store, dag, logger)
		saver.Attach(eventBus, triggerKinds(cfg)...)
	} else if *resume {
		logger.Fatal("cannot resume: no checkpoint path configured")
	}

	exec := buildExecutor(cfg, logger)

	sched, err := scheduler.New(scheduler.Config{
		DAG:          dag,
		Executor:     exec,
		Events:       eventBus,
		Logger:       logger,
		IdleInterval: cfg.Scheduler.IdleInterval,
	})
	if err != nil {
		logger.Fatal("failed to create scheduler", zap.Error(err))
	}

	var httpServer *httpapi.Server
	if cfg.ServeAPI {
		httpServer = httpapi.NewServer(&httpapi.Config{
			Port:      cfg.HTTPPort,
			Scheduler: sched,
			Logger:    logger,
		})
		httpServer.SetupWebSocket(websocket.NewHandler(eventBus, logger))

		go func() {
			if err := httpServer.Start(); err != nil {
				logger.Fatal("HTTP server failed", zap.Error(err))
			}
		}()
	}

	// Cancel the run loop on interrupt; in-flight tasks finish first
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	report, err := sched.Run(ctx)
	if err != nil {
		logger.Fatal("workflow run failed", zap.Error(err))
	}

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	logger.Info("run finished",
		zap.String("run_id", report.RunID),
		zap.Int("completed", len(report.Completed)),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("duration", report.Duration))

	if len(report.Failed) > 0 {
		logger.Error("workflow finished with failures",
			zap.Strings("failed", report.Failed))
		logger.Sync()
		os.Exit(1)
	}
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}

// buildExecutor selects the execution backend from configuration.
func buildExecutor(cfg *config.Config, logger *zap.Logger) ports.Executor {
	switch cfg.Executor.Kind {
	case config.ExecutorThreads:
		return pool.New(cfg.Executor.Workers, logger)
	case config.ExecutorProcesses:
		return process.New(cfg.Executor.Workers, logger)
	default:
		return local.New(logger)
	}
}

// buildStore creates the configured checkpoint store, or nil when
// checkpointing is disabled. The cleanup closes backend connections.
func buildStore(cfg *config.Config, workflowName string, logger *zap.Logger) (ports.CheckpointStore, func(), error) {
	noop := func() {}

	switch cfg.Checkpoint.Backend {
	case config.CheckpointRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, noop, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Error("Redis close error", zap.Error(err))
			}
		}
		return redisstorage.NewStore(client, workflowName, cfg.Redis.TTL, logger), cleanup, nil

	default:
		if cfg.Checkpoint.Path == "" {
			return nil, noop, nil
		}
		return filestorage.NewStore(cfg.Checkpoint.Path, logger), noop, nil
	}
}

// triggerKinds resolves the auto-save trigger events, defaulting to task
// success and workflow completion.
func triggerKinds(cfg *config.Config) []domain.EventKind {
	if len(cfg.Checkpoint.TriggerEvents) == 0 {
		return nil
	}
	kinds := make([]domain.EventKind, 0, len(cfg.Checkpoint.TriggerEvents))
	for _, name := range cfg.Checkpoint.TriggerEvents {
		kinds = append(kinds, domain.EventKind(name))
	}
	return kinds
}

// restoreCheckpoint loads the snapshot and applies it to the graph. A
// missing snapshot is not an error: the run simply starts fresh.
func restoreCheckpoint(ctx context.Context, store ports.CheckpointStore, dag *domain.DAG, logger *zap.Logger) error {
	snap, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			logger.Info("no checkpoint found, starting fresh")
			return nil
		}
		return err
	}

	restored := snap.ApplyTo(dag)
	logger.Info("checkpoint restored",
		zap.Int("tasks", restored),
		zap.Time("saved_at", snap.Metadata.SavedAt))
	return nil
}
