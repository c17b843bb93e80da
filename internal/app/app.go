package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"LeadScout/internal/config"
	"LeadScout/internal/infrastructure/llm"
	"LeadScout/internal/infrastructure/notifylog"
	"LeadScout/internal/infrastructure/reddit"
	"LeadScout/internal/infrastructure/scheduler"
	"LeadScout/internal/infrastructure/storage"
	"LeadScout/internal/infrastructure/telegram"
	"LeadScout/internal/infrastructure/twitter"
	"LeadScout/internal/logging"
	"LeadScout/internal/normalize"
	"LeadScout/internal/ports"
	"LeadScout/internal/source"
	"LeadScout/internal/transport/httpapi"
	"LeadScout/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	server    *httpapi.Server
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repository := storage.NewPostgresRepository(db)

	registry := source.NewRegistry()
	registry.Register(reddit.NewClient(cfg.Reddit, nil))
	registry.Register(twitter.NewClient(cfg.Twitter, nil))

	scorer := llm.NewOpenAIScorer(cfg.OpenAI, cfg.Monitor.BatchSize, cfg.Monitor.BatchPause.Std())

	var notifier ports.NotificationSink
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	} else {
		notifier = notifylog.NewSink(baseLogger.With("component", "notifier"))
	}

	monitor := usecase.NewMonitor(cfg.Monitor, usecase.MonitorDeps{
		Keywords:   repository,
		Sources:    registry,
		Normalizer: normalize.New(cfg.Monitor.MinContentLength),
		Scorer:     scorer,
		Leads:      repository,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "monitor"),
	})

	server := httpapi.NewServer(cfg.Cron.Secret, monitor, repository,
		baseLogger.With("component", "http"))

	var sched *usecase.Scheduler
	if cfg.Scheduler.Interval > 0 {
		driver := scheduler.NewInterval(cfg.Scheduler.Interval.Std())
		sched = usecase.NewScheduler(driver, monitor, baseLogger.With("component", "scheduler"))
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		server:    server,
		scheduler: sched,
	}, nil
}

// Run starts the optional interval scheduler and serves the HTTP API until
// the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() { _ = a.scheduler.Stop(context.Background()) }()
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server started", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	}
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
