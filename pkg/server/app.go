package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "AfriPulse/internal/domain/repository"
	"AfriPulse/internal/notify"
	"AfriPulse/internal/usecase"
	"AfriPulse/pkg/config"
	xhttp "AfriPulse/pkg/http"
	pkgkafka "AfriPulse/pkg/kafka"
	applogger "AfriPulse/pkg/logger"
	"AfriPulse/pkg/queue"
)

// App encapsulates the entire application lifecycle: observation ingest
// (Kafka), the refresh scheduler, the job queue, and the HTTP/WS surface.
type App struct {
	cfg       *config.Config
	logger    *applogger.Logger
	store     domrepo.ObservationStore
	refresher *usecase.Refresher
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	jobQueue  *queue.RedisQueue
	hub       *notify.Hub

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies. consumer, kh and
// jobQueue are optional and skipped when nil.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	store domrepo.ObservationStore,
	refresher *usecase.Refresher,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	jobQueue *queue.RedisQueue,
	hub *notify.Hub,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		refresher: refresher,
		consumer:  consumer,
		kh:        kh,
		jobQueue:  jobQueue,
		hub:       hub,
	}
}

// SetHTTPHandler allows DI to inject the HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := a.logger

	initCtx, initCancel := context.WithTimeout(ctx, 15*time.Second)
	if err := a.store.Init(initCtx); err != nil {
		initCancel()
		l.Error("observation store init error", applogger.Error(err))
		return err
	}
	initCancel()
	l.Info("observation store ready")

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(l, time.Second),
	)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			l.Error("job queue start error", applogger.Error(err))
			return err
		}
	}

	go a.refreshLoop(ctx)

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// refreshLoop runs an initial cycle, then one on every tick. A refresh that
// fails (e.g. nothing ingested yet) is logged and retried on the next tick.
func (a *App) refreshLoop(ctx context.Context) {
	interval := a.cfg.Refresh.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	a.runRefresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runRefresh(ctx)
		}
	}
}

func (a *App) runRefresh(ctx context.Context) {
	if _, err := a.refresher.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		a.logger.Warn("refresh cycle failed", applogger.Error(err))
	}
}

// shutdown gracefully stops all services: the HTTP surface first, then the
// ingest paths, then storage.
func (a *App) shutdown() error {
	l := a.logger
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.hub != nil {
		a.hub.Close()
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("job queue stop error", applogger.Error(err))
		}
	}

	if err := a.store.Close(); err != nil {
		l.Warn("observation store close error", applogger.Error(err))
	}

	l.Info("shutdown complete")
	return nil
}
