package server

import (
	"context"
	"errors"
	"time"

	"Horacle/internal/service/ratelimit"
	"Horacle/internal/usecase"
	"Horacle/pkg/config"
	xhttp "Horacle/pkg/http"
	pkgkafka "Horacle/pkg/kafka"
	"Horacle/pkg/logger"
	"Horacle/pkg/queue"
)

// App encapsulates the serve lifecycle: the HTTP API plus whichever request
// transports are configured. Resource cleanup belongs to the injector.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	queue      *queue.RedisQueue
	requests   *usecase.PredictionRequestHandler
	limiter    *ratelimit.Limiter
}

// New creates a new App. consumer, queue and limiter may be nil.
func New(
	cfg *config.Config,
	log *logger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	q *queue.RedisQueue,
	requests *usecase.PredictionRequestHandler,
	limiter *ratelimit.Limiter,
) *App {
	if log == nil {
		log = logger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        log.With(logger.String("component", "app")),
		httpServer: httpServer,
		consumer:   consumer,
		queue:      q,
		requests:   requests,
		limiter:    limiter,
	}
}

// Run starts everything and blocks until ctx is cancelled, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if a.consumer != nil && a.requests != nil {
		a.consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook(), pkgkafka.LoggingHook(a.log)))
		a.consumer.RegisterHandler(a.requests)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("kafka consumer started", logger.String("topic", a.requests.Topic()))
	}

	if a.queue != nil {
		if a.requests != nil {
			a.queue.RegisterJob(a.requests)
		}
		if err := a.queue.Start(); err != nil {
			a.stopTransports(context.Background())
			return err
		}
	}

	if a.limiter != nil {
		go a.sweepLimiter(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		a.stopTransports(context.Background())
		return err
	}
	a.log.Info("horacle started",
		logger.String("env", a.cfg.Environment),
		logger.Int("port", a.cfg.Server.Port),
		logger.String("storage", a.cfg.Storage.Driver),
		logger.Bool("kafka", a.consumer != nil),
		logger.Bool("queue", a.queue != nil),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
		errs = append(errs, err)
	}
	if err := a.stopTransports(ctx); err != nil {
		errs = append(errs, err)
	}
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) stopTransports(ctx context.Context) error {
	var errs []error
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", logger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.log.Warn("redis queue stop error", logger.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) sweepLimiter(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Sweep(); n > 0 {
				a.log.Debug("rate limiter swept", logger.Int("buckets", n))
			}
		}
	}
}
