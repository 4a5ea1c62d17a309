package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "Horacle/internal/domain/repository"
	"Horacle/internal/handler/api"
	internalrepo "Horacle/internal/repository"
	icache "Horacle/internal/service/cache"
	svcmetrics "Horacle/internal/service/metrics"
	"Horacle/internal/service/ratelimit"
	"Horacle/internal/services/astro"
	"Horacle/internal/usecase"
	pkgcache "Horacle/pkg/cache"
	pkgch "Horacle/pkg/clickhouse"
	"Horacle/pkg/config"
	xhttp "Horacle/pkg/http"
	pkgkafka "Horacle/pkg/kafka"
	"Horacle/pkg/logger"
	"Horacle/pkg/metrics"
	"Horacle/pkg/queue"
	"Horacle/pkg/server"
)

// ProvideLogger builds the root logger from the logging section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log.With(logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

func needsRedis(cfg *config.Config) bool {
	return cfg.Cache.Backend != "memory" || cfg.Queue.Enabled || cfg.Ephemeris.TransitMemoRedis
}

// ProvideRedisClient connects to Redis when any component needs it; otherwise
// it returns nil.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	if !needsRedis(cfg) {
		return nil, func() {}, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Cache.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	client := rc.Client()
	return client, func() { _ = client.Close() }, nil
}

// ProvideResultCache selects the result cache backend. It also backs request
// dedupe for the request transports.
func ProvideResultCache(cfg *config.Config, client *redis.Client) (pkgcache.Service, func()) {
	switch cfg.Cache.Backend {
	case "redis":
		// The client is closed by its own provider.
		return pkgcache.NewRedisCacheFromClient(client, cfg.Cache.Redis.Prefix), func() {}
	case "layered":
		lc := pkgcache.NewLayeredCache(
			pkgcache.NewRedisCacheFromClient(client, cfg.Cache.Redis.Prefix),
			pkgcache.WithLayeredMemorySize(cfg.Cache.MemorySize),
			pkgcache.WithLayeredMemoryTTL(cfg.Cache.TTL/4),
		)
		// Closing the layered cache would close the shared client too.
		return lc, func() {}
	default:
		mc := pkgcache.NewMemoryCache(
			pkgcache.WithMemoryMaxSize(cfg.Cache.MemorySize),
			pkgcache.WithMemoryDefaultTTL(cfg.Cache.TTL),
		)
		return mc, func() { _ = mc.Close() }
	}
}

// ProvideEphemeris creates the ephemeris service adapter. It serves the
// Jaimini and strength collaborators as well.
func ProvideEphemeris(cfg *config.Config, client *redis.Client, log *logger.Logger) *astro.HTTPEphemeris {
	svcmetrics.Register()

	var memo icache.BytesCache = icache.NewTTLCache()
	if cfg.Ephemeris.TransitMemoRedis && client != nil {
		memo = icache.NewRedisCache(client, cfg.Cache.Redis.Prefix+":transit")
	}
	return astro.New(
		cfg.Ephemeris.BaseURL,
		cfg.Ephemeris.Timeout,
		astro.BreakerSettings{
			Failures: cfg.Ephemeris.BreakerFailures,
			Cooldown: cfg.Ephemeris.BreakerCooldown,
		},
		astro.WithRetries(cfg.Ephemeris.Retries),
		astro.WithMemo(memo),
		astro.WithLogger(log),
	)
}

// ProvidePredictor creates the sweep driver.
func ProvidePredictor(cfg *config.Config, eph *astro.HTTPEphemeris, log *logger.Logger) *usecase.Predictor {
	opts := []usecase.PredictorOption{
		usecase.WithStrength(eph),
		usecase.WithPredictorLogger(log),
		usecase.WithPredictorConfig(usecase.PredictorConfig{
			StepDays:       cfg.Prediction.StepDays,
			MaxHouses:      cfg.Prediction.MaxAuthorizedHouses,
			MaxRangeDays:   cfg.Prediction.MaxRangeDays,
			JaiminiEnabled: cfg.Prediction.JaiminiEnabled,
			NadiEnabled:    cfg.Prediction.NadiEnabled,
		}),
	}
	if cfg.Prediction.JaiminiEnabled {
		opts = append(opts, usecase.WithJaimini(eph))
	}
	return usecase.NewPredictor(eph, opts...)
}

// ProvideEventStore opens the configured run store and ensures its tables.
// It returns nil when storage is disabled.
func ProvideEventStore(cfg *config.Config, log *logger.Logger) (domrepo.EventStore, func(), error) {
	var (
		store   domrepo.EventStore
		cleanup = func() {}
	)
	switch cfg.Storage.Driver {
	case "sqlite":
		st, err := internalrepo.NewSQLiteEventStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite event store: %w", err)
		}
		store = st
		cleanup = func() { _ = st.Close() }
	case "clickhouse":
		ch := cfg.Storage.ClickHouse
		client, err := pkgch.NewClient(
			pkgch.WithHost(ch.Host),
			pkgch.WithPort(ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(ch.UseHTTP),
			pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
			pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
			pkgch.WithCreateDatabase(true),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store = internalrepo.NewClickHouseEventStore(client)
		cleanup = func() { _ = client.Close() }
	default:
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("event store schema: %w", err)
	}
	log.Info("event store ready", logger.String("driver", cfg.Storage.Driver))
	return store, cleanup, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
// It also ships the log digest when a digest topic is configured.
func ProvideKafkaProducer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	if cfg.Logging.DigestTopic != "" {
		log.AttachDigest(&logger.DigestConfig{
			Interval:  cfg.Logging.DigestInterval,
			Topic:     cfg.Logging.DigestTopic,
			Publisher: producer,
		})
	}
	return producer, func() {
		log.DetachDigest()
		_ = producer.Close()
	}, nil
}

// ProvideEventPublisher fans events out to Kafka, or returns nil.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvidePredictionService assembles the prediction use case.
func ProvidePredictionService(
	cfg *config.Config,
	p *usecase.Predictor,
	cache pkgcache.Service,
	store domrepo.EventStore,
	pub domrepo.EventPublisher,
	m domrepo.Metrics,
	log *logger.Logger,
) *usecase.PredictionService {
	return usecase.NewPredictionService(p,
		usecase.WithResultCache(cache, cfg.Cache.TTL),
		usecase.WithEventStore(store),
		usecase.WithEventPublisher(pub),
		usecase.WithServiceMetrics(m),
		usecase.WithServiceLogger(log),
		usecase.WithRunTimeout(cfg.Prediction.RunTimeout),
		usecase.WithDefaultMinProbability(cfg.Prediction.DefaultMinProbability),
	)
}

// ProvideRequestHandler handles queued prediction requests from either
// transport.
func ProvideRequestHandler(
	cfg *config.Config,
	svc *usecase.PredictionService,
	cache pkgcache.Service,
	m domrepo.Metrics,
	log *logger.Logger,
) *usecase.PredictionRequestHandler {
	return usecase.NewPredictionRequestHandler(cfg.Kafka.RequestsTopic, svc,
		usecase.WithDedupe(cache, cfg.Kafka.Consumer.DedupeTTL),
		usecase.WithHandlerMetrics(m),
		usecase.WithHandlerLogger(log),
	)
}

// ProvideKafkaConsumer creates the request consumer, or nil when Kafka is off.
func ProvideKafkaConsumer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisQueue creates the Redis-list request queue, or nil when the
// queue is off.
func ProvideRedisQueue(cfg *config.Config, client *redis.Client, log *logger.Logger) *queue.RedisQueue {
	if !cfg.Queue.Enabled || client == nil {
		return nil
	}
	return queue.NewRedisQueue(client,
		queue.Config{
			Workers:    cfg.Queue.Workers,
			RetryLimit: cfg.Queue.RetryLimit,
			RetryDelay: cfg.Queue.RetryDelay,
		},
		queue.WithKeyPrefix(cfg.Queue.Prefix),
		queue.WithQueueLogger(log),
	)
}

// ProvideRateLimiter returns the per-address limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvidePredictionsHandler creates the HTTP and websocket handler with a
// health check per dependency.
func ProvidePredictionsHandler(
	svc *usecase.PredictionService,
	eph *astro.HTTPEphemeris,
	store domrepo.EventStore,
	log *logger.Logger,
) *api.PredictionsEchoHandler {
	opts := []api.HandlerOption{api.WithHealthCheck("ephemeris", eph)}
	if store != nil {
		opts = append(opts, api.WithHealthCheck("event_store", store))
	}
	return api.NewPredictionsEchoHandler(log, svc, opts...)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	h *api.PredictionsEchoHandler,
	limiter *ratelimit.Limiter,
	log *logger.Logger,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORSOrigins...),
		xhttp.WithServerLogger(log),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	if limiter != nil {
		opts = append(opts, xhttp.WithMiddleware(limiter.Middleware()))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	q *queue.RedisQueue,
	requests *usecase.PredictionRequestHandler,
	limiter *ratelimit.Limiter,
) *server.App {
	return server.New(cfg, log, srv, consumer, q, requests, limiter)
}
