package di

import (
	"fmt"
	"net"
	"strconv"

	"AfriPulse/internal/domain/repository"
	"AfriPulse/internal/handler/api"
	"AfriPulse/internal/notify"
	internalrepo "AfriPulse/internal/repository"
	"AfriPulse/internal/usecase"
	pkgcache "AfriPulse/pkg/cache"
	pkgch "AfriPulse/pkg/clickhouse"
	"AfriPulse/pkg/config"
	xhttp "AfriPulse/pkg/http"
	pkgkafka "AfriPulse/pkg/kafka"
	applogger "AfriPulse/pkg/logger"
	"AfriPulse/pkg/metrics"
	"AfriPulse/pkg/queue"
	"AfriPulse/pkg/server"
)

// ProvideLogger creates the application logger. Production gets JSON,
// everything else a console writer.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client. Schema setup happens
// in the observation store's Init, not here.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideObservationStore creates the ClickHouse-backed observation store.
func ProvideObservationStore(chClient *pkgch.Client, l *applogger.Logger) repository.ObservationStore {
	store := internalrepo.NewCHObservationStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache creates the shared Redis cache, or nil when Redis is
// disabled; the snapshot store degrades to process-local storage.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr %q: %w", cfg.Redis.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port %q: %w", portStr, err)
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideSnapshotCache creates the snapshot store, mirroring through a
// layered memory+Redis cache when Redis is available.
func ProvideSnapshotCache(redisCache *pkgcache.RedisCache) repository.SnapshotCache {
	if redisCache == nil {
		return internalrepo.NewCachedSnapshotStore(nil)
	}
	layered := pkgcache.NewLayeredCache(redisCache, pkgcache.WithLayeredMemorySize(16))
	return internalrepo.NewCachedSnapshotStore(layered)
}

// ProvideHub creates the websocket refresh-event hub.
func ProvideHub(l *applogger.Logger) *notify.Hub {
	return notify.NewHub(l)
}

// ProvideRefresher creates the refresh usecase with engine parameters from
// config.
func ProvideRefresher(
	store repository.ObservationStore,
	cache repository.SnapshotCache,
	m repository.Metrics,
	hub *notify.Hub,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Refresher {
	return usecase.NewRefresher(store, cache, m, hub, l, cfg.Engine, usecase.RefresherConfig{
		FromYear:    cfg.Refresh.FromYear,
		ToYear:      cfg.Refresh.ToYear,
		Workers:     cfg.Refresh.Workers,
		SnapshotTTL: cfg.Cache.SnapshotTTL,
	})
}

// ProvideKafkaConsumer creates a Kafka consumer with handling telemetry
// installed, or nil when ingest over Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, m repository.Metrics) (*pkgkafka.Consumer, error) {
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
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(usecase.NewConsumerTelemetryHook(m, l))
	return consumer, nil
}

// ProvideKafkaObservationsHandler registers the handler for the observation
// ingest topic.
func ProvideKafkaObservationsHandler(
	store repository.ObservationStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.KafkaObservationsHandler {
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideJobQueue creates the Redis-backed job queue with the refresh job
// registered, or nil when the queue (or Redis) is disabled.
func ProvideJobQueue(
	cfg *config.Config,
	l *applogger.Logger,
	redisCache *pkgcache.RedisCache,
	refresher *usecase.Refresher,
) *queue.RedisQueue {
	if !cfg.Queue.Enabled || redisCache == nil {
		return nil
	}
	var opts []queue.RedisQueueOption
	if cfg.Queue.Key != "" {
		opts = append(opts, queue.WithKeyPrefix(cfg.Queue.Key))
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    1,
		RetryLimit: 2,
		RetryDelay: cfg.Queue.PollEvery,
	}, redisCache.Client(), queue.ModeProducerConsumer, opts...)
	q.RegisterJob(usecase.NewRefreshJob(refresher, l))
	return q
}

// ProvideHTTPHandler creates the Echo API handler with a small in-process
// cache for on-demand pyramid lookups.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	cache repository.SnapshotCache,
	store repository.ObservationStore,
	refresher *usecase.Refresher,
	jobQueue *queue.RedisQueue,
	hub *notify.Hub,
) xhttp.Handler {
	var qs queue.QueueService
	if jobQueue != nil {
		qs = jobQueue
	}
	local := pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(2048))
	return api.NewDemographicsEchoHandler(l, cache, store, refresher, qs, hub, local, cfg.Cache.LocalTTL)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	store repository.ObservationStore,
	refresher *usecase.Refresher,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaObservationsHandler,
	jobQueue *queue.RedisQueue,
	hub *notify.Hub,
	h xhttp.Handler,
) *server.App {
	var mh pkgkafka.MessageHandler
	if kh != nil {
		mh = kh
	}
	app := server.New(cfg, l, store, refresher, consumer, mh, jobQueue, hub)
	app.SetHTTPHandler(h)
	return app
}
