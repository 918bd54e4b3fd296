package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"StructBreak/internal/domain/repository"
	"StructBreak/internal/domain/service"
	"StructBreak/internal/handler/api"
	internalrepo "StructBreak/internal/repository"
	"StructBreak/internal/scan"
	icache "StructBreak/internal/service/cache"
	"StructBreak/internal/service/marketdata"
	"StructBreak/internal/service/narrative"
	"StructBreak/internal/service/telegram"
	"StructBreak/internal/usecase"
	pkgcache "StructBreak/pkg/cache"
	pkgch "StructBreak/pkg/clickhouse"
	"StructBreak/pkg/config"
	xhttp "StructBreak/pkg/http"
	pkgkafka "StructBreak/pkg/kafka"
	applogger "StructBreak/pkg/logger"
	"StructBreak/pkg/metrics"
	pkgqueue "StructBreak/pkg/queue"
	"StructBreak/pkg/server"
)

// ProvideLogger creates the application logger. Production environments log
// JSON; everything else gets the console writer.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{
		Level:  "info",
		Format: format,
		Output: "stdout",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideDetector builds the detection core from configured parameters.
func ProvideDetector(cfg *config.Config) (*scan.Detector, error) {
	det, err := scan.NewDetector(cfg.Scan.Params)
	if err != nil {
		return nil, fmt.Errorf("detector params: %w", err)
	}
	return det, nil
}

// ProvideRedisClient creates the shared Redis connection used by the alert
// log and the delivery queue.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// ProvideCache creates the layered (memory + Redis) cache for provider
// responses.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	redisCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(redisCache), nil
}

// ProvideBarSource creates the EOD market-data client.
func ProvideBarSource(cfg *config.Config, cacheSvc pkgcache.Service, l *applogger.Logger) repository.BarSource {
	httpClient := xhttp.NewClient(xhttp.WithTimeout(cfg.Provider.Timeout))
	return marketdata.New(marketdata.Config{
		BaseURL:     cfg.Provider.BaseURL,
		APIKey:      cfg.Provider.APIKey,
		Suffix:      cfg.Provider.Suffix,
		IndexSymbol: cfg.Scan.IndexSymbol,
		CacheTTL:    cfg.Provider.CacheTTL,
	}, httpClient, cacheSvc, l)
}

// ProvideClickHouseClient creates a ClickHouse client.
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

// ProvideBarStore creates the ClickHouse bar store and its schema.
func ProvideBarStore(ch *pkgch.Client, l *applogger.Logger) (repository.BarStore, error) {
	store := internalrepo.NewCHBarStore(ch)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("bar store schema: %w", err)
	}
	return store, nil
}

// ProvideSignalArchive creates the ClickHouse signal archive and its schema.
func ProvideSignalArchive(ch *pkgch.Client, l *applogger.Logger) (repository.SignalArchive, error) {
	archive := internalrepo.NewCHSignalArchive(ch)
	archive.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal archive schema: %w", err)
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
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
	return consumer, nil
}

// ProvideAlertHub creates the WebSocket fan-out hub.
func ProvideAlertHub(l *applogger.Logger) *api.AlertHub {
	return api.NewAlertHub(l)
}

// ProvideSignalPublisher fans accepted signals to Kafka and the WebSocket hub.
func ProvideSignalPublisher(producer *pkgkafka.Producer, hub *api.AlertHub, cfg *config.Config) repository.SignalPublisher {
	return internalrepo.NewCompositePublisher(
		internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic),
		hub,
	)
}

// ProvideAlertLog creates the Redis-backed cooldown log. Entries are retained
// for twice the cooldown so LastAlert stays answerable after the window.
func ProvideAlertLog(client *redis.Client, cfg *config.Config) repository.AlertLog {
	return internalrepo.NewRedisAlertLog(client, 2*cfg.Scan.Cooldown)
}

// ProvideNarrator picks the LLM narrator when a key is configured, otherwise
// the raw-template fallback.
func ProvideNarrator(cfg *config.Config, l *applogger.Logger) (service.Narrator, error) {
	if cfg.OpenAI.APIKey == "" {
		l.Warn("no openai key configured, alerts go out as raw briefings")
		return narrative.Template{}, nil
	}
	return narrative.NewOpenAI(narrative.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
	}, l)
}

// ProvideNotifier picks Telegram when configured, otherwise the console sink.
func ProvideNotifier(cfg *config.Config, l *applogger.Logger) (service.Notifier, error) {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		l.Warn("no telegram credentials configured, alerts go to the log")
		return telegram.Console{L: l}, nil
	}
	return telegram.New(telegram.Config{
		Token:  cfg.Telegram.Token,
		ChatID: cfg.Telegram.ChatID,
	}, l)
}

// ProvideAlertDispatchJob creates the delivery job.
func ProvideAlertDispatchJob(
	narrator service.Narrator,
	notifier service.Notifier,
	alerts repository.AlertLog,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.AlertDispatchJob {
	return usecase.NewAlertDispatchJob(narrator, notifier, alerts, cfg.Scan.Cooldown, m, l)
}

// ProvideAlertQueue creates the Redis delivery queue with the dispatch job
// registered. It runs exactly one worker: alert delivery must stay serial so
// the per-symbol cooldown read-modify-write cannot race.
func ProvideAlertQueue(
	l *applogger.Logger,
	client *redis.Client,
	job *usecase.AlertDispatchJob,
	cfg *config.Config,
) *pkgqueue.RedisQueue {
	q := pkgqueue.NewRedisQueue(l, &pkgqueue.QueueConfig{
		Workers:    1,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client, pkgqueue.ModeProducerConsumer,
		pkgqueue.WithKeyPrefix(cfg.Queue.KeyPrefix),
	)
	q.RegisterJob(job)
	return q
}

// ProvideScanner creates the universe scanner.
func ProvideScanner(
	cfg *config.Config,
	det *scan.Detector,
	source repository.BarSource,
	store repository.BarStore,
	alerts repository.AlertLog,
	publisher repository.SignalPublisher,
	queue *pkgqueue.RedisQueue,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Scanner {
	return usecase.NewScanner(usecase.ScannerConfig{
		Universe:    cfg.Scan.Universe,
		HistoryDays: cfg.Scan.HistoryDays,
		Cooldown:    cfg.Scan.Cooldown,
		Workers:     cfg.Scan.Workers,
	}, det, source, store, alerts, publisher, queue, m, l)
}

// ProvideBacktester creates the replay runner.
func ProvideBacktester(
	cfg *config.Config,
	det *scan.Detector,
	source repository.BarSource,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Backtester {
	return usecase.NewBacktester(usecase.BacktestConfig{
		Universe:       cfg.Scan.Universe,
		Days:           cfg.Backtest.Days,
		HoldingPeriods: cfg.Backtest.HoldingPeriods,
		Workers:        cfg.Scan.Workers,
	}, det, source, m, l)
}

// ProvideKafkaSignalsHandler registers the archive consumer for the signal
// topic.
func ProvideKafkaSignalsHandler(archive repository.SignalArchive, m repository.Metrics, cfg *config.Config) *usecase.KafkaSignalsHandler {
	return usecase.NewKafkaSignalsHandler(cfg.Kafka.Topic, archive, m)
}

// ProvideResponseCache picks the response cache for the read endpoints.
// Production shares Redis across replicas; everything else caches in-process.
func ProvideResponseCache(cfg *config.Config, client *redis.Client) icache.BytesCache {
	if cfg.Environment == "production" {
		return icache.NewRedisCacheFromClient(client)
	}
	return icache.NewTTLCache()
}

// ProvideScanHandler creates the HTTP API handler.
func ProvideScanHandler(
	l *applogger.Logger,
	scanner *usecase.Scanner,
	backtester *usecase.Backtester,
	det *scan.Detector,
	source repository.BarSource,
	store repository.BarStore,
	respCache icache.BytesCache,
) *api.ScanEchoHandler {
	h := api.NewScanEchoHandler(l, scanner, backtester, det, source, store)
	h.SetCache(respCache)
	return h
}

// ProvideApp assembles the application server. Aggregated error logs go out
// on their own Kafka topic via the logger's collector.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	scanner *usecase.Scanner,
	backtester *usecase.Backtester,
	queue *pkgqueue.RedisQueue,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSignalsHandler,
	handler *api.ScanEchoHandler,
	hub *api.AlertHub,
	publisher repository.SignalPublisher,
	chClient *pkgch.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.HookFuncs{
			Err: func(_ context.Context, topic string, km kafka.Message, _ []byte, err error) {
				l.Error("archive message failed",
					applogger.String("topic", topic),
					applogger.Int64("offset", km.Offset),
					applogger.Error(err))
			},
		})
	}
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".errors",
			Publisher:      internalrepo.NewKafkaLogSink(producer, cfg.Kafka.Topic+".errors"),
		})
	}
	return server.New(cfg, l, scanner, backtester, queue, consumer, kh, handler, hub, publisher, chClient)
}
