package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/port"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/config"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/email"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/ffmpeg"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/imaging"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/metrics"
	miniostorage "github.com/linkhub/linkhub-thumbnail-service/internal/infra/minio"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/postgres"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/rabbitmq"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/tracing"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/yolo"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/ytdlp"
	"github.com/linkhub/linkhub-thumbnail-service/internal/usecase"
	"github.com/linkhub/linkhub-thumbnail-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting linkhub-thumbnail-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if collector unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	err = postgres.RunMigrations(ctx, pool)
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// Object storage
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:        cfg.MinIOEndpoint,
		AccessKey:       cfg.MinIOAccessKey,
		SecretKey:       cfg.MinIOSecretKey,
		UseSSL:          cfg.MinIOUseSSL,
		ThumbnailBucket: cfg.MinIOThumbnailBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBucket(ctx), "ensure minio bucket")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	repo := postgres.NewJobRepository(pool)
	acquirer := ytdlp.NewDownloader(cfg.YTDLPPath, cfg.MaxDownloadSizeMB, log)
	prober := ffmpeg.NewProber(log)
	extractor := ffmpeg.NewExtractor(cfg.FrameIntervalSeconds, cfg.MaxFramesToAnalyze, log)
	analyzer := yolo.NewClient(cfg.YOLOServiceURL, time.Duration(cfg.AnalyzeTimeoutSeconds)*time.Second, log)
	renderer := imaging.NewRenderer(log)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	// Use case
	uc := usecase.NewProcessVideoUseCase(
		repo, acquirer, prober, extractor, analyzer, renderer,
		storage, statusPub, dlqPub, notifier,
		log,
		usecase.ProcessVideoConfig{
			TempDir:            cfg.TempDir,
			MaxRetries:         cfg.MaxRetries,
			MaxDurationSeconds: cfg.MaxVideoDurationSeconds,
			MaxSizeBytes:       int64(cfg.MaxDownloadSizeMB) * 1024 * 1024,
			ThumbnailCount:     cfg.ThumbnailCount,
			MinGapSeconds:      cfg.MinGapSeconds,
			Render: port.RenderSpec{
				Width:   cfg.ThumbnailWidth,
				Height:  cfg.ThumbnailHeight,
				Quality: cfg.ThumbnailQuality,
			},
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQRequestQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("linkhub-thumbnail-service started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("linkhub-thumbnail-service stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
