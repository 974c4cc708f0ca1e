package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/entity"
	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/port"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/email"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/ffmpeg"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/imaging"
	miniostorage "github.com/linkhub/linkhub-thumbnail-service/internal/infra/minio"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/postgres"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/rabbitmq"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/yolo"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/ytdlp"
	"github.com/linkhub/linkhub-thumbnail-service/internal/usecase"
	"github.com/linkhub/linkhub-thumbnail-service/pkg/logger"
)

// fakeScoringServer stands in for the YOLO sidecar so the E2E run does not
// need a GPU container.
func fakeScoringServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FrameIndex int     `json:"frame_index"`
			Timestamp  float64 `json:"timestamp"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(map[string]any{
			"frame_index":       req.FrameIndex,
			"timestamp":         req.Timestamp,
			"has_product":       false,
			"quality_score":     0.5 + 0.01*float64(req.FrameIndex),
			"brightness_score":  0.5,
			"composition_score": 0.3,
			"blur_score":        0.2,
			"detected_objects":  []any{},
		})
	})
	return httptest.NewServer(mux)
}

func TestThumbnailPipelineEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	for _, tool := range []string{"ffmpeg", "ffprobe", "yt-dlp"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found in PATH", tool)
		}
	}

	testVideoPath := filepath.Join("..", "testdata", "test.mp4")
	if _, err := os.Stat(testVideoPath); os.IsNotExist(err) {
		t.Skip("test video not found at tests/testdata/test.mp4 - generate it with: ffmpeg -f lavfi -i testsrc=duration=10:size=320x240:rate=30 -c:v libx264 -pix_fmt yuv420p tests/testdata/test.mp4")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Start PostgreSQL container
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("thumbnails"),
		tcpostgres.WithUsername("thumb_user"),
		tcpostgres.WithPassword("thumb_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start RabbitMQ container
	rmqContainer, err := tcrabbitmq.Run(ctx,
		"rabbitmq:3.12-management-alpine",
	)
	require.NoError(t, err)
	defer rmqContainer.Terminate(ctx)

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	// Start MinIO container
	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer minioContainer.Terminate(ctx)

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Setup DB pool and migrations
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, postgres.RunMigrations(ctx, pool))

	// Setup storage
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:        minioEndpoint,
		AccessKey:       "minioadmin",
		SecretKey:       "minioadmin",
		UseSSL:          false,
		ThumbnailBucket: "thumbnails",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBucket(ctx))

	// Serve the test video over HTTP so the downloader fetches it as a
	// plain direct URL.
	videoBytes, err := os.ReadFile(testVideoPath)
	require.NoError(t, err)
	videoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write(videoBytes)
	}))
	defer videoSrv.Close()

	scoringSrv := fakeScoringServer(t)
	defer scoringSrv.Close()

	// Setup RabbitMQ publishers
	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, "linkhub.thumbnail")
	require.NoError(t, err)
	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, "thumbnail.request.dlq")

	// Setup use case
	log, _ := logger.New("debug")
	repo := postgres.NewJobRepository(pool)
	uc := usecase.NewProcessVideoUseCase(
		repo,
		ytdlp.NewDownloader("yt-dlp", 100, log),
		ffmpeg.NewProber(log),
		ffmpeg.NewExtractor(2, 20, log),
		// Real HTTP client against the stub sidecar.
		yolo.NewClient(scoringSrv.URL, 10*time.Second, log),
		imaging.NewRenderer(log),
		storage,
		statusPub,
		dlqPub,
		email.NewSMTPNotifier("localhost", 1025, "noreply@linkhub.local", log),
		log,
		usecase.ProcessVideoConfig{
			TempDir:            t.TempDir(),
			MaxRetries:         3,
			MaxDurationSeconds: 600,
			MaxSizeBytes:       100 * 1024 * 1024,
			ThumbnailCount:     3,
			MinGapSeconds:      3,
			Render:             port.RenderSpec{Width: 600, Height: 800, Quality: 85},
		},
	)

	// Setup consumer
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         rmqURL,
		Queue:       "thumbnail.request",
		Exchange:    "linkhub.thumbnail",
		DLQ:         "thumbnail.request.dlq",
		StatusQueue: "thumbnail.status",
		Prefetch:    1,
		WorkerCount: 1,
		BaseDelayMs: 100,
	}, uc.Execute, log)
	require.NoError(t, err)
	defer consumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		consumer.Start(consumerCtx)
	}()
	time.Sleep(500 * time.Millisecond)

	// Publish a thumbnail request
	jobID := uuid.New()
	reqMsg := entity.ThumbnailRequestMessage{
		JobID:    jobID,
		VideoID:  "itest-video",
		VideoURL: videoSrv.URL + "/video.mp4",
	}
	msgBody, err := json.Marshal(reqMsg)
	require.NoError(t, err)

	pubCh, err := rmqConn.Channel()
	require.NoError(t, err)
	err = pubCh.PublishWithContext(ctx,
		"linkhub.thumbnail",
		"thumbnail.request",
		false, false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msgBody,
		},
	)
	require.NoError(t, err)
	pubCh.Close()

	// Wait for the status event
	statusCh, err := rmqConn.Channel()
	require.NoError(t, err)
	defer statusCh.Close()

	statusMsgs, err := statusCh.Consume("thumbnail.status", "", true, false, false, false, nil)
	require.NoError(t, err)

	var statusMsg entity.ThumbnailStatusMessage
	select {
	case delivery := <-statusMsgs:
		require.NoError(t, json.Unmarshal(delivery.Body, &statusMsg))
	case <-time.After(2 * time.Minute):
		t.Fatal("timeout waiting for status message")
	}

	assert.Equal(t, jobID, statusMsg.JobID)
	assert.Equal(t, entity.JobStatusCompleted, statusMsg.Status)
	assert.Greater(t, statusMsg.FramesAnalyzed, 0)
	assert.NotEmpty(t, statusMsg.ThumbnailKeys)
	assert.Equal(t, statusMsg.ThumbnailKeys[0], statusMsg.PrimaryKey)

	// Verify the primary thumbnail landed in MinIO
	minioClient, err := miniogo.New(minioEndpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err)

	stat, err := minioClient.StatObject(ctx, "thumbnails", statusMsg.PrimaryKey, miniogo.StatObjectOptions{})
	require.NoError(t, err)
	assert.Greater(t, stat.Size, int64(0))

	// Verify the job record
	job, err := repo.FindByID(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, statusMsg.PrimaryKey, job.PrimaryKey)
}
