package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/entity"
	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/port"
	"github.com/linkhub/linkhub-thumbnail-service/internal/infra/metrics"
)

type ProcessVideoUseCase struct {
	repo      port.JobRepository
	acquirer  port.VideoAcquirer
	prober    port.VideoProber
	extractor port.FrameExtractor
	analyzer  port.FrameAnalyzer
	renderer  port.ThumbnailRenderer
	storage   port.ThumbnailStorage
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	cfg       ProcessVideoConfig
}

type ProcessVideoConfig struct {
	TempDir            string
	MaxRetries         int
	MaxDurationSeconds float64
	MaxSizeBytes       int64
	ThumbnailCount     int
	MinGapSeconds      float64
	Render             port.RenderSpec
}

func NewProcessVideoUseCase(
	repo port.JobRepository,
	acquirer port.VideoAcquirer,
	prober port.VideoProber,
	extractor port.FrameExtractor,
	analyzer port.FrameAnalyzer,
	renderer port.ThumbnailRenderer,
	storage port.ThumbnailStorage,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessVideoConfig,
) *ProcessVideoUseCase {
	return &ProcessVideoUseCase{
		repo:      repo,
		acquirer:  acquirer,
		prober:    prober,
		extractor: extractor,
		analyzer:  analyzer,
		renderer:  renderer,
		storage:   storage,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
	}
}

// ProcessVideo runs the full thumbnail pipeline for one video. It always
// returns a well-formed result: fatal stage errors are wrapped into a
// PipelineFailure carried in the result, per-frame analysis failures are
// substituted by fallback metrics, and per-candidate render failures drop
// only that candidate. The workspace is removed on every exit path;
// rendered thumbnails land in a sibling output directory that survives
// until the caller has uploaded them.
func (uc *ProcessVideoUseCase) ProcessVideo(ctx context.Context, videoURL, videoID string) *entity.VideoProcessingResult {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessVideoUseCase.ProcessVideo")
	defer span.End()
	span.SetAttributes(attribute.String("video.id", videoID))

	started := time.Now()
	log := uc.logger.With(zap.String("video_id", videoID))

	result := &entity.VideoProcessingResult{VideoID: videoID}
	finish := func() *entity.VideoProcessingResult {
		result.ProcessingTime = time.Since(started)
		return result
	}
	fail := func(stage entity.PipelineStage, err error) *entity.VideoProcessingResult {
		log.Error("pipeline stage failed", zap.String("stage", string(stage)), zap.Error(err))
		result.Success = false
		result.Thumbnails = nil
		result.Err = &entity.PipelineFailure{Stage: stage, Err: err}
		return finish()
	}

	ws, err := newWorkspace(uc.cfg.TempDir, videoID)
	if err != nil {
		return fail(entity.StageAcquiring, err)
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			log.Warn("workspace cleanup failed", zap.Error(err))
		}
	}()

	// Acquiring
	dlStart := time.Now()
	ctxDl, spanDl := tracer.Start(ctx, "acquire_video")
	videoPath := ws.Path("source.mp4")
	err = uc.acquirer.Download(ctxDl, videoURL, videoPath)
	spanDl.End()
	if err != nil {
		return fail(entity.StageAcquiring, err)
	}
	metrics.StageDuration.WithLabelValues("acquire").Observe(time.Since(dlStart).Seconds())

	// Validating
	ctxPr, spanPr := tracer.Start(ctx, "probe_video")
	meta, err := uc.prober.Probe(ctxPr, videoPath)
	spanPr.End()
	if err != nil {
		return fail(entity.StageValidating, err)
	}
	result.VideoDuration = meta.DurationSeconds
	if err := uc.validate(meta); err != nil {
		return fail(entity.StageValidating, err)
	}

	// Extracting
	exStart := time.Now()
	ctxEx, spanEx := tracer.Start(ctx, "extract_frames")
	framesDir, err := ws.Mkdir("frames")
	if err != nil {
		spanEx.End()
		return fail(entity.StageExtracting, err)
	}
	extraction, err := uc.extractor.ExtractFrames(ctxEx, videoPath, framesDir)
	spanEx.End()
	if err != nil {
		return fail(entity.StageExtracting, err)
	}
	metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())
	metrics.FramesExtractedTotal.Add(float64(len(extraction.Frames)))

	// Analyzing
	anStart := time.Now()
	ctxAn, spanAn := tracer.Start(ctx, "analyze_frames")
	analyses := uc.analyzeFrames(ctxAn, log, extraction.Frames)
	spanAn.End()
	metrics.StageDuration.WithLabelValues("analyze").Observe(time.Since(anStart).Seconds())
	result.FramesAnalyzed = len(analyses)

	// Selecting
	selected := selectFrames(analyses, uc.cfg.ThumbnailCount, uc.cfg.MinGapSeconds)
	if len(selected) == 0 {
		return fail(entity.StageSelecting, entity.ErrNoSuitableFrame)
	}
	log.Info("frame candidates selected",
		zap.Int("candidates", len(selected)),
		zap.Int("analyzed", len(analyses)),
	)

	// Rendering
	rdStart := time.Now()
	ctxRd, spanRd := tracer.Start(ctx, "render_thumbnails")
	thumbs, renderErr := uc.renderThumbnails(ctxRd, log, videoID, extraction.Frames, selected)
	spanRd.End()
	metrics.StageDuration.WithLabelValues("render").Observe(time.Since(rdStart).Seconds())
	if len(thumbs) == 0 {
		uc.removeOutputDir(log, videoID)
		return fail(entity.StageRendering, renderErr)
	}
	metrics.ThumbnailsRenderedTotal.Add(float64(len(thumbs)))

	result.Success = true
	result.Thumbnails = orderPrimaryFirst(thumbs)

	log.Info("thumbnail pipeline completed",
		zap.Int("thumbnails", len(result.Thumbnails)),
		zap.Int("frames_analyzed", result.FramesAnalyzed),
		zap.Float64("duration_secs", result.VideoDuration),
	)
	return finish()
}

func (uc *ProcessVideoUseCase) validate(meta *port.VideoMetadata) error {
	if meta.DurationSeconds <= 0 {
		return &entity.ValidationError{Dimension: "duration_seconds", Limit: uc.cfg.MaxDurationSeconds, Actual: meta.DurationSeconds}
	}
	if meta.DurationSeconds > uc.cfg.MaxDurationSeconds {
		return &entity.ValidationError{Dimension: "duration_seconds", Limit: uc.cfg.MaxDurationSeconds, Actual: meta.DurationSeconds}
	}
	if meta.SizeBytes > 0 && meta.SizeBytes > uc.cfg.MaxSizeBytes {
		return &entity.ValidationError{Dimension: "size_bytes", Limit: float64(uc.cfg.MaxSizeBytes), Actual: float64(meta.SizeBytes)}
	}
	return nil
}

// analyzeFrames scores each frame through the external service, one call at
// a time. Any analyzer failure is absorbed by the deterministic fallback,
// so the returned slice always has one entry per frame, in frame order.
func (uc *ProcessVideoUseCase) analyzeFrames(ctx context.Context, log *zap.Logger, frames []port.ExtractedFrame) []entity.FrameAnalysis {
	primaryUp := uc.analyzer.Healthy(ctx)
	if !primaryUp {
		log.Warn("scoring service liveness check failed, using fallback metrics for all frames")
	}

	analyses := make([]entity.FrameAnalysis, 0, len(frames))
	for _, frame := range frames {
		if !primaryUp {
			metrics.FallbackAnalysesTotal.Inc()
			analyses = append(analyses, fallbackAnalysis(frame.Index, frame.Timestamp))
			continue
		}

		analysis, err := uc.analyzer.AnalyzeFrame(ctx, frame.Path, frame.Index, frame.Timestamp)
		if err != nil {
			uc.logAnalyzerFailure(log, frame, err)
			metrics.FallbackAnalysesTotal.Inc()
			analyses = append(analyses, fallbackAnalysis(frame.Index, frame.Timestamp))
			continue
		}
		analyses = append(analyses, *analysis)
	}
	metrics.FramesAnalyzedTotal.Add(float64(len(analyses)))
	return analyses
}

func (uc *ProcessVideoUseCase) logAnalyzerFailure(log *zap.Logger, frame port.ExtractedFrame, err error) {
	fields := []zap.Field{
		zap.Int("frame_index", frame.Index),
		zap.String("frame_path", frame.Path),
		zap.Error(err),
	}

	var httpErr *entity.AnalyzerHTTPError
	var timeoutErr *entity.AnalyzerTimeoutError
	var unreachableErr *entity.AnalyzerUnreachableError
	switch {
	case errors.As(err, &httpErr):
		log.Warn("scoring service returned error status, using fallback",
			append(fields, zap.Int("status", httpErr.Status), zap.String("detail", httpErr.Detail))...)
	case errors.As(err, &timeoutErr):
		log.Warn("scoring request timed out, using fallback", fields...)
	case errors.As(err, &unreachableErr):
		log.Warn("scoring service unreachable, using fallback", fields...)
	default:
		log.Warn("frame analysis failed, using fallback", fields...)
	}
}

// renderThumbnails renders each selected candidate into the per-video
// output directory. A failed render drops only that candidate. Returns the
// successful renders in acceptance order and the first render error, which
// becomes the fatal cause when nothing rendered.
func (uc *ProcessVideoUseCase) renderThumbnails(
	ctx context.Context,
	log *zap.Logger,
	videoID string,
	frames []port.ExtractedFrame,
	selected []entity.FrameAnalysis,
) ([]entity.ThumbnailResult, error) {
	outDir := uc.outputDir(videoID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", outDir, err)
	}

	pathByIndex := make(map[int]string, len(frames))
	for _, f := range frames {
		pathByIndex[f.Index] = f.Path
	}

	var thumbs []entity.ThumbnailResult
	var firstErr error
	for i, candidate := range selected {
		sourcePath, ok := pathByIndex[candidate.FrameIndex]
		if !ok {
			continue
		}
		destPath := filepath.Join(outDir, fmt.Sprintf("thumb_%02d.jpg", i))
		if err := uc.renderer.Render(ctx, sourcePath, destPath, uc.cfg.Render); err != nil {
			renderErr := &entity.RenderError{SourcePath: sourcePath, Err: err}
			if firstErr == nil {
				firstErr = renderErr
			}
			log.Warn("thumbnail render failed, dropping candidate",
				zap.Int("frame_index", candidate.FrameIndex),
				zap.String("frame_path", sourcePath),
				zap.Error(err),
			)
			continue
		}
		thumbs = append(thumbs, entity.ThumbnailResult{
			ThumbnailPath: destPath,
			Analysis:      candidate,
		})
	}
	if firstErr == nil && len(thumbs) == 0 {
		firstErr = entity.ErrNoSuitableFrame
	}
	return thumbs, firstErr
}

// orderPrimaryFirst moves the highest-quality-score thumbnail to the front,
// keeping the rest in acceptance order.
func orderPrimaryFirst(thumbs []entity.ThumbnailResult) []entity.ThumbnailResult {
	best := 0
	for i := 1; i < len(thumbs); i++ {
		if thumbs[i].Analysis.QualityScore > thumbs[best].Analysis.QualityScore {
			best = i
		}
	}
	ordered := make([]entity.ThumbnailResult, 0, len(thumbs))
	ordered = append(ordered, thumbs[best])
	for i, t := range thumbs {
		if i != best {
			ordered = append(ordered, t)
		}
	}
	return ordered
}

func (uc *ProcessVideoUseCase) outputDir(videoID string) string {
	return filepath.Join(uc.cfg.TempDir, "thumbs-"+videoID)
}

func (uc *ProcessVideoUseCase) removeOutputDir(log *zap.Logger, videoID string) {
	if err := os.RemoveAll(uc.outputDir(videoID)); err != nil {
		log.Warn("output dir cleanup failed", zap.Error(err))
	}
}

// Execute consumes one queue message: it runs the pipeline, uploads the
// rendered thumbnails, updates the job record and publishes a status event.
// A nil return acks the message; a non-nil return signals a retryable
// failure to the consumer.
func (uc *ProcessVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessVideoUseCase.Execute")
	defer span.End()

	var msg entity.ThumbnailRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_id", msg.VideoID),
	)
	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_id", msg.VideoID))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewThumbnailJob(msg.VideoID, msg.VideoURL, uc.cfg.MaxRetries)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	result := uc.ProcessVideo(ctx, msg.VideoURL, msg.VideoID)
	defer uc.removeOutputDir(log, msg.VideoID)

	if !result.Success {
		errMsg := "pipeline failed"
		if result.Err != nil {
			errMsg = result.Err.Error()
		}
		var validationErr *entity.ValidationError
		if errors.As(result.Err, &validationErr) {
			// Retrying an over-limit video cannot succeed.
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, errMsg, log)
	}

	keys, err := uc.uploadThumbnails(ctx, msg.VideoID, result.Thumbnails)
	if err != nil {
		log.Error("thumbnail upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_thumbnails: "+err.Error(), log)
	}

	job.MarkCompleted(keys[0], len(keys), result.FramesAnalyzed, result.VideoDuration)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, keys, log)
	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(result.ProcessingTime.Seconds())

	log.Info("job completed successfully",
		zap.Int("thumbnails", len(keys)),
		zap.String("primary_key", keys[0]),
	)
	return nil
}

// uploadThumbnails pushes the rendered files to object storage. The
// ordering of result.Thumbnails (primary first) is preserved in the key
// numbering.
func (uc *ProcessVideoUseCase) uploadThumbnails(ctx context.Context, videoID string, thumbs []entity.ThumbnailResult) ([]string, error) {
	keys := make([]string, 0, len(thumbs))
	for i, t := range thumbs {
		key := fmt.Sprintf("thumbnails/%s/%d.jpg", videoID, i)
		if err := uc.storage.UploadThumbnail(ctx, key, t.ThumbnailPath); err != nil {
			return nil, fmt.Errorf("upload %s: %w", key, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (uc *ProcessVideoUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.ThumbnailJob,
	msg entity.ThumbnailRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, nil, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ProcessVideoUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.ThumbnailJob,
	msg entity.ThumbnailRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, nil, uc.logger)
	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoID, errMsg)
	}

	return nil
}

func (uc *ProcessVideoUseCase) publishStatus(ctx context.Context, job *entity.ThumbnailJob, keys []string, log *zap.Logger) {
	statusMsg := entity.ThumbnailStatusMessage{
		JobID:          job.ID,
		VideoID:        job.VideoID,
		Status:         job.Status,
		ThumbnailKeys:  keys,
		PrimaryKey:     job.PrimaryKey,
		FramesAnalyzed: job.FramesAnalyzed,
		Duration:       job.VideoDuration,
		ErrorMessage:   job.ErrorMessage,
		Attempt:        job.Attempt,
		MaxAttempts:    job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
