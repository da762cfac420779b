package worker

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/dunamismax/shrinkray/internal/config"
	"github.com/dunamismax/shrinkray/internal/domain"
	"github.com/dunamismax/shrinkray/internal/queue"
	"github.com/dunamismax/shrinkray/internal/store"
	"github.com/hibiken/asynq"
)

func newTestWorker(t *testing.T, jobStore *store.MemoryJobStore, outputDir string) *Server {
	t.Helper()
	srv, err := NewServer(
		log.New(io.Discard, "", 0),
		config.QueueConfig{RedisAddr: "localhost:6379", Name: "default"},
		config.WorkerConfig{Concurrency: 1, MaxActiveJobs: 1, LocalOutputDir: outputDir},
		nil, // no object storage
		nil, // no webhooks
		jobStore,
		nil, // usage falls back to the job store
	)
	if err != nil {
		t.Fatal(err)
	}
	return srv
}

func writeWorkerPNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "input.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func optimizeTask(t *testing.T, payload queue.OptimizeImagePayload) *asynq.Task {
	t.Helper()
	task, err := queue.NewOptimizeImageTask(payload)
	if err != nil {
		t.Fatal(err)
	}
	return task
}

func TestHandleOptimizeImageSuccess(t *testing.T) {
	ctx := context.Background()
	jobStore := store.NewMemoryJobStore()
	inputPath := writeWorkerPNG(t, t.TempDir())
	srv := newTestWorker(t, jobStore, t.TempDir())

	job := domain.Job{
		ID:         "job-ok",
		UserID:     "user-7",
		Status:     domain.JobStatusQueued,
		SourceType: domain.SourceTypeLocalFile,
		ObjectKey:  inputPath,
	}
	if err := jobStore.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	task := optimizeTask(t, queue.OptimizeImagePayload{
		JobID:      job.ID,
		SourceType: job.SourceType,
		ObjectKey:  job.ObjectKey,
	})

	if err := srv.handleOptimizeImage(ctx, task); err != nil {
		t.Fatalf("handleOptimizeImage error: %v", err)
	}

	stored, _, err := jobStore.Get(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.JobStatusSucceeded {
		t.Errorf("status = %q, want succeeded", stored.Status)
	}
	if stored.Result == nil || !stored.Result.Success {
		t.Fatalf("result = %+v", stored.Result)
	}
	if stored.Result.Processed.Format != "WEBP" {
		t.Errorf("processed format = %q", stored.Result.Processed.Format)
	}

	logs := jobStore.UsageLogs()
	if len(logs) != 1 {
		t.Fatalf("usage logs = %d, want 1", len(logs))
	}
	if logs[0].UserID != "user-7" || logs[0].JobID != job.ID {
		t.Errorf("usage log = %+v", logs[0])
	}
	if logs[0].PixelsProcessed != 32*32 {
		t.Errorf("pixels = %d, want %d", logs[0].PixelsProcessed, 32*32)
	}
	if logs[0].ComputeTimeMS < 1 {
		t.Errorf("compute time = %d, want >= 1", logs[0].ComputeTimeMS)
	}
}

func TestHandleOptimizeImageDecodeFailureSkipsRetry(t *testing.T) {
	ctx := context.Background()
	jobStore := store.NewMemoryJobStore()

	dir := t.TempDir()
	badInput := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(badInput, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := newTestWorker(t, jobStore, t.TempDir())

	job := domain.Job{
		ID:         "job-bad",
		Status:     domain.JobStatusQueued,
		SourceType: domain.SourceTypeLocalFile,
		ObjectKey:  badInput,
	}
	if err := jobStore.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	task := optimizeTask(t, queue.OptimizeImagePayload{
		JobID:      job.ID,
		SourceType: job.SourceType,
		ObjectKey:  job.ObjectKey,
	})

	err := srv.handleOptimizeImage(ctx, task)
	if err == nil {
		t.Fatal("expected an error for undecodable input")
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("error = %v, want SkipRetry", err)
	}

	stored, _, _ := jobStore.Get(ctx, job.ID)
	if stored.Status != domain.JobStatusFailed {
		t.Errorf("status = %q, want failed", stored.Status)
	}
	if stored.Result == nil || stored.Result.ErrorKind != domain.ErrKindDecode {
		t.Errorf("result = %+v", stored.Result)
	}
	if len(jobStore.UsageLogs()) != 0 {
		t.Error("failed job should not record usage")
	}
}

func TestHandleOptimizeImageTransientFailureRetries(t *testing.T) {
	ctx := context.Background()
	jobStore := store.NewMemoryJobStore()
	srv := newTestWorker(t, jobStore, t.TempDir())

	job := domain.Job{
		ID:         "job-missing",
		Status:     domain.JobStatusQueued,
		SourceType: domain.SourceTypeLocalFile,
		ObjectKey:  filepath.Join(t.TempDir(), "vanished.png"),
	}
	if err := jobStore.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	task := optimizeTask(t, queue.OptimizeImagePayload{
		JobID:      job.ID,
		SourceType: job.SourceType,
		ObjectKey:  job.ObjectKey,
	})

	err := srv.handleOptimizeImage(ctx, task)
	if err == nil {
		t.Fatal("expected an error for a missing source")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Error("filesystem failures should stay retryable")
	}
}

func TestHandleOptimizeImageMalformedPayload(t *testing.T) {
	srv := newTestWorker(t, store.NewMemoryJobStore(), t.TempDir())

	err := srv.handleOptimizeImage(context.Background(), asynq.NewTask(queue.TypeOptimizeImage, []byte("{broken")))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("error = %v, want SkipRetry", err)
	}
}

func TestHandleOptimizeImageObjectStoreUnconfigured(t *testing.T) {
	ctx := context.Background()
	jobStore := store.NewMemoryJobStore()
	srv := newTestWorker(t, jobStore, t.TempDir())

	job := domain.Job{
		ID:         "job-s3",
		Status:     domain.JobStatusQueued,
		SourceType: domain.SourceTypeS3Presigned,
		ObjectKey:  "uploads/job-s3/source",
	}
	if err := jobStore.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	task := optimizeTask(t, queue.OptimizeImagePayload{
		JobID:      job.ID,
		SourceType: job.SourceType,
		ObjectKey:  job.ObjectKey,
	})

	if err := srv.handleOptimizeImage(ctx, task); err == nil {
		t.Fatal("expected failure when object storage is not configured")
	}

	stored, _, _ := jobStore.Get(ctx, job.ID)
	if stored.Status != domain.JobStatusFailed {
		t.Errorf("status = %q, want failed", stored.Status)
	}
}
