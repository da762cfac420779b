package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dunamismax/shrinkray/internal/domain"
)

func TestMemoryJobStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryJobStore()

	job := domain.Job{
		ID:         "job-1",
		Status:     domain.JobStatusCreated,
		SourceType: domain.SourceTypeLocalFile,
		ObjectKey:  "/tmp/in.png",
	}
	if err := s.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.Get(ctx, "job-1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.ObjectKey != "/tmp/in.png" {
		t.Errorf("ObjectKey = %q", got.ObjectKey)
	}

	updated, err := s.UpdateStatus(ctx, "job-1", domain.JobStatusProcessing)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != domain.JobStatusProcessing {
		t.Errorf("Status = %q, want processing", updated.Status)
	}
	if updated.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set on status change")
	}

	result := domain.ProcessingResult{Success: true, OutputFilename: "in_1.webp"}
	withResult, err := s.SetResult(ctx, "job-1", result)
	if err != nil {
		t.Fatal(err)
	}
	if withResult.Result == nil || withResult.Result.OutputFilename != "in_1.webp" {
		t.Errorf("Result = %+v", withResult.Result)
	}
}

func TestMemoryJobStoreUnknownJob(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryJobStore()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get missing: ok=%v err=%v", ok, err)
	}
	if _, err := s.UpdateStatus(ctx, "missing", domain.JobStatusFailed); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("UpdateStatus err = %v, want ErrJobNotFound", err)
	}
	if _, err := s.SetResult(ctx, "missing", domain.ProcessingResult{}); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("SetResult err = %v, want ErrJobNotFound", err)
	}
}

func TestMemoryJobStoreUsageLogs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryJobStore()

	if err := s.CreateUsageLog(ctx, domain.UsageLog{JobID: "job-1", PixelsProcessed: 1024}); err != nil {
		t.Fatal(err)
	}
	logs := s.UsageLogs()
	if len(logs) != 1 || logs[0].JobID != "job-1" {
		t.Fatalf("UsageLogs = %+v", logs)
	}
}
