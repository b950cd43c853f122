package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"otosu/internal/models"
)

func newTestRepo(t *testing.T) *JobRepository {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewJobRepository(db)
}

func TestJobRepositoryCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job := &models.Job{
		URL:      "https://www.youtube.com/watch?v=abc",
		VideoID:  "abc",
		Title:    "Test Video",
		Duration: "3:33",
		Channel:  "Test Channel",
		Views:    "1.5K",
		Quality:  models.Quality720,
		Format:   models.FormatMP4,
		Filename: "Test_Video",
	}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID == "" {
		t.Fatal("create should assign an id")
	}
	if job.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", job.Status)
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("job not found")
	}
	if got.Title != "Test Video" || got.Quality != models.Quality720 || got.Format != models.FormatMP4 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.CompletedAt != nil {
		t.Error("new job should have no completion time")
	}
}

func TestJobRepositoryGetMissing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetByID(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing job, got %+v", got)
	}
}

func TestJobRepositoryUpdatePartial(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job := &models.Job{URL: "u", Quality: models.Quality360, Format: models.FormatMP3, Filename: "f"}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	st := models.StatusDownloading
	progress := 42
	speed := "1.2MiB/s"
	got, err := repo.Update(ctx, job.ID, models.JobUpdate{Status: &st, Progress: &progress, Speed: &speed})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != models.StatusDownloading || got.Progress != 42 || got.Speed != "1.2MiB/s" {
		t.Errorf("update not applied: %+v", got)
	}
	// 指定していないフィールドは据え置き
	if got.Title != job.Title || got.ETA != "" {
		t.Errorf("untouched fields changed: %+v", got)
	}

	now := time.Now()
	st = models.StatusCompleted
	progress = 100
	size := int64(1048576)
	got, err = repo.Update(ctx, job.ID, models.JobUpdate{
		Status: &st, Progress: &progress, Size: &size, CompletedAt: &now,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Size != 1048576 || got.CompletedAt == nil {
		t.Errorf("completion fields not applied: %+v", got)
	}
}

func TestJobRepositoryUpdateMissing(t *testing.T) {
	repo := newTestRepo(t)

	st := models.StatusFailed
	got, err := repo.Update(context.Background(), "no-such-id", models.JobUpdate{Status: &st})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing job, got %+v", got)
	}
}

func TestJobRepositoryDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job := &models.Job{URL: "u", Quality: models.Quality360, Format: models.FormatMP4, Filename: "f"}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	ok, err := repo.Delete(ctx, job.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Error("delete should report success")
	}

	ok, err = repo.Delete(ctx, job.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok {
		t.Error("second delete should report absence")
	}
}

func TestJobRepositoryListRecentNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		job := &models.Job{
			URL:       "u",
			Quality:   models.Quality360,
			Format:    models.FormatMP4,
			Filename:  "f",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, job); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, job.ID)
	}

	jobs, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("len = %d, want 3", len(jobs))
	}
	// 新しい順
	if jobs[0].ID != ids[2] || jobs[1].ID != ids[1] || jobs[2].ID != ids[0] {
		t.Errorf("unexpected order: %s %s %s", jobs[0].ID, jobs[1].ID, jobs[2].ID)
	}
}

func TestJobRepositoryCountByStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, st := range []models.Status{models.StatusPending, models.StatusPending, models.StatusFailed} {
		job := &models.Job{URL: "u", Quality: models.Quality360, Format: models.FormatMP4, Filename: "f", Status: st}
		if err := repo.Create(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[models.StatusPending] != 2 || counts[models.StatusFailed] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
