package download

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"otosu/internal/models"
)

// fakeStore はテスト用のインメモリStore
type fakeStore struct {
	mu      sync.Mutex
	seq     int
	jobs    map[string]*models.Job
	updates map[string][]models.JobUpdate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:    make(map[string]*models.Job),
		updates: make(map[string][]models.JobUpdate),
	}
}

func (s *fakeStore) Create(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		s.seq++
		job.ID = fmt.Sprintf("job-%d", s.seq)
	}
	if job.Status == "" {
		job.Status = models.StatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (s *fakeStore) Update(ctx context.Context, id string, u models.JobUpdate) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	s.updates[id] = append(s.updates[id], u)
	if u.Status != nil {
		job.Status = *u.Status
	}
	if u.Progress != nil {
		job.Progress = *u.Progress
	}
	if u.Speed != nil {
		job.Speed = *u.Speed
	}
	if u.ETA != nil {
		job.ETA = *u.ETA
	}
	if u.Size != nil {
		job.Size = *u.Size
	}
	if u.CompletedAt != nil {
		job.CompletedAt = u.CompletedAt
	}
	cp := *job
	return &cp, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return false, nil
	}
	delete(s.jobs, id)
	return true, nil
}

func (s *fakeStore) ListRecent(ctx context.Context, limit int) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var jobs []models.Job
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// job は現在のレコードのコピーを返す
func (s *fakeStore) job(id string) *models.Job {
	job, _ := s.GetByID(context.Background(), id)
	return job
}

// progressWrites は進捗率が書き込まれた回数を返す
func (s *fakeStore) progressWrites(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.updates[id] {
		if u.Progress != nil {
			n++
		}
	}
	return n
}

func (s *fakeStore) createdCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
