package job

import (
	"context"

	"github.com/livepeer/clipper-core/cache"
)

// MemStore is an in-process Store backed by cache.Cache[Job], used by tests
// and by the DAG executor path (§4.8), which runs a whole job without ever
// touching the broker or Redis.
type MemStore struct {
	jobs *cache.Cache[Job]
}

func NewMemStore() *MemStore {
	return &MemStore{jobs: cache.New[Job]()}
}

func (s *MemStore) Initialize(ctx context.Context, j Job) error {
	j.Status = StatusPending
	j.CurrentStep = "START"
	j.ProgressPercent = 0
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now()
	}
	s.jobs.Store(j.JobID, j)
	return nil
}

func (s *MemStore) Update(ctx context.Context, jobID string, u Update) error {
	existing := s.jobs.Get(jobID)
	if existing.JobID == "" {
		return nil
	}

	if u.Status != "" {
		existing.Status = u.Status
	}
	if u.Step != "" {
		existing.CurrentStep = u.Step
	}
	if u.ProgressStage != "" {
		existing.ProgressStage = u.ProgressStage
	}
	if u.ProgressPercent != nil {
		existing.ProgressPercent = *u.ProgressPercent
	}
	if u.ProgressMessage != nil {
		existing.ProgressMessage = *u.ProgressMessage
	}
	if u.OutputPath != nil {
		existing.OutputPath = *u.OutputPath
	}
	if u.Title != nil {
		existing.Title = *u.Title
	}
	if u.ThumbnailPath != nil {
		existing.ThumbnailPath = *u.ThumbnailPath
	}
	if u.SegmentsPublished != nil {
		existing.SegmentsPublished = *u.SegmentsPublished
	}
	if u.SegmentsCompleted != nil {
		existing.SegmentsCompleted = *u.SegmentsCompleted
	}

	s.jobs.Store(jobID, existing)
	return nil
}

func (s *MemStore) Get(ctx context.Context, jobID string) (Job, bool, error) {
	j := s.jobs.Get(jobID)
	return j, j.JobID != "", nil
}
