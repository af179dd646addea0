package job

import (
	"context"
	"time"
)

// Update is a partial patch merged into a job's KV record (§4.2). Zero-value
// fields are treated as "no change" except where a pointer distinguishes
// absence from zero.
type Update struct {
	Status          Status
	Step            string
	ProgressStage   string
	ProgressPercent *int
	ProgressMessage *string
	OutputPath      *string
	Title           *string
	ThumbnailPath   *string
	SegmentsPublished *int
	SegmentsCompleted *int
}

// Store is the external KV state store contract from §4.2. It is advisory:
// callers must keep working even when the store is unavailable, logging and
// skipping rather than failing the stage (§4.2, §7 kind 6 "Persistence
// failure").
type Store interface {
	// Initialize creates a new job record with status PENDING, current_step
	// START, and progress 0. Fails only on store unavailability.
	Initialize(ctx context.Context, j Job) error

	// Update merges a partial patch into an existing record. An unknown
	// job_id is a silent no-op, not an error.
	Update(ctx context.Context, jobID string, u Update) error

	// Get returns the full record, or ok=false if absent. Never blocks.
	Get(ctx context.Context, jobID string) (Job, bool, error)
}

func now() time.Time {
	return time.Now().UTC()
}
