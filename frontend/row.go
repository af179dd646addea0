package frontend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/livepeer/clipper-core/job"
)

// ErrNotFound is returned when a row lookup misses.
var ErrNotFound = errors.New("frontend: job not found")

// Row is the relational mirror of job.Job (§3 "Data model"). The REST
// front-end creates and reads it; workers run with -frontend-db-url also
// mirror progress and FAILED status onto it through ProgressSink.
type Row struct {
	JobID     string
	SourceURL string
	Kind      job.Kind

	Status          job.Status
	CurrentStep     string
	ProgressStage   string
	ProgressPercent int
	ProgressMessage string

	CreatedAt time.Time

	ParentJobID   sql.NullString
	OutputPath    sql.NullString
	Title         sql.NullString
	ThumbnailPath sql.NullString

	MaxHighlights    int
	IncludeSubtitles bool
}

// Store is the narrow persistence surface the REST front-end (§4.12) and
// ProgressSink need against the relational row.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create writes the new job's row with status PENDING, mirroring
// job.Store.Initialize's effect on the KV side (§4.2).
func (s *Store) Create(ctx context.Context, row Row) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (job_id, source_url, kind, status, current_step, max_highlights, include_subtitles, parent_job_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, row.JobID, row.SourceURL, row.Kind, job.StatusPending, "START", row.MaxHighlights, row.IncludeSubtitles, row.ParentJobID)
	if err != nil {
		return fmt.Errorf("frontend: create job row: %w", err)
	}
	return nil
}

// Get fetches a row by job id.
func (s *Store) Get(ctx context.Context, jobID string) (Row, error) {
	var row Row
	err := s.db.QueryRowContext(ctx, `
		SELECT job_id, source_url, kind, status, current_step, progress_stage, progress_percent,
		       progress_message, created_at, parent_job_id, output_path, title, thumbnail_path,
		       max_highlights, include_subtitles
		FROM jobs WHERE job_id = $1
	`, jobID).Scan(
		&row.JobID, &row.SourceURL, &row.Kind, &row.Status, &row.CurrentStep, &row.ProgressStage,
		&row.ProgressPercent, &row.ProgressMessage, &row.CreatedAt, &row.ParentJobID, &row.OutputPath,
		&row.Title, &row.ThumbnailPath, &row.MaxHighlights, &row.IncludeSubtitles,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, ErrNotFound
	}
	if err != nil {
		return Row{}, fmt.Errorf("frontend: get job row: %w", err)
	}
	return row, nil
}

// MarkCompleted is the one write a worker (via the finalizer or the terminal
// edit stage) makes to the relational row directly: a clip file exists at
// output_path iff the owning job is COMPLETED (§3 "Invariants"), so this is
// the single place that invariant is established.
func (s *Store) MarkCompleted(ctx context.Context, jobID, outputPath, title, thumbnailPath string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = $2, current_step = 'completed', output_path = $3, title = $4, thumbnail_path = $5
		WHERE job_id = $1
	`, jobID, job.StatusCompleted, outputPath, nullIfEmpty(title), nullIfEmpty(thumbnailPath))
	if err != nil {
		return fmt.Errorf("frontend: mark job completed: %w", err)
	}
	return nil
}

// MarkFailed records the terminal FAILED status and the step it failed on.
func (s *Store) MarkFailed(ctx context.Context, jobID, step string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = $2, current_step = $3 WHERE job_id = $1
	`, jobID, job.StatusFailed, step)
	if err != nil {
		return fmt.Errorf("frontend: mark job failed: %w", err)
	}
	return nil
}

// UpdateProgress mirrors the KV's advisory progress fields onto the row so a
// front-end reading only Postgres still sees coarse progress (§3
// "progress_stage, progress_percent, progress_message").
func (s *Store) UpdateProgress(ctx context.Context, jobID, stage string, percent int, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET progress_stage = $2, progress_percent = $3, progress_message = $4 WHERE job_id = $1
	`, jobID, stage, percent, message)
	if err != nil {
		return fmt.Errorf("frontend: update job progress: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
