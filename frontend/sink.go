package frontend

import (
	"context"

	"github.com/livepeer/clipper-core/job"
)

// ProgressSink adapts Store to progress.Sink so a stage worker can mirror
// its progress writes onto the relational row directly, not only the KV
// store (§4.9, through frontend.Store). Workers are expected to wire
// both sinks via a small fan-out Sink, not to choose one over the other —
// see cmd/*worker wiring.
type ProgressSink struct {
	Store *Store
}

func (s ProgressSink) UpdateProgress(ctx context.Context, jobID string, status string, step string, percent int, message string) error {
	if err := s.Store.UpdateProgress(ctx, jobID, step, percent, message); err != nil {
		return err
	}
	switch job.Status(status) {
	case job.StatusCompleted:
		return nil // output_path/title are set explicitly by MarkCompleted, not from the bridge
	case job.StatusFailed:
		return s.Store.MarkFailed(ctx, jobID, step)
	}
	return nil
}
