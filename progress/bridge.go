// Package progress implements the best-effort status bridge shared by the
// broker-driven stage workers and the in-process DAG executor: a thin
// synchronous writer that keeps a job's percent/stage/message fields moving
// forward without ever blocking pipeline work on its own failures.
package progress

import (
	"context"
	"fmt"
	"math"

	"github.com/livepeer/clipper-core/errors"
	"github.com/livepeer/clipper-core/log"
)

// Stage names the three percent bands a job's progress is partitioned into.
type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageAnalyse    Stage = "analyse"
	StageEdit       Stage = "edit"
)

// stageRange returns the [start, end] percent band a stage's internal
// 0..1 completion ratio is projected onto.
func stageRange(stage Stage) (float64, float64) {
	switch stage {
	case StageTranscribe:
		return 0, 33
	case StageAnalyse:
		return 33, 66
	case StageEdit:
		return 66, 100
	default:
		return 0, 100
	}
}

// Sink is the destination a Bridge writes to: the job's KV record, the
// front-end's relational row, or (for the DAG executor) an in-memory state
// object. Implementations must never block the caller on a slow write and
// must tolerate updating a job id they don't recognize.
type Sink interface {
	UpdateProgress(ctx context.Context, jobID string, status string, step string, percent int, message string) error
}

// Bridge is the synchronous `UpdateProgress` entry point described in the
// pipeline's progress/status contract. It is safe for concurrent use by
// multiple stage workers, each owning a different job.
type Bridge struct {
	sink Sink
}

func NewBridge(sink Sink) *Bridge {
	return &Bridge{sink: sink}
}

// Waypoint emits one of a stage's progress checkpoints. ratio is the stage's
// own 0..1 completion (callers typically report 0, 0.5, and 1 — entry, mid,
// exit — per §4.9's "at least three waypoints" requirement).
func (b *Bridge) Waypoint(ctx context.Context, jobID string, stage Stage, ratio float64, message string) {
	start, end := stageRange(stage)
	ratio = math.Max(0, math.Min(1, ratio))
	percent := int(math.Round(start + ratio*(end-start)))
	b.update(ctx, jobID, "PROCESSING", string(stage), percent, message)
}

// Completed marks the job finished: 100%, the canonical success message.
func (b *Bridge) Completed(ctx context.Context, jobID string) {
	b.update(ctx, jobID, "COMPLETED", "completed", 100, "Concluído!")
}

// Failed marks the job failed. step should be the `<stage>_<reason>` name
// from the error taxonomy (e.g. "analyse_missing_transcription"); the
// percent resets to 0 per the progress-monotonicity invariant's one
// exception.
func (b *Bridge) Failed(ctx context.Context, jobID string, step string, err error) {
	b.update(ctx, jobID, "FAILED", step, 0, errors.TruncatedMessage(err))
}

func (b *Bridge) update(ctx context.Context, jobID, status, step string, percent int, message string) {
	if b == nil || b.sink == nil {
		return
	}
	if err := b.sink.UpdateProgress(ctx, jobID, status, step, percent, message); err != nil {
		log.LogNoRequestID(fmt.Sprintf("progress bridge: failed updating job %s", jobID), "err", err, "step", step, "percent", percent)
	}
}
