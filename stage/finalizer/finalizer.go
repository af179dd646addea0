// Package finalizer resolves parent stream job completion (§9 "Parent
// stream job completion"): it consumes completed_queue, and for every
// delivery whose job is a stream segment's child, advances the parent's
// completed-segment counter. Once the counter reaches the number of
// segments the collector actually published, the parent itself transitions
// to COMPLETED.
//
// This runs as a single consumer (prefetch=1, one instance) precisely
// because the counter increment is a non-atomic read-modify-write against
// job.Store — the same advisory, best-effort pattern every other stage uses
// against the store (§4.2), not a distributed counter. Running more than
// one finalizer worker against the same broker would race on this
// increment; the topology intentionally does not fan this queue out.
package finalizer

import (
	"context"

	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/log"
	"github.com/livepeer/clipper-core/progress"
)

type Deps struct {
	Store  job.Store
	Bridge *progress.Bridge
}

// Handle processes one completed_queue delivery. A delivery for a
// non-sub-job (no parent_job_id) is a no-op: top-level job completion is
// already terminal by the time it reaches this queue.
func Handle(ctx context.Context, deps Deps, env broker.Envelope) error {
	child, ok, err := deps.Store.Get(ctx, env.JobID)
	if err != nil {
		log.LogError(env.JobID, "finalizer: store unavailable reading child job, skipping", err)
		return nil
	}
	if !ok || child.ParentJobID == "" {
		return nil
	}

	parent, ok, err := deps.Store.Get(ctx, child.ParentJobID)
	if err != nil {
		log.LogError(child.ParentJobID, "finalizer: store unavailable reading parent job, skipping", err)
		return nil
	}
	if !ok {
		log.LogNoRequestID("finalizer: parent job not found, ignoring", "job_id", child.ParentJobID)
		return nil
	}
	if parent.IsTerminal() {
		// Already finalized by an earlier sibling's completion, or failed
		// independently; nothing left to do.
		return nil
	}

	target := parent.SegmentsPublished
	if target == 0 {
		target = parent.TotalSegments
	}

	completed := parent.SegmentsCompleted + 1
	update := job.Update{SegmentsCompleted: &completed}

	done := target > 0 && completed >= target
	if done {
		update.Status = job.StatusCompleted
		update.Step = "completed"
	}

	if err := deps.Store.Update(ctx, parent.JobID, update); err != nil {
		log.LogError(parent.JobID, "finalizer: failed persisting completed-segment count", err)
		return nil
	}

	if done {
		deps.Bridge.Completed(ctx, parent.JobID)
	}

	return nil
}
