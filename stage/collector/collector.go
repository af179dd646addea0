// Package collector implements the COLLECT stage worker: stream fan-out
// into per-segment child jobs (§4.4).
package collector

import (
	"context"
	"fmt"

	"github.com/livepeer/clipper-core/artifact"
	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/collaborator"
	"github.com/livepeer/clipper-core/config"
	"github.com/livepeer/clipper-core/errors"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/log"
	"github.com/livepeer/clipper-core/metrics"
	"github.com/livepeer/clipper-core/progress"
)

// Payload is the COLLECT queue's message body (§4.4).
type Payload struct {
	StreamURL       string `json:"stream_url"`
	SegmentDuration int    `json:"segment_duration"`
	MaxDuration     int    `json:"max_duration"`
}

// TranscribePayload is published once per produced segment.
type TranscribePayload struct {
	SegmentPath   string `json:"segment_path"`
	SegmentIndex  int    `json:"segment_index"`
	TotalSegments int    `json:"total_segments"`
	ParentJobID   string `json:"parent_job_id"`
}

// Publisher is the narrow slice of broker.Publisher this stage depends on,
// accepted as an interface so tests can substitute a recording double.
type Publisher interface {
	Publish(ctx context.Context, queue string, env broker.Envelope) error
}

// Deps are the collaborators and infrastructure the collector needs,
// injected by the worker binary that wires broker.Consumer to Handle.
type Deps struct {
	Store     job.Store
	Publisher Publisher
	Bridge    *progress.Bridge
	Collector collaborator.StreamCollector
	DataDir   string
}

// Handle processes one COLLECT delivery (§4.4).
func Handle(ctx context.Context, deps Deps, env broker.Envelope) error {
	var p Payload
	if err := env.Decode(&p); err != nil {
		return errors.NewStageError("collect_malformed", err)
	}
	if p.StreamURL == "" {
		return errors.NewStageError("collect_malformed", fmt.Errorf("missing stream_url"))
	}

	segmentDuration := p.SegmentDuration
	if segmentDuration == 0 {
		segmentDuration = config.DefaultSegmentDurationSecs
	}
	maxDuration := p.MaxDuration
	if maxDuration == 0 {
		maxDuration = config.DefaultMaxDurationSecs
	}

	layout := artifact.NewLayout(deps.DataDir, env.JobID)
	if err := layout.EnsureDirs(); err != nil {
		return fail(ctx, deps, env.JobID, "collect_failed", err)
	}

	deps.Bridge.Waypoint(ctx, env.JobID, progress.StageTranscribe, 0, "collecting stream segments")

	segments, err := deps.Collector.Collect(ctx, p.StreamURL, segmentDuration, maxDuration, layout.SegmentsDir())
	if err != nil {
		return fail(ctx, deps, env.JobID, "collect_failed", err)
	}
	if len(segments) == 0 {
		return fail(ctx, deps, env.JobID, "collect_no_segments", fmt.Errorf("stream collector produced zero segments"))
	}

	total := len(segments)
	published := 0
	for i, segPath := range segments {
		childID := fmt.Sprintf("%s_seg%03d", env.JobID, i)

		if err := deps.Store.Initialize(ctx, job.Job{
			JobID:         childID,
			SourceURL:     p.StreamURL,
			Kind:          job.KindStream,
			ParentJobID:   env.JobID,
			SegmentIndex:  i,
			TotalSegments: total,
			SegmentPath:   segPath,
		}); err != nil {
			log.LogError(childID, "collector: failed initializing child job record", err)
		}

		childEnv, err := broker.NewEnvelope(childID, "transcribe", TranscribePayload{
			SegmentPath:   segPath,
			SegmentIndex:  i,
			TotalSegments: total,
			ParentJobID:   env.JobID,
		})
		if err != nil {
			log.LogError(childID, "collector: failed building transcribe envelope", err)
			continue
		}

		if err := deps.Publisher.Publish(ctx, broker.QueueTranscribe, childEnv); err != nil {
			log.LogError(childID, "collector: failed publishing transcribe message", err)
			metrics.Metrics.SegmentsPublished.WithLabelValues("failed").Inc()
			continue
		}
		published++
		metrics.Metrics.SegmentsPublished.WithLabelValues("published").Inc()
	}

	if published == 0 {
		return fail(ctx, deps, env.JobID, "collect_failed", fmt.Errorf("failed to publish any of %d segments", total))
	}

	publishedCopy := published
	_ = deps.Store.Update(ctx, env.JobID, job.Update{
		Status:            job.StatusProcessing,
		Step:              "transcribe",
		SegmentsPublished: &publishedCopy,
	})
	deps.Bridge.Waypoint(ctx, env.JobID, progress.StageTranscribe, 0.1, fmt.Sprintf("published %d/%d segments", published, total))

	if published < total {
		log.LogNoRequestID(fmt.Sprintf("collector: published %d/%d segments for %s", published, total, env.JobID))
	}

	return nil
}

func fail(ctx context.Context, deps Deps, jobID, step string, cause error) error {
	_ = deps.Store.Update(ctx, jobID, job.Update{Status: job.StatusFailed, Step: step})
	deps.Bridge.Failed(ctx, jobID, step, cause)
	return errors.NewStageError(step, cause)
}
