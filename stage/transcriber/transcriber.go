// Package transcriber implements the TRANSCRIBE stage worker (§4.5):
// materialize media, run ASR, persist the transcript, hand off to ANALYSE.
package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/livepeer/clipper-core/artifact"
	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/collaborator"
	"github.com/livepeer/clipper-core/errors"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/log"
	"github.com/livepeer/clipper-core/progress"
	"github.com/livepeer/clipper-core/video"
)

// Payload is the TRANSCRIBE queue's message body: either the recorded
// branch ({url}) or the stream branch ({segment_path, ...}) (§4.5).
type Payload struct {
	URL           string `json:"url,omitempty"`
	SegmentPath   string `json:"segment_path,omitempty"`
	SegmentIndex  int    `json:"segment_index,omitempty"`
	TotalSegments int    `json:"total_segments,omitempty"`
	ParentJobID   string `json:"parent_job_id,omitempty"`
}

// AnalysePayload is published to ANALYSE on success.
type AnalysePayload struct {
	TranscriptionPath string `json:"transcription_path"`
	VideoPath         string `json:"video_path"`
}

// Publisher is the narrow slice of broker.Publisher this stage depends on.
type Publisher interface {
	Publish(ctx context.Context, queue string, env broker.Envelope) error
}

type Deps struct {
	Store       job.Store
	Publisher   Publisher
	Bridge      *progress.Bridge
	Downloader  collaborator.Downloader
	Transcriber collaborator.Transcriber
	DataDir     string

	// Prober is optional: when set, materialized media is probed before ASR
	// so an undecodable or video-track-less source fails fast instead of
	// burning an ASR pass on it.
	Prober video.Prober
}

// Handle processes one TRANSCRIBE delivery (§4.5).
func Handle(ctx context.Context, deps Deps, env broker.Envelope) error {
	var p Payload
	if err := env.Decode(&p); err != nil {
		return errors.NewStageError("transcribe_malformed", err)
	}

	layout := artifact.NewLayout(deps.DataDir, env.JobID)
	if err := layout.EnsureDirs(); err != nil {
		return fail(ctx, deps, env.JobID, "transcribe_failed", err)
	}

	deps.Bridge.Waypoint(ctx, env.JobID, progress.StageTranscribe, 0, "preparing media")

	var videoPath string
	switch {
	case p.SegmentPath != "":
		videoPath = p.SegmentPath
	case p.URL != "":
		videoPath = layout.TempVideo(filepath.Ext(p.URL))
		if err := deps.Downloader.Download(ctx, p.URL, videoPath); err != nil {
			return fail(ctx, deps, env.JobID, "transcribe_failed", err)
		}
	default:
		return errors.NewStageError("transcribe_malformed", fmt.Errorf("payload has neither url nor segment_path"))
	}

	if deps.Prober != nil {
		probe, err := deps.Prober.ProbeFile(ctx, videoPath)
		if err != nil {
			return fail(ctx, deps, env.JobID, "transcribe_failed", fmt.Errorf("source media rejected: %w", err))
		}
		log.LogNoRequestID("transcriber: probed source media", "job_id", env.JobID, "duration_secs", probe.DurationSecs, "codec", probe.Codec)
	}

	deps.Bridge.Waypoint(ctx, env.JobID, progress.StageTranscribe, 0.4, "running ASR")

	transcript, err := deps.Transcriber.Transcribe(ctx, videoPath)
	if err != nil {
		return fail(ctx, deps, env.JobID, "transcribe_failed", err)
	}

	raw, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fail(ctx, deps, env.JobID, "transcribe_failed", err)
	}
	if err := os.WriteFile(layout.TranscriptionPath(), raw, 0o644); err != nil {
		return fail(ctx, deps, env.JobID, "transcribe_failed", err)
	}

	analyseEnv, err := broker.NewEnvelope(env.JobID, "analyse", AnalysePayload{
		TranscriptionPath: layout.TranscriptionPath(),
		VideoPath:         videoPath,
	})
	if err != nil {
		return fail(ctx, deps, env.JobID, "transcribe_failed", err)
	}

	if err := deps.Publisher.Publish(ctx, broker.QueueAnalyse, analyseEnv); err != nil {
		return fail(ctx, deps, env.JobID, "transcribe_failed", err)
	}

	_ = deps.Store.Update(ctx, env.JobID, job.Update{Status: job.StatusProcessing, Step: "analyse"})
	deps.Bridge.Waypoint(ctx, env.JobID, progress.StageTranscribe, 1, "transcript ready")

	return nil
}

func fail(ctx context.Context, deps Deps, jobID, step string, cause error) error {
	_ = deps.Store.Update(ctx, jobID, job.Update{Status: job.StatusFailed, Step: step})
	deps.Bridge.Failed(ctx, jobID, step, cause)
	return errors.NewStageError(step, cause)
}
