package dag

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/collaborator"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/log"
	"github.com/livepeer/clipper-core/progress"
	"github.com/livepeer/clipper-core/stage/analyst"
	"github.com/livepeer/clipper-core/stage/editor"
	"github.com/livepeer/clipper-core/stage/transcriber"
)

// Collaborators are the external-system implementations the three composed
// stages need. The same concrete types the broker workers use are expected
// here (§4.8's "same artifacts at the same paths" guarantee depends on it).
type Collaborators struct {
	Downloader   collaborator.Downloader
	Transcriber  collaborator.Transcriber
	LLM          collaborator.LLM
	Cutter       collaborator.Cutter
	Screenwriter collaborator.Screenwriter
}

// Executor runs one recorded job's transcribe -> analyse -> edit chain
// in-process (§4.8).
type Executor struct {
	Collaborators Collaborators
	DataDir       string

	ChunkDuration             time.Duration
	ChunkOverlap              time.Duration
	MissingArtifactRetryDelay time.Duration
}

// capturedPublish is a single-envelope broker.Publisher double: each stage
// package publishes exactly one message on success, so capturing it is
// enough to hand the payload straight to the next node without a broker.
type capturedPublish struct {
	env broker.Envelope
	got bool
}

func (c *capturedPublish) Publish(ctx context.Context, queue string, env broker.Envelope) error {
	c.env = env
	c.got = true
	return nil
}

// Run executes the DAG for one job, updating state in place. It never
// returns an error itself: failures are recorded on state.Err and
// state.Status, matching §4.8's "subsequent nodes observe it and skip their
// work" contract.
func (e Executor) Run(ctx context.Context, state *State, progressFn ProgressFunc) {
	store := job.NewMemStore()
	_ = store.Initialize(ctx, job.Job{
		JobID:            state.JobID,
		SourceURL:        state.SourceURL,
		Kind:             job.KindRecorded,
		MaxHighlights:    state.MaxHighlights,
		IncludeSubtitles: state.IncludeSubtitles,
		SubtitleStyle:    state.SubtitleStyle,
	})

	bridge := progress.NewBridge(CallbackSink{Fn: progressFn})

	state.Status = StatusTranscribing
	transcribeOut, err := recovered(func() (transcriber.AnalysePayload, error) {
		pub := &capturedPublish{}
		env, err := broker.NewEnvelope(state.JobID, "transcribe", transcriber.Payload{URL: state.SourceURL})
		if err != nil {
			return transcriber.AnalysePayload{}, err
		}
		if err := transcriber.Handle(ctx, transcriber.Deps{
			Store:       store,
			Publisher:   pub,
			Bridge:      bridge,
			Downloader:  e.Collaborators.Downloader,
			Transcriber: e.Collaborators.Transcriber,
			DataDir:     e.DataDir,
		}, env); err != nil {
			return transcriber.AnalysePayload{}, err
		}
		var out transcriber.AnalysePayload
		if !pub.got {
			return out, fmt.Errorf("transcribe node produced no output")
		}
		return out, pub.env.Decode(&out)
	})
	if err != nil {
		e.fail(state, err)
		return
	}
	state.TranscriptionPath = transcribeOut.TranscriptionPath

	state.Status = StatusAnalyzing
	analyseOut, err := recovered(func() (analyst.EditPayload, error) {
		pub := &capturedPublish{}
		env, err := broker.NewEnvelope(state.JobID, "analyse", analyst.Payload{
			TranscriptionPath: transcribeOut.TranscriptionPath,
			VideoPath:         transcribeOut.VideoPath,
		})
		if err != nil {
			return analyst.EditPayload{}, err
		}
		if err := analyst.Handle(ctx, analyst.Deps{
			Store:                     store,
			Publisher:                 pub,
			Bridge:                    bridge,
			LLM:                       e.Collaborators.LLM,
			DataDir:                   e.DataDir,
			ChunkDuration:             e.ChunkDuration,
			ChunkOverlap:              e.ChunkOverlap,
			MissingArtifactRetryDelay: e.MissingArtifactRetryDelay,
		}, env); err != nil {
			return analyst.EditPayload{}, err
		}
		var out analyst.EditPayload
		if !pub.got {
			return out, fmt.Errorf("analyse node produced no output")
		}
		return out, pub.env.Decode(&out)
	})
	if err != nil {
		e.fail(state, err)
		return
	}
	state.HighlightPath = analyseOut.HighlightPath

	state.Status = StatusEditing
	editOut, err := recovered(func() (editor.CompletedPayload, error) {
		pub := &capturedPublish{}
		env, err := broker.NewEnvelope(state.JobID, "edit", editor.Payload{
			HighlightPath: analyseOut.HighlightPath,
			VideoPath:     analyseOut.VideoPath,
		})
		if err != nil {
			return editor.CompletedPayload{}, err
		}
		if err := editor.Handle(ctx, editor.Deps{
			Store:                     store,
			Publisher:                 pub,
			Bridge:                    bridge,
			Cutter:                    e.Collaborators.Cutter,
			Screenwriter:              e.Collaborators.Screenwriter,
			DataDir:                   e.DataDir,
			MissingArtifactRetryDelay: e.MissingArtifactRetryDelay,
		}, env); err != nil {
			return editor.CompletedPayload{}, err
		}
		var out editor.CompletedPayload
		if !pub.got {
			return out, fmt.Errorf("edit node produced no output")
		}
		return out, pub.env.Decode(&out)
	})
	if err != nil {
		e.fail(state, err)
		return
	}

	state.OutputPath = editOut.FinalVideoPath
	state.ClipsPaths = editOut.ClipsPaths
	state.Status = StatusDone
}

func (e Executor) fail(state *State, err error) {
	state.Status = StatusFailed
	state.Err = err
}

// recovered runs f, converting a panic into an error so a single bad node
// can never take down the host process (mirrors broker.recovered, the same
// panic-safe pattern the broker-driven consumer loop uses).
func recovered[T any](f func() (T, error)) (t T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.LogNoRequestID("panic in dag node, recovering", "err", rec, "trace", string(debug.Stack()))
			err = fmt.Errorf("panic in dag node: %v", rec)
		}
	}()
	return f()
}
