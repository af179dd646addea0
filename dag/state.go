// Package dag implements the in-process, synchronous alternative to the
// broker pipeline (§4.8): one recorded job run end-to-end in a single
// process by composing transcribe -> analyse -> edit as a three-node graph
// sharing a mutable state record, with progress delivered through an
// injected callback instead of the broker.
package dag

import (
	"context"

	"github.com/livepeer/clipper-core/job"
)

// Status is one of the DAG's five states (§4.8): transcribing -> analyzing
// -> editing -> done | failed.
type Status string

const (
	StatusTranscribing Status = "transcribing"
	StatusAnalyzing    Status = "analyzing"
	StatusEditing      Status = "editing"
	StatusDone         Status = "done"
	StatusFailed       Status = "failed"
)

// State is the DAG's shared mutable record. Every node reads and writes it;
// on any node's error, Err is populated and remaining nodes are skipped.
type State struct {
	JobID            string
	SourceURL        string
	MaxHighlights    int
	IncludeSubtitles bool
	SubtitleStyle    job.SubtitleStyle

	Status Status
	Err    error

	TranscriptionPath string
	HighlightPath     string
	OutputPath        string
	ClipsPaths        []string
}

// ProgressFunc mirrors progress.Sink's UpdateProgress signature so the DAG
// executor's caller can wire it to a UI callback, an in-memory struct, or a
// channel, without the dag package depending on any of those (§4.9).
type ProgressFunc func(jobID, status, step string, percent int, message string) error

// CallbackSink adapts a ProgressFunc to progress.Sink.
type CallbackSink struct {
	Fn ProgressFunc
}

func (c CallbackSink) UpdateProgress(ctx context.Context, jobID string, status string, step string, percent int, message string) error {
	if c.Fn == nil {
		return nil
	}
	return c.Fn(jobID, status, step, percent, message)
}
