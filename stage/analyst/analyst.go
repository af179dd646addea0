// Package analyst implements the ANALYSE stage worker: LLM-driven
// highlight extraction wrapping the pure chunk/reduce algorithm in
// github.com/livepeer/clipper-core/analyst (§4.6).
package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	mapreduce "github.com/livepeer/clipper-core/analyst"
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

// Payload is the ANALYSE queue's message body (§4.6).
type Payload struct {
	TranscriptionPath string `json:"transcription_path"`
	VideoPath         string `json:"video_path"`
}

// EditPayload is published to EDIT on success (§4.6.4).
type EditPayload struct {
	HighlightPath string `json:"highlight_path"`
	VideoPath     string `json:"video_path"`
}

type highlightsDoc struct {
	Highlights []collaborator.Highlight `json:"highlights"`
}

// Publisher is the narrow slice of broker.Publisher this stage depends on.
type Publisher interface {
	Publish(ctx context.Context, queue string, env broker.Envelope) error
}

type Deps struct {
	Store     job.Store
	Publisher Publisher
	Bridge    *progress.Bridge
	LLM       collaborator.LLM
	DataDir   string

	ChunkDuration time.Duration
	ChunkOverlap  time.Duration

	// DirectModeCharLimit overrides config.DefaultDirectModeCharLimit when
	// non-zero (§9 Open Question decision, tunable per spec.md §4.6.1).
	DirectModeCharLimit int

	// MissingArtifactRetryDelay parameterizes §7 kind 3's retry loop; tests
	// set this to 0 to run instantly; the analyst worker binary sets 1s.
	MissingArtifactRetryDelay time.Duration
}

// Handle processes one ANALYSE delivery (§4.6).
func Handle(ctx context.Context, deps Deps, env broker.Envelope) error {
	var p Payload
	if err := env.Decode(&p); err != nil {
		return errors.NewStageError("analyse_malformed", err)
	}
	if p.TranscriptionPath == "" {
		return errors.NewStageError("analyse_malformed", fmt.Errorf("missing transcription_path"))
	}

	deps.Bridge.Waypoint(ctx, env.JobID, progress.StageAnalyse, 0, "loading transcript")

	transcriptPath, err := resolveArtifact(deps.DataDir, env.JobID, p.TranscriptionPath, deps.MissingArtifactRetryDelay)
	if err != nil {
		return fail(ctx, deps, env.JobID, "analyse_missing_transcription", err)
	}

	raw, err := os.ReadFile(transcriptPath)
	if err != nil {
		return fail(ctx, deps, env.JobID, "analyse_missing_transcription", err)
	}

	var transcript collaborator.Transcript
	if err := json.Unmarshal(raw, &transcript); err != nil {
		return fail(ctx, deps, env.JobID, "analyse_failed", fmt.Errorf("transcript json malformed: %w", err))
	}

	maxHighlights := config.DefaultMaxHighlights
	if j, ok, _ := deps.Store.Get(ctx, env.JobID); ok && j.MaxHighlights > 0 {
		maxHighlights = j.MaxHighlights
	}

	directModeCharLimit := deps.DirectModeCharLimit
	if directModeCharLimit == 0 {
		directModeCharLimit = config.DefaultDirectModeCharLimit
	}

	var candidates []collaborator.Highlight
	if len(transcript.Text) <= directModeCharLimit {
		candidates, err = deps.direct(ctx, env.JobID, transcript)
		if err != nil {
			return fail(ctx, deps, env.JobID, "analyse_failed", err)
		}
	} else {
		candidates, err = deps.chunked(ctx, env.JobID, transcript)
		if err != nil {
			return fail(ctx, deps, env.JobID, "analyse_failed", err)
		}
	}

	final := mapreduce.Reduce(candidates, maxHighlights)
	if len(final) == 0 {
		return fail(ctx, deps, env.JobID, "analyse_failed", fmt.Errorf("reduce produced zero highlights"))
	}
	metrics.Metrics.HighlightCount.Observe(float64(len(final)))

	layout := artifact.NewLayout(deps.DataDir, env.JobID)
	if err := layout.EnsureDirs(); err != nil {
		return fail(ctx, deps, env.JobID, "analyse_failed", err)
	}

	out, err := json.MarshalIndent(highlightsDoc{Highlights: final}, "", "  ")
	if err != nil {
		return fail(ctx, deps, env.JobID, "analyse_failed", err)
	}
	if err := os.WriteFile(layout.HighlightsPath(), out, 0o644); err != nil {
		return fail(ctx, deps, env.JobID, "analyse_failed", err)
	}

	editEnv, err := broker.NewEnvelope(env.JobID, "edit", EditPayload{
		HighlightPath: layout.HighlightsPath(),
		VideoPath:     p.VideoPath,
	})
	if err != nil {
		return fail(ctx, deps, env.JobID, "analyse_failed", err)
	}
	if err := deps.Publisher.Publish(ctx, broker.QueueEdit, editEnv); err != nil {
		return fail(ctx, deps, env.JobID, "analyse_failed", err)
	}

	_ = deps.Store.Update(ctx, env.JobID, job.Update{Status: job.StatusProcessing, Step: "edit"})
	deps.Bridge.Waypoint(ctx, env.JobID, progress.StageAnalyse, 1, "highlights ready")

	return nil
}

// direct issues a single LLM call against the whole transcript (§4.6.1).
func (deps Deps) direct(ctx context.Context, jobID string, transcript collaborator.Transcript) ([]collaborator.Highlight, error) {
	metrics.Metrics.ChunkCount.Observe(1)
	result, err := deps.LLM.Generate(ctx, directPrompt(transcript))
	if err != nil {
		return nil, err
	}
	return parseHighlights(result)
}

// chunked implements the map phase of §4.6.2: split into overlapping chunks,
// call the LLM once per chunk, and discard out-of-range or failed chunks.
func (deps Deps) chunked(ctx context.Context, jobID string, transcript collaborator.Transcript) ([]collaborator.Highlight, error) {
	segments := transcript.Segments
	if len(segments) == 0 && transcript.Text != "" {
		// B5: empty segments list with non-empty text -> one chunk covering
		// the whole text.
		segments = []collaborator.TranscriptSegment{{Start: 0, End: transcript.Duration, Text: transcript.Text}}
	}

	chunkDuration := deps.ChunkDuration
	if chunkDuration == 0 {
		chunkDuration = config.DefaultChunkDurationSecs * time.Second
	}
	chunkOverlap := deps.ChunkOverlap
	if chunkOverlap == 0 {
		chunkOverlap = config.DefaultChunkOverlapSecs * time.Second
	}

	chunks := mapreduce.ChunkTranscript(segments, chunkDuration, chunkOverlap)
	metrics.Metrics.ChunkCount.Observe(float64(len(chunks)))

	var candidates []collaborator.Highlight
	for i, chunk := range chunks {
		result, err := deps.LLM.Generate(ctx, chunkPrompt(chunk))
		if err != nil {
			log.LogError(jobID, fmt.Sprintf("analyst: chunk %d LLM call failed, skipping", i), err)
			continue
		}

		highlights, err := parseHighlights(result)
		if err != nil {
			log.LogError(jobID, fmt.Sprintf("analyst: chunk %d response invalid, skipping", i), err)
			continue
		}

		for _, h := range highlights {
			if mapreduce.ValidDuringChunk(h, chunk.Start, chunk.End) {
				candidates = append(candidates, h)
			}
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no chunk yielded a valid highlight")
	}
	return candidates, nil
}

func directPrompt(t collaborator.Transcript) string {
	return fmt.Sprintf("Return JSON {highlights:[{start,end,summary?,score?}]} for the most noteworthy moments in this transcript:\n\n%s", t.Text)
}

func chunkPrompt(c mapreduce.Chunk) string {
	var sb strings.Builder
	for _, seg := range c.Segments {
		sb.WriteString(seg.Text)
		sb.WriteString(" ")
	}
	return fmt.Sprintf(
		"Return JSON {highlights:[{start,end,summary?,score?}]} with 3-5 highlights whose start/end fall within [%g, %g] seconds, drawn from this excerpt:\n\n%s",
		c.Start, c.End, sb.String(),
	)
}

// parseHighlights validates and decodes one LLM reply against the
// structured-output contract (§4.6, §6). Any non-conforming reply, empty
// reply, or safety/length-limit stop condition is reported as an error, not
// silently worked around.
func parseHighlights(result collaborator.LLMResult) ([]collaborator.Highlight, error) {
	switch result.FinishReason {
	case collaborator.FinishReasonSafety:
		return nil, fmt.Errorf("llm response blocked: SAFETY")
	case collaborator.FinishReasonRecitation:
		return nil, fmt.Errorf("llm response blocked: RECITATION")
	case collaborator.FinishReasonMaxTokens:
		return nil, fmt.Errorf("llm response truncated: MAX_TOKENS")
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, fmt.Errorf("llm returned an empty response")
	}

	var parsed highlightsDoc
	if err := json.Unmarshal([]byte(result.Text), &parsed); err != nil {
		return nil, fmt.Errorf("llm response doesn't match highlights schema: %w", err)
	}

	for _, h := range parsed.Highlights {
		if !(h.Start < h.End) {
			return nil, fmt.Errorf("llm returned a highlight with start >= end (%g, %g)", h.Start, h.End)
		}
	}

	return parsed.Highlights, nil
}

// resolveArtifact implements §7 kind 3: a short fixed-backoff retry, then a
// basename search under the job's tree, then failure.
func resolveArtifact(dataDir, jobID, path string, retryDelay time.Duration) (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		if retryDelay > 0 {
			time.Sleep(retryDelay)
		}
	}

	layout := artifact.NewLayout(dataDir, jobID)
	if found, ok := artifact.FindByBasename(layout.Root(), filepath.Base(path)); ok {
		return found, nil
	}

	return "", fmt.Errorf("artifact not found: %s", path)
}

func fail(ctx context.Context, deps Deps, jobID, step string, cause error) error {
	_ = deps.Store.Update(ctx, jobID, job.Update{Status: job.StatusFailed, Step: step})
	deps.Bridge.Failed(ctx, jobID, step, cause)
	return errors.NewStageError(step, cause)
}
