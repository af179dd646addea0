// Package editor implements the EDIT stage worker: cuts one clip per
// highlight, optionally burning in subtitles, and emits advisory sibling
// artifacts for the first highlight (§4.7).
package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/livepeer/clipper-core/artifact"
	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/collaborator"
	"github.com/livepeer/clipper-core/config"
	"github.com/livepeer/clipper-core/errors"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/log"
	"github.com/livepeer/clipper-core/progress"
)

// Payload is the EDIT queue's message body, published by the analyst stage
// (§4.6.4).
type Payload struct {
	HighlightPath string `json:"highlight_path"`
	VideoPath     string `json:"video_path"`
}

// CompletedPayload is published to COMPLETED on success (§4.7).
type CompletedPayload struct {
	FinalVideoPath    string   `json:"final_video_path"`
	OriginalVideoPath string   `json:"original_video_path"`
	HighlightJSONPath string   `json:"highlight_json_path"`
	ClipsPaths        []string `json:"clips_paths"`
}

// Publisher is the narrow slice of broker.Publisher this stage depends on.
type Publisher interface {
	Publish(ctx context.Context, queue string, env broker.Envelope) error
}

// EndBeforeStartPolicy governs what happens when the analyst emits a
// highlight whose end <= start (§5 validation failure kind, §9 Open
// Question decision). FallbackFiveSeconds widens the highlight by
// config.EditorEndBeforeStartFallback; Strict skips the highlight entirely.
type EndBeforeStartPolicy int

const (
	FallbackFiveSeconds EndBeforeStartPolicy = iota
	Strict
)

type Deps struct {
	Store        job.Store
	Publisher    Publisher
	Bridge       *progress.Bridge
	Cutter       collaborator.Cutter
	Screenwriter collaborator.Screenwriter
	DataDir      string

	// EndBeforeStartPolicy defaults to FallbackFiveSeconds (the zero value).
	EndBeforeStartPolicy EndBeforeStartPolicy

	// MissingArtifactRetryDelay parameterizes §7 kind 3's retry loop; tests
	// set this to 0 to run instantly.
	MissingArtifactRetryDelay time.Duration
}

// Handle processes one EDIT delivery (§4.7).
func Handle(ctx context.Context, deps Deps, env broker.Envelope) error {
	var p Payload
	if err := env.Decode(&p); err != nil {
		return errors.NewStageError("edit_malformed", err)
	}
	if p.HighlightPath == "" {
		return errors.NewStageError("edit_malformed", fmt.Errorf("missing highlight_path"))
	}

	deps.Bridge.Waypoint(ctx, env.JobID, progress.StageEdit, 0, "reading highlights")

	highlightPath, err := resolveArtifact(deps.DataDir, env.JobID, p.HighlightPath, deps.MissingArtifactRetryDelay)
	if err != nil {
		return fail(ctx, deps, env.JobID, "edit_missing_input", err)
	}

	raw, err := os.ReadFile(highlightPath)
	if err != nil {
		return fail(ctx, deps, env.JobID, "edit_missing_input", err)
	}

	highlights, err := normalizeHighlights(raw)
	if err != nil {
		return fail(ctx, deps, env.JobID, "edit_failed", err)
	}

	var includeSubtitles bool
	var style job.SubtitleStyle
	if j, ok, _ := deps.Store.Get(ctx, env.JobID); ok {
		includeSubtitles = j.IncludeSubtitles
		style = j.SubtitleStyle
	}

	layout := artifact.NewLayout(deps.DataDir, env.JobID)
	if err := layout.EnsureDirs(); err != nil {
		return fail(ctx, deps, env.JobID, "edit_failed", err)
	}

	var transcriptSegments []collaborator.TranscriptSegment
	if transcriptRaw, err := os.ReadFile(layout.TranscriptionPath()); err == nil {
		var t collaborator.Transcript
		if err := json.Unmarshal(transcriptRaw, &t); err == nil {
			transcriptSegments = t.Segments
		}
	}

	deps.Bridge.Waypoint(ctx, env.JobID, progress.StageEdit, 0.3, fmt.Sprintf("cutting %d highlights", len(highlights)))

	var clipsPaths []string
	for i, h := range highlights {
		index := i + 1

		start := math.Max(0, h.Start)
		end := h.End
		if end <= start {
			if deps.EndBeforeStartPolicy == Strict {
				log.LogNoRequestID(fmt.Sprintf("editor: highlight %d has end <= start, strict mode skips it", index), "job_id", env.JobID)
				continue
			}
			log.LogNoRequestID(fmt.Sprintf("editor: highlight %d has end <= start, applying fallback", index), "job_id", env.JobID)
			end = start + config.EditorEndBeforeStartFallback.Seconds()
		}
		duration := end - start

		withSubs := includeSubtitles && len(transcriptSegments) > 0
		clipPath := layout.ClipPath(index, start, duration, withSubs)

		var subtitlePath string
		var clipSegments []collaborator.TranscriptSegment
		if withSubs {
			clipSegments = clipTranscript(transcriptSegments, start, end)
			subtitlePath = layout.SiblingSRT(clipPath) + ".tmp"
			if err := writeSRT(subtitlePath, clipSegments); err != nil {
				log.LogError(env.JobID, fmt.Sprintf("editor: highlight %d subtitle build failed, cutting without subs", index), err)
				subtitlePath = ""
			}
		}

		cutErr := deps.Cutter.Cut(ctx, p.VideoPath, start, duration, clipPath, subtitlePath, style)
		if subtitlePath != "" {
			_ = os.Remove(subtitlePath)
		}
		if cutErr != nil {
			log.LogError(env.JobID, fmt.Sprintf("editor: highlight %d cut failed, skipping", index), cutErr)
			continue
		}

		clipsPaths = append(clipsPaths, clipPath)

		if index == 1 {
			emitSiblingArtifacts(ctx, deps, env.JobID, p.VideoPath, clipPath, clipSegments, start, end)
		}
	}

	if len(clipsPaths) == 0 {
		return fail(ctx, deps, env.JobID, "edit_failed", fmt.Errorf("all %d highlight cuts failed", len(highlights)))
	}

	completedEnv, err := broker.NewEnvelope(env.JobID, "completed", CompletedPayload{
		FinalVideoPath:    clipsPaths[0],
		OriginalVideoPath: p.VideoPath,
		HighlightJSONPath: highlightPath,
		ClipsPaths:        clipsPaths,
	})
	if err != nil {
		return fail(ctx, deps, env.JobID, "edit_failed", err)
	}
	if err := deps.Publisher.Publish(ctx, broker.QueueCompleted, completedEnv); err != nil {
		return fail(ctx, deps, env.JobID, "edit_failed", err)
	}

	outputPath := clipsPaths[0]
	_ = deps.Store.Update(ctx, env.JobID, job.Update{Status: job.StatusCompleted, Step: "completed", OutputPath: &outputPath})
	deps.Bridge.Completed(ctx, env.JobID)

	return nil
}

// emitSiblingArtifacts produces the first highlight's advisory sibling
// files: .srt, .vtt, and a middle-frame thumbnail. Failures here are logged
// but never fail the clip (§4.7).
func emitSiblingArtifacts(ctx context.Context, deps Deps, jobID, videoPath, clipPath string, segments []collaborator.TranscriptSegment, start, end float64) {
	if len(segments) > 0 {
		if err := writeSRT(layoutSiblingSRT(deps, jobID, clipPath), segments); err != nil {
			log.LogNoRequestID("editor: sibling srt failed", "job_id", jobID, "err", err)
		}
		if err := writeVTT(layoutSiblingVTT(deps, jobID, clipPath), segments); err != nil {
			log.LogNoRequestID("editor: sibling vtt failed", "job_id", jobID, "err", err)
		}
	}

	if deps.Screenwriter == nil {
		return
	}
	mid := start + (end-start)/2
	thumbPath := artifact.NewLayout(deps.DataDir, jobID).SiblingThumb(clipPath)
	if err := deps.Screenwriter.ExtractThumbnail(ctx, videoPath, mid, thumbPath); err != nil {
		log.LogNoRequestID("editor: sibling thumbnail failed", "job_id", jobID, "err", err)
	}
}

func layoutSiblingSRT(deps Deps, jobID, clipPath string) string {
	return artifact.NewLayout(deps.DataDir, jobID).SiblingSRT(clipPath)
}

func layoutSiblingVTT(deps Deps, jobID, clipPath string) string {
	return artifact.NewLayout(deps.DataDir, jobID).SiblingVTT(clipPath)
}

// clipTranscript projects every ASR segment overlapping [start, end] into
// the clip's local time frame: intersect with [start, end], subtract
// start, discard non-overlapping segments, and widen zero-length survivors
// to 0.5s (§4.7 step 3).
func clipTranscript(segments []collaborator.TranscriptSegment, start, end float64) []collaborator.TranscriptSegment {
	var out []collaborator.TranscriptSegment
	for _, seg := range segments {
		s := math.Max(seg.Start, start)
		e := math.Min(seg.End, end)
		if e < s {
			continue
		}
		localStart := s - start
		localEnd := e - start
		if localEnd <= localStart {
			localEnd = localStart + 0.5
		}
		out = append(out, collaborator.TranscriptSegment{Start: localStart, End: localEnd, Text: seg.Text})
	}
	return out
}

type highlightsDoc struct {
	Highlights []collaborator.Highlight `json:"highlights"`
}

// normalizeHighlights accepts each of the three shapes from §4.7: canonical
// {highlights:[...]}, a bare list, or a single-highlight dict in either the
// canonical or legacy Portuguese field names (R3).
func normalizeHighlights(raw []byte) ([]collaborator.Highlight, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty highlights payload")
	}

	if trimmed[0] == '[' {
		var list []collaborator.Highlight
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("bare highlights list: %w", err)
		}
		return list, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, fmt.Errorf("highlights payload is not a JSON object or array: %w", err)
	}

	if field, ok := probe["highlights"]; ok {
		var list []collaborator.Highlight
		if err := json.Unmarshal(field, &list); err != nil {
			return nil, fmt.Errorf("canonical highlights field: %w", err)
		}
		return list, nil
	}

	if _, ok := probe["highlight_inicio_segundos"]; ok {
		var legacy struct {
			InicioSegundos float64 `json:"highlight_inicio_segundos"`
			FimSegundos    float64 `json:"highlight_fim_segundos"`
			RespostaBruta  string  `json:"resposta_bruta,omitempty"`
		}
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return nil, fmt.Errorf("legacy highlight dict: %w", err)
		}
		return []collaborator.Highlight{{
			Start:   legacy.InicioSegundos,
			End:     legacy.FimSegundos,
			Summary: legacy.RespostaBruta,
		}}, nil
	}

	if _, ok := probe["start"]; ok {
		var h collaborator.Highlight
		if err := json.Unmarshal(trimmed, &h); err != nil {
			return nil, fmt.Errorf("single highlight dict: %w", err)
		}
		return []collaborator.Highlight{h}, nil
	}

	return nil, fmt.Errorf("highlights payload matches no known shape")
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
	if found, ok := artifact.FindByBasename(layout.Root(), basename(path)); ok {
		return found, nil
	}
	return "", fmt.Errorf("artifact not found: %s", path)
}

func basename(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func fail(ctx context.Context, deps Deps, jobID, step string, cause error) error {
	_ = deps.Store.Update(ctx, jobID, job.Update{Status: job.StatusFailed, Step: step})
	deps.Bridge.Failed(ctx, jobID, step, cause)
	return errors.NewStageError(step, cause)
}
