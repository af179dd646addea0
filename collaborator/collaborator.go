// Package collaborator defines the external-system interfaces this pipeline
// treats as opaque black boxes (§1 "Deliberately out of scope", §6 "External
// interfaces"): the downloader, ASR engine, LLM vendor, cutter, stream
// collector, and screenwriter. The core never depends on a concrete media
// toolchain — only on these contracts.
package collaborator

import (
	"context"

	"github.com/livepeer/clipper-core/job"
)

// TranscriptSegment is one timed span of a transcript (§6 "Transcript JSON").
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the ASR collaborator's result (§6).
type Transcript struct {
	Text     string              `json:"text"`
	Language string              `json:"language"`
	Duration float64             `json:"duration"`
	Segments []TranscriptSegment `json:"segments"`
}

// Highlight is one candidate or final highlight interval (§4.6 output
// schema). Score is a pointer so the analyst can distinguish "missing" from
// an explicit zero when applying the §4.6.3 normalization rule.
type Highlight struct {
	Start   float64  `json:"start"`
	End     float64  `json:"end"`
	Summary string   `json:"summary,omitempty"`
	Score   *float64 `json:"score,omitempty"`
}

// Duration is the highlight's length in seconds.
func (h Highlight) Duration() float64 { return h.End - h.Start }

// LLM finish reasons the wrapper must distinguish and report (§6).
const (
	FinishReasonStop      = "STOP"
	FinishReasonMaxTokens = "MAX_TOKENS"
	FinishReasonSafety    = "SAFETY"
	FinishReasonRecitation = "RECITATION"
)

// LLMResult is the LLM collaborator's raw response (§6).
type LLMResult struct {
	Text          string
	FinishReason  string
	SafetyRatings []string
}

// Downloader materializes a source URL to a local file, bounded by a
// 10-minute wall clock (§6 "Downloader interface").
type Downloader interface {
	Download(ctx context.Context, url, outPath string) error
}

// Transcriber is the ASR engine. Implementations are expected to be
// process-lifetime singletons, lazily constructed on first use (§9
// "Single-process singletons").
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (Transcript, error)
}

// LLM is the generation collaborator (§6 "LLM collaborator interface").
type LLM interface {
	Generate(ctx context.Context, prompt string) (LLMResult, error)
}

// Cutter re-encodes a precise [start, start+duration) cut from input to
// output, optionally burning in a subtitle file with the given style
// (§6 "Cutter interface").
type Cutter interface {
	Cut(ctx context.Context, input string, startSecs, durationSecs float64, output string, subtitlePath string, style job.SubtitleStyle) error
}

// Screenwriter extracts the middle-frame thumbnail, the first highlight's
// advisory sibling artifact (§4.7); the editor writes subtitle files itself.
type Screenwriter interface {
	ExtractThumbnail(ctx context.Context, input string, atSecs float64, outPath string) error
}

// StreamCollector splits a live stream into N fixed-duration segment files
// under outDir, in deterministic order (§4.4).
type StreamCollector interface {
	Collect(ctx context.Context, streamURL string, segmentDurationSecs, maxDurationSecs int, outDir string) ([]string, error)
}

// URLClassifier decides whether a source URL names a recorded asset or a
// live stream, used by the CLI front-end (§4.11, §6).
type URLClassifier interface {
	Classify(ctx context.Context, url string) (job.Kind, error)
}
