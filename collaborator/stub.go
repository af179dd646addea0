package collaborator

import (
	"context"
	"errors"

	"github.com/livepeer/clipper-core/job"
)

// Stub collaborators: function-field test doubles in the same shape as this
// repo's pipeline handler stubs, so tests can wire only the behavior they
// care about and get "not implemented" for the rest.

type StubDownloader struct {
	DownloadFn func(ctx context.Context, url, outPath string) error
}

func (s StubDownloader) Download(ctx context.Context, url, outPath string) error {
	if s.DownloadFn == nil {
		return errors.New("not implemented")
	}
	return s.DownloadFn(ctx, url, outPath)
}

type StubTranscriber struct {
	TranscribeFn func(ctx context.Context, filePath string) (Transcript, error)
}

func (s StubTranscriber) Transcribe(ctx context.Context, filePath string) (Transcript, error) {
	if s.TranscribeFn == nil {
		return Transcript{}, errors.New("not implemented")
	}
	return s.TranscribeFn(ctx, filePath)
}

type StubLLM struct {
	GenerateFn func(ctx context.Context, prompt string) (LLMResult, error)
}

func (s StubLLM) Generate(ctx context.Context, prompt string) (LLMResult, error) {
	if s.GenerateFn == nil {
		return LLMResult{}, errors.New("not implemented")
	}
	return s.GenerateFn(ctx, prompt)
}

type StubCutter struct {
	CutFn func(ctx context.Context, input string, startSecs, durationSecs float64, output, subtitlePath string, style job.SubtitleStyle) error
}

func (s StubCutter) Cut(ctx context.Context, input string, startSecs, durationSecs float64, output, subtitlePath string, style job.SubtitleStyle) error {
	if s.CutFn == nil {
		return errors.New("not implemented")
	}
	return s.CutFn(ctx, input, startSecs, durationSecs, output, subtitlePath, style)
}

type StubScreenwriter struct {
	ExtractThumbnailFn func(ctx context.Context, input string, atSecs float64, outPath string) error
}

func (s StubScreenwriter) ExtractThumbnail(ctx context.Context, input string, atSecs float64, outPath string) error {
	if s.ExtractThumbnailFn == nil {
		return errors.New("not implemented")
	}
	return s.ExtractThumbnailFn(ctx, input, atSecs, outPath)
}

type StubStreamCollector struct {
	CollectFn func(ctx context.Context, streamURL string, segmentDurationSecs, maxDurationSecs int, outDir string) ([]string, error)
}

func (s StubStreamCollector) Collect(ctx context.Context, streamURL string, segmentDurationSecs, maxDurationSecs int, outDir string) ([]string, error) {
	if s.CollectFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.CollectFn(ctx, streamURL, segmentDurationSecs, maxDurationSecs, outDir)
}

// NoopScreenwriter satisfies Screenwriter by doing nothing successfully; the
// editor treats thumbnail/subtitle sibling artifacts as advisory (§4.7), so
// this is a legitimate default when no screenwriter is configured.
type NoopScreenwriter struct{}

func (NoopScreenwriter) ExtractThumbnail(ctx context.Context, input string, atSecs float64, outPath string) error {
	return nil
}
