package dag

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livepeer/clipper-core/collaborator"
	"github.com/livepeer/clipper-core/job"
)

func TestRunDrivesAllThreeNodesToDone(t *testing.T) {
	dir := t.TempDir()

	downloader := collaborator.StubDownloader{
		DownloadFn: func(ctx context.Context, url, outPath string) error {
			return os.WriteFile(outPath, []byte("video bytes"), 0o644)
		},
	}
	asr := collaborator.StubTranscriber{
		TranscribeFn: func(ctx context.Context, filePath string) (collaborator.Transcript, error) {
			return collaborator.Transcript{Text: "hello world", Duration: 30}, nil
		},
	}
	llm := collaborator.StubLLM{
		GenerateFn: func(ctx context.Context, prompt string) (collaborator.LLMResult, error) {
			return collaborator.LLMResult{
				FinishReason: collaborator.FinishReasonStop,
				Text:         `{"highlights":[{"start":0,"end":10,"score":90}]}`,
			}, nil
		},
	}
	cutter := collaborator.StubCutter{
		CutFn: func(ctx context.Context, input string, startSecs, durationSecs float64, output, subtitlePath string, style job.SubtitleStyle) error {
			return os.WriteFile(output, []byte("clip"), 0o644)
		},
	}

	exec := Executor{
		Collaborators: Collaborators{
			Downloader:  downloader,
			Transcriber: asr,
			LLM:         llm,
			Cutter:      cutter,
		},
		DataDir: dir,
	}

	state := &State{JobID: "dagjob1", SourceURL: "https://example.com/v.mp4", MaxHighlights: 3}

	var waypoints []string
	exec.Run(context.Background(), state, func(jobID, status, step string, percent int, message string) error {
		waypoints = append(waypoints, step)
		return nil
	})

	require.NoError(t, state.Err)
	require.Equal(t, StatusDone, state.Status)
	require.FileExists(t, state.OutputPath)
	require.Len(t, state.ClipsPaths, 1)
	require.NotEmpty(t, waypoints)
}

func TestRunStopsAtFirstNodeFailure(t *testing.T) {
	dir := t.TempDir()

	downloader := collaborator.StubDownloader{
		DownloadFn: func(ctx context.Context, url, outPath string) error {
			return context.DeadlineExceeded
		},
	}

	exec := Executor{
		Collaborators: Collaborators{Downloader: downloader},
		DataDir:       dir,
	}

	state := &State{JobID: "dagjob2", SourceURL: "https://example.com/v.mp4"}
	exec.Run(context.Background(), state, nil)

	require.Error(t, state.Err)
	require.Equal(t, StatusFailed, state.Status)
	require.Empty(t, state.OutputPath)
}
