package analyst

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/collaborator"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/progress"
)

type recordingPublisher struct {
	published []broker.Envelope
}

func (r *recordingPublisher) Publish(ctx context.Context, queue string, env broker.Envelope) error {
	r.published = append(r.published, env)
	return nil
}

func writeTranscript(t *testing.T, dir, jobID string, transcript collaborator.Transcript) string {
	t.Helper()
	jobDir := filepath.Join(dir, jobID)
	require.NoError(t, os.MkdirAll(jobDir, 0o755))
	path := filepath.Join(jobDir, "transcription.json")
	raw, err := json.Marshal(transcript)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestHandleDirectPathForShortTranscript(t *testing.T) {
	dir := t.TempDir()
	store := job.NewMemStore()
	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "job1", MaxHighlights: 3}))

	path := writeTranscript(t, dir, "job1", collaborator.Transcript{Text: "short transcript", Duration: 60})

	llm := collaborator.StubLLM{
		GenerateFn: func(ctx context.Context, prompt string) (collaborator.LLMResult, error) {
			return collaborator.LLMResult{
				FinishReason: collaborator.FinishReasonStop,
				Text:         `{"highlights":[{"start":0,"end":10,"score":90},{"start":20,"end":30,"score":80}]}`,
			}, nil
		},
	}
	pub := &recordingPublisher{}

	deps := Deps{
		Store:     store,
		Publisher: pub,
		Bridge:    progress.NewBridge(job.StoreSink{Store: store}),
		LLM:       llm,
		DataDir:   dir,
	}

	env, err := broker.NewEnvelope("job1", "analyse", Payload{TranscriptionPath: path})
	require.NoError(t, err)

	require.NoError(t, Handle(context.Background(), deps, env))
	require.Len(t, pub.published, 1)
	require.Equal(t, "edit", pub.published[0].Step)

	j, ok, _ := store.Get(context.Background(), "job1")
	require.True(t, ok)
	require.Equal(t, "edit", j.CurrentStep)
}

func TestHandleChunkedPathSkipsFailedChunks(t *testing.T) {
	dir := t.TempDir()
	store := job.NewMemStore()
	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "job2", MaxHighlights: 5}))

	longText := make([]byte, 25000)
	for i := range longText {
		longText[i] = 'a'
	}
	segments := []collaborator.TranscriptSegment{
		{Start: 0, End: 10, Text: "a"},
		{Start: 400, End: 410, Text: "b"}, // triggers a second chunk
	}
	path := writeTranscript(t, dir, "job2", collaborator.Transcript{Text: string(longText), Duration: 500, Segments: segments})

	calls := 0
	llm := collaborator.StubLLM{
		GenerateFn: func(ctx context.Context, prompt string) (collaborator.LLMResult, error) {
			calls++
			if calls == 1 {
				return collaborator.LLMResult{}, context.DeadlineExceeded // first chunk fails
			}
			return collaborator.LLMResult{
				FinishReason: collaborator.FinishReasonStop,
				Text:         `{"highlights":[{"start":370,"end":400,"score":70}]}`,
			}, nil
		},
	}
	pub := &recordingPublisher{}

	deps := Deps{
		Store:     store,
		Publisher: pub,
		Bridge:    progress.NewBridge(job.StoreSink{Store: store}),
		LLM:       llm,
		DataDir:   dir,
	}

	env, err := broker.NewEnvelope("job2", "analyse", Payload{TranscriptionPath: path})
	require.NoError(t, err)

	require.NoError(t, Handle(context.Background(), deps, env))
	require.Equal(t, 2, calls)
	require.Len(t, pub.published, 1)
}

func TestHandleSafetyBlockedLLMFailsJob(t *testing.T) {
	dir := t.TempDir()
	store := job.NewMemStore()
	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "job3"}))

	path := writeTranscript(t, dir, "job3", collaborator.Transcript{Text: "short", Duration: 10})

	llm := collaborator.StubLLM{
		GenerateFn: func(ctx context.Context, prompt string) (collaborator.LLMResult, error) {
			return collaborator.LLMResult{FinishReason: collaborator.FinishReasonSafety}, nil
		},
	}

	deps := Deps{
		Store:   store,
		Bridge:  progress.NewBridge(job.StoreSink{Store: store}),
		LLM:     llm,
		DataDir: dir,
	}

	env, err := broker.NewEnvelope("job3", "analyse", Payload{TranscriptionPath: path})
	require.NoError(t, err)

	err = Handle(context.Background(), deps, env)
	require.Error(t, err)

	j, ok, _ := store.Get(context.Background(), "job3")
	require.True(t, ok)
	require.Equal(t, job.StatusFailed, j.Status)
	require.Equal(t, "analyse_failed", j.CurrentStep)

	_, statErr := os.Stat(filepath.Join(dir, "job3", "highlights.json"))
	require.True(t, os.IsNotExist(statErr))
}

func TestHandleMissingTranscriptFindsByBasenameOrFails(t *testing.T) {
	dir := t.TempDir()
	store := job.NewMemStore()
	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "job4"}))

	deps := Deps{
		Store:                     store,
		Bridge:                    progress.NewBridge(job.StoreSink{Store: store}),
		DataDir:                   dir,
		MissingArtifactRetryDelay: 0,
	}

	env, err := broker.NewEnvelope("job4", "analyse", Payload{TranscriptionPath: "/nonexistent.json"})
	require.NoError(t, err)

	err = Handle(context.Background(), deps, env)
	require.Error(t, err)

	j, ok, _ := store.Get(context.Background(), "job4")
	require.True(t, ok)
	require.Equal(t, "analyse_missing_transcription", j.CurrentStep)
}

func TestHandleRejectsMalformedEnvelope(t *testing.T) {
	dir := t.TempDir()
	store := job.NewMemStore()
	deps := Deps{Store: store, Bridge: progress.NewBridge(job.StoreSink{Store: store}), DataDir: dir}

	env, err := broker.NewEnvelope("job5", "analyse", Payload{})
	require.NoError(t, err)

	err = Handle(context.Background(), deps, env)
	require.Error(t, err)
}
