package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/collaborator"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/progress"
)

func envelope(t *testing.T, jobID string, p Payload) broker.Envelope {
	t.Helper()
	env, err := broker.NewEnvelope(jobID, "collect", p)
	require.NoError(t, err)
	return env
}

type recordingPublisher struct {
	published []broker.Envelope
}

func (r *recordingPublisher) Publish(ctx context.Context, queue string, env broker.Envelope) error {
	r.published = append(r.published, env)
	return nil
}

func TestHandlePublishesOneTranscribeMessagePerSegment(t *testing.T) {
	dir := t.TempDir()
	store := job.NewMemStore()
	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "parent1", Kind: job.KindStream}))

	stub := collaborator.StubStreamCollector{
		CollectFn: func(ctx context.Context, streamURL string, segmentDurationSecs, maxDurationSecs int, outDir string) ([]string, error) {
			return []string{outDir + "/segment_000.ts", outDir + "/segment_001.ts"}, nil
		},
	}
	pub := &recordingPublisher{}

	deps := Deps{
		Store:     store,
		Publisher: pub,
		Bridge:    progress.NewBridge(job.StoreSink{Store: store}),
		Collector: stub,
		DataDir:   dir,
	}

	err := Handle(context.Background(), deps, envelope(t, "parent1", Payload{StreamURL: "https://example/stream.m3u8"}))
	require.NoError(t, err)
	require.Len(t, pub.published, 2)
	require.Equal(t, "parent1_seg000", pub.published[0].JobID)
	require.Equal(t, "parent1_seg001", pub.published[1].JobID)

	j, ok, _ := store.Get(context.Background(), "parent1")
	require.True(t, ok)
	require.Equal(t, job.StatusProcessing, j.Status)
	require.Equal(t, 2, j.SegmentsPublished)

	child, ok, _ := store.Get(context.Background(), "parent1_seg000")
	require.True(t, ok)
	require.Equal(t, "parent1", child.ParentJobID)
	require.Equal(t, 2, child.TotalSegments)
}

func TestHandleFailsOnZeroSegments(t *testing.T) {
	dir := t.TempDir()
	store := job.NewMemStore()
	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "parent2", Kind: job.KindStream}))

	stub := collaborator.StubStreamCollector{
		CollectFn: func(ctx context.Context, streamURL string, segmentDurationSecs, maxDurationSecs int, outDir string) ([]string, error) {
			return nil, nil
		},
	}

	deps := Deps{
		Store:     store,
		Bridge:    progress.NewBridge(job.StoreSink{Store: store}),
		Collector: stub,
		DataDir:   dir,
	}

	err := Handle(context.Background(), deps, envelope(t, "parent2", Payload{StreamURL: "https://example/stream.m3u8"}))
	require.Error(t, err)

	j, ok, _ := store.Get(context.Background(), "parent2")
	require.True(t, ok)
	require.Equal(t, job.StatusFailed, j.Status)
	require.Equal(t, "collect_no_segments", j.CurrentStep)
}

func TestHandleRejectsMissingStreamURL(t *testing.T) {
	dir := t.TempDir()
	store := job.NewMemStore()
	deps := Deps{
		Store:  store,
		Bridge: progress.NewBridge(job.StoreSink{Store: store}),
		DataDir: dir,
	}
	err := Handle(context.Background(), deps, envelope(t, "parent3", Payload{}))
	require.Error(t, err)
}
