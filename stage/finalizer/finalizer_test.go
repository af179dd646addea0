package finalizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/progress"
)

func TestHandleIgnoresTopLevelJobs(t *testing.T) {
	store := job.NewMemStore()
	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "solo"}))

	deps := Deps{Store: store, Bridge: progress.NewBridge(job.StoreSink{Store: store})}

	env, err := broker.NewEnvelope("solo", "completed", struct{}{})
	require.NoError(t, err)

	require.NoError(t, Handle(context.Background(), deps, env))

	j, ok, _ := store.Get(context.Background(), "solo")
	require.True(t, ok)
	require.Equal(t, job.StatusPending, j.Status)
}

func TestHandleCompletesParentOnLastSegment(t *testing.T) {
	store := job.NewMemStore()
	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "parent"}))
	publishedCopy := 2
	require.NoError(t, store.Update(context.Background(), "parent", job.Update{
		Status:            job.StatusProcessing,
		SegmentsPublished: &publishedCopy,
	}))

	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "parent_seg000", ParentJobID: "parent"}))
	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "parent_seg001", ParentJobID: "parent"}))

	deps := Deps{Store: store, Bridge: progress.NewBridge(job.StoreSink{Store: store})}

	env0, err := broker.NewEnvelope("parent_seg000", "completed", struct{}{})
	require.NoError(t, err)
	require.NoError(t, Handle(context.Background(), deps, env0))

	p, ok, _ := store.Get(context.Background(), "parent")
	require.True(t, ok)
	require.Equal(t, job.StatusProcessing, p.Status)
	require.Equal(t, 1, p.SegmentsCompleted)

	env1, err := broker.NewEnvelope("parent_seg001", "completed", struct{}{})
	require.NoError(t, err)
	require.NoError(t, Handle(context.Background(), deps, env1))

	p, ok, _ = store.Get(context.Background(), "parent")
	require.True(t, ok)
	require.Equal(t, job.StatusCompleted, p.Status)
	require.Equal(t, 2, p.SegmentsCompleted)
}

func TestHandleIgnoresDeliveryForAlreadyTerminalParent(t *testing.T) {
	store := job.NewMemStore()
	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "parent"}))
	require.NoError(t, store.Update(context.Background(), "parent", job.Update{Status: job.StatusFailed, Step: "collect_failed"}))
	require.NoError(t, store.Initialize(context.Background(), job.Job{JobID: "parent_seg000", ParentJobID: "parent"}))

	deps := Deps{Store: store, Bridge: progress.NewBridge(job.StoreSink{Store: store})}

	env, err := broker.NewEnvelope("parent_seg000", "completed", struct{}{})
	require.NoError(t, err)
	require.NoError(t, Handle(context.Background(), deps, env))

	p, ok, _ := store.Get(context.Background(), "parent")
	require.True(t, ok)
	require.Equal(t, job.StatusFailed, p.Status)
	require.Equal(t, 0, p.SegmentsCompleted)
}

func TestHandleUnknownChildIsNoop(t *testing.T) {
	store := job.NewMemStore()
	deps := Deps{Store: store, Bridge: progress.NewBridge(job.StoreSink{Store: store})}

	env, err := broker.NewEnvelope("ghost", "completed", struct{}{})
	require.NoError(t, err)
	require.NoError(t, Handle(context.Background(), deps, env))
}
