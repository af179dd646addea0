package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int          { return &i }
func strPtr(s string) *string    { return &s }

func TestMemStoreInitializeSetsPendingState(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	err := s.Initialize(ctx, Job{JobID: "job1", SourceURL: "https://example/video.mp4", Kind: KindRecorded})
	require.NoError(t, err)

	got, ok, err := s.Get(ctx, "job1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StatusPending, got.Status)
	require.Equal(t, "START", got.CurrentStep)
	require.Equal(t, 0, got.ProgressPercent)
	require.False(t, got.CreatedAt.IsZero())
}

func TestMemStoreUpdateMergesPartialPatch(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx, Job{JobID: "job1"}))

	err := s.Update(ctx, "job1", Update{
		Status:          StatusProcessing,
		Step:            "transcribe",
		ProgressPercent: intPtr(10),
		ProgressMessage: strPtr("downloading"),
	})
	require.NoError(t, err)

	got, ok, err := s.Get(ctx, "job1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StatusProcessing, got.Status)
	require.Equal(t, "transcribe", got.CurrentStep)
	require.Equal(t, 10, got.ProgressPercent)
	require.Equal(t, "downloading", got.ProgressMessage)
}

func TestMemStoreUpdateOfUnknownJobIsSilentNoOp(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	err := s.Update(ctx, "missing", Update{Status: StatusFailed})
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestJobIsTerminal(t *testing.T) {
	require.False(t, Job{Status: StatusPending}.IsTerminal())
	require.False(t, Job{Status: StatusProcessing}.IsTerminal())
	require.True(t, Job{Status: StatusCompleted}.IsTerminal())
	require.True(t, Job{Status: StatusFailed}.IsTerminal())
}
