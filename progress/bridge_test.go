package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	updates []recordedUpdate
}

type recordedUpdate struct {
	jobID, status, step string
	percent              int
	message              string
}

func (s *recordingSink) UpdateProgress(ctx context.Context, jobID, status, step string, percent int, message string) error {
	s.updates = append(s.updates, recordedUpdate{jobID, status, step, percent, message})
	return nil
}

func TestBridgeWaypointScalesIntoStageBand(t *testing.T) {
	sink := &recordingSink{}
	b := NewBridge(sink)

	b.Waypoint(context.Background(), "job1", StageTranscribe, 0, "starting")
	b.Waypoint(context.Background(), "job1", StageTranscribe, 0.5, "halfway")
	b.Waypoint(context.Background(), "job1", StageAnalyse, 1, "done analysing")
	b.Waypoint(context.Background(), "job1", StageEdit, 1, "done editing")

	require.Len(t, sink.updates, 4)
	require.Equal(t, 0, sink.updates[0].percent)
	require.Equal(t, 17, sink.updates[1].percent)
	require.Equal(t, 66, sink.updates[2].percent)
	require.Equal(t, 100, sink.updates[3].percent)
}

func TestBridgeCompletedSetsTerminalState(t *testing.T) {
	sink := &recordingSink{}
	b := NewBridge(sink)

	b.Completed(context.Background(), "job1")

	require.Len(t, sink.updates, 1)
	require.Equal(t, "COMPLETED", sink.updates[0].status)
	require.Equal(t, 100, sink.updates[0].percent)
}

func TestBridgeFailedResetsPercentAndTruncatesMessage(t *testing.T) {
	sink := &recordingSink{}
	b := NewBridge(sink)

	longErr := errors.New(string(make([]byte, 400)))
	b.Failed(context.Background(), "job1", "analyse_failed", longErr)

	require.Len(t, sink.updates, 1)
	require.Equal(t, "FAILED", sink.updates[0].status)
	require.Equal(t, "analyse_failed", sink.updates[0].step)
	require.Equal(t, 0, sink.updates[0].percent)
	require.Len(t, sink.updates[0].message, 200)
}

func TestBridgeToleratesNilSink(t *testing.T) {
	b := NewBridge(nil)
	require.NotPanics(t, func() {
		b.Waypoint(context.Background(), "job1", StageTranscribe, 1, "ok")
	})
}

// A Bridge with no sink configured at all (zero value) must also be safe.
func TestZeroBridgeIsSafe(t *testing.T) {
	var b *Bridge
	require.NotPanics(t, func() {
		b.Completed(context.Background(), "job1")
	})
}
