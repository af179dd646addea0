package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultiSinkFansOutToAllSinks(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := MultiSink{a, b}

	err := m.UpdateProgress(context.Background(), "job1", "PROCESSING", "transcribe", 10, "working")
	require.NoError(t, err)
	require.Len(t, a.updates, 1)
	require.Len(t, b.updates, 1)
}

func TestMultiSinkSkipsNilEntriesAndReturnsFirstError(t *testing.T) {
	failing := &erroringSink{err: errors.New("boom")}
	m := MultiSink{nil, failing, &recordingSink{}}

	err := m.UpdateProgress(context.Background(), "job1", "PROCESSING", "transcribe", 10, "working")
	require.EqualError(t, err, "boom")
}

type erroringSink struct{ err error }

func (s *erroringSink) UpdateProgress(ctx context.Context, jobID, status, step string, percent int, message string) error {
	return s.err
}
