package video

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFFmpegStreamCollectorRejectsNonPositiveDurations(t *testing.T) {
	c := FFmpegStreamCollector{}

	_, err := c.Collect(context.Background(), "rtmp://example.com/live", 0, 300, t.TempDir())
	require.Error(t, err)

	_, err = c.Collect(context.Background(), "rtmp://example.com/live", 30, 0, t.TempDir())
	require.Error(t, err)
}
