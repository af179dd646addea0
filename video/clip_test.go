package video

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livepeer/clipper-core/job"
)

func TestCutRejectsNonPositiveDuration(t *testing.T) {
	cutter := FFmpegCutter{}
	err := cutter.Cut(context.Background(), "in.mp4", 0, 0, "out.mp4", "", job.SubtitleStyle{})
	require.Error(t, err)
}

func TestSubtitlesFilterWithNoStyleOverrides(t *testing.T) {
	filter := subtitlesFilter("/data/job1/clip_001.srt", job.SubtitleStyle{})
	require.Equal(t, "subtitles='/data/job1/clip_001.srt'", filter)
}

func TestSubtitlesFilterAppliesForceStyle(t *testing.T) {
	filter := subtitlesFilter("/data/job1/clip_001.srt", job.DefaultSubtitleStyle())
	require.Contains(t, filter, "force_style=")
	require.Contains(t, filter, "FontName=Arial")
	require.Contains(t, filter, "FontSize=18")
	require.Contains(t, filter, "MarginV=40")
}

func TestSubtitlesFilterEscapesColonsInPath(t *testing.T) {
	filter := subtitlesFilter("C:/data/job1/clip_001.srt", job.SubtitleStyle{})
	require.Contains(t, filter, "C\\:/data/job1/clip_001.srt")
}

func TestFormatTimestampClampsNegative(t *testing.T) {
	require.Equal(t, "00:00:00.000", formatTimestamp(-5))
	require.Equal(t, "00:00:05.000", formatTimestamp(5))
	require.Equal(t, "01:00:00.000", formatTimestamp(3600))
}
