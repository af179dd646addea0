package video

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/livepeer/clipper-core/job"
)

// FFmpegCutter implements collaborator.Cutter: a single re-encoded cut from
// input, optionally burning in an SRT subtitle track styled per
// job.SubtitleStyle (§6 "Cutter interface").
//
// Re-encoding settings mirror the segment-clipping defaults this pipeline's
// recorded-video path inherited: H.264 video, a fixed small GOP so seeking
// inside the clip stays frame-accurate, AAC audio.
type FFmpegCutter struct{}

const (
	gopSize          = 48
	sceneCutThreshold = 50
)

func (FFmpegCutter) Cut(ctx context.Context, input string, startSecs, durationSecs float64, output, subtitlePath string, style job.SubtitleStyle) error {
	if durationSecs <= 0 {
		return fmt.Errorf("cut duration must be positive, got %g", durationSecs)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	outputArgs := ffmpeg.KwArgs{
		"ss":           formatTimestamp(startSecs),
		"t":            formatTimestamp(durationSecs),
		"c:v":          "libx264",
		"c:a":          "aac",
		"g":            gopSize,
		"keyint_min":   gopSize,
		"sc_threshold": sceneCutThreshold,
	}
	if subtitlePath != "" {
		outputArgs["vf"] = subtitlesFilter(subtitlePath, style)
	}

	var ffmpegErr bytes.Buffer
	err := ffmpeg.
		Input(input).
		Output(output, outputArgs).
		WithContext(ctx).
		OverWriteOutput().
		WithErrorOutput(&ffmpegErr).
		Run()
	if err != nil {
		return fmt.Errorf("failed to cut clip from %s [%s]: %w", input, ffmpegErr.String(), err)
	}
	return nil
}

// subtitlesFilter builds the ffmpeg `subtitles` video filter with a
// force_style override matching the style contract from §6.
func subtitlesFilter(subtitlePath string, style job.SubtitleStyle) string {
	escaped := strings.ReplaceAll(subtitlePath, ":", "\\:")

	var forceStyle []string
	if style.FontName != "" {
		forceStyle = append(forceStyle, "FontName="+style.FontName)
	}
	if style.FontSize != 0 {
		forceStyle = append(forceStyle, fmt.Sprintf("FontSize=%d", style.FontSize))
	}
	if style.Primary != "" {
		forceStyle = append(forceStyle, "PrimaryColour="+style.Primary)
	}
	if style.Outline != "" {
		forceStyle = append(forceStyle, "OutlineColour="+style.Outline)
	}
	if style.OutlineWidth != 0 {
		forceStyle = append(forceStyle, fmt.Sprintf("Outline=%d", style.OutlineWidth))
	}
	if style.Background != "" {
		forceStyle = append(forceStyle, "BackColour="+style.Background)
	}
	if style.MarginV != 0 {
		forceStyle = append(forceStyle, fmt.Sprintf("MarginV=%d", style.MarginV))
	}

	if len(forceStyle) == 0 {
		return fmt.Sprintf("subtitles='%s'", escaped)
	}
	return fmt.Sprintf("subtitles='%s':force_style='%s'", escaped, strings.Join(forceStyle, ","))
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second))
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format("15:04:05.000")
}
