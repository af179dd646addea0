// Package thumbnails implements collaborator.Screenwriter: extracting the
// single middle-frame thumbnail that rides along a clip's advisory sibling
// artifacts (§4.7 — first highlight only, best-effort, never fails the
// clip itself).
package thumbnails

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const resolution = "320:240"

// FFmpegScreenwriter extracts one scaled keyframe at a given timestamp using
// the same encoder toolchain the editor stage's cutter depends on.
type FFmpegScreenwriter struct{}

func (FFmpegScreenwriter) ExtractThumbnail(ctx context.Context, input string, atSecs float64, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var ffmpegErr bytes.Buffer
	err := ffmpeg.
		Input(input, ffmpeg.KwArgs{"ss": formatTimestamp(atSecs)}).
		Output(outPath, ffmpeg.KwArgs{
			"vframes": "1",
			"vf":      fmt.Sprintf("scale=%s:force_original_aspect_ratio=decrease", resolution),
		}).
		WithContext(ctx).
		OverWriteOutput().
		WithErrorOutput(&ffmpegErr).
		Run()
	if err != nil {
		return fmt.Errorf("thumbnail extraction failed for %s at %gs [%s]: %w", input, atSecs, ffmpegErr.String(), err)
	}
	return nil
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second))
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format("15:04:05.000")
}
