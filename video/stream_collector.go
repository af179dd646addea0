package video

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegStreamCollector implements collaborator.StreamCollector (§4.4): it
// drives the live source through ffmpeg's segment muxer, producing
// fixed-duration files directly under outDir in the `segment_NNN.ts` layout
// artifact.Layout.SegmentPath expects, so the collector stage never needs
// its own renaming pass.
type FFmpegStreamCollector struct{}

func (FFmpegStreamCollector) Collect(ctx context.Context, streamURL string, segmentDurationSecs, maxDurationSecs int, outDir string) ([]string, error) {
	if segmentDurationSecs <= 0 || maxDurationSecs <= 0 {
		return nil, fmt.Errorf("stream collector: segment/max duration must be positive")
	}

	// The capture itself runs for maxDurationSecs of stream time; allow a
	// generous grace period on top for muxer startup and remuxing overhead.
	ctx, cancel := context.WithTimeout(ctx, time.Duration(maxDurationSecs)*time.Second+2*time.Minute)
	defer cancel()

	pattern := filepath.Join(outDir, "segment_%03d.ts")

	var ffmpegErr bytes.Buffer
	err := ffmpeg.
		Input(streamURL).
		Output(pattern, ffmpeg.KwArgs{
			"c":               "copy",
			"f":               "segment",
			"segment_time":    segmentDurationSecs,
			"t":               maxDurationSecs,
			"reset_timestamps": "1",
		}).
		WithContext(ctx).
		OverWriteOutput().
		WithErrorOutput(&ffmpegErr).
		Run()
	if err != nil {
		return nil, fmt.Errorf("stream collector: capture %s [%s]: %w", streamURL, ffmpegErr.String(), err)
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "segment_*.ts"))
	if err != nil {
		return nil, fmt.Errorf("stream collector: list segments: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}
