package editor

import (
	"bytes"
	"fmt"
	"os"

	"github.com/livepeer/clipper-core/collaborator"
)

// writeSRT renders segments as a SubRip subtitle file.
func writeSRT(path string, segments []collaborator.TranscriptSegment) error {
	var buf bytes.Buffer
	for i, seg := range segments {
		fmt.Fprintf(&buf, "%d\n%s --> %s\n%s\n\n", i+1, formatSRTTime(seg.Start), formatSRTTime(seg.End), seg.Text)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// writeVTT renders segments as a WebVTT subtitle file.
func writeVTT(path string, segments []collaborator.TranscriptSegment) error {
	var buf bytes.Buffer
	buf.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&buf, "%s --> %s\n%s\n\n", formatVTTTime(seg.Start), formatVTTTime(seg.End), seg.Text)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func formatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	h := totalMillis / 3_600_000
	m := (totalMillis % 3_600_000) / 60_000
	s := (totalMillis % 60_000) / 1000
	ms := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func formatVTTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	h := totalMillis / 3_600_000
	m := (totalMillis % 3_600_000) / 60_000
	s := (totalMillis % 60_000) / 1000
	ms := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
