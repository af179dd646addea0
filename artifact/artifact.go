// Package artifact manages the per-job directory layout on the shared
// filesystem rooted at the configured data directory (§3, §4.10). This is
// the one ambient concern in this repository deliberately kept on the
// standard library rather than a third-party dependency — see DESIGN.md for
// why: no pack library models "a local POSIX directory tree keyed by an
// opaque id" any better than path/filepath and os do directly.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout resolves the paths within one job's artifact directory
// (`<DATA>/<job_id>/...`, §3).
type Layout struct {
	root  string
	jobID string
}

// NewLayout returns a Layout rooted at dataDir for jobID. It does not touch
// the filesystem; call EnsureDirs to create the tree.
func NewLayout(dataDir, jobID string) Layout {
	return Layout{root: filepath.Join(dataDir, jobID), jobID: jobID}
}

// EnsureDirs creates the job directory and its segments/clips/logs
// subdirectories if they don't already exist.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.root, l.SegmentsDir(), l.ClipsDir(), l.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("artifact: create %s: %w", dir, err)
		}
	}
	return nil
}

// Root is the job's top-level directory.
func (l Layout) Root() string { return l.root }

// TempVideo is the source media once materialized locally, with the given
// extension (including the leading dot, e.g. ".mp4").
func (l Layout) TempVideo(ext string) string {
	return filepath.Join(l.root, "temp_video"+ext)
}

// SegmentsDir holds per-segment media files for stream fan-out.
func (l Layout) SegmentsDir() string { return filepath.Join(l.root, "segments") }

// SegmentPath names the NNN zero-padded segment file, e.g. segment_003.ts.
func (l Layout) SegmentPath(index int, ext string) string {
	return filepath.Join(l.SegmentsDir(), fmt.Sprintf("segment_%03d%s", index, ext))
}

// TranscriptionPath is the transcript JSON (§6 "Transcript JSON").
func (l Layout) TranscriptionPath() string { return filepath.Join(l.root, "transcription.json") }

// HighlightsPath is the analyst's output (§4.6 "Output").
func (l Layout) HighlightsPath() string { return filepath.Join(l.root, "highlights.json") }

// ClipsDir holds one output file per emitted highlight.
func (l Layout) ClipsDir() string { return filepath.Join(l.root, "clips") }

// ClipPath names a clip output file: clip_NN_inicio_<S>s_duracao_<D>s[_with_subs].mp4.
func (l Layout) ClipPath(index int, startSecs, durationSecs float64, withSubs bool) string {
	name := fmt.Sprintf("clip_%02d_inicio_%gs_duracao_%gs", index, startSecs, durationSecs)
	if withSubs {
		name += "_with_subs"
	}
	return filepath.Join(l.ClipsDir(), name+".mp4")
}

// SiblingSRT/SiblingVTT/SiblingThumb name the advisory sibling artifacts the
// editor may emit for the first highlight only (§4.7).
func (l Layout) SiblingSRT(clipPath string) string  { return swapExt(clipPath, ".srt") }
func (l Layout) SiblingVTT(clipPath string) string  { return swapExt(clipPath, ".vtt") }
func (l Layout) SiblingThumb(clipPath string) string {
	return swapExt(clipPath, "") + "_thumb.jpg"
}

func swapExt(path, newExt string) string {
	return path[:len(path)-len(filepath.Ext(path))] + newExt
}

// LogsDir is an optional directory for per-job logs.
func (l Layout) LogsDir() string { return filepath.Join(l.root, "logs") }

// CleanupTempVideo removes the materialized source media after COMPLETED, as
// allowed by §3's "destroyed lazily" lifecycle rule. Transcript, highlights,
// and clips are retained until an explicit delete request, so this only ever
// removes temp_video.* and the segments directory.
func (l Layout) CleanupTempVideo() error {
	matches, err := filepath.Glob(filepath.Join(l.root, "temp_video.*"))
	if err != nil {
		return fmt.Errorf("artifact: glob temp video: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("artifact: remove %s: %w", m, err)
		}
	}
	if err := os.RemoveAll(l.SegmentsDir()); err != nil {
		return fmt.Errorf("artifact: remove segments dir: %w", err)
	}
	return nil
}

// FindByBasename searches the job's tree for a file matching basename,
// implementing §7 kind 3's "missing artifact" recovery step: after a short
// retry, try to locate the expected file by basename under the job's tree
// before giving up.
func FindByBasename(root, basename string) (string, bool) {
	var found string
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || found != "" {
			return nil
		}
		if info != nil && !info.IsDir() && filepath.Base(path) == basename {
			found = path
		}
		return nil
	})
	return found, found != ""
}
