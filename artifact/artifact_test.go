package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayoutEnsureDirsCreatesExpectedTree(t *testing.T) {
	dir := t.TempDir()
	l := NewLayout(dir, "job1")

	require.NoError(t, l.EnsureDirs())

	for _, d := range []string{l.Root(), l.SegmentsDir(), l.ClipsDir(), l.LogsDir()} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}

func TestSegmentPathZeroPadsIndex(t *testing.T) {
	l := NewLayout("/data", "job1")
	require.Equal(t, filepath.Join("/data", "job1", "segments", "segment_003.ts"), l.SegmentPath(3, ".ts"))
}

func TestClipPathWithAndWithoutSubs(t *testing.T) {
	l := NewLayout("/data", "job1")
	require.Equal(t, filepath.Join("/data", "job1", "clips", "clip_01_inicio_5s_duracao_10s.mp4"), l.ClipPath(1, 5, 10, false))
	require.Equal(t, filepath.Join("/data", "job1", "clips", "clip_01_inicio_5s_duracao_10s_with_subs.mp4"), l.ClipPath(1, 5, 10, true))
}

func TestCleanupTempVideoRemovesMaterializedSourceAndSegments(t *testing.T) {
	dir := t.TempDir()
	l := NewLayout(dir, "job1")
	require.NoError(t, l.EnsureDirs())

	require.NoError(t, os.WriteFile(l.TempVideo(".mp4"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(l.SegmentPath(0, ".ts"), []byte("data"), 0o644))

	require.NoError(t, l.CleanupTempVideo())

	_, err := os.Stat(l.TempVideo(".mp4"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(l.SegmentsDir())
	require.True(t, os.IsNotExist(err))

	// Highlights/clips are untouched by cleanup.
	_, err = os.Stat(l.ClipsDir())
	require.NoError(t, err)
}

func TestFindByBasenameLocatesNestedFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLayout(dir, "job1")
	require.NoError(t, l.EnsureDirs())
	target := l.TranscriptionPath()
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0o644))

	found, ok := FindByBasename(l.Root(), "transcription.json")
	require.True(t, ok)
	require.Equal(t, target, found)

	_, ok = FindByBasename(l.Root(), "nonexistent.json")
	require.False(t, ok)
}
