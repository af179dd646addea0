package analyst

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livepeer/clipper-core/collaborator"
)

func seg(start, end float64, text string) collaborator.TranscriptSegment {
	return collaborator.TranscriptSegment{Start: start, End: end, Text: text}
}

func score(v float64) *float64 { return &v }

func TestChunkTranscriptSingleChunkWhenShort(t *testing.T) {
	segs := []collaborator.TranscriptSegment{
		seg(0, 10, "a"),
		seg(10, 20, "b"),
		seg(20, 30, "c"),
	}
	chunks := ChunkTranscript(segs, 360*time.Second, 30*time.Second)
	require.Len(t, chunks, 1)
	require.Equal(t, 0.0, chunks[0].Start)
	require.Equal(t, 360.0, chunks[0].End)
	require.Len(t, chunks[0].Segments, 3)
}

func TestChunkTranscriptSeedsOverlapTail(t *testing.T) {
	// chunk_duration=100, overlap=20: first window is [0,100).
	segs := []collaborator.TranscriptSegment{
		seg(0, 10, "a"),
		seg(50, 60, "b"),
		seg(90, 99, "c"),
		seg(100, 110, "d"), // triggers close of first chunk
		seg(150, 160, "e"),
	}
	chunks := ChunkTranscript(segs, 100*time.Second, 20*time.Second)
	require.Len(t, chunks, 2)

	require.Equal(t, 0.0, chunks[0].Start)
	require.Equal(t, 100.0, chunks[0].End)
	require.Len(t, chunks[0].Segments, 3)

	// second chunk: chunk_start = 100-20 = 80, chunk_end = 180
	require.Equal(t, 80.0, chunks[1].Start)
	require.Equal(t, 180.0, chunks[1].End)
	// seeded tail from closed chunk: segments with start >= 80 -> "c" (90)
	// then appended triggering segment "d" (100), then "e" (150) stays within chunk_end.
	require.Len(t, chunks[1].Segments, 3)
	require.Equal(t, "c", chunks[1].Segments[0].Text)
	require.Equal(t, "d", chunks[1].Segments[1].Text)
	require.Equal(t, "e", chunks[1].Segments[2].Text)
}

func TestChunkTranscriptEmptyInput(t *testing.T) {
	require.Nil(t, ChunkTranscript(nil, 360*time.Second, 30*time.Second))
}

func TestValidDuringChunkToleratesFiveSecondOverrun(t *testing.T) {
	require.True(t, ValidDuringChunk(collaborator.Highlight{Start: 10, End: 105}, 0, 100))
	require.False(t, ValidDuringChunk(collaborator.Highlight{Start: 10, End: 106}, 0, 100))
	require.False(t, ValidDuringChunk(collaborator.Highlight{Start: -1, End: 50}, 0, 100))
}

func TestReduceNormalizesMissingScore(t *testing.T) {
	highlights := []collaborator.Highlight{
		{Start: 0, End: 10, Score: nil},
		{Start: 20, End: 30, Score: score(90)},
	}
	out := Reduce(highlights, 5)
	require.Len(t, out, 2)
	// chronological order preserved, but the nil-score one should have been
	// normalized to 50 internally (sorted after the 90 in the ranking pass,
	// then both survive dedup since they don't overlap).
	require.Equal(t, 0.0, out[0].Start)
	require.Equal(t, 20.0, out[1].Start)
}

func TestReduceDedupsOverlappingCandidatesByScore(t *testing.T) {
	highlights := []collaborator.Highlight{
		{Start: 0, End: 10, Score: score(90)},
		{Start: 1, End: 9, Score: score(50)}, // 8/8 = 1.0 overlap ratio vs above, discarded
		{Start: 100, End: 110, Score: score(70)},
	}
	out := Reduce(highlights, 5)
	require.Len(t, out, 2)
	require.Equal(t, 0.0, out[0].Start)
	require.Equal(t, 100.0, out[1].Start)
}

func TestReduceTruncatesToMaxHighlightsWithoutDiversification(t *testing.T) {
	// survivors count (3) <= 2*max (4), so no diversification branch.
	highlights := []collaborator.Highlight{
		{Start: 0, End: 10, Score: score(10)},
		{Start: 20, End: 30, Score: score(90)},
		{Start: 40, End: 50, Score: score(50)},
	}
	out := Reduce(highlights, 2)
	require.Len(t, out, 2)
	// top two by score are 90 (start 20) and 50 (start 40); chronological order.
	require.Equal(t, 20.0, out[0].Start)
	require.Equal(t, 40.0, out[1].Start)
}

func TestReduceDiversifiesAcrossTemporalBuckets(t *testing.T) {
	maxHighlights := 2
	// 5 non-overlapping survivors > 2*max(=4) triggers diversification.
	// video duration ~ 100s, 2 buckets of width 50: [0,50) and [50,100].
	highlights := []collaborator.Highlight{
		{Start: 0, End: 5, Score: score(10)},
		{Start: 10, End: 15, Score: score(95)},
		{Start: 55, End: 60, Score: score(20)},
		{Start: 65, End: 70, Score: score(30)},
		{Start: 90, End: 100, Score: score(15)},
	}
	out := Reduce(highlights, maxHighlights)
	require.Len(t, out, maxHighlights)
	// expect one highlight picked from each bucket: best of [0,50) is the 95
	// at start=10, best of [50,100) is the 30 at start=65.
	require.Equal(t, 10.0, out[0].Start)
	require.Equal(t, 65.0, out[1].Start)
}

func TestReduceEmptyInput(t *testing.T) {
	require.Nil(t, Reduce(nil, 5))
	require.Nil(t, Reduce([]collaborator.Highlight{{Start: 0, End: 1}}, 0))
}

func TestReduceFinalOrderIsChronological(t *testing.T) {
	highlights := []collaborator.Highlight{
		{Start: 50, End: 60, Score: score(99)},
		{Start: 0, End: 10, Score: score(1)},
	}
	out := Reduce(highlights, 5)
	require.Len(t, out, 2)
	require.Equal(t, 0.0, out[0].Start)
	require.Equal(t, 50.0, out[1].Start)
}
