// Package analyst implements the map-reduce highlight-extraction algorithm
// that sits at the center of the ANALYSE stage (§4.6). ChunkTranscript and Reduce are
// pure functions with no collaborator or I/O dependency so the chunking math
// and the reduce ordering — both called out as "a contract, not an
// implementation detail" — can be exercised directly in tests.
package analyst

import (
	"math"
	"sort"
	"time"

	"github.com/livepeer/clipper-core/collaborator"
)

// Chunk is one temporal window of a transcript, with its absolute time range
// and the ASR segments assigned to it (§4.6.2).
type Chunk struct {
	Start    float64
	End      float64
	Segments []collaborator.TranscriptSegment
}

// ChunkTranscript groups segments into overlapping temporal chunks following
// the exact walk described in §4.6.2:
//
//   - Walk the segments in order. Open a chunk at chunk_start=0, chunk_end=chunk_duration.
//   - A segment whose start < chunk_end is appended to the current chunk.
//   - When a segment's start >= chunk_end, close the current chunk, set
//     chunk_start = previous_chunk_end - overlap, chunk_end = chunk_start + chunk_duration,
//     seed the new chunk with the just-closed chunk's segments whose start >= the
//     new chunk_start, then append the current segment.
//   - After the walk, the last open chunk is closed.
func ChunkTranscript(segments []collaborator.TranscriptSegment, chunkDuration, overlap time.Duration) []Chunk {
	if len(segments) == 0 {
		return nil
	}

	chunkDur := chunkDuration.Seconds()
	overlapDur := overlap.Seconds()

	chunkStart := 0.0
	chunkEnd := chunkDur
	var current []collaborator.TranscriptSegment
	var chunks []Chunk

	for _, seg := range segments {
		if seg.Start < chunkEnd {
			current = append(current, seg)
			continue
		}

		chunks = append(chunks, Chunk{Start: chunkStart, End: chunkEnd, Segments: current})

		previousChunkEnd := chunkEnd
		chunkStart = previousChunkEnd - overlapDur
		chunkEnd = chunkStart + chunkDur

		var seeded []collaborator.TranscriptSegment
		for _, s := range current {
			if s.Start >= chunkStart {
				seeded = append(seeded, s)
			}
		}
		current = append(seeded, seg)
	}

	chunks = append(chunks, Chunk{Start: chunkStart, End: chunkEnd, Segments: current})

	return chunks
}

// ValidDuringChunk reports whether h is in bounds for a highlight produced
// from the chunk spanning [chunkStart, chunkEnd]: start must not precede the
// chunk, and end must not exceed the chunk end by more than the 5s tolerance
// that absorbs LLM rounding (§4.6.2 "Post-chunk validation").
func ValidDuringChunk(h collaborator.Highlight, chunkStart, chunkEnd float64) bool {
	const tolerance = 5.0
	return h.Start >= chunkStart && h.End <= chunkEnd+tolerance
}

// Reduce consolidates the union of per-chunk highlights into a final ranked
// list of length <= maxHighlights, following the exact sequence from §4.6.3:
// normalize missing scores, sort by score descending, dedup by overlap
// ratio, diversify temporally if there are many survivors, truncate, then
// sort chronologically. This order is load-bearing for test reproducibility.
func Reduce(highlights []collaborator.Highlight, maxHighlights int) []collaborator.Highlight {
	if len(highlights) == 0 || maxHighlights <= 0 {
		return nil
	}

	normalized := make([]collaborator.Highlight, len(highlights))
	copy(normalized, highlights)
	for i := range normalized {
		if normalized[i].Score == nil {
			v := 50.0
			normalized[i].Score = &v
		}
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		return *normalized[i].Score > *normalized[j].Score
	})

	var survivors []collaborator.Highlight
	for _, cand := range normalized {
		duplicate := false
		for _, kept := range survivors {
			if overlapRatio(cand, kept) > 0.7 {
				duplicate = true
				break
			}
		}
		if !duplicate {
			survivors = append(survivors, cand)
		}
	}

	var selected []collaborator.Highlight
	if len(survivors) > 2*maxHighlights {
		selected = diversify(survivors, maxHighlights)
	} else {
		selected = survivors
		if len(selected) > maxHighlights {
			selected = selected[:maxHighlights]
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Start < selected[j].Start
	})

	return selected
}

// overlapRatio is overlap_duration / min(duration_a, duration_b), or 0 if
// the two highlights don't overlap at all.
func overlapRatio(a, b collaborator.Highlight) float64 {
	start := math.Max(a.Start, b.Start)
	end := math.Min(a.End, b.End)
	overlap := end - start
	if overlap <= 0 {
		return 0
	}
	minDuration := math.Min(a.Duration(), b.Duration())
	if minDuration <= 0 {
		return 0
	}
	return overlap / minDuration
}

// diversify implements §4.6.3 step 4: bucket survivors (already sorted by
// score descending) into min(maxHighlights, 5) equal-width temporal
// buckets, take the top ceil(maxHighlights/numBuckets) from each, fill any
// shortfall from the remaining survivors by score, then re-sort by score
// descending and truncate to maxHighlights.
func diversify(survivors []collaborator.Highlight, maxHighlights int) []collaborator.Highlight {
	numBuckets := maxHighlights
	if numBuckets > 5 {
		numBuckets = 5
	}
	if numBuckets < 1 {
		numBuckets = 1
	}

	duration := 0.0
	for _, h := range survivors {
		if h.End > duration {
			duration = h.End
		}
	}
	bucketWidth := duration / float64(numBuckets)

	buckets := make([][]int, numBuckets)
	for i, h := range survivors {
		idx := numBuckets - 1
		if bucketWidth > 0 {
			idx = int(math.Floor(h.Start / bucketWidth))
			if idx >= numBuckets {
				idx = numBuckets - 1
			} else if idx < 0 {
				idx = 0
			}
		}
		buckets[idx] = append(buckets[idx], i)
	}

	perBucket := int(math.Ceil(float64(maxHighlights) / float64(numBuckets)))

	picked := make(map[int]bool, maxHighlights)
	for _, bucket := range buckets {
		n := perBucket
		if n > len(bucket) {
			n = len(bucket)
		}
		for _, idx := range bucket[:n] {
			picked[idx] = true
		}
	}

	var selected []collaborator.Highlight
	for i, h := range survivors {
		if picked[i] {
			selected = append(selected, h)
		}
	}

	if len(selected) < maxHighlights {
		for i, h := range survivors {
			if len(selected) >= maxHighlights {
				break
			}
			if !picked[i] {
				selected = append(selected, h)
				picked[i] = true
			}
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return *selected[i].Score > *selected[j].Score
	})
	if len(selected) > maxHighlights {
		selected = selected[:maxHighlights]
	}

	return selected
}
