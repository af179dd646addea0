package collaborator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPTranscriberTranscribeUploadsFileAndParsesResult(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "video.mp4")
	require.NoError(t, os.WriteFile(mediaPath, []byte("fake media bytes"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "video.mp4", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Transcript{
			Text:     "hello world",
			Language: "en",
			Duration: 12.5,
			Segments: []TranscriptSegment{{Start: 0, End: 1.5, Text: "hello"}},
		})
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "test-key")
	transcript, err := tr.Transcribe(context.Background(), mediaPath)
	require.NoError(t, err)
	require.Equal(t, "hello world", transcript.Text)
	require.Equal(t, "en", transcript.Language)
	require.Len(t, transcript.Segments, 1)
}

func TestHTTPTranscriberTranscribeReturnsErrorOnMissingFile(t *testing.T) {
	tr := NewHTTPTranscriber("http://example.invalid", "key")
	_, err := tr.Transcribe(context.Background(), "/nonexistent/path.mp4")
	require.Error(t, err)
}

func TestHTTPTranscriberTranscribeReturnsErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "key")
	tr.client.RetryMax = 0
	_, err := tr.Transcribe(context.Background(), writeTempMedia(t))
	require.Error(t, err)
}

func writeTempMedia(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0o644))
	return path
}
