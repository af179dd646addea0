package collaborator

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/livepeer/clipper-core/job"
)

// streamSchemes are the live-ingest protocols the classifier recognizes
// outright, regardless of path (grounded on the teacher's own rtmp/srt push
// source conventions in its Mist stream source flag).
var streamSchemes = map[string]bool{
	"rtmp": true, "rtmps": true, "rtsp": true, "srt": true,
}

// streamPathPattern matches a live HLS manifest or segment path, the same
// regexp-over-suffix approach the teacher uses to recognize `.m3u8` paths
// (handlers/geolocation/geolocation.go's regexpHLSPath).
var streamPathPattern = regexp.MustCompile(`(?i)\.(m3u8|ts)(\?.*)?$`)

// URLSuffixClassifier is the default URLClassifier (§4.11, §6): scheme and
// path-suffix based, no network round-trip. Host-specific stream discovery
// is explicitly out of scope (§1 Non-goals "source selection").
type URLSuffixClassifier struct{}

func (URLSuffixClassifier) Classify(ctx context.Context, rawURL string) (job.Kind, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if streamSchemes[strings.ToLower(u.Scheme)] {
		return job.KindStream, nil
	}
	if streamPathPattern.MatchString(u.Path) {
		return job.KindStream, nil
	}
	return job.KindRecorded, nil
}
