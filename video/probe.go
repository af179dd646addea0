// Package video adapts the pack's ffmpeg/ffprobe toolchain to the clipper's
// narrow needs: probing a source file's duration/codec before the
// transcriber uses it, and the concrete collaborator.Cutter implementation
// itself.
package video

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/vansante/go-ffprobe.v2"
)

var unsupportedVideoCodecList = []string{"mjpeg", "jpeg", "png"}

// Probe is a source file's duration and primary video codec, probed before
// the transcriber stage operates on it (§6).
type Probe struct {
	DurationSecs float64
	Codec        string
	HasAudio     bool
}

type Prober interface {
	ProbeFile(ctx context.Context, path string) (Probe, error)
}

// FFprobe wraps gopkg.in/vansante/go-ffprobe.v2 with the 3-retry backoff the
// teacher's downloader path uses for transient I/O.
type FFprobe struct{}

func (FFprobe) ProbeFile(ctx context.Context, path string) (Probe, error) {
	var data *ffprobe.ProbeData
	var err error

	operation := func() error {
		probeCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
		data, err = ffprobe.ProbeURL(probeCtx, path)
		return err
	}

	backOff := backoff.NewExponentialBackOff()
	backOff.InitialInterval = 500 * time.Millisecond
	backOff.MaxInterval = 2 * time.Second
	backOff.MaxElapsedTime = 0
	if err := backoff.Retry(operation, backoff.WithMaxRetries(backOff, 3)); err != nil {
		return Probe{}, fmt.Errorf("error probing %s: %w", path, err)
	}
	return parseProbeOutput(data)
}

func parseProbeOutput(probeData *ffprobe.ProbeData) (Probe, error) {
	videoStream := probeData.FirstVideoStream()
	if videoStream == nil {
		return Probe{}, errors.New("error checking for video: no video stream found")
	}
	for _, codec := range unsupportedVideoCodecList {
		if strings.EqualFold(videoStream.CodecName, codec) {
			return Probe{}, fmt.Errorf("error checking for video: %s is not supported", videoStream.CodecName)
		}
	}
	if probeData.Format == nil {
		return Probe{}, fmt.Errorf("error parsing input video: format information missing")
	}

	duration := probeData.Format.DurationSeconds
	return Probe{
		DurationSecs: duration,
		Codec:        videoStream.CodecName,
		HasAudio:     probeData.FirstAudioStream() != nil,
	}, nil
}
