package collaborator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/livepeer/clipper-core/metrics"
	"github.com/livepeer/clipper-core/progress"
)

// HTTPDownloader is the default Downloader: a plain GET against the source
// URL, retried the way this repo retries every outbound HTTP client, bounded
// by the 10-minute wall clock from §6.
type HTTPDownloader struct {
	client *retryablehttp.Client
}

func NewHTTPDownloader() *HTTPDownloader {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.CheckRetry = metrics.HttpRetryHook
	rc.Logger = nil
	return &HTTPDownloader{client: rc}
}

func (d *HTTPDownloader) Download(ctx context.Context, url, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("downloader: build request: %w", err)
	}

	res, err := metrics.MonitorRequest(metrics.Metrics.Downloader, d.client.StandardClient(), req)
	if err != nil {
		return fmt.Errorf("downloader: fetch %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return fmt.Errorf("downloader: fetch %s: unexpected status %d", url, res.StatusCode)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("downloader: create %s: %w", outPath, err)
	}
	defer out.Close()

	counter := progress.NewReadCounter(res.Body)
	if _, err := io.Copy(out, counter); err != nil {
		return fmt.Errorf("downloader: write %s: %w", outPath, err)
	}

	return nil
}
