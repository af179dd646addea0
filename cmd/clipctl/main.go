// Command clipctl is the CLI front-end collaborator (§4.11, §6): accepts a
// URL, classifies it, prompts for stream parameters when needed, initializes
// a job, and publishes the first pipeline message.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/collaborator"
	"github.com/livepeer/clipper-core/config"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/stage/collector"
	"github.com/livepeer/clipper-core/stage/transcriber"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so main can stay a one-liner, mirroring
// this repo's preference for testable, non-os.Exit-laden entry points.
func run() int {
	fs := flag.NewFlagSet("clipctl", flag.ContinueOnError)
	cli := config.RegisterCliFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := broker.Dial(cli.RabbitMQURL)
	if err != nil {
		glog.Errorf("clipctl: connect to broker: %v", err)
		return 1
	}
	defer conn.Close()

	topology := broker.NewTopology(conn)
	if err := topology.DeclareInfrastructure(); err != nil {
		glog.Errorf("clipctl: declare broker topology: %v", err)
		return 1
	}

	publisher := broker.NewPublisher(conn)

	store, err := job.NewRedisStore(ctx, cli.RedisURL, cli.JobRecordTTL)
	if err != nil {
		glog.Errorf("clipctl: connect to job store: %v", err)
		return 1
	}

	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("Source URL: ")
	if !scanner.Scan() {
		return 0 // Ctrl-C / EOF before any input is a clean exit, not an error.
	}
	sourceURL := strings.TrimSpace(scanner.Text())
	if sourceURL == "" {
		glog.Errorf("clipctl: source URL is required")
		return 1
	}

	classifier := collaborator.URLSuffixClassifier{}
	kind, err := classifier.Classify(ctx, sourceURL)
	if err != nil {
		glog.Errorf("clipctl: classify URL: %v", err)
		return 1
	}

	jobID := uuid.NewString()
	j := job.Job{
		JobID:            jobID,
		SourceURL:        sourceURL,
		Kind:             kind,
		Status:           job.StatusPending,
		CreatedAt:        time.Now().UTC(),
		MaxHighlights:    cli.MaxHighlights,
		IncludeSubtitles: false,
		SubtitleStyle:    job.DefaultSubtitleStyle(),
	}

	if kind == job.KindStream {
		segmentDuration, maxDuration, ok := promptStreamParams(scanner, cli)
		if !ok {
			return 0
		}
		j.SegmentDuration = segmentDuration
		j.MaxDuration = maxDuration
	}

	if err := store.Initialize(ctx, j); err != nil {
		glog.Errorf("clipctl: initialize job record: %v", err)
		return 1
	}

	if kind == job.KindStream {
		env, err := broker.NewEnvelope(jobID, "collect", collector.Payload{
			StreamURL:       sourceURL,
			SegmentDuration: j.SegmentDuration,
			MaxDuration:     j.MaxDuration,
		})
		if err != nil {
			glog.Errorf("clipctl: build envelope: %v", err)
			return 1
		}
		if err := publisher.Publish(ctx, broker.QueueCollect, env); err != nil {
			glog.Errorf("clipctl: publish collect message: %v", err)
			return 1
		}
	} else {
		env, err := broker.NewEnvelope(jobID, "transcribe", transcriber.Payload{URL: sourceURL})
		if err != nil {
			glog.Errorf("clipctl: build envelope: %v", err)
			return 1
		}
		if err := publisher.Publish(ctx, broker.QueueTranscribe, env); err != nil {
			glog.Errorf("clipctl: publish transcribe message: %v", err)
			return 1
		}
	}

	fmt.Printf("job %s queued (%s)\n", jobID, kind)
	return 0
}

func promptStreamParams(scanner *bufio.Scanner, cli *config.Cli) (segmentDuration, maxDuration int, ok bool) {
	segmentDuration = cli.SegmentDuration
	maxDuration = cli.MaxDuration

	fmt.Printf("Segment duration in seconds [%d]: ", segmentDuration)
	if !scanner.Scan() {
		return 0, 0, false
	}
	if v := strings.TrimSpace(scanner.Text()); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			segmentDuration = parsed
		}
	}

	fmt.Printf("Max capture duration in seconds [%d]: ", maxDuration)
	if !scanner.Scan() {
		return 0, 0, false
	}
	if v := strings.TrimSpace(scanner.Text()); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			maxDuration = parsed
		}
	}

	return segmentDuration, maxDuration, true
}
