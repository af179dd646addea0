// Command transcriberworker runs the TRANSCRIBE stage worker (§4.5).
package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/collaborator"
	"github.com/livepeer/clipper-core/config"
	"github.com/livepeer/clipper-core/frontend"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/metrics"
	"github.com/livepeer/clipper-core/progress"
	"github.com/livepeer/clipper-core/stage/transcriber"
	"github.com/livepeer/clipper-core/video"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("transcriberworker", flag.ContinueOnError)
	cli := config.RegisterCliFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}

	ctx := context.Background()

	conn, err := broker.Dial(cli.RabbitMQURL)
	if err != nil {
		glog.Errorf("transcriberworker: connect to broker: %v", err)
		return 1
	}
	defer conn.Close()

	if err := broker.NewTopology(conn).DeclareInfrastructure(); err != nil {
		glog.Errorf("transcriberworker: declare broker topology: %v", err)
		return 1
	}
	publisher := broker.NewPublisher(conn)

	jobStore, err := job.NewRedisStore(ctx, cli.RedisURL, cli.JobRecordTTL)
	if err != nil {
		glog.Errorf("transcriberworker: connect to job store: %v", err)
		return 1
	}

	sink := progress.MultiSink{job.StoreSink{Store: jobStore}}
	if cli.FrontendDBConnectionString != "" {
		db, err := frontend.Connect(frontend.Config{URL: cli.FrontendDBConnectionString})
		if err != nil {
			glog.Errorf("transcriberworker: connect to frontend database: %v", err)
			return 1
		}
		defer db.Close()
		sink = append(sink, frontend.ProgressSink{Store: frontend.NewStore(db)})
	}

	// The ASR model is a process-lifetime singleton, loaded lazily on first
	// use so a binary that never happens to handle a delivery never pays to
	// construct it (§9 "Single-process singletons").
	lazyTranscriber := &collaborator.LazyTranscriber{
		New: func() (collaborator.Transcriber, error) {
			return collaborator.NewHTTPTranscriber(cli.ASREndpoint, cli.ASRAPIKey), nil
		},
	}

	deps := transcriber.Deps{
		Store:       jobStore,
		Publisher:   publisher,
		Bridge:      progress.NewBridge(sink),
		Downloader:  collaborator.NewHTTPDownloader(),
		Transcriber: lazyTranscriber,
		DataDir:     cli.DataDir,
		Prober:      video.FFprobe{},
	}

	go func() {
		if err := metrics.ListenAndServe(cli.PromPort); err != nil {
			glog.Errorf("transcriberworker: metrics server: %v", err)
		}
	}()

	consumer := broker.NewConsumer(conn, broker.QueueTranscribe)
	if err := consumer.Consume(func(env broker.Envelope) error {
		return transcriber.Handle(ctx, deps, env)
	}); err != nil {
		glog.Errorf("transcriberworker: consume loop exited: %v", err)
		return 1
	}
	return 0
}
