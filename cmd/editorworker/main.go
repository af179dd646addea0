// Command editorworker runs the EDIT stage worker (§4.7).
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/config"
	"github.com/livepeer/clipper-core/frontend"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/metrics"
	"github.com/livepeer/clipper-core/progress"
	"github.com/livepeer/clipper-core/stage/editor"
	"github.com/livepeer/clipper-core/thumbnails"
	"github.com/livepeer/clipper-core/video"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("editorworker", flag.ContinueOnError)
	cli := config.RegisterCliFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}

	ctx := context.Background()

	conn, err := broker.Dial(cli.RabbitMQURL)
	if err != nil {
		glog.Errorf("editorworker: connect to broker: %v", err)
		return 1
	}
	defer conn.Close()

	if err := broker.NewTopology(conn).DeclareInfrastructure(); err != nil {
		glog.Errorf("editorworker: declare broker topology: %v", err)
		return 1
	}
	publisher := broker.NewPublisher(conn)

	jobStore, err := job.NewRedisStore(ctx, cli.RedisURL, cli.JobRecordTTL)
	if err != nil {
		glog.Errorf("editorworker: connect to job store: %v", err)
		return 1
	}

	sink := progress.MultiSink{job.StoreSink{Store: jobStore}}
	if cli.FrontendDBConnectionString != "" {
		db, err := frontend.Connect(frontend.Config{URL: cli.FrontendDBConnectionString})
		if err != nil {
			glog.Errorf("editorworker: connect to frontend database: %v", err)
			return 1
		}
		defer db.Close()
		sink = append(sink, frontend.ProgressSink{Store: frontend.NewStore(db)})
	}

	endBeforeStartPolicy := editor.FallbackFiveSeconds
	if !cli.EditorFallback {
		endBeforeStartPolicy = editor.Strict
	}

	deps := editor.Deps{
		Store:                     jobStore,
		Publisher:                 publisher,
		Bridge:                    progress.NewBridge(sink),
		Cutter:                    video.FFmpegCutter{},
		Screenwriter:              thumbnails.FFmpegScreenwriter{},
		DataDir:                   cli.DataDir,
		EndBeforeStartPolicy:      endBeforeStartPolicy,
		MissingArtifactRetryDelay: time.Second,
	}

	go func() {
		if err := metrics.ListenAndServe(cli.PromPort); err != nil {
			glog.Errorf("editorworker: metrics server: %v", err)
		}
	}()

	consumer := broker.NewConsumer(conn, broker.QueueEdit)
	if err := consumer.Consume(func(env broker.Envelope) error {
		return editor.Handle(ctx, deps, env)
	}); err != nil {
		glog.Errorf("editorworker: consume loop exited: %v", err)
		return 1
	}
	return 0
}
