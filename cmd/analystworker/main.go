// Command analystworker runs the ANALYSE stage worker (§4.6).
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/collaborator"
	"github.com/livepeer/clipper-core/config"
	"github.com/livepeer/clipper-core/frontend"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/metrics"
	"github.com/livepeer/clipper-core/progress"
	"github.com/livepeer/clipper-core/stage/analyst"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("analystworker", flag.ContinueOnError)
	cli := config.RegisterCliFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}

	ctx := context.Background()

	conn, err := broker.Dial(cli.RabbitMQURL)
	if err != nil {
		glog.Errorf("analystworker: connect to broker: %v", err)
		return 1
	}
	defer conn.Close()

	if err := broker.NewTopology(conn).DeclareInfrastructure(); err != nil {
		glog.Errorf("analystworker: declare broker topology: %v", err)
		return 1
	}
	publisher := broker.NewPublisher(conn)

	jobStore, err := job.NewRedisStore(ctx, cli.RedisURL, cli.JobRecordTTL)
	if err != nil {
		glog.Errorf("analystworker: connect to job store: %v", err)
		return 1
	}

	sink := progress.MultiSink{job.StoreSink{Store: jobStore}}
	if cli.FrontendDBConnectionString != "" {
		db, err := frontend.Connect(frontend.Config{URL: cli.FrontendDBConnectionString})
		if err != nil {
			glog.Errorf("analystworker: connect to frontend database: %v", err)
			return 1
		}
		defer db.Close()
		sink = append(sink, frontend.ProgressSink{Store: frontend.NewStore(db)})
	}

	// The LLM client is a process-lifetime singleton, loaded lazily (§9).
	lazyLLM := &collaborator.LazyLLM{
		New: func() (collaborator.LLM, error) {
			return collaborator.NewHTTPLLM(cli.LLMEndpoint, cli.LLMAPIKey, cli.GeminiMaxOutputTokens), nil
		},
	}

	deps := analyst.Deps{
		Store:                     jobStore,
		Publisher:                 publisher,
		Bridge:                    progress.NewBridge(sink),
		LLM:                       lazyLLM,
		DataDir:                   cli.DataDir,
		ChunkDuration:             time.Duration(cli.ChunkDuration) * time.Second,
		ChunkOverlap:              time.Duration(cli.ChunkOverlap) * time.Second,
		DirectModeCharLimit:       cli.DirectModeCharLimit,
		MissingArtifactRetryDelay: time.Second,
	}

	go func() {
		if err := metrics.ListenAndServe(cli.PromPort); err != nil {
			glog.Errorf("analystworker: metrics server: %v", err)
		}
	}()

	consumer := broker.NewConsumer(conn, broker.QueueAnalyse)
	if err := consumer.Consume(func(env broker.Envelope) error {
		return analyst.Handle(ctx, deps, env)
	}); err != nil {
		glog.Errorf("analystworker: consume loop exited: %v", err)
		return 1
	}
	return 0
}
