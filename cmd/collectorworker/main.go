// Command collectorworker runs the COLLECT stage worker (§4.4).
package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/config"
	"github.com/livepeer/clipper-core/frontend"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/metrics"
	"github.com/livepeer/clipper-core/progress"
	"github.com/livepeer/clipper-core/stage/collector"
	"github.com/livepeer/clipper-core/video"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("collectorworker", flag.ContinueOnError)
	cli := config.RegisterCliFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}

	ctx := context.Background()

	conn, err := broker.Dial(cli.RabbitMQURL)
	if err != nil {
		glog.Errorf("collectorworker: connect to broker: %v", err)
		return 1
	}
	defer conn.Close()

	if err := broker.NewTopology(conn).DeclareInfrastructure(); err != nil {
		glog.Errorf("collectorworker: declare broker topology: %v", err)
		return 1
	}
	publisher := broker.NewPublisher(conn)

	jobStore, err := job.NewRedisStore(ctx, cli.RedisURL, cli.JobRecordTTL)
	if err != nil {
		glog.Errorf("collectorworker: connect to job store: %v", err)
		return 1
	}

	sink := progress.MultiSink{job.StoreSink{Store: jobStore}}
	if cli.FrontendDBConnectionString != "" {
		db, err := frontend.Connect(frontend.Config{URL: cli.FrontendDBConnectionString})
		if err != nil {
			glog.Errorf("collectorworker: connect to frontend database: %v", err)
			return 1
		}
		defer db.Close()
		sink = append(sink, frontend.ProgressSink{Store: frontend.NewStore(db)})
	}

	deps := collector.Deps{
		Store:     jobStore,
		Publisher: publisher,
		Bridge:    progress.NewBridge(sink),
		Collector: video.FFmpegStreamCollector{},
		DataDir:   cli.DataDir,
	}

	go func() {
		if err := metrics.ListenAndServe(cli.PromPort); err != nil {
			glog.Errorf("collectorworker: metrics server: %v", err)
		}
	}()

	consumer := broker.NewConsumer(conn, broker.QueueCollect)
	if err := consumer.Consume(func(env broker.Envelope) error {
		return collector.Handle(ctx, deps, env)
	}); err != nil {
		glog.Errorf("collectorworker: consume loop exited: %v", err)
		return 1
	}
	return 0
}
