// Command clipapi hosts the minimal REST front-end (§4.12): create and
// inspect jobs over HTTP.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/livepeer/clipper-core/api"
	"github.com/livepeer/clipper-core/broker"
	"github.com/livepeer/clipper-core/config"
	"github.com/livepeer/clipper-core/frontend"
	"github.com/livepeer/clipper-core/job"
	"github.com/livepeer/clipper-core/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("clipapi", flag.ContinueOnError)
	cli := config.RegisterCliFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := broker.Dial(cli.RabbitMQURL)
	if err != nil {
		glog.Errorf("clipapi: connect to broker: %v", err)
		return 1
	}
	defer conn.Close()

	topology := broker.NewTopology(conn)
	if err := topology.DeclareInfrastructure(); err != nil {
		glog.Errorf("clipapi: declare broker topology: %v", err)
		return 1
	}
	publisher := broker.NewPublisher(conn)

	jobStore, err := job.NewRedisStore(ctx, cli.RedisURL, cli.JobRecordTTL)
	if err != nil {
		glog.Errorf("clipapi: connect to job store: %v", err)
		return 1
	}

	var frontendStore *frontend.Store
	if cli.FrontendDBConnectionString != "" {
		db, err := frontend.Connect(frontend.Config{URL: cli.FrontendDBConnectionString})
		if err != nil {
			glog.Errorf("clipapi: connect to frontend database: %v", err)
			return 1
		}
		defer db.Close()
		if err := frontend.EnsureSchema(ctx, db); err != nil {
			glog.Errorf("clipapi: ensure frontend schema: %v", err)
			return 1
		}
		frontendStore = frontend.NewStore(db)
	}

	handlers := api.Handlers{Deps: api.Deps{
		JobStore:      jobStore,
		FrontendStore: frontendStore,
		Publisher:     publisher,
		Config:        *cli,
	}}

	router := api.NewRouter(handlers, []byte(cli.APIToken))

	go func() {
		if err := metrics.ListenAndServe(cli.PromPort); err != nil {
			glog.Errorf("clipapi: metrics server: %v", err)
		}
	}()

	server := &http.Server{Addr: cli.HTTPAddress, Handler: router}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	glog.Infof("clipapi: listening on %s", cli.HTTPAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		glog.Errorf("clipapi: http server: %v", err)
		return 1
	}
	return 0
}
