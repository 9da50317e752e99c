package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tablesink/pkg/ingest"
	"tablesink/pkg/logger"
	"tablesink/pkg/queue"
	"tablesink/pkg/render"
	"tablesink/pkg/settings"
	"tablesink/pkg/sink"
	"tablesink/pkg/store"
	"tablesink/pkg/store/elastic"
	mongostore "tablesink/pkg/store/mongo"
	"tablesink/pkg/store/scylla"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := settings.Load(*configPath)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	zl := logger.New(&cfg.Logger)
	defer zl.Sync()

	st, err := openStore(cfg)
	if err != nil {
		zl.Fatal("failed to connect to store", zap.Error(err))
	}
	defer st.Close()

	q, err := openQueue(cfg)
	if err != nil {
		zl.Fatal("failed to open record queue", zap.Error(err))
	}
	defer q.Close()

	destTmpl := render.Compile(cfg.Sink.DestinationPattern)
	var msgTmpl *render.Template
	if cfg.Sink.MessagePattern != "" {
		msgTmpl = render.Compile(cfg.Sink.MessagePattern)
	}

	dispatcher := sink.NewDispatcher(st, destTmpl, msgTmpl, zl)
	worker := queue.NewWorker(q, dispatcher,
		cfg.Sink.BatchSize,
		time.Duration(cfg.Sink.FlushInterval)*time.Millisecond,
		zl,
	)

	httpSrv := ingest.NewHTTPServer(&cfg.Server, q, st, zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(ctx) })
	g.Go(func() error { return httpSrv.Run(ctx) })

	if cfg.Kafka.Enabled {
		src, err := ingest.NewKafkaSource(&cfg.Kafka, q, zl)
		if err != nil {
			zl.Fatal("failed to start kafka source", zap.Error(err))
		}
		g.Go(func() error { return src.Run(ctx) })
	}

	zl.Info("tablesink running",
		zap.String("backend", cfg.Sink.Backend),
		zap.String("queue", cfg.Sink.Queue),
		zap.String("destination_pattern", cfg.Sink.DestinationPattern),
	)

	if err := g.Wait(); err != nil {
		zl.Fatal("shut down with error", zap.Error(err))
	}
	zl.Info("shut down cleanly")
}

func openStore(cfg *settings.Config) (store.Store, error) {
	switch cfg.Sink.Backend {
	case "scylla":
		return scylla.New(&cfg.Scylla)
	case "elastic":
		return elastic.New(&cfg.Elasticsearch)
	case "mongo":
		return mongostore.New(&cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Sink.Backend)
	}
}

func openQueue(cfg *settings.Config) (queue.Queue, error) {
	if cfg.Sink.Queue == "redis" {
		return queue.NewRedisQueue(&cfg.Redis)
	}
	return queue.NewMemoryQueue(0), nil
}
