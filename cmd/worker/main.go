package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"taxaformer/internal/activities"
	"taxaformer/internal/config"
	"taxaformer/internal/datastore"
	"taxaformer/internal/workflows"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel, "worker")

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal("dial temporal", "address", cfg.TemporalAddress, "err", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	jobs, closeJobs, err := datastore.Open(ctx, cfg)
	if err != nil {
		logger.Warn("datastore unavailable, reports will use sample data", "mode", cfg.DatastoreMode, "err", err)
		jobs = nil
	}
	defer closeJobs()
	activities.Register(w, activities.New(cfg, jobs))

	logger.Info("taxaformer worker listening", "address", cfg.TemporalAddress, "queue", cfg.TemporalTaskQueue, "out", cfg.DataOutRoot)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("worker stopped", "err", err)
		os.Exit(1)
	}
}
