package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"

	"taxaformer/internal/api"
	"taxaformer/internal/backend"
	"taxaformer/internal/config"
	"taxaformer/internal/datastore"
	"taxaformer/internal/session"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel, "api")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	jobs, closeJobs, err := datastore.Open(ctx, cfg)
	if err != nil {
		logger.Warn("datastore unavailable, serving sample data", "mode", cfg.DatastoreMode, "err", err)
		jobs = nil
	}
	defer closeJobs()

	backends, err := backend.NewManager(cfg, logger)
	if err != nil {
		logger.Fatal("configure backends", "err", err)
	}

	deps := api.Deps{
		Jobs:     jobs,
		Backends: backends,
		Sessions: session.New(64),
		Logger:   logger,
	}
	defer deps.Sessions.Close()

	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Warn("temporal unavailable, artifact workflows disabled", "address", cfg.TemporalAddress, "err", err)
	} else {
		defer tc.Close()
		deps.Temporal = tc
	}

	h := api.NewServer(cfg, deps)
	logger.Info("taxaformer api listening", "addr", cfg.APIAddr, "backends", cfg.Backends, "datastore", cfg.DatastoreMode)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
