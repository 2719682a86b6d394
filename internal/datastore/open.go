package datastore

import (
	"context"
	"fmt"
	"strings"

	"taxaformer/internal/config"
	"taxaformer/internal/storage"
)

var (
	_ JobSource = (*storage.JobRepo)(nil)
	_ JobSource = (*RESTClient)(nil)
)

// Open connects the configured datastore. The returned close func is never nil.
func Open(ctx context.Context, cfg config.Config) (JobSource, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.DatastoreMode)) {
	case "rest":
		if strings.TrimSpace(cfg.RESTURL) == "" {
			return nil, func() {}, fmt.Errorf("open datastore: rest url is required")
		}
		return NewRESTClient(cfg.RESTURL, cfg.RESTKey, cfg.HTTPTimeout), func() {}, nil
	case "", "postgres":
		db, err := storage.NewDB(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("open datastore: %w", err)
		}
		return storage.NewJobRepo(db), db.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("open datastore: unsupported mode %q", cfg.DatastoreMode)
	}
}
