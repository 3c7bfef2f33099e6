// Package backend opens the document store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/albapepper/futbol-tracker/internal/config"
	"github.com/albapepper/futbol-tracker/internal/store"
	"github.com/albapepper/futbol-tracker/internal/store/badgerstore"
	"github.com/albapepper/futbol-tracker/internal/store/postgres"
)

// Open returns the store named by cfg.StoreBackend. The caller closes it.
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		s, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	case config.StoreBadger:
		s, err := badgerstore.Open(cfg.BadgerPath, cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
