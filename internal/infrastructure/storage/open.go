package storage

import (
	"context"
	"fmt"
	"strings"

	"NewsHarvester/internal/config"
	"NewsHarvester/internal/ports"
)

const (
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

// Open builds the repository selected by cfg.Driver and ensures its schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (ports.ArticleRepository, error) {
	var repo ports.ArticleRepository

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres, "postgresql":
		db, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		repo = NewPostgresRepository(db)
	case DriverBolt, "bbolt":
		bolt, err := OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		repo = bolt
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, nil
}
