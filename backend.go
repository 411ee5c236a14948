/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suparena/docstore/config"
	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/datastore/cosmos"
	"github.com/suparena/docstore/datastore/ddb"
	"github.com/suparena/docstore/datastore/mock"
	"github.com/suparena/docstore/internal/logging"
)

// NewClient builds the client selected by cfg.Backend. cfg must be valid.
func NewClient(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (datastore.Client, error) {
	switch cfg.Backend {
	case config.BackendCosmos:
		client, err := cosmos.New(cfg.Endpoint, cfg.AccessKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendDynamoDB:
		api, err := ddb.NewDynamoDBClient(ctx, cfg.AccessKey, cfg.SecretKey, cfg.Region, cfg.Endpoint)
		if err != nil {
			return nil, err
		}
		return ddb.New(api, ddb.WithLogger(logger)), nil
	case config.BackendMemory:
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// New validates cfg, builds its client and returns a DAO for the configured
// container. Options given here override those derived from cfg.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*DAO, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	client, err := NewClient(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Backend, err)
	}

	all := append([]Option{
		WithLogger(logger),
		WithPartitionKeyPath(cfg.PartitionKeyPath),
	}, opts...)
	return NewWithClient(client, cfg.Database, cfg.Container, all...), nil
}
