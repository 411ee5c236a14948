/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/docstore/storagemodels"
)

// Database is a provisioned database handle.
type Database interface {
	ID() string
}

// Container is a provisioned container handle.
type Container interface {
	ID() string
	DatabaseID() string
}

// ContainerSpec describes a container to provision. Containers are created
// with per-item expiry enabled so that soft-deleted records are reclaimed.
type ContainerSpec struct {
	ID               string
	PartitionKeyPath string
}

// QueryResult is the fully drained result of a query.
type QueryResult struct {
	Items         []storagemodels.Document
	RequestCharge float64
}

// ItemResult is the outcome of a point operation.
type ItemResult struct {
	Resource      storagemodels.Document
	RequestCharge float64
}

// Client is the set of primitives the access layer needs from a document
// store. Ensure calls are idempotent. Insert fails with an already-exists
// error on a duplicate id within a partition; Read and Replace fail with a
// not-found error for unknown records.
type Client interface {
	EnsureDatabase(ctx context.Context, id string) (Database, error)

	EnsureContainer(ctx context.Context, db Database, spec ContainerSpec) (Container, error)

	ExecuteQuery(ctx context.Context, c Container, text string, params []storagemodels.Parameter, partition string) (*QueryResult, error)

	InsertItem(ctx context.Context, c Container, doc storagemodels.Document) (*ItemResult, error)

	ReadItem(ctx context.Context, c Container, id, partitionKey string) (*ItemResult, error)

	ReplaceItem(ctx context.Context, c Container, id, partitionKey string, doc storagemodels.Document) (*ItemResult, error)
}

// DatabaseRef is a Database identified by name only.
type DatabaseRef string

func (d DatabaseRef) ID() string { return string(d) }

// ContainerRef is a Container identified by database and container name.
type ContainerRef struct {
	Database string
	Name     string
}

func (c ContainerRef) ID() string         { return c.Name }
func (c ContainerRef) DatabaseID() string { return c.Database }
