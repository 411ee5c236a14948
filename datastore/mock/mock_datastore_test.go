/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/datastore/mock"
	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

func provision(t *testing.T, m *mock.Client) datastore.Container {
	t.Helper()
	ctx := context.Background()
	db, err := m.EnsureDatabase(ctx, "db")
	if err != nil {
		t.Fatalf("EnsureDatabase failed: %v", err)
	}
	c, err := m.EnsureContainer(ctx, db, datastore.ContainerSpec{ID: "items", PartitionKeyPath: "/_partitionKey"})
	if err != nil {
		t.Fatalf("EnsureContainer failed: %v", err)
	}
	return c
}

func TestMockClient(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		m := mock.New().WithClock(func() time.Time { return time.Unix(100, 0) })
		c := provision(t, m)

		created, err := m.InsertItem(ctx, c, storagemodels.Document{"id": "1", "_partitionKey": "User", "name": "Ada"})
		if err != nil {
			t.Fatalf("InsertItem failed: %v", err)
		}
		if created.Resource["_ts"] != int64(100) {
			t.Fatalf("Expected _ts to be maintained, got %v", created.Resource["_ts"])
		}

		read, err := m.ReadItem(ctx, c, "1", "User")
		if err != nil {
			t.Fatalf("ReadItem failed: %v", err)
		}
		if read.Resource["name"] != "Ada" {
			t.Fatalf("Retrieved document mismatch: %+v", read.Resource)
		}

		_, err = m.ReplaceItem(ctx, c, "1", "User", storagemodels.Document{"_partitionKey": "User", "name": "Grace"})
		if err != nil {
			t.Fatalf("ReplaceItem failed: %v", err)
		}
		read, _ = m.ReadItem(ctx, c, "1", "User")
		if read.Resource["name"] != "Grace" || read.Resource["id"] != "1" {
			t.Fatalf("Replace did not take effect: %+v", read.Resource)
		}
	})

	t.Run("DuplicateInsert", func(t *testing.T) {
		m := mock.New()
		c := provision(t, m)
		doc := storagemodels.Document{"id": "1", "_partitionKey": "User"}
		if _, err := m.InsertItem(ctx, c, doc); err != nil {
			t.Fatalf("InsertItem failed: %v", err)
		}
		if _, err := m.InsertItem(ctx, c, doc); !errors.IsAlreadyExists(err) {
			t.Fatalf("Expected already exists error, got: %v", err)
		}
		other := storagemodels.Document{"id": "1", "_partitionKey": "Admin"}
		if _, err := m.InsertItem(ctx, c, other); err != nil {
			t.Fatalf("Same id in another partition should succeed: %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		m := mock.New()
		c := provision(t, m)
		if _, err := m.ReadItem(ctx, c, "missing", "User"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
		if _, err := m.ReplaceItem(ctx, c, "missing", "User", storagemodels.Document{}); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		boom := stderrors.New("boom")
		m := mock.New().WithError(mock.OpRead, boom)
		c := provision(t, m)
		if _, err := m.ReadItem(ctx, c, "1", "User"); !stderrors.Is(err, boom) {
			t.Fatalf("Expected injected error, got: %v", err)
		}
		if m.Calls(mock.OpRead) != 1 {
			t.Fatalf("Expected 1 read call, got %d", m.Calls(mock.OpRead))
		}
	})

	t.Run("QueryByPartition", func(t *testing.T) {
		m := mock.New().WithCharge(mock.OpQuery, 2.5)
		c := provision(t, m)
		for _, doc := range []storagemodels.Document{
			{"id": "b", "_partitionKey": "User"},
			{"id": "a", "_partitionKey": "User"},
			{"id": "c", "_partitionKey": "Link"},
		} {
			if _, err := m.InsertItem(ctx, c, doc); err != nil {
				t.Fatalf("InsertItem failed: %v", err)
			}
		}

		res, err := m.ExecuteQuery(ctx, c, "SELECT * FROM c", nil, "User")
		if err != nil {
			t.Fatalf("ExecuteQuery failed: %v", err)
		}
		if len(res.Items) != 2 || res.Items[0]["id"] != "a" {
			t.Fatalf("Unexpected items: %+v", res.Items)
		}
		if res.RequestCharge != 2.5 {
			t.Fatalf("Expected charge 2.5, got %v", res.RequestCharge)
		}
		if q := m.Queries(); len(q) != 1 || q[0].Partition != "User" {
			t.Fatalf("Unexpected query log: %+v", q)
		}
	})

	t.Run("Expire", func(t *testing.T) {
		m := mock.New()
		c := provision(t, m)
		_, _ = m.InsertItem(ctx, c, storagemodels.Document{"id": "1", "_partitionKey": "User", "ttl": 1})
		_, _ = m.InsertItem(ctx, c, storagemodels.Document{"id": "2", "_partitionKey": "User"})
		if n := m.Expire(); n != 1 {
			t.Fatalf("Expected 1 expired document, got %d", n)
		}
		if m.Count() != 1 {
			t.Fatalf("Expected 1 remaining document, got %d", m.Count())
		}
	})
}
