/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore_test

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/docstore"
	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/datastore/mock"
	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/metrics"
	"github.com/suparena/docstore/query"
	"github.com/suparena/docstore/storagemodels"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newDAO(t *testing.T, client *mock.Client, opts ...docstore.Option) *docstore.DAO {
	t.Helper()
	all := append([]docstore.Option{docstore.WithClock(clock)}, opts...)
	return docstore.NewWithClient(client, "production", "items", all...)
}

func totalCalls(m *mock.Client) int {
	n := 0
	for _, op := range []mock.Operation{mock.OpEnsureDatabase, mock.OpEnsureContainer, mock.OpQuery, mock.OpInsert, mock.OpRead, mock.OpReplace} {
		n += m.Calls(op)
	}
	return n
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		out = append(out, entry)
	}
	return out
}

func costMessages(t *testing.T, buf *bytes.Buffer) []string {
	var msgs []string
	for _, e := range logLines(t, buf) {
		if _, ok := e["charge"]; ok {
			msgs = append(msgs, e["message"].(string))
		}
	}
	return msgs
}

func TestProvisioning(t *testing.T) {
	ctx := context.Background()

	t.Run("LazyAndOnce", func(t *testing.T) {
		client := mock.New()
		dao := newDAO(t, client)
		assert.Equal(t, docstore.Uninitialized, dao.State())
		assert.Zero(t, totalCalls(client))

		_, err := dao.Query(ctx, storagemodels.QueryLiteral{Query: "SELECT * FROM c", Partition: []string{"User"}})
		require.NoError(t, err)
		_, err = dao.Query(ctx, storagemodels.QueryLiteral{Query: "SELECT * FROM c", Partition: []string{"User"}})
		require.NoError(t, err)

		assert.Equal(t, docstore.Ready, dao.State())
		assert.Equal(t, 1, client.Calls(mock.OpEnsureDatabase))
		assert.Equal(t, 1, client.Calls(mock.OpEnsureContainer))

		spec, ok := client.ContainerSpec("production", "items")
		require.True(t, ok)
		assert.Equal(t, "/_partitionKey", spec.PartitionKeyPath)
	})

	t.Run("SingleFlight", func(t *testing.T) {
		client := mock.New().WithEnsureDelay(50 * time.Millisecond)
		dao := newDAO(t, client)

		var wg sync.WaitGroup
		errs := make([]error, 16)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = dao.Init(ctx)
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, 1, client.Calls(mock.OpEnsureDatabase))
		assert.Equal(t, 1, client.Calls(mock.OpEnsureContainer))
		assert.Equal(t, docstore.Ready, dao.State())
	})

	t.Run("CancelledCallerDoesNotFailOthers", func(t *testing.T) {
		client := mock.New().WithEnsureDelay(200 * time.Millisecond)
		dao := newDAO(t, client)

		leaderCtx, cancel := context.WithCancel(ctx)
		leaderErr := make(chan error, 1)
		go func() { leaderErr <- dao.Init(leaderCtx) }()
		require.Eventually(t, func() bool {
			return dao.State() == docstore.Provisioning
		}, time.Second, time.Millisecond)

		followerErr := make(chan error, 1)
		go func() { followerErr <- dao.Init(ctx) }()
		cancel()

		assert.ErrorIs(t, <-leaderErr, context.Canceled)
		require.NoError(t, <-followerErr)
		assert.Equal(t, 1, client.Calls(mock.OpEnsureDatabase))
		assert.Equal(t, 1, client.Calls(mock.OpEnsureContainer))
		assert.Equal(t, docstore.Ready, dao.State())
	})

	t.Run("CancelledContextStillProvisions", func(t *testing.T) {
		client := mock.New().WithEnsureDelay(20 * time.Millisecond)
		dao := newDAO(t, client)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, dao.Init(cancelled), context.Canceled)

		require.Eventually(t, func() bool {
			return dao.State() == docstore.Ready
		}, time.Second, time.Millisecond)
		require.NoError(t, dao.Init(ctx))
		assert.Equal(t, 1, client.Calls(mock.OpEnsureDatabase))
	})

	t.Run("FailureIsRetried", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		client := mock.New().WithError(mock.OpEnsureDatabase, cause)
		dao := newDAO(t, client)

		err := dao.Init(ctx)
		require.Error(t, err)
		assert.True(t, errors.IsStorageUnavailable(err))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, docstore.Uninitialized, dao.State())

		client.WithError(mock.OpEnsureDatabase, nil)
		require.NoError(t, dao.Init(ctx))
		assert.Equal(t, 2, client.Calls(mock.OpEnsureDatabase))
		assert.Equal(t, docstore.Ready, dao.State())
	})

	t.Run("SeededHandles", func(t *testing.T) {
		client := mock.New()
		db, err := client.EnsureDatabase(ctx, "shared")
		require.NoError(t, err)
		c, err := client.EnsureContainer(ctx, db, datastore.ContainerSpec{ID: "items", PartitionKeyPath: "/_partitionKey"})
		require.NoError(t, err)

		dao := docstore.NewWithClient(client, "shared", "items", docstore.WithHandles(db, c))
		assert.Equal(t, docstore.Ready, dao.State())

		_, err = dao.Create(ctx, storagemodels.Document{"_partitionKey": "User"})
		require.NoError(t, err)
		assert.Equal(t, 1, client.Calls(mock.OpEnsureDatabase))
		assert.Equal(t, 1, client.Calls(mock.OpEnsureContainer))
	})

	t.Run("CustomPartitionKeyPath", func(t *testing.T) {
		client := mock.New()
		dao := newDAO(t, client, docstore.WithPartitionKeyPath("/tenant"))
		require.NoError(t, dao.Init(ctx))

		spec, ok := client.ContainerSpec("production", "items")
		require.True(t, ok)
		assert.Equal(t, "/tenant", spec.PartitionKeyPath)
	})

	t.Run("PartitionKeyReadFromPath", func(t *testing.T) {
		client := mock.New().WithClock(clock)
		dao := newDAO(t, client, docstore.WithPartitionKeyPath("/type"))

		created, err := dao.Create(ctx, storagemodels.Document{"id": "1", "type": "User", "name": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "User", created["type"])

		updated, err := dao.Update(ctx, storagemodels.Document{"id": "1", "type": "User", "name": "Grace"}, "")
		require.NoError(t, err)
		assert.Equal(t, "Grace", updated["name"])

		deleted, err := dao.Delete(ctx, storagemodels.Document{"id": "1", "type": "User"})
		require.NoError(t, err)
		assert.Equal(t, 1, deleted["ttl"])

		_, err = dao.Delete(ctx, storagemodels.Document{"id": "1", "_partitionKey": "User"})
		assert.True(t, errors.IsMissingIdentifier(err))
		assert.Contains(t, err.Error(), `"type"`)
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultsAndGeneratedID", func(t *testing.T) {
		client := mock.New().WithClock(clock)
		dao := newDAO(t, client, docstore.WithIDGenerator(func() string { return "gen-1" }))

		created, err := dao.Create(ctx, storagemodels.Document{"_partitionKey": "User", "name": "Adam"})
		require.NoError(t, err)
		assert.Equal(t, "gen-1", created["id"])
		assert.Equal(t, fixedNow.Unix(), created["createdOn"])
		assert.Equal(t, "Adam", created["name"])
		assert.Equal(t, fixedNow.Unix(), created["_ts"])
	})

	t.Run("ItemFieldsWinOverDefaults", func(t *testing.T) {
		dao := newDAO(t, mock.New())

		created, err := dao.Create(ctx, storagemodels.Document{"id": "1", "_partitionKey": "User", "createdOn": int64(5)})
		require.NoError(t, err)
		assert.Equal(t, int64(5), created["createdOn"])
	})

	t.Run("ExplicitDefaultsReplaceTimestamp", func(t *testing.T) {
		dao := newDAO(t, mock.New())

		created, err := dao.Create(ctx,
			storagemodels.Document{"id": "1", "_partitionKey": "User"},
			storagemodels.Document{"createdBy": "importer"},
		)
		require.NoError(t, err)
		assert.Equal(t, "importer", created["createdBy"])
		assert.NotContains(t, created, "createdOn")
	})

	t.Run("Duplicate", func(t *testing.T) {
		dao := newDAO(t, mock.New())
		item := storagemodels.Document{"id": "1", "_partitionKey": "User"}

		_, err := dao.Create(ctx, item)
		require.NoError(t, err)
		_, err = dao.Create(ctx, item)
		require.Error(t, err)
		assert.True(t, errors.IsAlreadyExists(err))
		assert.False(t, errors.IsStorageUnavailable(err))
	})

	t.Run("InputNotMutated", func(t *testing.T) {
		dao := newDAO(t, mock.New())
		item := storagemodels.Document{"_partitionKey": "User"}
		defaults := []storagemodels.Document{{"a": 1}}

		_, err := dao.Create(ctx, item, defaults...)
		require.NoError(t, err)
		assert.NotContains(t, item, "id")
		assert.Len(t, defaults[0], 1)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingIDMakesNoCalls", func(t *testing.T) {
		client := mock.New()
		dao := newDAO(t, client)

		_, err := dao.Update(ctx, storagemodels.Document{"name": "Eve"}, "User")
		require.Error(t, err)
		assert.True(t, errors.IsMissingIdentifier(err))
		assert.Zero(t, totalCalls(client))

		_, err = dao.Update(ctx, storagemodels.Document{"id": 42}, "User")
		assert.True(t, errors.IsMissingIdentifier(err))
		assert.Zero(t, totalCalls(client))
	})

	t.Run("MissingPartitionKey", func(t *testing.T) {
		client := mock.New()
		dao := newDAO(t, client)

		_, err := dao.Update(ctx, storagemodels.Document{"id": "1"}, "")
		require.Error(t, err)
		var missing *errors.MissingIdentifierError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "_partitionKey", missing.Field)
		assert.Zero(t, totalCalls(client))
	})

	t.Run("MergeOrder", func(t *testing.T) {
		dao := newDAO(t, mock.New())
		_, err := dao.Create(ctx, storagemodels.Document{"id": "1", "_partitionKey": "User", "a": "old", "b": "old"})
		require.NoError(t, err)

		updated, err := dao.Update(ctx, storagemodels.Document{"id": "1", "b": "new"}, "User")
		require.NoError(t, err)
		assert.Equal(t, "old", updated["a"])
		assert.Equal(t, "new", updated["b"])
		assert.Equal(t, fixedNow.Unix(), updated["updatedOn"])
		assert.Equal(t, fixedNow.Unix(), updated["createdOn"])

		updated, err = dao.Update(ctx,
			storagemodels.Document{"id": "1", "b": "partial"}, "User",
			storagemodels.Document{"b": "default"},
		)
		require.NoError(t, err)
		assert.Equal(t, "default", updated["b"])
	})

	t.Run("PartitionKeyFromRecord", func(t *testing.T) {
		dao := newDAO(t, mock.New())
		_, err := dao.Create(ctx, storagemodels.Document{"id": "1", "_partitionKey": "User"})
		require.NoError(t, err)

		updated, err := dao.Update(ctx, storagemodels.Document{"id": "1", "_partitionKey": "User", "x": 1}, "")
		require.NoError(t, err)
		assert.Equal(t, 1, updated["x"])
	})

	t.Run("NotFound", func(t *testing.T) {
		client := mock.New()
		dao := newDAO(t, client)

		_, err := dao.Update(ctx, storagemodels.Document{"id": "missing"}, "User")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
		assert.Zero(t, client.Calls(mock.OpReplace))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("RequiresIdentifiers", func(t *testing.T) {
		client := mock.New()
		dao := newDAO(t, client)

		_, err := dao.Delete(ctx, storagemodels.Document{"id": "1"})
		assert.True(t, errors.IsMissingIdentifier(err))
		_, err = dao.Delete(ctx, storagemodels.Document{"_partitionKey": "User"})
		assert.True(t, errors.IsMissingIdentifier(err))
		assert.Zero(t, totalCalls(client))
	})

	t.Run("SoftDelete", func(t *testing.T) {
		client := mock.New()
		dao := newDAO(t, client)
		created, err := dao.Create(ctx, storagemodels.Document{"id": "1", "_partitionKey": "User", "name": "Adam"})
		require.NoError(t, err)

		deleted, err := dao.Delete(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, 1, deleted["ttl"])
		assert.Equal(t, "Adam", deleted["name"])

		record, err := dao.GetRecord(ctx, "1", "User")
		require.NoError(t, err)
		assert.Equal(t, 1, record["ttl"])

		assert.Equal(t, 1, client.Expire())
		_, err = dao.GetRecord(ctx, "1", "User")
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	client := mock.New()
	dao := newDAO(t, client)
	_, err := dao.Create(ctx, storagemodels.Document{"id": "1", "_partitionKey": "User", "n": 1})
	require.NoError(t, err)
	reads := client.Calls(mock.OpRead)

	item, err := dao.Get(ctx, "1", "User")
	require.NoError(t, err)
	assert.Equal(t, "1", item.ID())
	assert.Equal(t, "User", item.PartitionKey())
	assert.Equal(t, reads, client.Calls(mock.OpRead))

	doc, err := item.Read(ctx)
	require.NoError(t, err)
	doc["n"] = 2
	replaced, err := item.Replace(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 2, replaced["n"])

	_, err = dao.Get(ctx, "", "User")
	assert.True(t, errors.IsMissingIdentifier(err))
}

func TestQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("RequiresPartition", func(t *testing.T) {
		client := mock.New()
		dao := newDAO(t, client)

		_, err := dao.Query(ctx, storagemodels.QueryLiteral{Query: "SELECT * FROM c"})
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
		assert.Zero(t, totalCalls(client))
	})

	t.Run("ScopedByPartition", func(t *testing.T) {
		client := mock.New()
		dao := newDAO(t, client)
		for _, doc := range []storagemodels.Document{
			{"id": "1", "_partitionKey": "User"},
			{"id": "2", "_partitionKey": "Link"},
			{"id": "3", "_partitionKey": "User"},
		} {
			_, err := dao.Create(ctx, doc)
			require.NoError(t, err)
		}

		lit, err := query.NewQueryBuilder("User").Build()
		require.NoError(t, err)
		docs, err := dao.Query(ctx, lit)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "1", docs[0]["id"])
		assert.Equal(t, "3", docs[1]["id"])

		queries := client.Queries()
		require.Len(t, queries, 1)
		assert.Equal(t, "User", queries[0].Partition)
		assert.Equal(t, lit.Query, queries[0].Text)
	})

	t.Run("MultiplePartitions", func(t *testing.T) {
		client := mock.New()
		dao := newDAO(t, client)

		_, err := dao.Query(ctx, storagemodels.QueryLiteral{Query: "SELECT * FROM c", Partition: []string{"User", "Link"}})
		require.NoError(t, err)
		assert.Equal(t, "User,Link", client.Queries()[0].Partition)
	})

	t.Run("ClientFailure", func(t *testing.T) {
		cause := stderrors.New("timeout")
		dao := newDAO(t, mock.New().WithError(mock.OpQuery, cause))

		_, err := dao.Query(ctx, storagemodels.QueryLiteral{Query: "SELECT * FROM c", Partition: []string{"User"}})
		require.Error(t, err)
		assert.True(t, errors.IsStorageUnavailable(err))
		assert.ErrorIs(t, err, cause)
		assert.Zero(t, dao.AggregateCost())
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	client := mock.New()
	dao := newDAO(t, client)
	_, err := dao.Create(ctx, storagemodels.Document{"id": "1", "_partitionKey": "User", "type": "User", "firstName": "Adam"})
	require.NoError(t, err)

	docs, err := dao.Search(ctx, query.SearchOptions{Type: "User", Item: map[string]any{"firstName": "Adam"}})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	q := client.Queries()[0]
	assert.Contains(t, q.Text, "c.type = @Type")
	assert.Contains(t, q.Text, "c[@P0] = @V0")
	assert.Equal(t, "User", q.Partition)

	_, err = dao.Search(ctx, query.SearchOptions{})
	assert.True(t, errors.IsValidationError(err))
}

func TestCostAccounting(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	client := mock.New().
		WithCharge(mock.OpInsert, 5.5).
		WithCharge(mock.OpRead, 1.25).
		WithCharge(mock.OpReplace, 2.333).
		WithCharge(mock.OpQuery, 3)
	dao := newDAO(t, client, docstore.WithLogger(zerolog.New(&buf)))

	_, err := dao.Create(ctx, storagemodels.Document{"id": "1", "_partitionKey": "User"})
	require.NoError(t, err)
	_, err = dao.GetRecord(ctx, "1", "User")
	require.NoError(t, err)
	_, err = dao.Update(ctx, storagemodels.Document{"id": "1"}, "User")
	require.NoError(t, err)
	_, err = dao.Query(ctx, storagemodels.QueryLiteral{Query: "SELECT * FROM c", Partition: []string{"User"}})
	require.NoError(t, err)

	assert.InDelta(t, 5.5+1.25+1.25+2.333+3, dao.AggregateCost(), 1e-9)
	assert.Equal(t, []string{
		"COST(User): 5.5 (5.5)",
		"COST(User): 1.25 (6.75)",
		"COST(User): 1.25 (8)",
		"COST(User): 2.33 (10.33)",
		"COST(User): 3 (13.33)",
	}, costMessages(t, &buf))

	var sum float64
	for _, e := range logLines(t, &buf) {
		if c, ok := e["charge"].(float64); ok {
			sum += c
		}
	}
	assert.InDelta(t, 5.5+1.25+1.25+2.33+3, sum, 1e-9)

	t.Run("UnknownPartition", func(t *testing.T) {
		buf.Reset()
		_, err := dao.Create(ctx, storagemodels.Document{"id": "2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"COST(?): 5.5 (18.83)"}, costMessages(t, &buf))
	})

	t.Run("Reset", func(t *testing.T) {
		dao.Reset()
		assert.Zero(t, dao.AggregateCost())
		assert.Equal(t, docstore.Uninitialized, dao.State())

		require.NoError(t, dao.Init(ctx))
		assert.Equal(t, 2, client.Calls(mock.OpEnsureDatabase))
	})
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := mock.New().WithCharge(mock.OpInsert, 4)
	dao := newDAO(t, client, docstore.WithMetrics(m))

	_, err := dao.Create(ctx, storagemodels.Document{"id": "1", "_partitionKey": "User"})
	require.NoError(t, err)
	_, err = dao.Create(ctx, storagemodels.Document{"id": "1", "_partitionKey": "User"})
	require.Error(t, err)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.RequestUnits.WithLabelValues("items", "create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("items", "create", metrics.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("items", "create", metrics.StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("items", "provision", metrics.StatusOK)))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", docstore.Uninitialized.String())
	assert.Equal(t, "provisioning", docstore.Provisioning.String())
	assert.Equal(t, "ready", docstore.Ready.String())
	assert.Equal(t, "unknown", docstore.State(9).String())
}
