/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package link

import (
	"context"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/docstore"
	"github.com/suparena/docstore/datastore/mock"
	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/models"
	"github.com/suparena/docstore/storagemodels"
)

func newTestService(t *testing.T) (*Service, *mock.Client) {
	t.Helper()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	client := mock.New()
	return New(client, docstore.WithClock(func() time.Time { return now })), client
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)

	created, err := svc.Create(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.NotNil(t, created.ID)
	assert.Equal(t, "https://example.com/a", created.URL.String())
	assert.Equal(t, models.TypeLink, created.PartitionKey)
	assert.NotZero(t, created.CreatedOn)
	assert.True(t, strfmt.IsUUID(created.ID.String()))

	got, err := svc.Get(ctx, *created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.URL.String(), got.URL.String())

	url := strfmt.URI("https://example.com/b")
	updated, err := svc.Update(ctx, models.LinkUpdate{ID: created.ID, URL: &url})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/b", updated.URL.String())
	assert.NotZero(t, updated.UpdatedOn)
	assert.Equal(t, created.CreatedOn, updated.CreatedOn)

	deleted, err := svc.Delete(ctx, *created.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/b", deleted.URL.String())

	_, err = svc.Get(ctx, *created.ID)
	require.NoError(t, err)

	client.Expire()
	_, err = svc.Get(ctx, *created.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestServiceProvisionsItemsContainer(t *testing.T) {
	svc, client := newTestService(t)
	require.NoError(t, svc.DAO().Init(context.Background()))

	_, ok := client.ContainerSpec(DefaultDatabase, DefaultContainer)
	assert.True(t, ok)
}

func TestServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)

	_, err := svc.Create(ctx, "not a url")
	assert.True(t, errors.IsValidationError(err))

	_, err = svc.Update(ctx, models.LinkUpdate{})
	assert.True(t, errors.IsValidationError(err))

	assert.Zero(t, client.Calls(mock.OpInsert))
	assert.Zero(t, client.Calls(mock.OpEnsureDatabase))
}

func TestServiceUpdateUnknown(t *testing.T) {
	svc, _ := newTestService(t)
	id := strfmt.UUID("7b4c2a1e-9f1d-4b53-8a6e-2f4d5c6b7a80")
	url := strfmt.URI("https://example.com")

	_, err := svc.Update(context.Background(), models.LinkUpdate{ID: &id, URL: &url})
	assert.True(t, errors.IsNotFound(err))
}

func TestServiceSearchAndList(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)

	for _, u := range []strfmt.URI{"https://example.com/1", "https://example.com/2"} {
		_, err := svc.Create(ctx, u)
		require.NoError(t, err)
	}

	links, err := svc.Search(ctx, map[string]any{"url": "https://example.com/1"}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	links, err = svc.List(ctx, 0, 5)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	queries := client.Queries()
	require.Len(t, queries, 2)
	assert.Equal(t, models.TypeLink, queries[0].Partition)
	assert.Contains(t, queries[0].Text, "c[@P0] = @V0")
	assert.Equal(t,
		"SELECT * FROM c WHERE c.type = @Type ORDER BY c.createdOn DESC OFFSET 0 LIMIT 5",
		queries[1].Text)

	_, err = svc.List(ctx, -1, 5)
	assert.True(t, errors.IsValidationError(err))

	_, err = svc.Search(ctx, nil, &storagemodels.Page{Offset: 2, Limit: 1}, nil)
	require.NoError(t, err)
	assert.Contains(t, client.Queries()[2].Text, "OFFSET 2 LIMIT 1")
}
