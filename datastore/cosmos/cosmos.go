/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cosmos

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/goccy/go-json"

	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

// Client implements datastore.Client on Azure Cosmos DB.
type Client struct {
	client *azcosmos.Client
}

var _ datastore.Client = (*Client)(nil)

// New connects to an account with its primary or secondary key.
func New(endpoint, accessKey string) (*Client, error) {
	cred, err := azcosmos.NewKeyCredential(accessKey)
	if err != nil {
		return nil, fmt.Errorf("invalid cosmos key: %w", err)
	}
	c, err := azcosmos.NewClientWithKey(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cosmos client: %w", err)
	}
	return &Client{client: c}, nil
}

// NewWithClient wraps an existing SDK client.
func NewWithClient(c *azcosmos.Client) *Client {
	return &Client{client: c}
}

// Database is a provisioned Cosmos database.
type Database struct {
	id     string
	client *azcosmos.DatabaseClient
}

func (d *Database) ID() string { return d.id }

// Container is a provisioned Cosmos container.
type Container struct {
	database         string
	id               string
	partitionKeyPath string
	client           *azcosmos.ContainerClient
}

func (c *Container) ID() string         { return c.id }
func (c *Container) DatabaseID() string { return c.database }

// PartitionKeyPath is the path the container was provisioned with.
func (c *Container) PartitionKeyPath() string {
	if c.partitionKeyPath == "" {
		return "/" + storagemodels.FieldPartitionKey
	}
	return c.partitionKeyPath
}

// EnsureDatabase creates the database unless it already exists.
func (c *Client) EnsureDatabase(ctx context.Context, id string) (datastore.Database, error) {
	_, err := c.client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: id}, nil)
	if err != nil && !hasStatus(err, http.StatusConflict) {
		return nil, fmt.Errorf("create database %s: %w", id, err)
	}
	db, err := c.client.NewDatabase(id)
	if err != nil {
		return nil, err
	}
	return &Database{id: id, client: db}, nil
}

// EnsureContainer creates the container unless it already exists. New
// containers have per-item TTL enabled with no default expiry.
func (c *Client) EnsureContainer(ctx context.Context, db datastore.Database, spec datastore.ContainerSpec) (datastore.Container, error) {
	dbc, err := c.database(db)
	if err != nil {
		return nil, err
	}
	handle := &Container{database: db.ID(), id: spec.ID, partitionKeyPath: spec.PartitionKeyPath}
	noDefaultExpiry := int32(-1)
	props := azcosmos.ContainerProperties{
		ID: spec.ID,
		PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
			Paths: []string{handle.PartitionKeyPath()},
		},
		DefaultTimeToLive: &noDefaultExpiry,
	}
	_, err = dbc.CreateContainer(ctx, props, nil)
	if err != nil && !hasStatus(err, http.StatusConflict) {
		return nil, fmt.Errorf("create container %s: %w", spec.ID, err)
	}
	cc, err := dbc.NewContainer(spec.ID)
	if err != nil {
		return nil, err
	}
	handle.client = cc
	return handle, nil
}

// ExecuteQuery runs a parameterized query within one partition and drains
// every page.
func (c *Client) ExecuteQuery(ctx context.Context, ct datastore.Container, text string, params []storagemodels.Parameter, partition string) (*datastore.QueryResult, error) {
	cc, err := c.container(ct)
	if err != nil {
		return nil, err
	}
	if partition == "" {
		return nil, errors.NewValidationError("partition", "cosmos queries are scoped to a partition")
	}

	qp := make([]azcosmos.QueryParameter, len(params))
	for i, p := range params {
		qp[i] = azcosmos.QueryParameter{Name: p.Name, Value: p.Value}
	}
	pager := cc.NewQueryItemsPager(text, azcosmos.NewPartitionKeyString(partition), &azcosmos.QueryOptions{
		QueryParameters: qp,
	})

	result := &datastore.QueryResult{Items: []storagemodels.Document{}}
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError(err, "query", "")
		}
		result.RequestCharge += float64(page.RequestCharge)
		for _, raw := range page.Items {
			doc, err := decode(raw)
			if err != nil {
				return nil, err
			}
			result.Items = append(result.Items, doc)
		}
	}
	return result, nil
}

// InsertItem creates a new document.
func (c *Client) InsertItem(ctx context.Context, ct datastore.Container, doc storagemodels.Document) (*datastore.ItemResult, error) {
	cc, err := c.container(ct)
	if err != nil {
		return nil, err
	}
	pk, err := partitionKeyOf(doc, partitionKeyPath(ct))
	if err != nil {
		return nil, err
	}
	id, _ := doc.ID()
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	resp, err := cc.CreateItem(ctx, pk, body, writeOptions())
	if err != nil {
		return nil, mapError(err, "insert", id)
	}
	return itemResult(resp)
}

// ReadItem is a point read by id and partition key.
func (c *Client) ReadItem(ctx context.Context, ct datastore.Container, id, partitionKey string) (*datastore.ItemResult, error) {
	cc, err := c.container(ct)
	if err != nil {
		return nil, err
	}
	resp, err := cc.ReadItem(ctx, azcosmos.NewPartitionKeyString(partitionKey), id, nil)
	if err != nil {
		return nil, mapError(err, "read", id)
	}
	return itemResult(resp)
}

// ReplaceItem overwrites an existing document.
func (c *Client) ReplaceItem(ctx context.Context, ct datastore.Container, id, partitionKey string, doc storagemodels.Document) (*datastore.ItemResult, error) {
	cc, err := c.container(ct)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	resp, err := cc.ReplaceItem(ctx, azcosmos.NewPartitionKeyString(partitionKey), id, body, writeOptions())
	if err != nil {
		return nil, mapError(err, "replace", id)
	}
	return itemResult(resp)
}

func (c *Client) database(db datastore.Database) (*azcosmos.DatabaseClient, error) {
	if d, ok := db.(*Database); ok && d.client != nil {
		return d.client, nil
	}
	return c.client.NewDatabase(db.ID())
}

func (c *Client) container(ct datastore.Container) (*azcosmos.ContainerClient, error) {
	if cc, ok := ct.(*Container); ok && cc.client != nil {
		return cc.client, nil
	}
	return c.client.NewContainer(ct.DatabaseID(), ct.ID())
}

func partitionKeyPath(ct datastore.Container) string {
	if c, ok := ct.(*Container); ok {
		return c.PartitionKeyPath()
	}
	return "/" + storagemodels.FieldPartitionKey
}

// partitionKeyOf reads the value at path (for example "/type" or
// "/address/city") from doc. A missing or null value maps to the null key.
func partitionKeyOf(doc storagemodels.Document, path string) (azcosmos.PartitionKey, error) {
	var node any = map[string]any(doc)
	for _, seg := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		var m map[string]any
		switch v := node.(type) {
		case map[string]any:
			m = v
		case storagemodels.Document:
			m = v
		default:
			return azcosmos.NullPartitionKey, nil
		}
		next, ok := m[seg]
		if !ok {
			return azcosmos.NullPartitionKey, nil
		}
		node = next
	}
	switch v := node.(type) {
	case nil:
		return azcosmos.NullPartitionKey, nil
	case string:
		return azcosmos.NewPartitionKeyString(v), nil
	case bool:
		return azcosmos.NewPartitionKeyBool(v), nil
	case float64:
		return azcosmos.NewPartitionKeyNumber(v), nil
	case float32:
		return azcosmos.NewPartitionKeyNumber(float64(v)), nil
	case int:
		return azcosmos.NewPartitionKeyNumber(float64(v)), nil
	case int64:
		return azcosmos.NewPartitionKeyNumber(float64(v)), nil
	case int32:
		return azcosmos.NewPartitionKeyNumber(float64(v)), nil
	}
	return azcosmos.PartitionKey{}, errors.NewValidationError(path, fmt.Sprintf("partition key must be a string, number or bool, got %T", node))
}

func writeOptions() *azcosmos.ItemOptions {
	return &azcosmos.ItemOptions{EnableContentResponseOnWrite: true}
}

func itemResult(resp azcosmos.ItemResponse) (*datastore.ItemResult, error) {
	doc, err := decode(resp.Value)
	if err != nil {
		return nil, err
	}
	return &datastore.ItemResult{Resource: doc, RequestCharge: float64(resp.RequestCharge)}, nil
}

func decode(raw []byte) (storagemodels.Document, error) {
	doc := storagemodels.Document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

func hasStatus(err error, status int) bool {
	var re *azcore.ResponseError
	return stderrors.As(err, &re) && re.StatusCode == status
}

// mapError turns conflict and not-found responses into the matching domain
// errors. Other failures are returned wrapped.
func mapError(err error, op, id string) error {
	switch {
	case hasStatus(err, http.StatusConflict):
		return errors.NewAlreadyExistsError("document", id)
	case hasStatus(err, http.StatusNotFound):
		return errors.NewNotFoundError("document", id)
	default:
		return fmt.Errorf("cosmos %s: %w", op, err)
	}
}
