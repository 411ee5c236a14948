/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of datastore.Client for testing
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

// Operation names a client primitive for charges, errors and call counts.
type Operation string

const (
	OpEnsureDatabase  Operation = "ensureDatabase"
	OpEnsureContainer Operation = "ensureContainer"
	OpQuery           Operation = "query"
	OpInsert          Operation = "insert"
	OpRead            Operation = "read"
	OpReplace         Operation = "replace"
)

// QueryFunc replaces the default query behaviour.
type QueryFunc func(ctx context.Context, docs []storagemodels.Document, text string, params []storagemodels.Parameter) ([]storagemodels.Document, error)

// ExecutedQuery records a query the client received.
type ExecutedQuery struct {
	Container  string
	Text       string
	Parameters []storagemodels.Parameter
	Partition  string
}

// Client is an in-memory datastore.Client. Documents are keyed by container,
// partition key and id. Writes maintain the _ts system field.
type Client struct {
	mu          sync.RWMutex
	data        map[string]map[string]storagemodels.Document
	databases   map[string]bool
	containers  map[string]datastore.ContainerSpec
	charges     map[Operation]float64
	errs        map[Operation]error
	calls       map[Operation]int
	queries     []ExecutedQuery
	queryFunc   QueryFunc
	ensureDelay time.Duration
	now         func() time.Time
}

// New creates a new mock Client
func New() *Client {
	return &Client{
		data:       make(map[string]map[string]storagemodels.Document),
		databases:  make(map[string]bool),
		containers: make(map[string]datastore.ContainerSpec),
		charges:    make(map[Operation]float64),
		errs:       make(map[Operation]error),
		calls:      make(map[Operation]int),
		now:        time.Now,
	}
}

// WithCharge sets the request charge reported for op
func (m *Client) WithCharge(op Operation, charge float64) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charges[op] = charge
	return m
}

// WithError makes op fail with err
func (m *Client) WithError(op Operation, err error) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
	} else {
		m.errs[op] = err
	}
	return m
}

// WithQueryFunc sets a custom query function for testing
func (m *Client) WithQueryFunc(f QueryFunc) *Client {
	m.queryFunc = f
	return m
}

// WithEnsureDelay makes provisioning calls take at least d
func (m *Client) WithEnsureDelay(d time.Duration) *Client {
	m.ensureDelay = d
	return m
}

// WithClock sets the clock used for _ts
func (m *Client) WithClock(now func() time.Time) *Client {
	m.now = now
	return m
}

func (m *Client) begin(op Operation) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.charges[op], m.errs[op]
}

func (m *Client) sleep(ctx context.Context) error {
	if m.ensureDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(m.ensureDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnsureDatabase records the database; repeated calls succeed
func (m *Client) EnsureDatabase(ctx context.Context, id string) (datastore.Database, error) {
	if _, err := m.begin(OpEnsureDatabase); err != nil {
		return nil, err
	}
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.databases[id] = true
	return datastore.DatabaseRef(id), nil
}

// EnsureContainer records the container; repeated calls succeed
func (m *Client) EnsureContainer(ctx context.Context, db datastore.Database, spec datastore.ContainerSpec) (datastore.Container, error) {
	if _, err := m.begin(OpEnsureContainer); err != nil {
		return nil, err
	}
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.databases[db.ID()] {
		return nil, errors.NewNotFoundError("database", db.ID())
	}
	ref := datastore.ContainerRef{Database: db.ID(), Name: spec.ID}
	if _, ok := m.containers[containerKey(ref)]; !ok {
		m.containers[containerKey(ref)] = spec
	}
	return ref, nil
}

// ExecuteQuery returns every document in the comma-separated partitions
// ordered by id, unless a QueryFunc is installed
func (m *Client) ExecuteQuery(ctx context.Context, c datastore.Container, text string, params []storagemodels.Parameter, partition string) (*datastore.QueryResult, error) {
	charge, err := m.begin(OpQuery)

	m.mu.Lock()
	m.queries = append(m.queries, ExecutedQuery{
		Container:  c.ID(),
		Text:       text,
		Parameters: append([]storagemodels.Parameter(nil), params...),
		Partition:  partition,
	})
	docs := m.partitionDocs(c, partition)
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	if m.queryFunc != nil {
		docs, err = m.queryFunc(ctx, docs, text, params)
		if err != nil {
			return nil, err
		}
	}
	return &datastore.QueryResult{Items: docs, RequestCharge: charge}, nil
}

// InsertItem stores a new document, assigning an id when absent
func (m *Client) InsertItem(ctx context.Context, c datastore.Container, doc storagemodels.Document) (*datastore.ItemResult, error) {
	charge, err := m.begin(OpInsert)
	if err != nil {
		return nil, err
	}

	stored := doc.Clone()
	id, ok := stored.ID()
	if !ok {
		id = uuid.NewString()
		stored[storagemodels.FieldID] = id
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	pk, _ := stored.KeyAt(m.partitionPath(c))
	bucket := m.bucket(c)
	if _, exists := bucket[itemKey(pk, id)]; exists {
		return nil, errors.NewAlreadyExistsError("document", id)
	}
	stored[storagemodels.FieldTimestamp] = m.now().Unix()
	bucket[itemKey(pk, id)] = stored
	return &datastore.ItemResult{Resource: stored.Clone(), RequestCharge: charge}, nil
}

// ReadItem retrieves a document by id and partition key
func (m *Client) ReadItem(ctx context.Context, c datastore.Container, id, partitionKey string) (*datastore.ItemResult, error) {
	charge, err := m.begin(OpRead)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.data[containerKey(c)][itemKey(partitionKey, id)]
	if !ok {
		return nil, errors.NewNotFoundError("document", id)
	}
	return &datastore.ItemResult{Resource: doc.Clone(), RequestCharge: charge}, nil
}

// ReplaceItem overwrites an existing document
func (m *Client) ReplaceItem(ctx context.Context, c datastore.Container, id, partitionKey string, doc storagemodels.Document) (*datastore.ItemResult, error) {
	charge, err := m.begin(OpReplace)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.bucket(c)
	if _, exists := bucket[itemKey(partitionKey, id)]; !exists {
		return nil, errors.NewNotFoundError("document", id)
	}
	stored := doc.Clone()
	stored[storagemodels.FieldID] = id
	stored[storagemodels.FieldTimestamp] = m.now().Unix()
	bucket[itemKey(partitionKey, id)] = stored
	return &datastore.ItemResult{Resource: stored.Clone(), RequestCharge: charge}, nil
}

// Helper methods for testing

// Calls returns how many times op was invoked
func (m *Client) Calls(op Operation) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Queries returns the queries received so far
func (m *Client) Queries() []ExecutedQuery {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ExecutedQuery(nil), m.queries...)
}

// ContainerSpec returns the spec a container was provisioned with
func (m *Client) ContainerSpec(database, container string) (datastore.ContainerSpec, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.containers[containerKey(datastore.ContainerRef{Database: database, Name: container})]
	return spec, ok
}

// Count returns the number of stored documents across all containers
func (m *Client) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, bucket := range m.data {
		n += len(bucket)
	}
	return n
}

// Expire removes every document carrying a positive ttl, standing in for the
// store's background expiry.
func (m *Client) Expire() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, bucket := range m.data {
		for k, doc := range bucket {
			if ttl, ok := doc[storagemodels.FieldTTL]; ok && positive(ttl) {
				delete(bucket, k)
				n++
			}
		}
	}
	return n
}

// Clear removes all data
func (m *Client) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]map[string]storagemodels.Document)
	m.queries = nil
}

func (m *Client) bucket(c datastore.Container) map[string]storagemodels.Document {
	key := containerKey(c)
	b, ok := m.data[key]
	if !ok {
		b = make(map[string]storagemodels.Document)
		m.data[key] = b
	}
	return b
}

func (m *Client) partitionPath(c datastore.Container) string {
	if path := m.containers[containerKey(c)].PartitionKeyPath; path != "" {
		return path
	}
	return "/" + storagemodels.FieldPartitionKey
}

func (m *Client) partitionDocs(c datastore.Container, partition string) []storagemodels.Document {
	wanted := map[string]bool{}
	for _, p := range strings.Split(partition, ",") {
		wanted[p] = true
	}
	path := m.partitionPath(c)
	var out []storagemodels.Document
	for _, doc := range m.data[containerKey(c)] {
		if pk, _ := doc.KeyAt(path); wanted[pk] {
			out = append(out, doc.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := out[i].ID()
		b, _ := out[j].ID()
		return a < b
	})
	return out
}

func containerKey(c datastore.Container) string {
	return c.DatabaseID() + "/" + c.ID()
}

func itemKey(partitionKey, id string) string {
	return partitionKey + "|" + id
}

func positive(v any) bool {
	switch n := v.(type) {
	case int:
		return n > 0
	case int64:
		return n > 0
	case float64:
		return n > 0
	}
	return false
}
