/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"context"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/metrics"
	"github.com/suparena/docstore/query"
	"github.com/suparena/docstore/storagemodels"
)

// State is the provisioning state of a DAO.
type State int32

const (
	Uninitialized State = iota
	Provisioning
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Provisioning:
		return "provisioning"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Operation labels used in logs and metrics.
const (
	opProvision = "provision"
	opQuery     = "query"
	opCreate    = "create"
	opUpdate    = "update"
	opDelete    = "delete"
	opRead      = "read"
	opReplace   = "replace"
	opGet       = "get"
)

// Option configures a DAO.
type Option func(*DAO)

// WithLogger sets the logger. The default discards output.
func WithLogger(l zerolog.Logger) Option {
	return func(d *DAO) { d.logger = l }
}

// WithMetrics records every client call on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *DAO) { d.metrics = m }
}

// WithClock overrides the clock used for createdOn and updatedOn.
func WithClock(now func() time.Time) Option {
	return func(d *DAO) { d.now = now }
}

// WithIDGenerator overrides the id assigned to created items that carry none.
func WithIDGenerator(f func() string) Option {
	return func(d *DAO) { d.newID = f }
}

// WithPartitionKeyPath sets the partition key path used when the container
// is provisioned. It defaults to /_partitionKey.
func WithPartitionKeyPath(path string) Option {
	return func(d *DAO) { d.partitionKeyPath = path }
}

// WithHandles seeds already provisioned handles so the DAO starts Ready.
func WithHandles(db datastore.Database, c datastore.Container) Option {
	return func(d *DAO) {
		d.database = db
		d.container = c
	}
}

// DAO provides lazy provisioning, CRUD, soft deletion and cost accounting
// over one container of a document store. It is safe for concurrent use.
type DAO struct {
	client           datastore.Client
	databaseID       string
	containerID      string
	partitionKeyPath string

	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string

	mu        sync.RWMutex
	database  datastore.Database
	container datastore.Container
	state     atomic.Int32
	group     singleflight.Group

	costMu sync.Mutex
	cost   float64
}

// NewWithClient creates a DAO on a pre-built client. The client may be shared
// between DAOs; each DAO owns its handles and its running cost.
func NewWithClient(client datastore.Client, databaseID, containerID string, opts ...Option) *DAO {
	d := &DAO{
		client:           client,
		databaseID:       databaseID,
		containerID:      containerID,
		partitionKeyPath: "/" + storagemodels.FieldPartitionKey,
		logger:           zerolog.Nop(),
		now:              time.Now,
		newID:            uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.database != nil && d.container != nil {
		d.state.Store(int32(Ready))
	}
	return d
}

// DatabaseID returns the database name.
func (d *DAO) DatabaseID() string { return d.databaseID }

// ContainerID returns the container name.
func (d *DAO) ContainerID() string { return d.containerID }

// State reports the provisioning state.
func (d *DAO) State() State {
	return State(d.state.Load())
}

// AggregateCost returns the running total of consumption units.
func (d *DAO) AggregateCost() float64 {
	d.costMu.Lock()
	defer d.costMu.Unlock()
	return d.cost
}

// Reset zeroes the running cost and drops the cached handles. The next
// operation provisions again.
func (d *DAO) Reset() {
	d.mu.Lock()
	d.database = nil
	d.container = nil
	d.state.Store(int32(Uninitialized))
	d.mu.Unlock()

	d.costMu.Lock()
	d.cost = 0
	d.costMu.Unlock()
}

// Init provisions the database and container if that has not happened yet.
// Concurrent callers share one provisioning attempt.
func (d *DAO) Init(ctx context.Context) error {
	_, err := d.handle(ctx)
	return err
}

func (d *DAO) handle(ctx context.Context) (datastore.Container, error) {
	d.mu.RLock()
	c := d.container
	d.mu.RUnlock()
	if c != nil {
		return c, nil
	}

	// The shared attempt outlives any single caller; each caller stops
	// waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := d.group.DoChan(opProvision, func() (any, error) {
		d.mu.RLock()
		c := d.container
		d.mu.RUnlock()
		if c != nil {
			return c, nil
		}
		return d.provision(shared)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(datastore.Container), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *DAO) provision(ctx context.Context) (datastore.Container, error) {
	d.state.Store(int32(Provisioning))
	log := d.logger.With().Str("database", d.databaseID).Str("container", d.containerID).Logger()
	log.Debug().Msg("provisioning storage")

	db, err := d.client.EnsureDatabase(ctx, d.databaseID)
	if err == nil {
		var c datastore.Container
		c, err = d.client.EnsureContainer(ctx, db, datastore.ContainerSpec{
			ID:               d.containerID,
			PartitionKeyPath: d.partitionKeyPath,
		})
		if err == nil {
			d.mu.Lock()
			d.database = db
			d.container = c
			d.state.Store(int32(Ready))
			d.mu.Unlock()
			d.metrics.Observe(d.containerID, opProvision, 0, nil)
			log.Info().Msg("storage ready")
			return c, nil
		}
	}

	d.state.Store(int32(Uninitialized))
	d.metrics.Observe(d.containerID, opProvision, 0, err)
	log.Error().Err(err).Msg("provisioning failed")
	return nil, errors.NewStorageError(opProvision, err)
}

// record adds charge to the running total and logs the call.
func (d *DAO) record(op, partition string, charge float64) {
	d.costMu.Lock()
	d.cost += charge
	total := d.cost
	d.costMu.Unlock()

	if partition == "" {
		partition = "?"
	}
	d.metrics.Observe(d.containerID, op, charge, nil)
	d.logger.Info().
		Str("op", op).
		Str("partition", partition).
		Float64("charge", truncate(charge)).
		Float64("total", truncate(total)).
		Msgf("COST(%s): %s (%s)", partition, formatCost(charge), formatCost(total))
}

func (d *DAO) fail(op string, err error) error {
	d.metrics.Observe(d.containerID, op, 0, err)
	return errors.NewStorageError(op, err)
}

func truncate(v float64) float64 {
	return math.Trunc(v*100) / 100
}

func formatCost(v float64) string {
	return strconv.FormatFloat(truncate(v), 'f', -1, 64)
}

// Query executes a query literal scoped to its partition(s) and returns every
// matching document.
func (d *DAO) Query(ctx context.Context, lit storagemodels.QueryLiteral) ([]storagemodels.Document, error) {
	partition := lit.PartitionKey()
	if partition == "" {
		return nil, errors.NewValidationError("partition", "query requires a partition")
	}
	c, err := d.handle(ctx)
	if err != nil {
		return nil, err
	}

	d.logger.Debug().Str("partition", partition).Msgf("QUERY [%s]", lit.Query)
	res, err := d.client.ExecuteQuery(ctx, c, lit.Query, lit.Parameters, partition)
	if err != nil {
		return nil, d.fail(opQuery, err)
	}
	d.record(opQuery, partition, res.RequestCharge)
	return res.Items, nil
}

// Search renders opts with query.Search and executes the result.
func (d *DAO) Search(ctx context.Context, opts query.SearchOptions) ([]storagemodels.Document, error) {
	lit, err := query.Search(opts)
	if err != nil {
		return nil, err
	}
	return d.Query(ctx, lit)
}

// Create inserts item. Defaults sit under the item's own fields; without
// explicit defaults the item gets createdOn set to the current epoch second.
// An id is generated when the item has none.
func (d *DAO) Create(ctx context.Context, item storagemodels.Document, defaults ...storagemodels.Document) (storagemodels.Document, error) {
	if len(defaults) == 0 {
		defaults = []storagemodels.Document{{storagemodels.FieldCreatedOn: d.now().Unix()}}
	}
	layers := append(append([]storagemodels.Document{}, defaults...), item)
	doc := storagemodels.Merge(layers...)
	if _, ok := doc.ID(); !ok {
		doc[storagemodels.FieldID] = d.newID()
	}

	c, err := d.handle(ctx)
	if err != nil {
		return nil, err
	}
	res, err := d.client.InsertItem(ctx, c, doc)
	if err != nil {
		return nil, d.fail(opCreate, err)
	}
	pk, _ := res.Resource.KeyAt(d.partitionKeyPath)
	d.record(opCreate, pk, res.RequestCharge)
	return res.Resource, nil
}

// Update reads the stored record and replaces it with the merge of the old
// fields, record and defaults, later layers winning. Without explicit
// defaults updatedOn is set to the current epoch second. partitionKey falls
// back to the record's value at the partition key path.
func (d *DAO) Update(ctx context.Context, record storagemodels.Document, partitionKey string, defaults ...storagemodels.Document) (storagemodels.Document, error) {
	id, ok := record.ID()
	if !ok {
		return nil, errors.NewMissingIdentifierError(opUpdate, storagemodels.FieldID)
	}
	if partitionKey == "" {
		partitionKey, _ = record.KeyAt(d.partitionKeyPath)
	}
	if partitionKey == "" {
		return nil, errors.NewMissingIdentifierError(opUpdate, storagemodels.PartitionKeyField(d.partitionKeyPath))
	}
	if len(defaults) == 0 {
		defaults = []storagemodels.Document{{storagemodels.FieldUpdatedOn: d.now().Unix()}}
	}

	item, err := d.Get(ctx, id, partitionKey)
	if err != nil {
		return nil, err
	}
	old, err := item.Read(ctx)
	if err != nil {
		return nil, err
	}
	layers := append([]storagemodels.Document{old, record}, defaults...)
	return item.replace(ctx, opUpdate, storagemodels.Merge(layers...))
}

// Delete soft-deletes a record by replacing it with ttl set to 1. The store
// reclaims it once the expiry passes; until then it stays readable.
func (d *DAO) Delete(ctx context.Context, record storagemodels.Document) (storagemodels.Document, error) {
	id, ok := record.ID()
	if !ok {
		return nil, errors.NewMissingIdentifierError(opDelete, storagemodels.FieldID)
	}
	pk, ok := record.KeyAt(d.partitionKeyPath)
	if !ok {
		return nil, errors.NewMissingIdentifierError(opDelete, storagemodels.PartitionKeyField(d.partitionKeyPath))
	}

	item, err := d.Get(ctx, id, pk)
	if err != nil {
		return nil, err
	}
	old, err := item.Read(ctx)
	if err != nil {
		return nil, err
	}
	return item.replace(ctx, opDelete, storagemodels.Merge(old, storagemodels.Document{storagemodels.FieldTTL: 1}))
}

// Get returns a handle to a single record. No store call is made beyond
// provisioning.
func (d *DAO) Get(ctx context.Context, id, partitionKey string) (*Item, error) {
	if id == "" {
		return nil, errors.NewMissingIdentifierError(opGet, storagemodels.FieldID)
	}
	if partitionKey == "" {
		return nil, errors.NewMissingIdentifierError(opGet, storagemodels.FieldPartitionKey)
	}
	c, err := d.handle(ctx)
	if err != nil {
		return nil, err
	}
	return &Item{dao: d, container: c, id: id, partitionKey: partitionKey}, nil
}

// GetRecord reads a single record.
func (d *DAO) GetRecord(ctx context.Context, id, partitionKey string) (storagemodels.Document, error) {
	item, err := d.Get(ctx, id, partitionKey)
	if err != nil {
		return nil, err
	}
	return item.Read(ctx)
}

// Item is a handle to one record in a provisioned container.
type Item struct {
	dao          *DAO
	container    datastore.Container
	id           string
	partitionKey string
}

// ID returns the record id.
func (i *Item) ID() string { return i.id }

// PartitionKey returns the record partition key.
func (i *Item) PartitionKey() string { return i.partitionKey }

// Read fetches the current representation of the record.
func (i *Item) Read(ctx context.Context) (storagemodels.Document, error) {
	res, err := i.dao.client.ReadItem(ctx, i.container, i.id, i.partitionKey)
	if err != nil {
		return nil, i.dao.fail(opRead, err)
	}
	i.dao.record(opRead, i.partitionKey, res.RequestCharge)
	return res.Resource, nil
}

// Replace overwrites the record with doc.
func (i *Item) Replace(ctx context.Context, doc storagemodels.Document) (storagemodels.Document, error) {
	return i.replace(ctx, opReplace, doc)
}

func (i *Item) replace(ctx context.Context, op string, doc storagemodels.Document) (storagemodels.Document, error) {
	res, err := i.dao.client.ReplaceItem(ctx, i.container, i.id, i.partitionKey, doc)
	if err != nil {
		return nil, i.dao.fail(op, err)
	}
	i.dao.record(op, i.partitionKey, res.RequestCharge)
	return res.Resource, nil
}
