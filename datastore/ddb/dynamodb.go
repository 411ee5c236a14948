/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/storagemodels"
)

// API is the subset of the DynamoDB client used by Client.
type API interface {
	DescribeTable(ctx context.Context, in *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *sdk.CreateTableInput, optFns ...func(*sdk.Options)) (*sdk.CreateTableOutput, error)
	DescribeTimeToLive(ctx context.Context, in *sdk.DescribeTimeToLiveInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTimeToLiveOutput, error)
	UpdateTimeToLive(ctx context.Context, in *sdk.UpdateTimeToLiveInput, optFns ...func(*sdk.Options)) (*sdk.UpdateTimeToLiveOutput, error)
	PutItem(ctx context.Context, in *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	GetItem(ctx context.Context, in *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	ExecuteStatement(ctx context.Context, in *sdk.ExecuteStatementInput, optFns ...func(*sdk.Options)) (*sdk.ExecuteStatementOutput, error)
}

// Client implements datastore.Client on DynamoDB. A database is a table-name
// prefix and each container is its own table keyed by partition key and id.
type Client struct {
	api          API
	logger       zerolog.Logger
	now          func() time.Time
	newID        func() string
	tableTimeout time.Duration
}

var _ datastore.Client = (*Client)(nil)

// ExpiresAtAttribute holds the absolute expiry, in epoch seconds, derived
// from a document's relative ttl. Table TTL is enabled on it.
const ExpiresAtAttribute = "_expiresAt"

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for provisioning events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock sets the clock used for the _ts system field.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithTableTimeout bounds how long EnsureContainer waits for a new table.
func WithTableTimeout(d time.Duration) Option {
	return func(c *Client) { c.tableTimeout = d }
}

// New wraps a DynamoDB API client.
func New(api API, opts ...Option) *Client {
	c := &Client{
		api:          api,
		logger:       zerolog.Nop(),
		now:          time.Now,
		newID:        uuid.NewString,
		tableTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDynamoDBClient initializes a DynamoDB client. Static credentials are used
// when an access key is given, otherwise the default AWS credential chain.
// A non-empty endpoint overrides the service endpoint, e.g. for DynamoDB Local.
func NewDynamoDBClient(ctx context.Context, accessKey, secretKey, region, endpoint string) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Table is a provisioned container.
type Table struct {
	Database     string
	Name         string
	PartitionKey string
}

func (t Table) ID() string         { return t.Name }
func (t Table) DatabaseID() string { return t.Database }

// TableName is the physical DynamoDB table name.
func (t Table) TableName() string {
	if t.Database == "" {
		return t.Name
	}
	return t.Database + "." + t.Name
}

func asTable(c datastore.Container) Table {
	if t, ok := c.(Table); ok {
		return t
	}
	return Table{Database: c.DatabaseID(), Name: c.ID(), PartitionKey: storagemodels.FieldPartitionKey}
}

func partitionAttribute(pathSpec string) string {
	name := strings.TrimPrefix(pathSpec, "/")
	if name == "" {
		return storagemodels.FieldPartitionKey
	}
	return name
}

func capacity(units *float64) float64 {
	if units == nil {
		return 0
	}
	return *units
}
