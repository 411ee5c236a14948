/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/storagemodels"
)

// EnsureDatabase has nothing to create on DynamoDB; the id prefixes table names.
func (c *Client) EnsureDatabase(ctx context.Context, id string) (datastore.Database, error) {
	return datastore.DatabaseRef(id), nil
}

// EnsureContainer creates the container's table if it does not exist, waits
// for it to become active and enables expiry on the ttl attribute.
func (c *Client) EnsureContainer(ctx context.Context, db datastore.Database, spec datastore.ContainerSpec) (datastore.Container, error) {
	t := Table{Database: db.ID(), Name: spec.ID, PartitionKey: partitionAttribute(spec.PartitionKeyPath)}
	name := t.TableName()

	out, err := c.api.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: aws.String(name)})
	var notFound *types.ResourceNotFoundException
	switch {
	case errors.As(err, &notFound):
		if err := c.createTable(ctx, t); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("DescribeTable %s: %w", name, err)
	case out.Table != nil && out.Table.TableStatus != types.TableStatusActive:
		if err := c.waitActive(ctx, name); err != nil {
			return nil, err
		}
	}

	if err := c.enableTTL(ctx, name); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Client) createTable(ctx context.Context, t Table) error {
	name := t.TableName()
	_, err := c.api.CreateTable(ctx, &sdk.CreateTableInput{
		TableName: aws.String(name),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(t.PartitionKey), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(storagemodels.FieldID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(t.PartitionKey), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(storagemodels.FieldID), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return fmt.Errorf("CreateTable %s: %w", name, err)
	}
	c.logger.Info().Str("table", name).Msg("created table")
	return c.waitActive(ctx, name)
}

func (c *Client) waitActive(ctx context.Context, name string) error {
	waiter := sdk.NewTableExistsWaiter(c.api)
	if err := waiter.Wait(ctx, &sdk.DescribeTableInput{TableName: aws.String(name)}, c.tableTimeout); err != nil {
		return fmt.Errorf("waiting for table %s: %w", name, err)
	}
	return nil
}

func (c *Client) enableTTL(ctx context.Context, name string) error {
	out, err := c.api.DescribeTimeToLive(ctx, &sdk.DescribeTimeToLiveInput{TableName: aws.String(name)})
	if err != nil {
		return fmt.Errorf("DescribeTimeToLive %s: %w", name, err)
	}
	if d := out.TimeToLiveDescription; d != nil {
		switch d.TimeToLiveStatus {
		case types.TimeToLiveStatusEnabled, types.TimeToLiveStatusEnabling:
			return nil
		}
	}
	_, err = c.api.UpdateTimeToLive(ctx, &sdk.UpdateTimeToLiveInput{
		TableName: aws.String(name),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String(ExpiresAtAttribute),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("UpdateTimeToLive %s: %w", name, err)
	}
	return nil
}
