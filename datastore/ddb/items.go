/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

// InsertItem puts a new document, failing if the id is taken in its partition.
// An id is generated when the document has none.
func (c *Client) InsertItem(ctx context.Context, ct datastore.Container, doc storagemodels.Document) (*datastore.ItemResult, error) {
	t := asTable(ct)
	stored := doc.Clone()
	id, ok := stored.ID()
	if !ok {
		id = c.newID()
		stored[storagemodels.FieldID] = id
	}
	if s, _ := stored[t.PartitionKey].(string); s == "" {
		return nil, errors.NewMissingIdentifierError("insert", t.PartitionKey)
	}
	c.stamp(stored)

	charge, err := c.put(ctx, t, stored, "attribute_not_exists(#id)")
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return nil, errors.NewAlreadyExistsError("document", id)
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return &datastore.ItemResult{Resource: stored, RequestCharge: charge}, nil
}

// ReadItem is a consistent point read.
func (c *Client) ReadItem(ctx context.Context, ct datastore.Container, id, partitionKey string) (*datastore.ItemResult, error) {
	t := asTable(ct)
	out, err := c.api.GetItem(ctx, &sdk.GetItemInput{
		TableName:              aws.String(t.TableName()),
		Key:                    t.key(id, partitionKey),
		ConsistentRead:         aws.Bool(true),
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	var charge float64
	if out.ConsumedCapacity != nil {
		charge = capacity(out.ConsumedCapacity.CapacityUnits)
	}
	if out.Item == nil {
		return nil, errors.NewNotFoundError("document", id)
	}

	doc := storagemodels.Document{}
	if err := attributevalue.UnmarshalMap(out.Item, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return &datastore.ItemResult{Resource: doc, RequestCharge: charge}, nil
}

// ReplaceItem overwrites an existing document.
func (c *Client) ReplaceItem(ctx context.Context, ct datastore.Container, id, partitionKey string, doc storagemodels.Document) (*datastore.ItemResult, error) {
	t := asTable(ct)
	stored := doc.Clone()
	stored[storagemodels.FieldID] = id
	stored[t.PartitionKey] = partitionKey
	c.stamp(stored)

	charge, err := c.put(ctx, t, stored, "attribute_exists(#id)")
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return nil, errors.NewNotFoundError("document", id)
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return &datastore.ItemResult{Resource: stored, RequestCharge: charge}, nil
}

// stamp sets _ts and converts a relative ttl in seconds into the absolute
// epoch expiry DynamoDB reclaims on. A missing or non-positive ttl clears it.
func (c *Client) stamp(doc storagemodels.Document) {
	now := c.now().Unix()
	doc[storagemodels.FieldTimestamp] = now
	if secs, ok := ttlSeconds(doc[storagemodels.FieldTTL]); ok && secs > 0 {
		doc[ExpiresAtAttribute] = now + secs
		return
	}
	delete(doc, ExpiresAtAttribute)
}

func ttlSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func (c *Client) put(ctx context.Context, t Table, doc storagemodels.Document, condition string) (float64, error) {
	av, err := attributevalue.MarshalMap(map[string]any(doc))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal document: %w", err)
	}
	out, err := c.api.PutItem(ctx, &sdk.PutItemInput{
		TableName:                aws.String(t.TableName()),
		Item:                     av,
		ConditionExpression:      aws.String(condition),
		ExpressionAttributeNames: map[string]string{"#id": storagemodels.FieldID},
		ReturnConsumedCapacity:   types.ReturnConsumedCapacityTotal,
	})
	if err != nil {
		return 0, err
	}
	if out.ConsumedCapacity == nil {
		return 0, nil
	}
	return capacity(out.ConsumedCapacity.CapacityUnits), nil
}

func (t Table) key(id, partitionKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		t.PartitionKey:        &types.AttributeValueMemberS{Value: partitionKey},
		storagemodels.FieldID: &types.AttributeValueMemberS{Value: id},
	}
}
