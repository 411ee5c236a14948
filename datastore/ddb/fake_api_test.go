/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeAPI is an in-memory stand-in for the DynamoDB operations Client uses.
type fakeAPI struct {
	mu         sync.Mutex
	tables     map[string]bool
	ttl        map[string]bool
	ttlAttr    map[string]string
	items      map[string]map[string]map[string]types.AttributeValue
	pages      [][]map[string]types.AttributeValue
	statements []*sdk.ExecuteStatementInput
	creates    int
	ttlUpdates int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tables:  map[string]bool{},
		ttl:     map[string]bool{},
		ttlAttr: map[string]string{},
		items:   map[string]map[string]map[string]types.AttributeValue{},
	}
}

var unitCapacity = &types.ConsumedCapacity{CapacityUnits: aws.Float64(1)}

func (f *fakeAPI) DescribeTable(ctx context.Context, in *sdk.DescribeTableInput, _ ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.tables[*in.TableName] {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	return &sdk.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeAPI) CreateTable(ctx context.Context, in *sdk.CreateTableInput, _ ...func(*sdk.Options)) (*sdk.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.tables[*in.TableName] = true
	return &sdk.CreateTableOutput{}, nil
}

func (f *fakeAPI) DescribeTimeToLive(ctx context.Context, in *sdk.DescribeTimeToLiveInput, _ ...func(*sdk.Options)) (*sdk.DescribeTimeToLiveOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := types.TimeToLiveStatusDisabled
	if f.ttl[*in.TableName] {
		status = types.TimeToLiveStatusEnabled
	}
	return &sdk.DescribeTimeToLiveOutput{TimeToLiveDescription: &types.TimeToLiveDescription{TimeToLiveStatus: status}}, nil
}

func (f *fakeAPI) UpdateTimeToLive(ctx context.Context, in *sdk.UpdateTimeToLiveInput, _ ...func(*sdk.Options)) (*sdk.UpdateTimeToLiveOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttlUpdates++
	f.ttl[*in.TableName] = *in.TimeToLiveSpecification.Enabled
	f.ttlAttr[*in.TableName] = *in.TimeToLiveSpecification.AttributeName
	return &sdk.UpdateTimeToLiveOutput{}, nil
}

func itemKey(item map[string]types.AttributeValue) string {
	var pk, id string
	if v, ok := item["_partitionKey"].(*types.AttributeValueMemberS); ok {
		pk = v.Value
	}
	if v, ok := item["id"].(*types.AttributeValueMemberS); ok {
		id = v.Value
	}
	return pk + "|" + id
}

func (f *fakeAPI) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := f.items[*in.TableName]
	if table == nil {
		table = map[string]map[string]types.AttributeValue{}
		f.items[*in.TableName] = table
	}
	key := itemKey(in.Item)
	_, exists := table[key]
	cond := aws.ToString(in.ConditionExpression)
	if (strings.HasPrefix(cond, "attribute_not_exists") && exists) ||
		(strings.HasPrefix(cond, "attribute_exists") && !exists) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("conditional check failed")}
	}
	table[key] = in.Item
	return &sdk.PutItemOutput{ConsumedCapacity: unitCapacity}, nil
}

func (f *fakeAPI) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item := f.items[*in.TableName][itemKey(in.Key)]
	return &sdk.GetItemOutput{Item: item, ConsumedCapacity: &types.ConsumedCapacity{CapacityUnits: aws.Float64(0.5)}}, nil
}

// ExecuteStatement serves the configured pages in order, one per call.
func (f *fakeAPI) ExecuteStatement(ctx context.Context, in *sdk.ExecuteStatementInput, _ ...func(*sdk.Options)) (*sdk.ExecuteStatementOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = append(f.statements, in)
	page := 0
	if in.NextToken != nil {
		if _, err := fmt.Sscanf(*in.NextToken, "page-%d", &page); err != nil {
			return nil, err
		}
	}
	out := &sdk.ExecuteStatementOutput{ConsumedCapacity: unitCapacity}
	if page < len(f.pages) {
		out.Items = f.pages[page]
	}
	if page+1 < len(f.pages) {
		out.NextToken = aws.String(fmt.Sprintf("page-%d", page+1))
	}
	return out, nil
}
