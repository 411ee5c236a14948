/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docstore/datastore"
	"github.com/suparena/docstore/storagemodels"
)

// ExecuteQuery translates the filter to a PartiQL statement scoped to the
// comma-separated partitions, drains every page and then applies ordering,
// windowing and projection to the collected documents.
func (c *Client) ExecuteQuery(ctx context.Context, ct datastore.Container, text string, params []storagemodels.Parameter, partition string) (*datastore.QueryResult, error) {
	t := asTable(ct)
	st, err := parse(text, params)
	if err != nil {
		return nil, err
	}
	var partitions []string
	if partition != "" {
		partitions = strings.Split(partition, ",")
	}
	stmt, args, err := st.partiQL(t, partitions)
	if err != nil {
		return nil, err
	}

	var (
		docs   []storagemodels.Document
		charge float64
		next   *string
	)
	for {
		out, err := c.api.ExecuteStatement(ctx, &sdk.ExecuteStatementInput{
			Statement:              aws.String(stmt),
			Parameters:             args,
			NextToken:              next,
			ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
		})
		if err != nil {
			return nil, fmt.Errorf("ExecuteStatement error: %w", err)
		}
		if out.ConsumedCapacity != nil {
			charge += capacity(out.ConsumedCapacity.CapacityUnits)
		}
		for _, item := range out.Items {
			doc := storagemodels.Document{}
			if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item: %w", err)
			}
			docs = append(docs, doc)
		}
		if out.NextToken == nil {
			break
		}
		next = out.NextToken
	}

	return &datastore.QueryResult{Items: st.shape(docs), RequestCharge: charge}, nil
}

// partiQL renders the statement against table t.
func (st *statement) partiQL(t Table, partitions []string) (string, []types.AttributeValue, error) {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM " + quoteName(t.TableName()))

	var conds []string
	var raw []any
	switch len(partitions) {
	case 0:
	case 1:
		conds = append(conds, quoteName(t.PartitionKey)+" = ?")
		raw = append(raw, partitions[0])
	default:
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(partitions)), ", ")
		conds = append(conds, quoteName(t.PartitionKey)+" IN ["+marks+"]")
		for _, p := range partitions {
			raw = append(raw, p)
		}
	}
	if st.where != "" {
		conds = append(conds, "("+st.where+")")
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	raw = append(raw, st.args...)
	args := make([]types.AttributeValue, len(raw))
	for i, v := range raw {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return "", nil, fmt.Errorf("failed to marshal parameter %d: %w", i, err)
		}
		args[i] = av
	}
	return sb.String(), args, nil
}

// shape applies ORDER BY, COUNT, OFFSET/LIMIT, TOP and single-field
// projection in that order.
func (st *statement) shape(docs []storagemodels.Document) []storagemodels.Document {
	if st.order != nil {
		sort.SliceStable(docs, func(i, j int) bool {
			a, aok := st.order.lookup(docs[i])
			b, bok := st.order.lookup(docs[j])
			cmp := compareValues(a, aok, b, bok)
			if st.desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if st.count {
		name := st.alias
		if name == "" {
			name = "$1"
		}
		return []storagemodels.Document{{name: len(docs)}}
	}

	if st.windowed {
		docs = window(docs, st.offset, st.limit)
	}
	if st.top > 0 {
		docs = window(docs, 0, st.top)
	}

	if st.field != nil {
		name := st.alias
		if name == "" {
			name = st.field.last()
		}
		out := make([]storagemodels.Document, len(docs))
		for i, d := range docs {
			out[i] = storagemodels.Document{}
			if v, ok := st.field.lookup(d); ok {
				out[i][name] = v
			}
		}
		return out
	}
	if docs == nil {
		docs = []storagemodels.Document{}
	}
	return docs
}

func window(docs []storagemodels.Document, offset, limit int) []storagemodels.Document {
	if offset >= len(docs) {
		return []storagemodels.Document{}
	}
	end := len(docs)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end]
}

// compareValues orders undefined < null < booleans < numbers < strings, then
// by value within a type.
func compareValues(a any, aok bool, b any, bok bool) int {
	ra, rb := rank(a, aok), rank(b, bok)
	if ra != rb {
		return ra - rb
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case string:
		return strings.Compare(x, b.(string))
	}
	if fa, ok := toFloat(a); ok {
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	}
	return 0
}

func rank(v any, ok bool) int {
	if !ok {
		return 0
	}
	switch v.(type) {
	case nil:
		return 1
	case bool:
		return 2
	case string:
		return 4
	}
	if _, isNum := toFloat(v); isNum {
		return 3
	}
	return 5
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
