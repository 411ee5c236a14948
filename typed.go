/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/suparena/docstore/query"
	"github.com/suparena/docstore/registry"
	"github.com/suparena/docstore/storagemodels"
)

// As converts a document into T through its JSON form.
func As[T any](doc storagemodels.Document) (T, error) {
	var out T
	data, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal document into %T: %w", out, err)
	}
	return out, nil
}

// AsAll converts every document into T.
func AsAll[T any](docs []storagemodels.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := As[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ToDocument converts a value into a document through its JSON form.
func ToDocument(v any) (storagemodels.Document, error) {
	if doc, ok := v.(storagemodels.Document); ok {
		return doc, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	var doc storagemodels.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%T does not encode as an object: %w", v, err)
	}
	return doc, nil
}

// QueryAs executes lit and returns the results as T.
func QueryAs[T any](ctx context.Context, d *DAO, lit storagemodels.QueryLiteral) ([]T, error) {
	docs, err := d.Query(ctx, lit)
	if err != nil {
		return nil, err
	}
	return AsAll[T](docs)
}

// SearchAs runs a search and returns the results as T.
func SearchAs[T any](ctx context.Context, d *DAO, opts query.SearchOptions) ([]T, error) {
	docs, err := d.Search(ctx, opts)
	if err != nil {
		return nil, err
	}
	return AsAll[T](docs)
}

// GetRecordAs reads a single record as T.
func GetRecordAs[T any](ctx context.Context, d *DAO, id, partitionKey string) (T, error) {
	doc, err := d.GetRecord(ctx, id, partitionKey)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](doc)
}

// CreateFrom converts v into a document and creates it, returning the stored
// representation as T.
func CreateFrom[T any](ctx context.Context, d *DAO, v T, defaults ...storagemodels.Document) (T, error) {
	var zero T
	doc, err := ToDocument(v)
	if err != nil {
		return zero, err
	}
	created, err := d.Create(ctx, doc, defaults...)
	if err != nil {
		return zero, err
	}
	return As[T](created)
}

// QueryDecoded executes lit and decodes every result through the type
// registry. Documents of unregistered types are returned as is.
func (d *DAO) QueryDecoded(ctx context.Context, lit storagemodels.QueryLiteral) ([]any, error) {
	docs, err := d.Query(ctx, lit)
	if err != nil {
		return nil, err
	}
	return registry.DecodeAll(docs)
}
