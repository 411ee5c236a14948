/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/suparena/docstore/storagemodels"
)

// FactoryFunc returns a new pointer to the Go type a discriminator maps to.
type FactoryFunc func() any

// typeRegistry holds the mapping from a document's type discriminator (like "Link") to its factory.
var (
	mu           sync.RWMutex
	typeRegistry = make(map[string]FactoryFunc)
)

// RegisterType registers a factory for a given type discriminator.
// If a type is already registered for the discriminator, it panics to prevent accidental overrides.
func RegisterType(discriminator string, fn FactoryFunc) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := typeRegistry[discriminator]; exists {
		panic(fmt.Sprintf("type registry: type %q already registered", discriminator))
	}
	typeRegistry[discriminator] = fn
}

// GetFactory returns the registered factory for the given discriminator.
// If no factory is registered, it returns an error.
func GetFactory(discriminator string) (FactoryFunc, error) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := typeRegistry[discriminator]
	if !ok {
		return nil, fmt.Errorf("type registry: no type registered for %q", discriminator)
	}
	return fn, nil
}

// Decode converts a document into the type registered for its "type" field.
// Documents without a registered type are returned unchanged.
func Decode(doc storagemodels.Document) (any, error) {
	discriminator, _ := doc[storagemodels.FieldType].(string)
	fn, err := GetFactory(discriminator)
	if err != nil {
		return doc, nil
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("type registry: failed to marshal %q document: %w", discriminator, err)
	}
	obj := fn()
	if err := json.Unmarshal(raw, obj); err != nil {
		return nil, fmt.Errorf("type registry: failed to unmarshal %q document: %w", discriminator, err)
	}
	return obj, nil
}

// DecodeAll decodes every document with Decode.
func DecodeAll(docs []storagemodels.Document) ([]any, error) {
	out := make([]any, 0, len(docs))
	for _, d := range docs {
		obj, err := Decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}
