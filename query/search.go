/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

// TypeParameter binds the type discriminator in search queries.
const TypeParameter = "@Type"

// sortPath accepts dotted identifier paths such as "_ts" or "address.city".
var sortPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// SearchOptions describes a search by example.
type SearchOptions struct {
	// Type is the discriminator matched against c.type. It is also the partition.
	Type string
	// Item is a partial document; every top-level field must equal the stored
	// value. Maps and structs are accepted.
	Item any
	// Page defaults to offset 0, limit 10 when nil or zero.
	Page *storagemodels.Page
	// Sort defaults to _ts descending when nil.
	Sort *storagemodels.Sort
}

// Search renders a query literal that selects documents of opts.Type matching
// every field of opts.Item. Each field binds both its name and its value as
// parameters (c[@P0] = @V0), so caller keys never reach the query text. Nested
// objects and arrays are compared as whole values.
func Search(opts SearchOptions) (storagemodels.QueryLiteral, error) {
	if strings.TrimSpace(opts.Type) == "" {
		return storagemodels.QueryLiteral{}, errors.NewValidationError("type", "search requires a type discriminator")
	}

	page := storagemodels.DefaultPage
	if opts.Page != nil && (opts.Page.Offset != 0 || opts.Page.Limit != 0) {
		page = *opts.Page
	}
	order := storagemodels.DefaultSort
	if opts.Sort != nil && opts.Sort.Path != "" {
		order = *opts.Sort
	}
	if !sortPath.MatchString(order.Path) {
		return storagemodels.QueryLiteral{}, errors.NewValidationError("sort", fmt.Sprintf("invalid sort path %q", order.Path))
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM c WHERE c.type = " + TypeParameter)
	params := []storagemodels.Parameter{{Name: TypeParameter, Value: opts.Type}}

	item := normalize(opts.Item)
	if item != nil && (!isContainer(item) || reflect.TypeOf(item).Kind() != reflect.Map) {
		return storagemodels.QueryLiteral{}, errors.NewValidationError("item", fmt.Sprintf("search item must be an object, got %T", opts.Item))
	}

	keys, values := children(item)
	for i, key := range keys {
		fmt.Fprintf(&sb, " AND c[@P%d] = @V%d", i, i)
		params = append(params,
			storagemodels.Parameter{Name: fmt.Sprintf("@P%d", i), Value: key},
			storagemodels.Parameter{Name: fmt.Sprintf("@V%d", i), Value: values[i]},
		)
	}

	fmt.Fprintf(&sb, " ORDER BY c.%s %s OFFSET %d LIMIT %d", order.Path, order.Dir, page.Offset, page.Limit)

	text := sb.String()
	if err := ValidateParameters(text, params); err != nil {
		return storagemodels.QueryLiteral{}, err
	}
	return storagemodels.QueryLiteral{
		Query:      text,
		Parameters: params,
		Partition:  []string{opts.Type},
	}, nil
}
