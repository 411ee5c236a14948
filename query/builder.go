/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

type projection int

const (
	projectAll projection = iota
	projectCount
	projectField
	projectEmpty
)

// CountSelector is the Select argument for a COUNT(1) aggregate.
const CountSelector = "count"

type ordering struct {
	path string
	dir  storagemodels.Direction
}

// QueryBuilder accumulates a single SELECT against the container alias c.
// Misuse such as combining Top with Paginate is recorded on the builder and
// returned by Err and Build.
type QueryBuilder struct {
	partitions []string
	projection projection
	field      string
	alias      string
	clauses    []Clause
	page       *storagemodels.Page
	top        int
	order      *ordering
	err        error
}

// NewQueryBuilder creates a builder scoped to the given partitions.
func NewQueryBuilder(partitions ...string) *QueryBuilder {
	return &QueryBuilder{partitions: partitions}
}

// Select sets the projection. "count" selects COUNT(1) and "*" everything;
// any other value selects c.<field>. An alias is only emitted for
// non-wildcard projections.
func (q *QueryBuilder) Select(field string, alias ...string) *QueryBuilder {
	switch field {
	case CountSelector:
		q.projection = projectCount
	case "*":
		q.projection = projectAll
	case "":
		q.projection = projectEmpty
	default:
		q.projection = projectField
	}
	q.field = field
	q.alias = ""
	if len(alias) > 0 {
		q.alias = alias[0]
	}
	return q
}

// Where appends a predicate on path to the conjunction.
func (q *QueryBuilder) Where(path string) *BoundWhere {
	w := NewWhere(path)
	q.clauses = append(q.clauses, w)
	return &BoundWhere{where: w, owner: q}
}

// Match appends a prebuilt clause, typically an Or, to the conjunction.
func (q *QueryBuilder) Match(c Clause) *QueryBuilder {
	q.clauses = append(q.clauses, c)
	return q
}

// Paginate sets an OFFSET/LIMIT window. It conflicts with Top.
func (q *QueryBuilder) Paginate(offset, count int) *QueryBuilder {
	if q.top > 0 {
		q.fail(errors.NewPaginationConflictError("top", "paginate"))
		return q
	}
	if offset < 0 || count < 0 {
		q.fail(errors.NewValidationError("paginate", "offset and count must not be negative"))
		return q
	}
	q.page = &storagemodels.Page{Offset: offset, Limit: count}
	return q
}

// Top limits the result to n rows. It conflicts with Paginate.
func (q *QueryBuilder) Top(n int) *QueryBuilder {
	if q.page != nil {
		q.fail(errors.NewPaginationConflictError("paginate", "top"))
		return q
	}
	if n <= 0 {
		q.fail(errors.NewValidationError("top", "must be positive"))
		return q
	}
	q.top = n
	return q
}

// OrderBy sorts by c.<field>. It is dropped for COUNT projections.
func (q *QueryBuilder) OrderBy(field string, dir storagemodels.Direction) *QueryBuilder {
	if field == "" {
		q.order = nil
		return q
	}
	q.order = &ordering{path: field, dir: dir}
	return q
}

func (q *QueryBuilder) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Err returns the first error recorded while the query was assembled.
func (q *QueryBuilder) Err() error {
	return q.err
}

// Text renders the query text without validating parameters.
func (q *QueryBuilder) Text() (string, error) {
	if q.err != nil {
		return "", q.err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if q.top > 0 {
		sb.WriteString("TOP ")
		sb.WriteString(strconv.Itoa(q.top))
		sb.WriteByte(' ')
	}

	switch q.projection {
	case projectAll:
		sb.WriteString("*")
	case projectCount:
		sb.WriteString("COUNT(1)")
	case projectField:
		sb.WriteString("c.")
		sb.WriteString(q.field)
	case projectEmpty:
		return "", errors.NewValidationError("select", "selector cannot be an empty string")
	}
	if q.projection != projectAll && q.alias != "" {
		sb.WriteString(" AS ")
		sb.WriteString(q.alias)
	}
	sb.WriteString(" FROM c")

	if len(q.clauses) > 0 {
		conj, err := Conjunction(q.clauses...)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(conj)
	}

	if q.order != nil && q.projection != projectCount {
		fmt.Fprintf(&sb, " ORDER BY c.%s %s", q.order.path, q.order.dir)
	}

	if q.top == 0 && q.projection == projectAll {
		page := storagemodels.DefaultPage
		if q.page != nil {
			page = *q.page
		}
		fmt.Fprintf(&sb, " OFFSET %d LIMIT %d", page.Offset, page.Limit)
	}
	return sb.String(), nil
}

// Build renders the query and checks that params bind exactly the
// placeholders the text references. The builder is left unchanged.
func (q *QueryBuilder) Build(params ...storagemodels.Parameter) (storagemodels.QueryLiteral, error) {
	text, err := q.Text()
	if err != nil {
		return storagemodels.QueryLiteral{}, err
	}
	if err := ValidateParameters(text, params); err != nil {
		return storagemodels.QueryLiteral{}, err
	}
	return storagemodels.QueryLiteral{
		Query:      text,
		Parameters: append([]storagemodels.Parameter(nil), params...),
		Partition:  append([]string(nil), q.partitions...),
	}, nil
}
