/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suparena/docstore/errors"
)

// Operator is the comparison a predicate applies to its path.
type Operator int

const (
	OpNone Operator = iota
	OpEq
	OpLt
	OpLtOrEq
	OpGt
	OpGtOrEq
	OpIsDefined
	OpContains
)

func (o Operator) String() string {
	switch o {
	case OpNone:
		return ""
	case OpEq:
		return "="
	case OpLt:
		return "<"
	case OpLtOrEq:
		return "<="
	case OpGt:
		return ">"
	case OpGtOrEq:
		return ">="
	case OpIsDefined:
		return "IS_DEFINED"
	case OpContains:
		return "CONTAINS"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// Clause is anything that renders to a boolean query expression.
type Clause interface {
	Build() (string, error)
}

// Where is a single predicate over one document path. Its comparison methods
// finalize it and return the predicate itself; use QueryBuilder.Where for the
// variant that returns the owning builder.
type Where struct {
	path            string
	op              Operator
	right           string
	caseInsensitive bool
}

// NewWhere starts a standalone predicate on path. An empty path renders as *.
func NewWhere(path string) *Where {
	return &Where{path: path}
}

func (w *Where) Eq(v any) *Where     { return w.compare(OpEq, v) }
func (w *Where) Lt(v any) *Where     { return w.compare(OpLt, v) }
func (w *Where) LtOrEq(v any) *Where { return w.compare(OpLtOrEq, v) }
func (w *Where) Gt(v any) *Where     { return w.compare(OpGt, v) }
func (w *Where) GtOrEq(v any) *Where { return w.compare(OpGtOrEq, v) }

// IsDefined matches documents where the path exists.
func (w *Where) IsDefined() *Where {
	w.op = OpIsDefined
	w.right = ""
	return w
}

// Contains matches documents whose string at path contains value.
// caseInsensitive defaults to true.
func (w *Where) Contains(value string, caseInsensitive ...bool) *Where {
	w.op = OpContains
	w.right = value
	w.caseInsensitive = true
	if len(caseInsensitive) > 0 {
		w.caseInsensitive = caseInsensitive[0]
	}
	return w
}

func (w *Where) compare(op Operator, v any) *Where {
	w.op = op
	w.right = formatLiteral(v)
	return w
}

// Operator reports the selected comparison, OpNone if none was chosen yet.
func (w *Where) Operator() Operator {
	return w.op
}

func (w *Where) left() string {
	if w.path == "" {
		return "*"
	}
	return "c." + w.path
}

// Build renders the predicate. It does not modify the predicate and may be
// called any number of times.
func (w *Where) Build() (string, error) {
	switch w.op {
	case OpEq, OpLt, OpLtOrEq, OpGt, OpGtOrEq:
		return w.left() + " " + w.op.String() + " " + w.right, nil
	case OpIsDefined:
		return "IS_DEFINED(" + w.left() + ")", nil
	case OpContains:
		return "CONTAINS(" + w.left() + ",'" + strings.ReplaceAll(w.right, "'", `\'`) + "'," +
			strconv.FormatBool(w.caseInsensitive) + ")", nil
	case OpNone:
		return "", errors.NewMalformedPredicateError(w.left(), "no operation selected")
	default:
		return "", errors.NewMalformedPredicateError(w.left(), "unknown operator "+w.op.String())
	}
}

func (w *Where) String() string {
	s, err := w.Build()
	if err != nil {
		return err.Error()
	}
	return s
}

// BoundWhere is a predicate owned by a QueryBuilder. Its comparison methods
// return the builder so further clauses can be chained.
type BoundWhere struct {
	where *Where
	owner *QueryBuilder
}

func (b *BoundWhere) Eq(v any) *QueryBuilder     { b.where.Eq(v); return b.owner }
func (b *BoundWhere) Lt(v any) *QueryBuilder     { b.where.Lt(v); return b.owner }
func (b *BoundWhere) LtOrEq(v any) *QueryBuilder { b.where.LtOrEq(v); return b.owner }
func (b *BoundWhere) Gt(v any) *QueryBuilder     { b.where.Gt(v); return b.owner }
func (b *BoundWhere) GtOrEq(v any) *QueryBuilder { b.where.GtOrEq(v); return b.owner }

func (b *BoundWhere) IsDefined() *QueryBuilder {
	b.where.IsDefined()
	return b.owner
}

func (b *BoundWhere) Contains(value string, caseInsensitive ...bool) *QueryBuilder {
	b.where.Contains(value, caseInsensitive...)
	return b.owner
}

// formatLiteral renders booleans, numbers and parameter references bare and
// quotes everything else as a string literal.
func formatLiteral(v any) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case Parameter:
		return x.Name
	}
	s := fmt.Sprint(v)
	if strings.Contains(s, "@") {
		return s
	}
	return strconv.Quote(s)
}

// Conjunction renders clauses joined by AND.
func Conjunction(clauses ...Clause) (string, error) {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		s, err := c.Build()
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " AND "), nil
}
