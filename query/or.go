/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"strings"

	"github.com/suparena/docstore/errors"
)

// Or is a disjunction built either from a left/right pair or from a list of
// clauses, never both.
type Or struct {
	left  Clause
	right Clause
	list  []Clause
	err   error
}

// NewOr returns an empty disjunction.
func NewOr() *Or {
	return &Or{}
}

// Left sets the left side of the pair.
func (o *Or) Left(c Clause) *Or {
	o.left = c
	o.check()
	return o
}

// Right sets the right side of the pair.
func (o *Or) Right(c Clause) *Or {
	o.right = c
	o.check()
	return o
}

// Chain appends clauses to the list.
func (o *Or) Chain(clauses ...Clause) *Or {
	o.list = append(o.list, clauses...)
	o.check()
	return o
}

func (o *Or) check() {
	if o.err == nil && (o.left != nil || o.right != nil) && len(o.list) > 0 {
		o.err = fmt.Errorf("or: %w", errors.ErrAmbiguousComposition)
	}
}

// Err reports a composition error raised while the disjunction was assembled.
func (o *Or) Err() error {
	return o.err
}

// Build renders the disjunction. A single listed clause renders unwrapped.
func (o *Or) Build() (string, error) {
	if o.err != nil {
		return "", o.err
	}
	switch {
	case len(o.list) > 1:
		parts := make([]string, len(o.list))
		for i, c := range o.list {
			s, err := c.Build()
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	case len(o.list) == 1:
		return o.list[0].Build()
	case o.left != nil && o.right != nil:
		l, err := o.left.Build()
		if err != nil {
			return "", err
		}
		r, err := o.right.Build()
		if err != nil {
			return "", err
		}
		return "(" + l + " OR " + r + ")", nil
	default:
		return "", errors.NewMalformedPredicateError("", "disjunction needs a left/right pair or at least one listed clause")
	}
}
