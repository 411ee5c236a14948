/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"regexp"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

// Parameter is re-exported so callers building queries need only this package.
type Parameter = storagemodels.Parameter

// Param builds a Parameter. Passing it to a comparison renders its name.
func Param(name string, value any) Parameter {
	return Parameter{Name: name, Value: value}
}

var (
	stringLiteral = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`)
	placeholder   = regexp.MustCompile(`(?:^|[^\w@])(@\w+)`)
)

// Placeholders lists the distinct @-tokens referenced by text in order of
// first appearance. Tokens inside string literals and the tail of values
// such as user@example.com are not placeholders.
func Placeholders(text string) []string {
	stripped := stringLiteral.ReplaceAllString(text, `""`)
	var out []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(stripped, -1) {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// ValidateParameters checks that every placeholder in text is bound exactly
// once and every parameter is referenced.
func ValidateParameters(text string, params []storagemodels.Parameter) error {
	referenced := Placeholders(text)
	refSet := make(map[string]bool, len(referenced))
	for _, name := range referenced {
		refSet[name] = true
	}

	bound := make(map[string]int, len(params))
	mismatch := &errors.ParameterMismatchError{}
	for _, p := range params {
		bound[p.Name]++
		switch {
		case bound[p.Name] == 2:
			mismatch.Duplicate = append(mismatch.Duplicate, p.Name)
		case bound[p.Name] == 1 && !refSet[p.Name]:
			mismatch.Extra = append(mismatch.Extra, p.Name)
		}
	}
	for _, name := range referenced {
		if bound[name] == 0 {
			mismatch.Missing = append(mismatch.Missing, name)
		}
	}

	if len(mismatch.Missing) == 0 && len(mismatch.Extra) == 0 && len(mismatch.Duplicate) == 0 {
		return nil
	}
	return mismatch
}
