/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokParam
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

func (t token) is(kind tokenKind, text string) bool {
	if t.kind != kind {
		return false
	}
	if kind == tokIdent {
		return strings.EqualFold(t.text, text)
	}
	return t.text == text
}

var punctuation = []string{"<=", ">=", "!=", "<>", "=", "<", ">", "(", ")", ",", ".", "[", "]", "*"}

// lex splits query text into tokens. String tokens carry their unquoted value.
func lex(text string) ([]token, error) {
	var toks []token
	rs := []rune(text)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '@':
			j := i + 1
			for j < len(rs) && isIdentRune(rs[j]) {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("bare @ at offset %d", i)
			}
			toks = append(toks, token{tokParam, string(rs[i:j])})
			i = j
		case isIdentStart(r):
			j := i + 1
			for j < len(rs) && isIdentRune(rs[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, string(rs[i:j])})
			i = j
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			j := i + 1
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.' || rs[j] == 'e' || rs[j] == 'E' ||
				((rs[j] == '+' || rs[j] == '-') && (rs[j-1] == 'e' || rs[j-1] == 'E'))) {
				j++
			}
			toks = append(toks, token{tokNumber, string(rs[i:j])})
			i = j
		case r == '"' || r == '\'':
			j := i + 1
			for j < len(rs) && rs[j] != r {
				if rs[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			value, err := unquote(string(rs[i : j+1]))
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokString, value})
			i = j + 1
		default:
			matched := false
			for _, p := range punctuation {
				if strings.HasPrefix(string(rs[i:min(i+2, len(rs))]), p) {
					toks = append(toks, token{tokPunct, p})
					i += len([]rune(p))
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("unexpected character %q at offset %d", r, i)
			}
		}
	}
	return toks, nil
}

func unquote(lit string) (string, error) {
	if lit[0] == '"' {
		return strconv.Unquote(lit)
	}
	inner := lit[1 : len(lit)-1]
	var sb strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		sb.WriteByte(inner[i])
	}
	return sb.String(), nil
}

func isIdentStart(r rune) bool { return r == '_' || r == '$' || unicode.IsLetter(r) }
func isIdentRune(r rune) bool  { return isIdentStart(r) || unicode.IsDigit(r) }

// step is one segment of a document path, either a key or an array index.
type step struct {
	key   string
	index int
	isIdx bool
}

type path []step

// partiQL renders the path with quoted attribute names.
func (p path) partiQL() string {
	var sb strings.Builder
	for i, s := range p {
		if s.isIdx {
			sb.WriteString("[" + strconv.Itoa(s.index) + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(quoteName(s.key))
	}
	return sb.String()
}

func (p path) last() string {
	for i := len(p) - 1; i >= 0; i-- {
		if !p[i].isIdx {
			return p[i].key
		}
	}
	return ""
}

// lookup walks doc along the path.
func (p path) lookup(doc storagemodels.Document) (any, bool) {
	var cur any = map[string]any(doc)
	for _, s := range p {
		switch node := cur.(type) {
		case map[string]any:
			if s.isIdx {
				return nil, false
			}
			v, ok := node[s.key]
			if !ok {
				return nil, false
			}
			cur = v
		case storagemodels.Document:
			v, ok := node[s.key]
			if !ok || s.isIdx {
				return nil, false
			}
			cur = v
		case []any:
			if !s.isIdx || s.index < 0 || s.index >= len(node) {
				return nil, false
			}
			cur = node[s.index]
		default:
			return nil, false
		}
	}
	return cur, true
}

func quoteName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// statement is a parsed query in the dialect produced by the query package.
type statement struct {
	top      int
	count    bool
	field    path
	alias    string
	where    string
	args     []any
	order    path
	desc     bool
	offset   int
	limit    int
	windowed bool
}

type parser struct {
	toks   []token
	pos    int
	alias  string
	params map[string]any
	st     *statement
}

// parse reads a SELECT in the document dialect and translates its filter to
// PartiQL. Parameters are resolved by name.
func parse(text string, params []storagemodels.Parameter) (*statement, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, errors.NewValidationError("query", err.Error())
	}
	p := &parser{toks: toks, params: make(map[string]any, len(params)), st: &statement{}}
	for _, prm := range params {
		p.params[prm.Name] = prm.Value
	}
	if err := p.parseSelect(); err != nil {
		return nil, err
	}
	return p.st, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) accept(kind tokenKind, text string) bool {
	if t, ok := p.peek(); ok && t.is(kind, text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind, text string) error {
	if !p.accept(kind, text) {
		return p.unexpected("expected " + text)
	}
	return nil
}

func (p *parser) unexpected(what string) error {
	if t, ok := p.peek(); ok {
		return errors.NewUnsupportedQueryError(fmt.Sprintf("%s near %q", what, t.text))
	}
	return errors.NewUnsupportedQueryError(what + " at end of query")
}

func (p *parser) number() (int, error) {
	t, ok := p.peek()
	if !ok || t.kind != tokNumber {
		return 0, p.unexpected("expected a number")
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, p.unexpected("expected an integer")
	}
	p.pos++
	return n, nil
}

func (p *parser) parseSelect() error {
	if err := p.expect(tokIdent, "SELECT"); err != nil {
		return err
	}
	if p.accept(tokIdent, "TOP") {
		n, err := p.number()
		if err != nil {
			return err
		}
		p.st.top = n
	}

	var projection []token
	switch {
	case p.accept(tokPunct, "*"):
	case p.accept(tokIdent, "COUNT"):
		if err := p.expect(tokPunct, "("); err != nil {
			return err
		}
		if _, err := p.number(); err != nil {
			return err
		}
		if err := p.expect(tokPunct, ")"); err != nil {
			return err
		}
		p.st.count = true
	default:
		start := p.pos
		for {
			t, ok := p.peek()
			if !ok || t.is(tokIdent, "AS") || t.is(tokIdent, "FROM") {
				break
			}
			p.pos++
		}
		projection = p.toks[start:p.pos]
	}
	if p.accept(tokIdent, "AS") {
		t, ok := p.peek()
		if !ok || t.kind != tokIdent {
			return p.unexpected("expected an alias")
		}
		p.st.alias = t.text
		p.pos++
	}

	if err := p.expect(tokIdent, "FROM"); err != nil {
		return err
	}
	t, ok := p.peek()
	if !ok || t.kind != tokIdent {
		return p.unexpected("expected a collection alias")
	}
	p.alias = t.text
	p.pos++

	if projection != nil {
		sub := &parser{toks: projection, alias: p.alias, params: p.params, st: p.st}
		field, err := sub.path()
		if err != nil {
			return err
		}
		if sub.pos != len(projection) {
			return sub.unexpected("unsupported projection")
		}
		p.st.field = field
	}

	if p.accept(tokIdent, "WHERE") {
		where, err := p.filter()
		if err != nil {
			return err
		}
		p.st.where = where
	}

	if p.accept(tokIdent, "ORDER") {
		if err := p.expect(tokIdent, "BY"); err != nil {
			return err
		}
		order, err := p.path()
		if err != nil {
			return err
		}
		p.st.order = order
		switch {
		case p.accept(tokIdent, "DESC"):
			p.st.desc = true
		case p.accept(tokIdent, "ASC"):
		}
	}

	if p.accept(tokIdent, "OFFSET") {
		offset, err := p.number()
		if err != nil {
			return err
		}
		if err := p.expect(tokIdent, "LIMIT"); err != nil {
			return err
		}
		limit, err := p.number()
		if err != nil {
			return err
		}
		p.st.offset, p.st.limit, p.st.windowed = offset, limit, true
	}

	if _, ok := p.peek(); ok {
		return p.unexpected("unsupported clause")
	}
	return nil
}

// path reads alias(.key | [n] | ["key"] | [@param])*.
func (p *parser) path() (path, error) {
	t, ok := p.peek()
	if !ok || t.kind != tokIdent || t.text != p.alias {
		return nil, p.unexpected("expected a path rooted at " + p.alias)
	}
	p.pos++
	var out path
	for {
		switch {
		case p.accept(tokPunct, "."):
			t, ok := p.peek()
			if !ok || t.kind != tokIdent {
				return nil, p.unexpected("expected a field name")
			}
			p.pos++
			out = append(out, step{key: t.text})
		case p.accept(tokPunct, "["):
			t, ok := p.peek()
			if !ok {
				return nil, p.unexpected("expected an index")
			}
			p.pos++
			switch t.kind {
			case tokNumber:
				n, err := strconv.Atoi(t.text)
				if err != nil {
					return nil, p.unexpected("expected an integer index")
				}
				out = append(out, step{index: n, isIdx: true})
			case tokString:
				out = append(out, step{key: t.text})
			case tokParam:
				v, ok := p.params[t.text]
				if !ok {
					return nil, errors.NewValidationError("parameters", "unbound parameter "+t.text)
				}
				name, ok := v.(string)
				if !ok {
					return nil, errors.NewUnsupportedQueryError("non-string field name parameter " + t.text)
				}
				out = append(out, step{key: name})
			default:
				return nil, p.unexpected("unsupported index")
			}
			if err := p.expect(tokPunct, "]"); err != nil {
				return nil, err
			}
		default:
			if len(out) == 0 {
				return nil, errors.NewUnsupportedQueryError("whole-document reference")
			}
			return out, nil
		}
	}
}

// filter translates the WHERE clause up to ORDER BY or OFFSET.
func (p *parser) filter() (string, error) {
	var parts []string
	depth := 0
	for {
		t, ok := p.peek()
		if !ok || (depth == 0 && (t.is(tokIdent, "ORDER") || t.is(tokIdent, "OFFSET"))) {
			break
		}
		switch {
		case t.kind == tokIdent && t.text == p.alias:
			pth, err := p.path()
			if err != nil {
				return "", err
			}
			parts = append(parts, pth.partiQL())
			continue
		case t.is(tokIdent, "IS_DEFINED"):
			p.pos++
			if err := p.expect(tokPunct, "("); err != nil {
				return "", err
			}
			pth, err := p.path()
			if err != nil {
				return "", err
			}
			if err := p.expect(tokPunct, ")"); err != nil {
				return "", err
			}
			parts = append(parts, pth.partiQL()+" IS NOT MISSING")
			continue
		case t.is(tokIdent, "CONTAINS"):
			p.pos++
			expr, err := p.contains()
			if err != nil {
				return "", err
			}
			parts = append(parts, expr)
			continue
		case t.is(tokIdent, "AND"), t.is(tokIdent, "OR"), t.is(tokIdent, "NOT"):
			parts = append(parts, strings.ToUpper(t.text))
		case t.is(tokIdent, "true"), t.is(tokIdent, "false"), t.is(tokIdent, "null"):
			parts = append(parts, strings.ToLower(t.text))
		case t.kind == tokParam:
			v, ok := p.params[t.text]
			if !ok {
				return "", errors.NewValidationError("parameters", "unbound parameter "+t.text)
			}
			p.st.args = append(p.st.args, v)
			parts = append(parts, "?")
		case t.kind == tokString:
			parts = append(parts, quoteString(t.text))
		case t.kind == tokNumber:
			parts = append(parts, t.text)
		case t.is(tokPunct, "("):
			depth++
			parts = append(parts, "(")
		case t.is(tokPunct, ")"):
			depth--
			parts = append(parts, ")")
		case t.is(tokPunct, "="), t.is(tokPunct, "<"), t.is(tokPunct, "<="), t.is(tokPunct, ">"),
			t.is(tokPunct, ">="), t.is(tokPunct, "!="), t.is(tokPunct, "<>"):
			parts = append(parts, t.text)
		default:
			return "", p.unexpected("unsupported filter token")
		}
		p.pos++
	}
	if len(parts) == 0 {
		return "", p.unexpected("empty filter")
	}
	return strings.Join(parts, " "), nil
}

// contains translates CONTAINS(path,value,ci). PartiQL's contains is always
// case-sensitive, so the flag is read and dropped.
func (p *parser) contains() (string, error) {
	if err := p.expect(tokPunct, "("); err != nil {
		return "", err
	}
	pth, err := p.path()
	if err != nil {
		return "", err
	}
	if err := p.expect(tokPunct, ","); err != nil {
		return "", err
	}
	t, ok := p.peek()
	if !ok {
		return "", p.unexpected("expected a value")
	}
	var value string
	switch t.kind {
	case tokString:
		value = quoteString(t.text)
	case tokParam:
		v, ok := p.params[t.text]
		if !ok {
			return "", errors.NewValidationError("parameters", "unbound parameter "+t.text)
		}
		p.st.args = append(p.st.args, v)
		value = "?"
	default:
		return "", p.unexpected("expected a string")
	}
	p.pos++
	if p.accept(tokPunct, ",") {
		if !p.accept(tokIdent, "true") && !p.accept(tokIdent, "false") {
			return "", p.unexpected("expected a boolean")
		}
	}
	if err := p.expect(tokPunct, ")"); err != nil {
		return "", err
	}
	return "contains(" + pth.partiQL() + ", " + value + ")", nil
}
