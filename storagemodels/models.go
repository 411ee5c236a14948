/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"strings"
)

// Reserved document fields.
const (
	FieldID           = "id"
	FieldPartitionKey = "_partitionKey"
	FieldTTL          = "ttl"
	FieldCreatedOn    = "createdOn"
	FieldUpdatedOn    = "updatedOn"
	FieldTimestamp    = "_ts"
	FieldType         = "type"
)

// Document is a schemaless JSON-like record as stored in a container.
type Document map[string]any

// ID returns the document's string id, if any.
func (d Document) ID() (string, bool) {
	return d.stringField(FieldID)
}

// PartitionKey returns the document's string partition key, if any.
func (d Document) PartitionKey() (string, bool) {
	return d.stringField(FieldPartitionKey)
}

// KeyAt returns the non-empty string at a partition key path such as
// "/_partitionKey" or "/address/city".
func (d Document) KeyAt(path string) (string, bool) {
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	node := d
	for _, seg := range segs[:len(segs)-1] {
		switch v := node[seg].(type) {
		case Document:
			node = v
		case map[string]any:
			node = v
		default:
			return "", false
		}
	}
	return node.stringField(segs[len(segs)-1])
}

// PartitionKeyField names the top-level field a partition key path reads,
// for error reporting.
func PartitionKeyField(path string) string {
	name := strings.TrimPrefix(path, "/")
	if name == "" {
		return FieldPartitionKey
	}
	return name
}

func (d Document) stringField(name string) (string, bool) {
	v, ok := d[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge shallow-merges layers into a new document. Later layers win on key
// collisions; nil layers are skipped.
func Merge(layers ...Document) Document {
	out := Document{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// StripMeta returns a copy of doc without the store's underscore-prefixed
// system fields.
func StripMeta(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}

// Parameter binds a value to an @-prefixed placeholder in a query.
type Parameter struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// QueryLiteral is a fully rendered query ready to execute.
type QueryLiteral struct {
	Query      string      `json:"query"`
	Parameters []Parameter `json:"parameters"`
	Partition  []string    `json:"partition,omitempty"`
}

// PartitionKey joins the partition values with commas.
func (q QueryLiteral) PartitionKey() string {
	return strings.Join(q.Partition, ",")
}

// Page is an offset window over a result set.
type Page struct {
	Offset int `json:"skip"`
	Limit  int `json:"limit"`
}

// DefaultPage is used when a search does not specify a page.
var DefaultPage = Page{Offset: 0, Limit: 10}

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "ASC"
	case Descending:
		return "DESC"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("invalid sort direction %q", s)
	}
}

// Sort orders results by a document path.
type Sort struct {
	Path string    `json:"key"`
	Dir  Direction `json:"dir"`
}

// DefaultSort orders by the store's modification timestamp, newest first.
var DefaultSort = Sort{Path: FieldTimestamp, Dir: Descending}
