// Package records turns list payloads from the remote store into canonical
// transaction records and resolves their loosely named fields.
package records

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"finboard/internal/core"
)

// Shape is the envelope a list payload arrived in.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeList               // [...]
	ShapeTransactions       // {"transactions": [...]}
	ShapeData               // {"data": [...]}
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeTransactions:
		return "transactions"
	case ShapeData:
		return "data"
	default:
		return "unrecognized"
	}
}

// Envelope is the result of normalizing one payload.
type Envelope struct {
	Shape   Shape
	Records []core.Record
	// Skipped holds the indices of list entries that were not JSON objects.
	Skipped []int
	// Keys holds the top-level keys of an unrecognized object payload.
	Keys []string
}

// Decode reads a JSON payload keeping numbers as json.Number so amounts
// and numeric ids survive without float rounding.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

// Normalize extracts the record list from a decoded payload. A bare list wins,
// then a "transactions" list, then a "data" list. Anything else yields an
// empty, unrecognized envelope; it never fails.
func Normalize(payload any) Envelope {
	if list, ok := payload.([]any); ok {
		return fromList(ShapeList, list)
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return Envelope{Shape: ShapeUnrecognized, Records: []core.Record{}}
	}
	if list, ok := obj["transactions"].([]any); ok {
		return fromList(ShapeTransactions, list)
	}
	if list, ok := obj["data"].([]any); ok {
		return fromList(ShapeData, list)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Envelope{Shape: ShapeUnrecognized, Records: []core.Record{}, Keys: keys}
}

func fromList(shape Shape, list []any) Envelope {
	env := Envelope{Shape: shape, Records: make([]core.Record, 0, len(list))}
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			env.Skipped = append(env.Skipped, i)
			continue
		}
		env.Records = append(env.Records, core.Record(obj))
	}
	return env
}
