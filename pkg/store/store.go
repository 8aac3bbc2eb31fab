// Package store provides hosted tabular stores that reference data can be read
// from and seeded into.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row is a single record keyed by column name.
type Row map[string]any

// TableStore is a hosted store addressed by table name.
type TableStore interface {
	// Name identifies the backend in logs and errors.
	Name() string
	// Configured reports a *ConfigError when required parameters are absent.
	Configured() error
	// Select returns every row of a table ordered by id. An empty table yields
	// an empty, non-nil slice.
	Select(ctx context.Context, table string) ([]Row, error)
	// Insert upserts rows keyed by their "id" column.
	Insert(ctx context.Context, table string, rows []Row) error
	io.Closer
}

// ErrNotConfigured is wrapped by every ConfigError.
var ErrNotConfigured = errors.New("store not configured")

// ConfigError reports missing backing parameters.
type ConfigError struct {
	Store   string
	Missing []string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("%s: %v", e.Store, ErrNotConfigured)
	}
	return fmt.Sprintf("%s: %v: missing %s", e.Store, ErrNotConfigured, strings.Join(e.Missing, ", "))
}

func (e *ConfigError) Unwrap() error { return ErrNotConfigured }

// QueryError is a failure reported by the underlying store.
type QueryError struct {
	Store  string
	Table  string
	Status int
	Body   string
	Err    error
}

func (e *QueryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s query on %q failed", e.Store, e.Table)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *QueryError) Unwrap() error { return e.Err }

// DecodeRows converts generic rows into typed records using their JSON tags.
// Numbers are preserved as json.Number so identifiers keep their exact form.
func DecodeRows[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return out, nil
}

// EncodeRows converts typed records into generic rows using their JSON tags.
func EncodeRows[T any](items []T) ([]Row, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	rows := make([]Row, 0, len(items))
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return rows, nil
}

func rowID(row Row) (string, error) {
	v, ok := row["id"]
	if !ok || v == nil {
		return "", errors.New("row has no id")
	}
	switch id := v.(type) {
	case string:
		return id, nil
	case json.Number:
		return id.String(), nil
	default:
		return fmt.Sprintf("%v", id), nil
	}
}

// nativeValue converts JSON-decoded values into plain Go types that client
// libraries can encode.
func nativeValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case Row:
		return nativeValue(map[string]any(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = nativeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = nativeValue(val)
		}
		return out
	default:
		return v
	}
}
