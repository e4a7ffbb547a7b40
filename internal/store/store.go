// Package store defines the realtime key-value store contract the chat and
// contact subsystems are built on: hierarchical paths, upsert writes, one-shot
// reads and push-driven snapshot subscriptions.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnavailable signals the backend connection could not be reached.
	ErrUnavailable = errors.New("store unavailable")
	// ErrPermissionDenied signals the backend rejected the caller's access.
	ErrPermissionDenied = errors.New("store permission denied")
	// ErrNotFound signals a Get against a missing record.
	ErrNotFound = errors.New("record not found")
)

// Record is one stored value addressed by its full path.
type Record struct {
	Key   string
	Value []byte
}

// Snapshot is a full point-in-time view of the direct children of a path.
type Snapshot []Record

// Query optionally orders a snapshot by a numeric JSON field and bounds it to
// the newest N entries, mirroring order-by/limit-to-last query semantics.
type Query struct {
	OrderBy     string
	LimitToLast int
}

// Subscription is a live snapshot feed. Close is the only way to stop
// delivery; an unclosed subscription keeps its watcher registered for the
// lifetime of the process.
type Subscription interface {
	Updates() <-chan Snapshot
	Close()
}

// Store is the adapter over a push-capable hierarchical key-value backend.
// Paths are slash-separated; ReadOnce and Subscribe address the direct
// children of a path (exactly one extra segment).
type Store interface {
	// Write upserts a value at path. The value is JSON-encoded unless it is
	// already a raw []byte or json.RawMessage.
	Write(ctx context.Context, path string, value any) error
	// Create writes value under a freshly generated child key of path and
	// returns that key.
	Create(ctx context.Context, path string, value any) (string, error)
	// Get reads the single record at path.
	Get(ctx context.Context, path string) ([]byte, error)
	// ReadOnce reads the direct children of path once, with no subscription.
	ReadOnce(ctx context.Context, path string) (Snapshot, error)
	// Subscribe delivers a full child snapshot immediately and again after
	// every overlapping write, until the subscription is closed.
	Subscribe(ctx context.Context, path string, q Query) (Subscription, error)
}

// Encode normalizes a write value to its stored byte form.
func Encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(value)
	}
}

// ChildKey returns the final path segment of a record key.
func ChildKey(full string) string {
	if i := strings.LastIndex(full, "/"); i >= 0 {
		return full[i+1:]
	}
	return full
}

// IsChild reports whether key addresses a direct child of path.
func IsChild(path, key string) bool {
	if !strings.HasPrefix(key, path+"/") {
		return false
	}
	return !strings.Contains(key[len(path)+1:], "/")
}

// ApplyQuery orders snap by the query's numeric field and trims it to the
// newest LimitToLast entries. Records missing the field order as zero. The
// input order is preserved for ties and when no ordering is requested.
func ApplyQuery(snap Snapshot, q Query) Snapshot {
	out := snap
	if q.OrderBy != "" {
		out = make(Snapshot, len(snap))
		copy(out, snap)
		sort.SliceStable(out, func(i, j int) bool {
			return orderField(out[i], q.OrderBy) < orderField(out[j], q.OrderBy)
		})
	}
	if q.LimitToLast > 0 && len(out) > q.LimitToLast {
		out = out[len(out)-q.LimitToLast:]
	}
	return out
}

func orderField(r Record, field string) float64 {
	var doc map[string]any
	if err := json.Unmarshal(r.Value, &doc); err != nil {
		return 0
	}
	v, ok := doc[field].(float64)
	if !ok {
		return 0
	}
	return v
}
