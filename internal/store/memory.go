package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and by deployments that have no
// realtime backend configured. Snapshots are fanned out synchronously to every
// subscription watching the written record's parent path.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
	subs    map[int]*memorySub
	nextSub int
}

type memorySub struct {
	path   string
	query  Query
	stream *Stream
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string][]byte),
		subs:    make(map[int]*memorySub),
	}
}

// Write upserts the record at path and notifies overlapping subscriptions.
func (m *Memory) Write(_ context.Context, path string, value any) error {
	data, err := Encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	// Snapshots are pushed while the lock is held so two racing writes cannot
	// enqueue their snapshots in inverted order. Push only queues; it never
	// blocks on the consumer.
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[path] = data
	for _, sub := range m.subs {
		if IsChild(sub.path, path) {
			sub.stream.Push(m.childrenLocked(sub.path, sub.query))
		}
	}
	return nil
}

// Create writes value under a generated child key of path.
func (m *Memory) Create(ctx context.Context, path string, value any) (string, error) {
	key := uuid.NewString()
	if err := m.Write(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

// Get returns the single record at path.
func (m *Memory) Get(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.records[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// ReadOnce returns the direct children of path.
func (m *Memory) ReadOnce(_ context.Context, path string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.childrenLocked(path, Query{}), nil
}

// Subscribe registers a live child watcher; the initial snapshot is delivered
// immediately.
func (m *Memory) Subscribe(_ context.Context, path string, q Query) (Subscription, error) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++

	sub := &memorySub{path: path, query: q}
	sub.stream = NewStream(func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	})
	m.subs[id] = sub
	// Pushed under the lock for the same reason as Write: a concurrent write
	// must not slip its snapshot in ahead of the initial one.
	sub.stream.Push(m.childrenLocked(path, q))
	m.mu.Unlock()

	return sub.stream, nil
}

func (m *Memory) childrenLocked(path string, q Query) Snapshot {
	var snap Snapshot
	for key, data := range m.records {
		if !IsChild(path, key) {
			continue
		}
		value := make([]byte, len(data))
		copy(value, data)
		snap = append(snap, Record{Key: key, Value: value})
	}
	sort.Slice(snap, func(i, j int) bool {
		return strings.Compare(snap[i].Key, snap[j].Key) < 0
	})
	return ApplyQuery(snap, q)
}
