// Package natskv backs the store contract with a NATS JetStream KeyValue
// bucket. Slash-separated paths map onto dot-separated KV keys, and child
// subscriptions ride on KV watchers with single-token wildcard patterns.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/codefyre/backend/internal/store"
)

// Store implements store.Store on a single KV bucket.
type Store struct {
	kv jetstream.KeyValue
}

// New connects the adapter to the named bucket, creating it if missing.
func New(ctx context.Context, nc *nats.Conn, bucket string) (*Store, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", translate(err))
	}

	kv, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: bucket})
	}
	if err != nil {
		return nil, fmt.Errorf("kv bucket %s: %w", bucket, translate(err))
	}
	return &Store{kv: kv}, nil
}

// Write upserts the record at path.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	data, err := store.Encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if _, err := s.kv.Put(ctx, toKey(path), data); err != nil {
		return fmt.Errorf("put %s: %w", path, translate(err))
	}
	return nil
}

// Create writes value under a generated child key of path.
func (s *Store) Create(ctx context.Context, path string, value any) (string, error) {
	key := uuid.NewString()
	if err := s.Write(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

// Get reads the single record at path.
func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	entry, err := s.kv.Get(ctx, toKey(path))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, translate(err))
	}
	return entry.Value(), nil
}

// ReadOnce collects the current direct children of path by draining a
// watcher's initial replay.
func (s *Store) ReadOnce(ctx context.Context, path string) (store.Snapshot, error) {
	watcher, err := s.kv.Watch(ctx, childPattern(path))
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, translate(err))
	}
	defer watcher.Stop()

	var snap store.Snapshot
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("read %s: %w", path, ctx.Err())
		case entry := <-watcher.Updates():
			if entry == nil {
				// End of initial replay.
				return snap, nil
			}
			if entry.Operation() != jetstream.KeyValuePut {
				continue
			}
			snap = append(snap, store.Record{Key: fromKey(entry.Key()), Value: entry.Value()})
		}
	}
}

// Subscribe watches the direct children of path, emitting a full snapshot
// after the initial replay and again on every subsequent change.
func (s *Store) Subscribe(ctx context.Context, path string, q store.Query) (store.Subscription, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	watcher, err := s.kv.Watch(watchCtx, childPattern(path))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", path, translate(err))
	}

	var once sync.Once
	stream := store.NewStream(func() {
		once.Do(func() {
			watcher.Stop()
			cancel()
		})
	})

	go func() {
		defer stream.Close()
		children := make(map[string][]byte)
		live := false
		for {
			select {
			case <-watchCtx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				if entry == nil {
					// Initial replay complete: emit the first snapshot.
					live = true
					stream.Push(snapshot(children, q))
					continue
				}
				switch entry.Operation() {
				case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
					delete(children, entry.Key())
				default:
					children[entry.Key()] = entry.Value()
				}
				if live {
					stream.Push(snapshot(children, q))
				}
			}
		}
	}()

	return stream, nil
}

func snapshot(children map[string][]byte, q store.Query) store.Snapshot {
	snap := make(store.Snapshot, 0, len(children))
	for key, value := range children {
		snap = append(snap, store.Record{Key: fromKey(key), Value: value})
	}
	// Stable base order before the query sort.
	sort.Slice(snap, func(i, j int) bool { return snap[i].Key < snap[j].Key })
	return store.ApplyQuery(snap, q)
}

func toKey(path string) string {
	return strings.ReplaceAll(path, "/", ".")
}

func fromKey(key string) string {
	return strings.ReplaceAll(key, ".", "/")
}

func childPattern(path string) string {
	return toKey(path) + ".*"
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, nats.ErrAuthorization):
		return store.ErrPermissionDenied
	case errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrNoServers),
		errors.Is(err, nats.ErrNoResponders),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return store.ErrUnavailable
	default:
		return err
	}
}
