package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Read returns the decoded value for key, or the zero value of T when the
// key is absent or its blob no longer decodes. Only storage I/O failures
// are returned as errors.
func Read[T any](ctx context.Context, s *Store, key string) (T, error) {
	var zero T

	raw, err := s.getRaw(ctx, key)
	if err != nil {
		return zero, err
	}
	if raw == nil {
		return zero, nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.Warn("record %q does not decode, falling back to defaults: %v", key, err)
		return zero, nil
	}
	return v, nil
}

// Write serializes v and stores it under key, notifying observers.
func Write[T any](ctx context.Context, s *Store, key string, v T) error {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	return writeLocked(ctx, s, key, v)
}

// Mutate applies fn to the current persisted value of key and writes the
// result back. The read-apply-write sequence holds the key's lock, so
// concurrent partial updates never overwrite each other's fields.
func Mutate[T any](ctx context.Context, s *Store, key string, fn func(T) T) (T, error) {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	cur, err := Read[T](ctx, s, key)
	if err != nil {
		var zero T
		return zero, err
	}

	next := fn(cur)
	if err := writeLocked(ctx, s, key, next); err != nil {
		var zero T
		return zero, err
	}
	return next, nil
}

// Observe streams the values of key: the current value immediately, then
// one value per successful write. The stream ends when ctx is cancelled
// or the returned cancel func is called; undecodable blobs are skipped.
func Observe[T any](ctx context.Context, s *Store, key string) (<-chan T, func()) {
	raw, cancelRaw := s.subscribe(key)
	out := make(chan T, 1)

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			cancelRaw()
			close(done)
		})
	}

	go func() {
		defer close(out)

		// Initial emission: the value as currently persisted.
		if cur, err := Read[T](ctx, s, key); err == nil {
			select {
			case out <- cur:
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}

		for {
			select {
			case b, ok := <-raw:
				if !ok {
					return
				}
				var v T
				if b != nil {
					if err := json.Unmarshal(b, &v); err != nil {
						s.log.Warn("observer of %q skipping undecodable value: %v", key, err)
						continue
					}
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	return out, cancel
}

// writeLocked persists v under key. Callers must hold the key lock.
func writeLocked[T any](ctx context.Context, s *Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		// Only reachable with unmarshalable types (channels, funcs).
		return err
	}
	return s.putRaw(ctx, key, raw)
}
