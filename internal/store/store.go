// Package store implements the durable record store backing all
// persistent zbxdash state. Records are JSON blobs keyed by logical name
// ("servers", "app_settings", "dashboard_state") in a single sqlite
// table. Writes are serialized per key, reads are safe concurrently, and
// every key can be observed as a stream of values.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sonic-ru/zbxdash/internal/errors"
	"github.com/sonic-ru/zbxdash/internal/logger"
)

// Well-known record keys.
const (
	KeyServers        = "servers"
	KeyAppSettings    = "app_settings"
	KeyDashboardState = "dashboard_state"
)

// subscriberBuffer is the per-subscriber channel capacity. When a write
// burst overflows it, the oldest pending value is dropped so the newest
// write is always delivered.
const subscriberBuffer = 16

// Store is a keyed blob store over sqlite with per-key write
// serialization and change notification.
type Store struct {
	db  *sql.DB
	log logger.Logger

	mu      sync.Mutex
	keys    map[string]*sync.Mutex
	subs    map[string][]*subscriber
	nextSub int
}

type subscriber struct {
	id int
	ch chan []byte
}

// Open opens (creating if needed) the state database at path.
func Open(path string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Noop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStorage,
			"Cannot create data directory",
			"Check permissions on "+filepath.Dir(path))
	}

	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStorage,
			"Cannot open state database", "")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.WrapWithCode(err, errors.ErrStorage,
			"Cannot open state database",
			"Check that "+path+" is not corrupted")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS records (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, errors.WrapWithCode(err, errors.ErrStorage,
			"Cannot migrate state database", "")
	}

	return &Store{
		db:   db,
		log:  log,
		keys: make(map[string]*sync.Mutex),
		subs: make(map[string][]*subscriber),
	}, nil
}

// Close closes the underlying database. Observers are not closed; their
// cancel funcs remain safe to call.
func (s *Store) Close() error {
	return s.db.Close()
}

// keyLock returns the mutex serializing mutations of key.
func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.keys[key]
	if !ok {
		m = &sync.Mutex{}
		s.keys[key] = m
	}
	return m
}

// getRaw reads the blob for key. A missing key returns (nil, nil).
func (s *Store) getRaw(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStorage,
			"Cannot read record '"+key+"'", "")
	}
	return value, nil
}

// putRaw writes the blob for key and notifies observers.
func (s *Store) putRaw(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrStorage,
			"Cannot write record '"+key+"'",
			"Retry the operation; check disk space and permissions")
	}

	s.notify(key, value)
	return nil
}

// notify delivers value to every subscriber of key. Full subscriber
// buffers drop their oldest pending value first so the newest write is
// never lost.
func (s *Store) notify(key string, value []byte) {
	s.mu.Lock()
	subs := make([]*subscriber, len(s.subs[key]))
	copy(subs, s.subs[key])
	s.mu.Unlock()

	for _, sub := range subs {
		for {
			select {
			case sub.ch <- value:
			default:
				select {
				case <-sub.ch:
					s.log.Debug("observer of %q lagging, dropped oldest value", key)
				default:
				}
				continue
			}
			break
		}
	}
}

// subscribe registers a raw observer for key and returns its channel
// plus a cancel func. The current value is not emitted here; Observe
// handles the initial emission.
func (s *Store) subscribe(key string) (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &subscriber{id: s.nextSub, ch: make(chan []byte, subscriberBuffer)}
	s.nextSub++
	s.subs[key] = append(s.subs[key], sub)

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.subs[key]
		for i, x := range list {
			if x.id == sub.id {
				s.subs[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	return sub.ch, cancel
}
