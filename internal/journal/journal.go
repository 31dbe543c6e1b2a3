// Package journal persists audit results to an embedded BadgerDB so the
// audit history survives restarts.
//
// Each result is stored under a big-endian sequence key, so a forward
// iteration returns results in the order they were appended.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/dshills/contentaudit/internal/schema"
)

var keyPrefix = []byte("audit/")

// Config holds configuration for the journal database.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps the journal in RAM. Used by tests and by the server when
	// no path is configured.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Logger receives BadgerDB's internal log lines. Nil disables them.
	Logger *zap.SugaredLogger
}

// InMemoryConfig returns a Config for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts zap to BadgerDB's Logger interface.
type badgerLogger struct {
	log *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...any)   { l.log.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...any) { l.log.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...any)    { l.log.Infof(format, args...) }
func (l badgerLogger) Debugf(format string, args ...any)   { l.log.Debugf(format, args...) }

// Journal is a durable, append-only record of audit results.
// Safe for concurrent use.
type Journal struct {
	db *badger.DB

	mu   sync.Mutex
	next uint64
}

// Open opens (or creates) the journal described by cfg.
func Open(cfg Config) (*Journal, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("journal path is required for a persistent journal")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("creating journal directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{log: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	j := &Journal{db: db}
	last, err := j.lastSeq()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	j.next = last + 1
	return j, nil
}

func (j *Journal) lastSeq() (uint64, error) {
	var last uint64
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past the highest possible sequence under the prefix.
		seek := append(append([]byte{}, keyPrefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		it.Seek(seek)
		if it.ValidForPrefix(keyPrefix) {
			last = decodeKey(it.Item().Key())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reading journal tail: %w", err)
	}
	return last, nil
}

func encodeKey(seq uint64) []byte {
	k := make([]byte, len(keyPrefix)+8)
	copy(k, keyPrefix)
	binary.BigEndian.PutUint64(k[len(keyPrefix):], seq)
	return k
}

func decodeKey(k []byte) uint64 {
	if len(k) != len(keyPrefix)+8 {
		return 0
	}
	return binary.BigEndian.Uint64(k[len(keyPrefix):])
}

// Write appends r to the journal.
func (j *Journal) Write(r *schema.AuditResult) error {
	val, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding audit %s: %w", r.ID, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	key := encodeKey(j.next)
	if err := j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	}); err != nil {
		return fmt.Errorf("writing audit %s: %w", r.ID, err)
	}
	j.next++
	return nil
}

// Load returns every journaled result, oldest first.
func (j *Journal) Load() ([]*schema.AuditResult, error) {
	var out []*schema.AuditResult
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var r schema.AuditResult
				if err := json.Unmarshal(val, &r); err != nil {
					return fmt.Errorf("decoding journal entry %d: %w", decodeKey(item.Key()), err)
				}
				out = append(out, &r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close flushes and closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
