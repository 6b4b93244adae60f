// Package store provides a thin bbolt wrapper for kitadash's preference file.
//
// The file holds a single user preference (the display mode) plus a short
// audit trail of mode changes. It is shared by every kitadash process on the
// machine, so long-running commands never keep it open: they go through an
// Opener, which opens the file per operation (read-only for loads).
//
// Buckets:
//
//	prefs   : user preferences; key data_source holds "live" or "mock"
//	history : mode changes keyed by zero-padded sequence number
//	_meta   : internal: schema version, created_at
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/kitadash/internal/model"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketPrefs    = []byte("prefs")
	bucketHistory  = []byte("history")
	bucketInternal = []byte("_meta")

	keyDataSource = []byte("data_source")
)

// AllBuckets lists every user-facing bucket for stats and clear operations.
var AllBuckets = []string{"prefs", "history"}

// maxHistory bounds the history bucket; older entries are pruned on write.
const maxHistory = 100

// lockTimeout bounds how long Open waits for another process's write lock.
const lockTimeout = 2 * time.Second

// Store wraps a bbolt database.
type Store struct {
	db       *bolt.DB
	readOnly bool
}

// Open opens (or creates) the bbolt database at path for writing.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// OpenReadOnly opens an existing database under a shared lock. A missing
// file is reported as an error wrapping os.ErrNotExist.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: lockTimeout, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}
	return &Store{db: db, readOnly: true}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

// migrate ensures all buckets exist and schema is current.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketPrefs, bucketHistory, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Display Mode ─────────────────────────────────────────────────────────────

// GetMode returns the persisted display mode.
// Returns (mode, true, nil) if set, ("", false, nil) if never set.
// A stored value that is not a valid mode is an error wrapping
// model.ErrInvalidMode.
func (s *Store) GetMode() (model.DisplayMode, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPrefs)
		if b == nil {
			return nil
		}
		if v := b.Get(keyDataSource); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return "", false, err
	}
	m, err := model.ParseMode(string(raw))
	if err != nil {
		return "", false, fmt.Errorf("stored %s: %w", keyDataSource, err)
	}
	return m, true, nil
}

// PutMode persists m and appends the change to history in one transaction.
// The history entry is skipped when m equals the stored value.
func (s *Store) PutMode(m model.DisplayMode) error {
	if _, err := model.ParseMode(string(m)); err != nil {
		return err
	}
	entry, err := json.Marshal(model.ModeChange{Mode: m, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding mode change: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		prefs := tx.Bucket(bucketPrefs)
		if string(prefs.Get(keyDataSource)) == string(m) {
			return nil
		}
		if err := prefs.Put(keyDataSource, []byte(m)); err != nil {
			return err
		}
		hist := tx.Bucket(bucketHistory)
		seq, err := hist.NextSequence()
		if err != nil {
			return err
		}
		if err := hist.Put([]byte(fmt.Sprintf("%020d", seq)), entry); err != nil {
			return err
		}
		return prune(hist, maxHistory)
	})
}

// ─── History ──────────────────────────────────────────────────────────────────

// ListHistory returns recorded mode changes, oldest first.
func (s *Store) ListHistory() ([]model.ModeChange, error) {
	var changes []model.ModeChange
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var c model.ModeChange
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("decoding history %s: %w", k, err)
			}
			changes = append(changes, c)
			return nil
		})
	})
	return changes, err
}

// prune deletes the oldest keys of b until at most keep remain.
func prune(b *bolt.Bucket, keep int) error {
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	if n <= keep {
		return nil
	}
	var stale [][]byte
	for k, _ := c.First(); k != nil && len(stale) < n-keep; k, _ = c.Next() {
		stale = append(stale, append([]byte(nil), k...))
	}
	for _, k := range stale {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets, in
// AllBuckets order.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			})
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	if s.readOnly {
		return errors.New("store opened read-only")
	}
	bname := []byte(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
}
