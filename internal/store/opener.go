package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/derickschaefer/kitadash/internal/model"
	"github.com/derickschaefer/kitadash/internal/util"
)

// Opener runs each operation against a freshly opened Store and closes it
// before returning, so no lock outlives the call. Reads take bbolt's shared
// lock; only SaveMode takes the exclusive one.
type Opener struct {
	Path string
}

// LoadMode returns the persisted display mode. A database file that does not
// exist yet is the same as an unset preference.
func (o Opener) LoadMode() (model.DisplayMode, bool, error) {
	s, err := OpenReadOnly(o.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer s.Close()
	return s.GetMode()
}

// SaveMode persists m, creating the database if needed.
func (o Opener) SaveMode(m model.DisplayMode) error {
	s, err := Open(o.Path)
	if err != nil {
		return err
	}
	if err := s.PutMode(m); err != nil {
		s.Close()
		return err
	}
	return s.Close()
}

// History returns the recorded mode changes, oldest first.
func (o Opener) History() ([]model.ModeChange, error) {
	s, err := OpenReadOnly(o.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.ListHistory()
}

// Stats reports per-bucket counts. A missing database has no buckets.
func (o Opener) Stats() ([]BucketStats, error) {
	s, err := OpenReadOnly(o.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Stats()
}

// Clear empties the named buckets, or every bucket in AllBuckets when names
// is empty. All names are attempted; failures are reported together.
func (o Opener) Clear(names ...string) error {
	if len(names) == 0 {
		names = AllBuckets
	}
	for _, n := range names {
		if !knownBucket(n) {
			return fmt.Errorf("unknown bucket %q (valid: prefs, history)", n)
		}
	}
	s, err := Open(o.Path)
	if err != nil {
		return err
	}
	var errs util.MultiError
	for _, n := range names {
		errs.Add(s.ClearBucket(n))
	}
	errs.Add(s.Close())
	return errs.Err()
}

func knownBucket(name string) bool {
	for _, b := range AllBuckets {
		if b == name {
			return true
		}
	}
	return false
}
