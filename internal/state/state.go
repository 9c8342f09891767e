// Package state persists run history in a bbolt database so summaries
// survive process restarts. The engine's identity caches are run-scoped
// and deliberately not stored here.
package state

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// stateDirPerm is the permission mode for the state directory (~/.shelfsync/).
	stateDirPerm = fs.FileMode(0o700)

	// stateFilePerm is the permission mode for the state database file.
	stateFilePerm = fs.FileMode(0o600)

	// stateOpenTimeout is the maximum time to wait for the bolt database lock.
	stateOpenTimeout = 5 * time.Second

	// maxRunRecords bounds the run history; older entries are pruned.
	maxRunRecords = 50
)

var runsBucket = []byte("runs")

// RunRecord summarizes one completed (or failed) sync run.
type RunRecord struct {
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Pulled     int       `json:"pulled"`
	Pushed     int       `json:"pushed"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	Errors     int       `json:"errors"`
	Failed     bool      `json:"failed"`
}

// State wraps a bbolt database holding persistent application state.
type State struct {
	db *bolt.DB
}

// Load opens the state database at ~/.shelfsync/state.db, creating it
// if it does not exist.
func Load() (*State, error) {
	return LoadAt(dbPath())
}

// LoadAt opens a state database at the given path, creating it if it
// does not exist. Useful for tests that need an isolated database.
func LoadAt(path string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := bolt.Open(path, stateFilePerm, &bolt.Options{Timeout: stateOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runsBucket)

		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing state db: %w", err)
	}

	return &State{db: db}, nil
}

// Close closes the database.
func (s *State) Close() error {
	return s.db.Close()
}

// AppendRun persists a run record, pruning history beyond maxRunRecords.
// Keys are RFC 3339 start timestamps, so bbolt's byte order matches
// chronological order.
func (s *State) AppendRun(r RunRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)

		data, err := json.Marshal(r)
		if err != nil {
			return err
		}

		key := []byte(r.StartedAt.UTC().Format(time.RFC3339Nano))
		if err := b.Put(key, data); err != nil {
			return err
		}

		// Prune oldest entries beyond the cap.
		count := 0
		if err := b.ForEach(func(_, _ []byte) error {
			count++
			return nil
		}); err != nil {
			return err
		}

		excess := count - maxRunRecords

		c := b.Cursor()
		for k, _ := c.First(); k != nil && excess > 0; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}

			excess--
		}

		return nil
	})
}

// RecentRuns returns up to n run records, newest first.
func (s *State) RecentRuns(n int) ([]RunRecord, error) {
	var runs []RunRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(runsBucket).Cursor()

		for k, v := c.Last(); k != nil && len(runs) < n; k, v = c.Prev() {
			var r RunRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}

			runs = append(runs, r)
		}

		return nil
	})

	return runs, err
}

func dbPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		// Fail loudly rather than silently writing to the current directory
		// where the database might end up inside a source-controlled tree.
		fmt.Fprintf(os.Stderr, "fatal: cannot determine home directory: %v\n", err)
		os.Exit(1)
	}

	return filepath.Join(dir, ".shelfsync", "state.db")
}
