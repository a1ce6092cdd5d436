// Package history persists a capped, diagnostics-only ledger of completed
// job results in a local BoltDB file — not a delivery queue: jobs are
// always reported to the control plane directly (internal/transport), and
// this ledger exists only so `reap3r-historyctl` can show an operator what
// ran recently without a network round trip. Grounded on the teacher's
// internal/store/bolt.go (Open's bucket-creation transaction, RecordUpdate
// /ListHistory's RFC3339Nano key ordering and reverse-cursor walk).
package history

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/massvision/reap3r/internal/transport"
)

var bucketJobs = []byte("jobs")

// Entry is one ledger row: a job result plus the job_type it came from,
// since JobResult itself carries no type field.
type Entry struct {
	JobID       string          `json:"job_id"`
	JobType     string          `json:"job_type"`
	Status      string          `json:"status"`
	StartedAt   int64           `json:"started_at"`
	CompletedAt int64           `json:"completed_at"`
	ExitCode    *int            `json:"exit_code,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}

// Store wraps a BoltDB database capped at a fixed number of job entries.
type Store struct {
	db       *bolt.DB
	capacity int
}

// Open creates or opens a BoltDB database at path and ensures the jobs
// bucket exists. capacity <= 0 falls back to 500, matching config's default.
func Open(path string, capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = 500
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketJobs)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create jobs bucket: %w", err)
	}
	return &Store{db: db, capacity: capacity}, nil
}

// Close closes the underlying BoltDB.
func (s *Store) Close() error { return s.db.Close() }

// Record stores a job's result, keyed for chronological ordering, and
// evicts the oldest entry whenever the bucket grows past capacity.
func (s *Store) Record(job transport.JobRequest, result transport.JobResult) error {
	entry := Entry{
		JobID:        result.JobID,
		JobType:      job.JobType,
		Status:       result.Status,
		StartedAt:    result.StartedAt,
		CompletedAt:  result.CompletedAt,
		ExitCode:     result.ExitCode,
		ErrorMessage: result.ErrorMessage,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs)
		key := []byte(fmt.Sprintf("%s::%s", time.Unix(entry.CompletedAt, 0).UTC().Format(time.RFC3339Nano), entry.JobID))
		if err := b.Put(key, data); err != nil {
			return err
		}
		return evictOldest(b, s.capacity)
	})
}

// evictOldest deletes entries from the front of the bucket (oldest keys,
// since keys sort chronologically) until count is within capacity.
func evictOldest(b *bolt.Bucket, capacity int) error {
	count := b.Stats().KeyN
	if count <= capacity {
		return nil
	}
	c := b.Cursor()
	for excess := count - capacity; excess > 0; excess-- {
		k, _ := c.First()
		if k == nil {
			break
		}
		if err := c.Delete(); err != nil {
			return err
		}
	}
	return nil
}

// List returns the most recent entries, newest first, up to limit.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs)
		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// Clear deletes every entry in the ledger.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketJobs); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketJobs)
		return err
	})
}
