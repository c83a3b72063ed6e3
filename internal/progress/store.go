// Package progress is the file-backed record of how far each import
// partition has been processed. The file is the only state shared between
// runs, so every update is flushed synchronously; a crash loses at most the
// in-flight batch.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// SchemaVersion is bumped when the document layout changes. Version 0 files
// (the original flat key→record map) are still readable.
const SchemaVersion = 1

// Record tracks one partition. Counters are cumulative across runs.
type Record struct {
	TotalQuestions     int        `json:"total_questions"`
	ProcessedQuestions int        `json:"processed_questions"`
	NextStartIndex     int        `json:"next_start_index"`
	LastSeenID         string     `json:"last_seen_id,omitempty"`
	Imported           int        `json:"imported"`
	Duplicates         int        `json:"duplicates"`
	Skipped            int        `json:"skipped"`
	Failed             int        `json:"failed"`
	Completed          bool       `json:"completed"`
	LastUpdated        *time.Time `json:"last_updated"`
}

// Delta is one batch's counter contribution, merged additively.
type Delta struct {
	Imported   int
	Duplicates int
	Skipped    int
	Failed     int
}

type document struct {
	Version    int               `json:"version"`
	Partitions map[string]Record `json:"partitions"`
}

// Store is a single-writer progress file. The mutex only guards in-process
// readers (the status server); concurrent processes are not coordinated.
type Store struct {
	mu   sync.Mutex
	path string
	doc  document
	now  func() time.Time
}

// Open loads the progress file at path, creating an empty store when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		doc:  document{Version: SchemaVersion, Partitions: map[string]Record{}},
		now:  time.Now,
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}

	if err := s.decode(raw); err != nil {
		return nil, fmt.Errorf("parse progress file %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) decode(raw []byte) error {
	var doc document
	if err := json.Unmarshal(raw, &doc); err == nil && doc.Partitions != nil {
		doc.Version = SchemaVersion
		s.doc = doc
		return nil
	}

	// Version 0: a bare map of partition key to record.
	var flat map[string]Record
	if err := json.Unmarshal(raw, &flat); err != nil {
		return err
	}
	s.doc = document{Version: SchemaVersion, Partitions: flat}
	if s.doc.Partitions == nil {
		s.doc.Partitions = map[string]Record{}
	}
	return nil
}

// Get returns the record for a partition key, or an all-zero record when the
// partition has never been touched.
func (s *Store) Get(key string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Partitions[key]
}

// Has reports whether the partition has ever been recorded.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.doc.Partitions[key]
	return ok
}

// Update merges a batch's counters into the partition record, overwrites the
// position fields, and flushes the file.
func (s *Store) Update(key string, total, nextIndex int, lastSeenID string, d Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.doc.Partitions[key]
	rec.TotalQuestions = total
	rec.ProcessedQuestions = nextIndex
	rec.NextStartIndex = nextIndex
	if lastSeenID != "" {
		rec.LastSeenID = lastSeenID
	}
	rec.Imported += d.Imported
	rec.Duplicates += d.Duplicates
	rec.Skipped += d.Skipped
	rec.Failed += d.Failed
	rec.Completed = total > 0 && nextIndex >= total
	now := s.now().UTC()
	rec.LastUpdated = &now

	s.doc.Partitions[key] = rec
	return s.save()
}

// Reset clears a single partition's record and flushes the file.
func (s *Store) Reset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Partitions[key]; !ok {
		return nil
	}
	delete(s.doc.Partitions, key)
	return s.save()
}

// Snapshot returns a copy of every partition record.
func (s *Store) Snapshot() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Record, len(s.doc.Partitions))
	for k, v := range s.doc.Partitions {
		out[k] = v
	}
	return out
}

// Keys returns all recorded partition keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.doc.Partitions))
	for k := range s.doc.Partitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// save writes the document via temp file + rename so readers never observe a
// half-written file. Caller holds the mutex.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create progress directory: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write progress file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace progress file: %w", err)
	}
	return nil
}
