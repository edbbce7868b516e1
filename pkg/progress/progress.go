// Package progress persists the durable per-location collection state:
// which locations are complete, which failed, and where partially collected
// locations should resume. The progress file is the sole source of truth
// for what a new session skips or resumes.
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shelterdata/petfinder-collector/pkg/logging"
)

// Partial records where a partially collected location picks up next.
type Partial struct {
	// LastPage is the page the next session starts from.
	LastPage int `json:"last_page"`

	// AnimalsCollected is the running total persisted for the location.
	AnimalsCollected int `json:"animals_collected"`
}

// Record tracks collection state for one (animal type, status) pair.
// Invariant: a location appears in at most one of CompletedStates and
// PartialStates; FailedStates is advisory and does not exclude retry.
type Record struct {
	CompletedStates  []string           `json:"completed_states"`
	FailedStates     []string           `json:"failed_states"`
	PartialStates    map[string]Partial `json:"partial_states"`
	SessionStartTime string             `json:"session_start_time"`
}

// NewRecord returns a fresh record with the session start set to now.
func NewRecord() *Record {
	return &Record{
		CompletedStates:  []string{},
		FailedStates:     []string{},
		PartialStates:    map[string]Partial{},
		SessionStartTime: time.Now().Format(time.RFC3339),
	}
}

// IsCompleted reports whether location has been fully collected.
func (r *Record) IsCompleted(location string) bool {
	for _, loc := range r.CompletedStates {
		if loc == location {
			return true
		}
	}
	return false
}

// ResumePage returns the page the next attempt for location starts at:
// the recorded partial page, or 1 when there is no partial entry.
func (r *Record) ResumePage(location string) int {
	if p, ok := r.PartialStates[location]; ok && p.LastPage > 1 {
		return p.LastPage
	}
	return 1
}

// MarkCompleted moves location into the completed set, clearing any failed
// or partial entry for it.
func (r *Record) MarkCompleted(location string) {
	if !r.IsCompleted(location) {
		r.CompletedStates = append(r.CompletedStates, location)
	}
	r.FailedStates = remove(r.FailedStates, location)
	delete(r.PartialStates, location)
}

// MarkPartial records the resume page and running count for location.
func (r *Record) MarkPartial(location string, lastPage, animalsCollected int) {
	if r.PartialStates == nil {
		r.PartialStates = map[string]Partial{}
	}
	r.PartialStates[location] = Partial{
		LastPage:         lastPage,
		AnimalsCollected: animalsCollected,
	}
}

// MarkFailed adds location to the failed set if not already present.
func (r *Record) MarkFailed(location string) {
	for _, loc := range r.FailedStates {
		if loc == location {
			return
		}
	}
	r.FailedStates = append(r.FailedStates, location)
}

func remove(list []string, item string) []string {
	out := list[:0]
	for _, v := range list {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}

// Store loads and saves progress records as date-stamped JSON documents
// under the data directory.
type Store struct {
	dataDir string
	logger  zerolog.Logger
}

// NewStore creates a progress store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{
		dataDir: dataDir,
		logger:  logging.NewLogger("progress"),
	}
}

// Path returns the progress file path for the pair:
// <dataDir>/<type>/<YYYY-MM-DD>/progress_<status>.json. A new file per
// calendar day the pipeline is first run.
func (s *Store) Path(animalType, status string) string {
	dateStr := time.Now().Format("2006-01-02")
	return filepath.Join(s.dataDir, animalType, dateStr, fmt.Sprintf("progress_%s.json", status))
}

// Load reads the persisted record, or returns a fresh one (with the session
// start set to now) when none exists yet.
func (s *Store) Load(animalType, status string) (*Record, error) {
	path := s.Path(animalType, status)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.logger.Debug().Str("path", path).Msg("No progress file, starting fresh")
		return NewRecord(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse progress file %s: %w", path, err)
	}
	if rec.PartialStates == nil {
		rec.PartialStates = map[string]Partial{}
	}

	return &rec, nil
}

// Save persists the record, replacing the previous file atomically via a
// temp-file rename so a reader never observes a partial write.
func (s *Store) Save(animalType, status string, rec *Record) error {
	path := s.Path(animalType, status)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create progress directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write progress file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace progress file: %w", err)
	}

	s.logger.Debug().
		Str("path", path).
		Int("completed", len(rec.CompletedStates)).
		Int("partial", len(rec.PartialStates)).
		Int("failed", len(rec.FailedStates)).
		Msg("Progress saved")

	return nil
}
