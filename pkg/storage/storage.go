// Package storage persists collected records as per-location CSV files and
// builds the deduplicated combined artifact. Location files are append-only
// with the header written exactly once; the combined file is a derived,
// rebuildable output.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rs/zerolog"

	"github.com/shelterdata/petfinder-collector/pkg/locations"
	"github.com/shelterdata/petfinder-collector/pkg/logging"
	"github.com/shelterdata/petfinder-collector/pkg/petfinder"
)

// combinedPrefix marks derived outputs that the combine step must not read
// back as inputs.
const combinedPrefix = "all_"

// Store reads and writes collection data files under a data directory.
type Store struct {
	dataDir string
	logger  zerolog.Logger
}

// NewStore creates a storage layer rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{
		dataDir: dataDir,
		logger:  logging.NewLogger("storage"),
	}
}

// Dir returns the day's output directory for the pair:
// <dataDir>/<type>/<YYYY-MM-DD>/<status>.
func (s *Store) Dir(animalType, status string) string {
	dateStr := time.Now().Format("2006-01-02")
	return filepath.Join(s.dataDir, animalType, dateStr, status)
}

// LocationFile returns the per-location file path, e.g. ".../AL_cats.csv".
func (s *Store) LocationFile(animalType, status, location string) string {
	return filepath.Join(s.Dir(animalType, status), fmt.Sprintf("%s_%ss.csv", location, animalType))
}

// CombinedFile returns the combined artifact path for the pair.
func (s *Store) CombinedFile(animalType, status string) string {
	return filepath.Join(s.Dir(animalType, status), fmt.Sprintf("all_%s_%ss.csv", status, animalType))
}

// Append writes records to the location's file, creating it with a header
// row when absent and appending without one otherwise. Existing rows are
// never rewritten.
func (s *Store) Append(animalType, status, location string, records []petfinder.Record) error {
	if len(records) == 0 {
		return nil
	}

	path := s.LocationFile(animalType, status, location)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)
	if statErr != nil && !isNew {
		return fmt.Errorf("stat %s: %w", path, statErr)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	enc.AutoHeader = isNew

	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	verb := "Appended"
	if isNew {
		verb = "Saved"
	}
	s.logger.Info().
		Str("location", location).
		Int("records", len(records)).
		Str("path", path).
		Msgf("%s records", verb)

	return nil
}

// Count returns the number of data rows in the location's file, 0 when the
// file does not exist. Used when resuming to report accurate running
// totals; duplicate suppression happens only in Combine.
func (s *Store) Count(animalType, status, location string) (int, error) {
	path := s.LocationFile(animalType, status, location)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	count := -1 // discount the header row
	for {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("read %s: %w", path, err)
		}
		count++
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}

// readRecords decodes one per-location CSV file.
func readRecords(path string) ([]petfinder.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("create decoder for %s: %w", path, err)
	}

	var records []petfinder.Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// Combine concatenates every per-location file for the pair into a single
// deduplicated artifact. Duplicates share the same record ID; the first
// occurrence in lexical filename order wins. The derived stateQ_grouped
// column maps ZIP stand-ins back to their state code. Returns the output
// path, or "" when there is nothing to combine.
func (s *Store) Combine(animalType, status string) (string, error) {
	dir := s.Dir(animalType, status)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		s.logger.Error().Str("dir", dir).Msg("Directory doesn't exist, nothing to combine")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read directory %s: %w", dir, err)
	}

	var inputs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasPrefix(name, combinedPrefix) {
			continue
		}
		inputs = append(inputs, name)
	}

	if len(inputs) == 0 {
		s.logger.Warn().Str("dir", dir).Msg("No location files found, nothing to combine")
		return "", nil
	}

	// os.ReadDir returns entries in lexical order, which is the stable
	// first-occurrence-wins tie-break for duplicate IDs.
	seen := make(map[int64]struct{})
	var combined []petfinder.CombinedRecord
	total := 0

	for _, name := range inputs {
		path := filepath.Join(dir, name)
		records, err := readRecords(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", name).Msg("Skipping unreadable location file")
			continue
		}
		s.logger.Info().Str("file", name).Int("records", len(records)).Msg("Loaded location file")
		total += len(records)

		for i := range records {
			if _, dup := seen[records[i].ID]; dup {
				continue
			}
			seen[records[i].ID] = struct{}{}
			combined = append(combined, petfinder.CombinedRecord{
				Record:        records[i],
				StateQGrouped: locations.Normalize(records[i].StateQ),
			})
		}
	}

	if len(combined) == 0 {
		s.logger.Error().Str("dir", dir).Msg("No data to combine")
		return "", nil
	}

	if removed := total - len(combined); removed > 0 {
		s.logger.Info().Int("duplicates_removed", removed).Msg("Removed duplicate records")
	}

	outPath := s.CombinedFile(animalType, status)
	if err := writeCombined(outPath, combined); err != nil {
		return "", err
	}

	s.logger.Info().
		Str("path", outPath).
		Int("unique_records", len(combined)).
		Msg("Combined file saved")

	return outPath, nil
}

// writeCombined replaces the combined artifact wholesale; it is derived and
// safe to rebuild at any time.
func writeCombined(path string, records []petfinder.CombinedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)

	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return fmt.Errorf("encode combined record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// ReadCombined decodes the combined artifact, mainly for downstream
// cleaning stages and tests.
func (s *Store) ReadCombined(animalType, status string) ([]petfinder.CombinedRecord, error) {
	f, err := os.Open(s.CombinedFile(animalType, status))
	if err != nil {
		return nil, fmt.Errorf("open combined file: %w", err)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	var records []petfinder.CombinedRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode combined file: %w", err)
	}
	return records, nil
}
