package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shelterdata/petfinder-collector/pkg/petfinder"
)

func testRecord(id int64, location string) petfinder.Record {
	return petfinder.Record{
		ID:            id,
		Type:          "Cat",
		Name:          "cat-" + location,
		Status:        "adopted",
		ColorsPrimary: "Black",
		StateQ:        location,
		Accessed:      time.Date(2025, 8, 11, 12, 0, 0, 0, time.UTC),
	}
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Append("cat", "adopted", "AL", []petfinder.Record{testRecord(1, "AL")}); err != nil {
		t.Fatalf("first Append failed: %v", err)
	}
	if err := store.Append("cat", "adopted", "AL", []petfinder.Record{testRecord(2, "AL")}); err != nil {
		t.Fatalf("second Append failed: %v", err)
	}

	data, err := os.ReadFile(store.LocationFile("cat", "adopted", "AL"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	headerCount := strings.Count(string(data), "id,org_id")
	if headerCount != 1 {
		t.Errorf("Expected exactly 1 header row, found %d", headerCount)
	}

	count, err := store.Count("cat", "adopted", "AL")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}
}

func TestAppendEmptyIsNoOp(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Append("cat", "adopted", "AL", nil); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if _, err := os.Stat(store.LocationFile("cat", "adopted", "AL")); !os.IsNotExist(err) {
		t.Error("Appending zero records should not create a file")
	}
}

func TestCountMissingFileIsZero(t *testing.T) {
	store := NewStore(t.TempDir())

	count, err := store.Count("cat", "adopted", "WY")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Count = %d, want 0", count)
	}
}

func TestAppendReadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	rec := testRecord(42, "AK")
	rec.Description = "Sweet boy, loves \"laps\"\nand naps."
	rec.Tags = "Friendly|Calm"
	mixed := true
	rec.BreedsMixed = &mixed

	if err := store.Append("cat", "adopted", "AK", []petfinder.Record{rec}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := readRecords(store.LocationFile("cat", "adopted", "AK"))
	if err != nil {
		t.Fatalf("readRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	got := records[0]
	if got.ID != 42 {
		t.Errorf("ID = %d, want 42", got.ID)
	}
	if got.Description != rec.Description {
		t.Errorf("Description = %q, want multiline value preserved", got.Description)
	}
	if got.BreedsMixed == nil || !*got.BreedsMixed {
		t.Error("BreedsMixed should round-trip as true")
	}
	if !got.Accessed.Equal(rec.Accessed) {
		t.Errorf("Accessed = %v, want %v", got.Accessed, rec.Accessed)
	}
}

func TestCombineDedupFirstWins(t *testing.T) {
	store := NewStore(t.TempDir())

	// AK sorts before AL, so its copy of ID 123 must win.
	akRec := testRecord(123, "AK")
	akRec.Name = "from-AK"
	alRec := testRecord(123, "AL")
	alRec.Name = "from-AL"

	if err := store.Append("cat", "adopted", "AK", []petfinder.Record{akRec, testRecord(2, "AK")}); err != nil {
		t.Fatalf("Append AK failed: %v", err)
	}
	if err := store.Append("cat", "adopted", "AL", []petfinder.Record{alRec}); err != nil {
		t.Fatalf("Append AL failed: %v", err)
	}

	path, err := store.Combine("cat", "adopted")
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if path == "" {
		t.Fatal("Combine returned empty path")
	}

	combined, err := store.ReadCombined("cat", "adopted")
	if err != nil {
		t.Fatalf("ReadCombined failed: %v", err)
	}

	if len(combined) != 2 {
		t.Fatalf("combined has %d records, want 2", len(combined))
	}

	var hit int
	for _, rec := range combined {
		if rec.ID == 123 {
			hit++
			if rec.Name != "from-AK" {
				t.Errorf("duplicate winner Name = %q, want from-AK (first file wins)", rec.Name)
			}
		}
	}
	if hit != 1 {
		t.Errorf("ID 123 appears %d times in combined output, want 1", hit)
	}
}

func TestCombineNormalizesZIPStandIns(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Append("cat", "adopted", "89101", []petfinder.Record{testRecord(1, "89101")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append("cat", "adopted", "CA", []petfinder.Record{testRecord(2, "CA")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if _, err := store.Combine("cat", "adopted"); err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	combined, err := store.ReadCombined("cat", "adopted")
	if err != nil {
		t.Fatalf("ReadCombined failed: %v", err)
	}

	for _, rec := range combined {
		switch rec.StateQ {
		case "89101":
			if rec.StateQGrouped != "NV" {
				t.Errorf("StateQGrouped for ZIP = %q, want NV", rec.StateQGrouped)
			}
		case "CA":
			if rec.StateQGrouped != "CA" {
				t.Errorf("StateQGrouped for CA = %q, want CA", rec.StateQGrouped)
			}
		}
	}
}

func TestCombineSkipsPriorCombinedOutput(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Append("cat", "adopted", "AL", []petfinder.Record{testRecord(1, "AL")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// First combine writes the artifact; a second run must not read it
	// back in and double-count.
	if _, err := store.Combine("cat", "adopted"); err != nil {
		t.Fatalf("first Combine failed: %v", err)
	}
	if _, err := store.Combine("cat", "adopted"); err != nil {
		t.Fatalf("second Combine failed: %v", err)
	}

	combined, err := store.ReadCombined("cat", "adopted")
	if err != nil {
		t.Fatalf("ReadCombined failed: %v", err)
	}
	if len(combined) != 1 {
		t.Errorf("combined has %d records after recombine, want 1", len(combined))
	}
}

func TestCombineIdempotent(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Append("cat", "adopted", "AL", []petfinder.Record{testRecord(1, "AL"), testRecord(2, "AL")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	path, err := store.Combine("cat", "adopted")
	if err != nil {
		t.Fatalf("first Combine failed: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if _, err := store.Combine("cat", "adopted"); err != nil {
		t.Fatalf("second Combine failed: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if string(first) != string(second) {
		t.Error("Combine on unchanged inputs should produce identical output")
	}
}

func TestCombineMissingDirectory(t *testing.T) {
	store := NewStore(t.TempDir())

	path, err := store.Combine("cat", "adopted")
	if err != nil {
		t.Fatalf("Combine should fail gracefully, got error: %v", err)
	}
	if path != "" {
		t.Errorf("Combine = %q, want empty path when directory is absent", path)
	}
}

func TestCombineSkipsUnreadableFile(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Append("cat", "adopted", "AL", []petfinder.Record{testRecord(1, "AL")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// A file with a bogus header should be skipped, not abort the combine.
	junk := filepath.Join(store.Dir("cat", "adopted"), "AA_cats.csv")
	if err := os.WriteFile(junk, []byte("not,a,real\nheader,row,here\n\"unterminated\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	path, err := store.Combine("cat", "adopted")
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if path == "" {
		t.Fatal("Combine should still produce output from readable files")
	}

	combined, err := store.ReadCombined("cat", "adopted")
	if err != nil {
		t.Fatalf("ReadCombined failed: %v", err)
	}
	if len(combined) != 1 {
		t.Errorf("combined has %d records, want 1", len(combined))
	}
}

func TestCombinedHeaderHasGroupingColumn(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Append("cat", "adopted", "AL", []petfinder.Record{testRecord(1, "AL")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	path, err := store.Combine("cat", "adopted")
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		t.Fatalf("Read header failed: %v", err)
	}

	if header[len(header)-1] != "stateQ_grouped" {
		t.Errorf("last column = %q, want stateQ_grouped", header[len(header)-1])
	}
}
