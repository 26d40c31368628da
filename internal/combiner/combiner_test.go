package combiner

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"bol-processing-service/pkg/errors"
)

func writeCSV(t *testing.T, path string, records [][]string) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return records
}

func TestCombineMergesSources(t *testing.T) {
	dir := t.TempDir()
	header := []string{"Invoice No.", "Style", "Cartons"}

	writeCSV(t, filepath.Join(dir, "C10001.csv"), [][]string{header, {"C10001", "AB123", "12"}, {"C10001", "CD456", "8"}})
	writeCSV(t, filepath.Join(dir, "C10002.csv"), [][]string{header, {"C10002", "EF789", "5"}})
	writeCSV(t, filepath.Join(dir, "C10003.csv"), [][]string{header, {"C10003", "GH012", "3"}})

	rows, err := NewCombiner(2).Combine(dir, "combined_data.csv")
	if err != nil {
		t.Fatalf("Combine() error: %v", err)
	}
	if rows != 4 {
		t.Errorf("Combine() = %d rows, want 4", rows)
	}

	records := readCSV(t, filepath.Join(dir, "combined_data.csv"))
	if len(records) != 5 {
		t.Fatalf("combined file has %d records, want header plus 4 rows", len(records))
	}
	if records[0][0] != "Invoice No." {
		t.Errorf("first record = %v, want single header", records[0])
	}
	for i, record := range records[1:] {
		if record[0] == "Invoice No." {
			t.Errorf("record %d repeats the header", i+1)
		}
	}
}

func TestCombineDeletesSources(t *testing.T) {
	dir := t.TempDir()
	header := []string{"Invoice No.", "Style", "Cartons"}
	writeCSV(t, filepath.Join(dir, "C10001.csv"), [][]string{header, {"C10001", "AB123", "12"}})

	if _, err := NewCombiner(0).Combine(dir, "combined_data.csv"); err != nil {
		t.Fatalf("Combine() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "C10001.csv")); !os.IsNotExist(err) {
		t.Error("expected folded source file to be deleted")
	}
}

func TestCombineSkipsOutputFile(t *testing.T) {
	dir := t.TempDir()
	header := []string{"Invoice No.", "Style", "Cartons"}
	writeCSV(t, filepath.Join(dir, "combined_data.csv"), [][]string{header, {"OLD", "OLD", "0"}})
	writeCSV(t, filepath.Join(dir, "C10001.csv"), [][]string{header, {"C10001", "AB123", "12"}})

	rows, err := NewCombiner(0).Combine(dir, "combined_data.csv")
	if err != nil {
		t.Fatalf("Combine() error: %v", err)
	}
	if rows != 1 {
		t.Errorf("Combine() = %d rows, want 1 (previous output not folded in)", rows)
	}

	records := readCSV(t, filepath.Join(dir, "combined_data.csv"))
	for _, record := range records {
		if record[0] == "OLD" {
			t.Error("previous combined output leaked into the new file")
		}
	}
}

func TestCombineNoInputFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := NewCombiner(0).Combine(dir, "combined_data.csv")
	if err == nil {
		t.Fatal("expected error for empty directory")
	}

	pipelineErr, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("expected PipelineError, got %T", err)
	}
	if pipelineErr.Code != errors.CodeNoInputFiles {
		t.Errorf("error code = %s, want %s", pipelineErr.Code, errors.CodeNoInputFiles)
	}
}

func TestCombineReportsUnreadableSources(t *testing.T) {
	dir := t.TempDir()

	// Unterminated quote makes the CSV reader fail on this file.
	if err := os.WriteFile(filepath.Join(dir, "C10001.csv"), []byte("Invoice No.,Style\n\"C10001,AB123\n"), 0o644); err != nil {
		t.Fatalf("writing corrupt source: %v", err)
	}

	_, err := NewCombiner(0).Combine(dir, "combined_data.csv")
	if err == nil {
		t.Fatal("expected error when every source is unreadable")
	}

	summary, ok := err.(*errors.ErrorSummary)
	if !ok {
		t.Fatalf("expected ErrorSummary, got %T", err)
	}
	if summary.Total != 1 {
		t.Errorf("summary.Total = %d, want 1", summary.Total)
	}
	if !summary.HasCategory(errors.CategoryParse) {
		t.Error("expected the summary to carry a parse-category error")
	}
}

func TestCombineHeaderOnlySources(t *testing.T) {
	dir := t.TempDir()
	header := []string{"Invoice No.", "Style", "Cartons"}
	writeCSV(t, filepath.Join(dir, "C10001.csv"), [][]string{header})

	_, err := NewCombiner(0).Combine(dir, "combined_data.csv")
	if err == nil {
		t.Fatal("expected error when no source yields data rows")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "combined_data.csv.tmp")); !os.IsNotExist(statErr) {
		t.Error("temp file should be removed on failure")
	}
}
