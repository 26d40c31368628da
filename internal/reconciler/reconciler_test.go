package reconciler

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"bol-processing-service/internal/models"
	"bol-processing-service/pkg/errors"
)

func newCombinedDataset(rows [][]string) *models.Dataset {
	return models.NewDataset(models.HeaderRecord(), rows)
}

// combinedRow builds a full-width row with just the extraction columns set
func combinedRow(invoiceNo, style, cartons, pieces, bolCube string) []string {
	row := &models.OutputRow{
		Cartons:          cartons,
		BOLCube:          bolCube,
		IndividualPieces: pieces,
		InvoiceNo:        invoiceNo,
		Style:            style,
	}
	return row.Record()
}

func TestMatchKeyNormalization(t *testing.T) {
	ds := models.NewDataset(
		[]string{models.ColInvoiceNo, models.ColStyle, models.ColCartons, models.ColIndividualPieces},
		[][]string{
			{"C10001", "AB123", "12", "1,440"},
			{" c10001 ", "ab123", "12", "1440"},
			{"C10002", "AB123", "12", "1440"},
		},
	)

	if MatchKey(ds, 0) != MatchKey(ds, 1) {
		t.Errorf("keys differing only in case, whitespace and commas should match: %q vs %q",
			MatchKey(ds, 0), MatchKey(ds, 1))
	}
	if MatchKey(ds, 0) == MatchKey(ds, 2) {
		t.Error("different invoice numbers must not collide")
	}
}

func TestBuildKeyIndexFirstRowWins(t *testing.T) {
	ds := models.NewDataset(
		[]string{models.ColInvoiceNo, models.ColStyle, models.ColCartons, models.ColIndividualPieces, "Extra"},
		[][]string{
			{"C10001", "AB123", "12", "144", "first"},
			{"C10001", "AB123", "12", "144", "second"},
		},
	)

	index := buildKeyIndex(ds)
	if len(index) != 1 {
		t.Fatalf("index has %d entries, want 1", len(index))
	}
	if row := index[MatchKey(ds, 0)]; row != 0 {
		t.Errorf("duplicate key resolved to row %d, want 0", row)
	}
}

func TestJoinUpdatesOnlyFirstDuplicateCombinedRow(t *testing.T) {
	combined := newCombinedDataset([][]string{
		combinedRow("C10001", "AB123", "12", "144", ""),
		combinedRow("C10001", "AB123", "12", "144", ""),
	})
	external := models.NewDataset(
		[]string{models.ColInvoiceNo, models.ColStyle, models.ColCartons, models.ColIndividualPieces, "Ship-to Name"},
		[][]string{{"C10001", "AB123", "12", "144", "Kohl's Distribution"}},
	)

	matched := NewReconciler(nil).join(combined, external)
	if matched != 1 {
		t.Errorf("join() = %d matched, want 1", matched)
	}
	if got := combined.Get(0, models.ColShipToName); got != "Kohl's Distribution" {
		t.Errorf("first duplicate row ship-to = %q, want Kohl's Distribution", got)
	}
	if got := combined.Get(1, models.ColShipToName); got != "" {
		t.Errorf("second duplicate row ship-to = %q, want blank (only first row updated)", got)
	}
}

func TestJoinFirstExternalRowWinsOnDuplicateKeys(t *testing.T) {
	combined := newCombinedDataset([][]string{
		combinedRow("C10001", "AB123", "12", "144", ""),
	})
	external := models.NewDataset(
		[]string{models.ColInvoiceNo, models.ColStyle, models.ColCartons, models.ColIndividualPieces, "Order No."},
		[][]string{
			{"C10001", "AB123", "12", "144", "PO-FIRST"},
			{"C10001", "AB123", "12", "144", "PO-SECOND"},
		},
	)

	matched := NewReconciler(nil).join(combined, external)
	if matched != 1 {
		t.Errorf("join() = %d matched, want 1", matched)
	}
	if got := combined.Get(0, models.ColPurchaseOrderNo); got != "PO-FIRST" {
		t.Errorf("purchase order = %q, want PO-FIRST (first external row wins)", got)
	}
}

func TestComputePallet(t *testing.T) {
	tests := []struct {
		name     string
		bolCube  string
		expected string
	}{
		{"exact multiple", "160", "2"},
		{"rounds up", "161", "3"},
		{"fractional cube", "84.50", "2"},
		{"under one pallet", "10", "1"},
		{"empty", "", ""},
		{"non numeric", "n/a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computePallet(tt.bolCube); got != tt.expected {
				t.Errorf("computePallet(%q) = %q, want %q", tt.bolCube, got, tt.expected)
			}
		})
	}
}

func TestCubeAllocationsAreExclusive(t *testing.T) {
	// 4 pallets: Burlington gets 4x93, everyone else 4x130.
	if got := computeBurlingtonCube("Burlington Stores #102", "4"); got != "372" {
		t.Errorf("Burlington cube = %q, want 372", got)
	}
	if got := computeFinalCube("Burlington Stores #102", "4"); got != "" {
		t.Errorf("final cube for Burlington = %q, want blank", got)
	}

	if got := computeFinalCube("Macy's Northeast DC", "4"); got != "520" {
		t.Errorf("final cube = %q, want 520", got)
	}
	if got := computeBurlingtonCube("Macy's Northeast DC", "4"); got != "" {
		t.Errorf("Burlington cube for non-Burlington = %q, want blank", got)
	}

	if computeBurlingtonCube("Burlington Stores", "") != "" || computeFinalCube("Macy's", "") != "" {
		t.Error("blank pallet must yield blank cubes")
	}
}

func TestApplyDerivedColumnsFirstRowOfInvoiceRun(t *testing.T) {
	ds := newCombinedDataset([][]string{
		combinedRow("C10001", "AB123", "12", "144", "160"),
		combinedRow("C10001", "CD456", "8", "96", "160"),
		combinedRow("C10002", "EF789", "5", "60", "161"),
	})
	ds.Set(0, models.ColShipToName, "Burlington Stores #102")
	ds.Set(1, models.ColShipToName, "Burlington Stores #102")
	ds.Set(2, models.ColShipToName, "Macy's Northeast DC")

	NewReconciler(nil).applyDerivedColumns(ds)

	if got := ds.Get(0, models.ColPallet); got != "2" {
		t.Errorf("row 0 pallet = %q, want 2", got)
	}
	if got := ds.Get(0, models.ColBurlingtonCube); got != "186" {
		t.Errorf("row 0 Burlington cube = %q, want 186", got)
	}
	if got := ds.Get(0, models.ColFinalCube); got != "" {
		t.Errorf("row 0 final cube = %q, want blank", got)
	}

	// Second row of the same invoice stays blank.
	for _, col := range []string{models.ColPallet, models.ColBurlingtonCube, models.ColFinalCube} {
		if got := ds.Get(1, col); got != "" {
			t.Errorf("row 1 %s = %q, want blank", col, got)
		}
	}

	if got := ds.Get(2, models.ColPallet); got != "3" {
		t.Errorf("row 2 pallet = %q, want 3", got)
	}
	if got := ds.Get(2, models.ColFinalCube); got != "390" {
		t.Errorf("row 2 final cube = %q, want 390", got)
	}
	if got := ds.Get(2, models.ColBurlingtonCube); got != "" {
		t.Errorf("row 2 Burlington cube = %q, want blank", got)
	}
}

func TestSortByCancelDate(t *testing.T) {
	ds := newCombinedDataset([][]string{
		combinedRow("C10001", "A1", "1", "10", ""),
		combinedRow("C10002", "B2", "1", "10", ""),
		combinedRow("C10003", "C3", "1", "10", ""),
		combinedRow("C10004", "D4", "1", "10", ""),
	})
	// Destination A: earliest date 6152025. Destination B: earliest 3152025,
	// so B's rows come first despite A appearing first in the file.
	ds.Set(0, models.ColShipToName, "A Warehouse")
	ds.Set(0, models.ColCancelDate, "6152025")
	ds.Set(1, models.ColShipToName, "B Warehouse")
	ds.Set(1, models.ColCancelDate, "9152025")
	ds.Set(2, models.ColShipToName, "B Warehouse")
	ds.Set(2, models.ColCancelDate, "3152025")
	ds.Set(3, models.ColShipToName, "A Warehouse")
	ds.Set(3, models.ColCancelDate, "bad-date")

	sortByCancelDate(ds)

	type key struct{ name, date string }
	var got []key
	for i := 0; i < ds.Len(); i++ {
		got = append(got, key{ds.Get(i, models.ColShipToName), ds.Get(i, models.ColCancelDate)})
	}

	want := []key{
		{"B Warehouse", "3152025"},
		{"B Warehouse", "9152025"},
		{"A Warehouse", "6152025"},
		{"A Warehouse", "bad-date"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReconcileEndToEnd(t *testing.T) {
	dir := t.TempDir()

	combined := newCombinedDataset([][]string{
		combinedRow("C10001", "AB123", "12", "144", "160"),
		combinedRow("C10001", "CD456", "8", "96", "160"),
		combinedRow("C10002", "EF789", "5", "60", "80"),
	})
	combinedPath := filepath.Join(dir, "combined_data.csv")
	if err := writeCSVFile(combined, combinedPath); err != nil {
		t.Fatalf("writing combined fixture: %v", err)
	}

	externalPath := filepath.Join(dir, "orders.csv")
	writeRecords(t, externalPath, [][]string{
		{models.ColInvoiceNo, models.ColStyle, "Cartons*", "Pieces*", "Invoice Date", "Ship-to Name", "Order No.", "Delivery Date", "Cancel Date"},
		{"C10001", "AB123", "12", "144", "06/01/2025", "Burlington Stores #102", "PO-789", "06/10/2025", "6152025"},
		{"C10002", "EF789", "5", "60", "05/01/2025", "Macy's Northeast DC", "PO-456", "05/10/2025", "5152025"},
	})

	result, err := NewReconciler(nil).Reconcile(combinedPath, externalPath)
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if result.MatchedRows != 2 {
		t.Errorf("MatchedRows = %d, want 2", result.MatchedRows)
	}
	if result.ExternalRows != 2 {
		t.Errorf("ExternalRows = %d, want 2", result.ExternalRows)
	}

	out, err := readCSVFile(combinedPath)
	if err != nil {
		t.Fatalf("reading reconciled output: %v", err)
	}

	// Macy's has the earlier group cancel date, so C10002 sorts first.
	if got := out.Get(0, models.ColInvoiceNo); got != "C10002" {
		t.Errorf("first row invoice = %q, want C10002", got)
	}
	if got := out.Get(0, models.ColShipToName); got != "Macy's Northeast DC" {
		t.Errorf("first row ship-to = %q, want Macy's Northeast DC", got)
	}
	if got := out.Get(0, models.ColPurchaseOrderNo); got != "PO-456" {
		t.Errorf("first row purchase order = %q, want PO-456", got)
	}
	if got := out.Get(0, models.ColFinalCube); got != "130" {
		t.Errorf("first row final cube = %q, want 130", got)
	}

	if got := out.Get(1, models.ColShipToName); got != "Burlington Stores #102" {
		t.Errorf("second row ship-to = %q, want Burlington Stores #102", got)
	}
	if got := out.Get(1, models.ColBurlingtonCube); got != "186" {
		t.Errorf("second row Burlington cube = %q, want 186", got)
	}

	// The unmatched CD456 row keeps blank order fields.
	if got := out.Get(2, models.ColStyle); got != "CD456" {
		t.Errorf("third row style = %q, want CD456", got)
	}
	if got := out.Get(2, models.ColPurchaseOrderNo); got != "" {
		t.Errorf("unmatched row purchase order = %q, want blank", got)
	}
}

func TestReconcileMissingCombinedFile(t *testing.T) {
	dir := t.TempDir()
	externalPath := filepath.Join(dir, "orders.csv")
	writeRecords(t, externalPath, [][]string{
		{models.ColInvoiceNo, models.ColStyle, "Cartons*", "Pieces*"},
		{"C10001", "AB123", "12", "144"},
	})

	_, err := NewReconciler(nil).Reconcile(filepath.Join(dir, "combined_data.csv"), externalPath)
	if err == nil {
		t.Fatal("expected error for missing combined file")
	}
	pipelineErr, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("expected PipelineError, got %T", err)
	}
	if pipelineErr.Code != errors.CodeNoCombinedData {
		t.Errorf("error code = %s, want %s", pipelineErr.Code, errors.CodeNoCombinedData)
	}
}

func TestReconcileMissingMatchColumns(t *testing.T) {
	dir := t.TempDir()

	combined := newCombinedDataset([][]string{combinedRow("C10001", "AB123", "12", "144", "")})
	combinedPath := filepath.Join(dir, "combined_data.csv")
	if err := writeCSVFile(combined, combinedPath); err != nil {
		t.Fatalf("writing combined fixture: %v", err)
	}

	externalPath := filepath.Join(dir, "orders.csv")
	writeRecords(t, externalPath, [][]string{
		{models.ColInvoiceNo, models.ColStyle},
		{"C10001", "AB123"},
	})

	_, err := NewReconciler(nil).Reconcile(combinedPath, externalPath)
	if err == nil {
		t.Fatal("expected error for external file without match columns")
	}
	pipelineErr, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("expected PipelineError, got %T", err)
	}
	if pipelineErr.Code != errors.CodeMissingColumn {
		t.Errorf("error code = %s, want %s", pipelineErr.Code, errors.CodeMissingColumn)
	}
}

func TestReadTabularFileUnsupportedExtension(t *testing.T) {
	_, err := ReadTabularFile("orders.txt")
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	pipelineErr, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("expected PipelineError, got %T", err)
	}
	if pipelineErr.Code != errors.CodeUnsupportedExtension {
		t.Errorf("error code = %s, want %s", pipelineErr.Code, errors.CodeUnsupportedExtension)
	}
}

func writeRecords(t *testing.T, path string, records [][]string) {
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
