package models

// OutputRow holds the values populated into one row of the combined table.
// Only the extraction fields are filled by the PDF pipeline; the remaining
// columns stay blank until reconciliation fills them in.
type OutputRow struct {
	Cartons          string
	BOLCube          string
	IndividualPieces string
	TotalPieces      string
	IndividualWeight string
	TotalWeight      string
	InvoiceNo        string
	Style            string
}

// ColumnSpec ties an output column name to the OutputRow field that populates
// it. A nil Value means the column is always written blank by the emitter.
type ColumnSpec struct {
	Name  string
	Value func(*OutputRow) string
}

// TableLayout is the single definition of the combined table's 28 columns
// (spreadsheet columns A through AB), consulted by both the header writer and
// the row writer.
var TableLayout = []ColumnSpec{
	{Name: "RTS ID"},
	{Name: "RTS Status"},
	{Name: "Load #"},
	{Name: "Wave #"},
	{Name: "Routed Date"},
	{Name: "Ready Date"},
	{Name: "Date of Pickup"},
	{Name: "Time of Pickup"},
	{Name: "Outbound BOL"},
	{Name: ColOrderDate},
	{Name: ColCustomer},
	{Name: ColShipToName},
	{Name: ColPurchaseOrderNo},
	{Name: ColCartons, Value: func(r *OutputRow) string { return r.Cartons }},
	{Name: ColStartDate},
	{Name: ColCancelDate},
	{Name: ColBOLCube, Value: func(r *OutputRow) string { return r.BOLCube }},
	{Name: ColFinalCube},
	{Name: ColBurlingtonCube},
	{Name: ColPallet},
	{Name: ColIndividualPieces, Value: func(r *OutputRow) string { return r.IndividualPieces }},
	{Name: ColTotalPieces, Value: func(r *OutputRow) string { return r.TotalPieces }},
	{Name: ColIndividualWeight, Value: func(r *OutputRow) string { return r.IndividualWeight }},
	{Name: ColTotalWeight, Value: func(r *OutputRow) string { return r.TotalWeight }},
	{Name: ColInvoiceNo, Value: func(r *OutputRow) string { return r.InvoiceNo }},
	{Name: ColStyle, Value: func(r *OutputRow) string { return r.Style }},
	{Name: "Release"},
	{Name: "Assigned Trucking Co."},
}

// HeaderRecord returns the header row for the combined table
func HeaderRecord() []string {
	header := make([]string, len(TableLayout))
	for i, col := range TableLayout {
		header[i] = col.Name
	}
	return header
}

// Record lays out an OutputRow into the full-width column order
func (r *OutputRow) Record() []string {
	record := make([]string, len(TableLayout))
	for i, col := range TableLayout {
		if col.Value != nil {
			record[i] = col.Value(r)
		}
	}
	return record
}
