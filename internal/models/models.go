// Package models defines the record types shared across the BOL processing
// pipeline: rows recovered from scanned Bill-of-Lading pages, per-page and
// per-invoice aggregates, the fixed output table layout, and the generic
// string dataset used for combining and reconciliation.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column names of the combined output table. The reconciler addresses the
// dataset by these names rather than by position.
const (
	ColOrderDate        = "Order Date"
	ColCustomer         = "Customer"
	ColShipToName       = "Ship To Name"
	ColPurchaseOrderNo  = "Purchase Order No."
	ColCartons          = "Cartons"
	ColStartDate        = "Start Date"
	ColCancelDate       = "Cancel Date"
	ColBOLCube          = "BOL Cube"
	ColFinalCube        = "Final Cube"
	ColBurlingtonCube   = "Burlington Cube"
	ColPallet           = "Pallet"
	ColIndividualPieces = "Individual Pieces"
	ColTotalPieces      = "Total Pieces"
	ColIndividualWeight = "Individual Weight"
	ColTotalWeight      = "Total Weight"
	ColInvoiceNo        = "Invoice No."
	ColStyle            = "Style"
)

// ParsedRow is one shipment line recovered from a BOL table. Values are kept
// as comma-stripped strings so that unparseable source tokens survive to the
// output unchanged; numeric views are provided for the summation fallback.
type ParsedRow struct {
	Cartons string
	Style   string
	Pieces  string
	Weight  string
}

// PiecesInt returns the individual pieces count as an integer
func (r *ParsedRow) PiecesInt() (int, error) {
	if r.Pieces == "" {
		return 0, fmt.Errorf("pieces value is empty")
	}
	return strconv.Atoi(r.Pieces)
}

// WeightDecimal returns the individual weight as a decimal
func (r *ParsedRow) WeightDecimal() (decimal.Decimal, error) {
	if r.Weight == "" {
		return decimal.Zero, fmt.Errorf("weight value is empty")
	}
	return decimal.NewFromString(r.Weight)
}

// String returns a string representation of the ParsedRow
func (r *ParsedRow) String() string {
	return fmt.Sprintf("ParsedRow{Cartons: %s, Style: %s, Pieces: %s, Weight: %s}",
		r.Cartons, r.Style, r.Pieces, r.Weight)
}

// Totals holds the summary pieces/weight values from a TOTAL CARTONS line
type Totals struct {
	Pieces string
	Weight string
}

// IsComplete reports whether both totals values are present
func (t Totals) IsComplete() bool {
	return t.Pieces != "" && t.Weight != ""
}

// PageExtraction is the parse result for a single PDF page
type PageExtraction struct {
	Rows      []ParsedRow
	HasTotals bool
	Totals    Totals
	BOLCube   string
}

// InvoiceRecord groups the page extractions belonging to one invoice number.
// Pages are kept in arrival order; totals resolution depends on it.
type InvoiceRecord struct {
	InvoiceNo string
	Pages     []*PageExtraction
	HasTotals bool
}

// NewInvoiceRecord creates an empty record for the given invoice number
func NewInvoiceRecord(invoiceNo string) *InvoiceRecord {
	return &InvoiceRecord{InvoiceNo: invoiceNo}
}

// AddPage appends a page extraction in arrival order
func (ir *InvoiceRecord) AddPage(page *PageExtraction) {
	ir.Pages = append(ir.Pages, page)
	if page.HasTotals {
		ir.HasTotals = true
	}
}

// RowCount returns the total number of rows across all pages
func (ir *InvoiceRecord) RowCount() int {
	count := 0
	for _, page := range ir.Pages {
		count += len(page.Rows)
	}
	return count
}

// CleanNumber strips commas and surrounding whitespace from a numeric token
func CleanNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

// CancelDate is a parsed cancellation date. Invalid dates sort after every
// valid date so that unparseable values sink to the bottom of the output.
type CancelDate struct {
	Time  time.Time
	Valid bool
}

// InvalidCancelDate returns the marker used for unparseable date values
func InvalidCancelDate() CancelDate {
	return CancelDate{}
}

// Before reports whether d sorts strictly before other
func (d CancelDate) Before(other CancelDate) bool {
	if d.Valid != other.Valid {
		return d.Valid
	}
	if !d.Valid {
		return false
	}
	return d.Time.Before(other.Time)
}

// Equal reports whether two cancel dates sort identically
func (d CancelDate) Equal(other CancelDate) bool {
	if d.Valid != other.Valid {
		return false
	}
	if !d.Valid {
		return true
	}
	return d.Time.Equal(other.Time)
}

// ParseCancelDate parses the separator-less date strings found in order data:
// 7 digits are read as MDDYYYY, 8 digits as MMDDYYYY. Anything else, or a
// value that is not a real calendar date, yields the invalid marker.
func ParseCancelDate(s string) CancelDate {
	s = strings.TrimSpace(s)

	var month, day, year string
	switch len(s) {
	case 7:
		month = "0" + s[0:1]
		day = s[1:3]
		year = s[3:]
	case 8:
		month = s[0:2]
		day = s[2:4]
		year = s[4:]
	default:
		return InvalidCancelDate()
	}

	t, err := time.Parse("01/02/2006", fmt.Sprintf("%s/%s/%s", month, day, year))
	if err != nil {
		return InvalidCancelDate()
	}
	return CancelDate{Time: t, Valid: true}
}
