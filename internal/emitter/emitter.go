// Package emitter serializes aggregated invoice data into the fixed 28-column
// output schema. The column order and names come from the single table layout
// definition in models; resolved totals appear only on the first row of each
// invoice group.
package emitter

import (
	"encoding/csv"
	"io"
	"sort"

	"bol-processing-service/internal/models"
	"bol-processing-service/pkg/logger"
)

// Emitter writes invoice records as CSV in the combined table schema
type Emitter struct {
	logger logger.Logger
}

// NewEmitter creates an emitter
func NewEmitter() *Emitter {
	return &Emitter{
		logger: logger.GetGlobalLogger().WithComponent("emitter"),
	}
}

// Emit writes one invoice's rows, with header, to w. Returns the number of
// data rows written.
func (e *Emitter) Emit(record *models.InvoiceRecord, totals models.Totals, bolCube string, w io.Writer) (int, error) {
	rows := buildRows(record, bolCube)

	// All rows of a single invoice share one invoice number, so this is a
	// no-op here, but it keeps grouping correct if callers ever pass rows
	// from mixed sources.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].InvoiceNo < rows[j].InvoiceNo
	})

	for _, run := range models.Runs(len(rows), func(i int) string { return rows[i].InvoiceNo }) {
		rows[run.Start].TotalPieces = totals.Pieces
		rows[run.Start].TotalWeight = totals.Weight
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(models.HeaderRecord()); err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := writer.Write(row.Record()); err != nil {
			return 0, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, err
	}

	e.logger.WithFields(logger.Fields{
		"invoice_no": record.InvoiceNo,
		"rows":       len(rows),
	}).Debug("Emitted invoice table")

	return len(rows), nil
}

// buildRows flattens an invoice's pages into output rows, stamping the
// invoice number and BOL cube onto every row
func buildRows(record *models.InvoiceRecord, bolCube string) []*models.OutputRow {
	rows := make([]*models.OutputRow, 0, record.RowCount())
	for _, page := range record.Pages {
		for _, parsed := range page.Rows {
			rows = append(rows, &models.OutputRow{
				Cartons:          parsed.Cartons,
				BOLCube:          bolCube,
				IndividualPieces: parsed.Pieces,
				IndividualWeight: parsed.Weight,
				InvoiceNo:        record.InvoiceNo,
				Style:            parsed.Style,
			})
		}
	}
	return rows
}
