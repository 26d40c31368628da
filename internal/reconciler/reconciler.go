// Package reconciler joins the combined shipment CSV with an externally
// maintained order file, copies order metadata onto matched rows, computes
// the pallet and cube allocation columns, and writes the combined file back
// sorted for warehouse pick order.
package reconciler

import (
	"os"
	"strings"

	"bol-processing-service/internal/models"
	"bol-processing-service/pkg/errors"
	"bol-processing-service/pkg/logger"
)

// fieldMapping routes a column of the external order file onto a column of
// the combined dataset when a row matches.
type fieldMapping struct {
	External string
	Combined string
}

var fieldMappings = []fieldMapping{
	{External: "Invoice Date", Combined: models.ColOrderDate},
	{External: "Ship-to Name", Combined: models.ColShipToName},
	{External: "Order No.", Combined: models.ColPurchaseOrderNo},
	{External: "Delivery Date", Combined: models.ColStartDate},
	{External: "Cancel Date", Combined: models.ColCancelDate},
}

// Columns the external file carries under slightly different names than the
// match key expects.
var externalRenames = []fieldMapping{
	{External: "Cartons*", Combined: models.ColCartons},
	{External: "Pieces*", Combined: models.ColIndividualPieces},
}

// Result summarizes one reconciliation pass.
type Result struct {
	ExternalRows int
	MatchedRows  int
}

// Reconciler merges external order data into a combined shipment dataset.
type Reconciler struct {
	logger logger.Logger
}

func NewReconciler(log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Reconciler{logger: log}
}

// Reconcile reads the combined CSV at combinedPath and the external order
// file at externalPath, joins them on the composite match key, recomputes the
// derived columns, sorts, and rewrites combinedPath in place.
func (r *Reconciler) Reconcile(combinedPath, externalPath string) (*Result, error) {
	external, err := ReadTabularFile(externalPath)
	if err != nil {
		return nil, err
	}
	for _, rename := range externalRenames {
		external.RenameColumn(rename.External, rename.Combined)
	}

	if _, err := os.Stat(combinedPath); err != nil {
		return nil, errors.MergeError(errors.CodeNoCombinedData, "reconcile", err)
	}
	combined, err := readCSVFile(combinedPath)
	if err != nil {
		return nil, err
	}

	if missing := external.MissingColumns(MatchColumns); len(missing) > 0 {
		return nil, errors.ValidationError(errors.CodeMissingColumn, "external file", strings.Join(missing, ", "), nil)
	}
	if missing := combined.MissingColumns(MatchColumns); len(missing) > 0 {
		return nil, errors.ValidationError(errors.CodeMissingColumn, "combined file", strings.Join(missing, ", "), nil)
	}

	matched := r.join(combined, external)
	r.applyDerivedColumns(combined)
	sortByCancelDate(combined)

	if err := writeCSVFile(combined, combinedPath); err != nil {
		return nil, err
	}

	result := &Result{ExternalRows: external.Len(), MatchedRows: matched}
	r.logger.WithFields(logger.Fields{
		"external_rows": result.ExternalRows,
		"matched_rows":  result.MatchedRows,
	}).Info("Reconciliation complete")
	return result, nil
}

// join copies the mapped order fields from external rows onto combined rows
// sharing a match key. Each external row has at most one update target: the
// first combined row, in dataset order, carrying its key. Later combined rows
// with the same key stay untouched, as do external rows whose target was
// already claimed by an earlier external row. Only mappings whose external
// column actually exists are applied.
func (r *Reconciler) join(combined, external *models.Dataset) int {
	index := buildKeyIndex(combined)

	active := make([]fieldMapping, 0, len(fieldMappings))
	for _, m := range fieldMappings {
		if external.HasColumn(m.External) {
			active = append(active, m)
		} else {
			r.logger.WithFields(logger.Fields{"column": m.External}).Warn("External column not found, skipping")
		}
	}

	matched := 0
	updated := make(map[int]bool)
	for i := 0; i < external.Len(); i++ {
		target, ok := index[MatchKey(external, i)]
		if !ok || updated[target] {
			continue
		}
		updated[target] = true
		matched++
		for _, m := range active {
			combined.Set(target, m.Combined, external.Get(i, m.External))
		}
	}
	return matched
}
