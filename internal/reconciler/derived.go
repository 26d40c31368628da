package reconciler

import (
	"strconv"
	"strings"

	"bol-processing-service/internal/models"

	"github.com/shopspring/decimal"
)

// Logistics constants for derived-column computation: a pallet holds 80 cube,
// Burlington allocations are charged 93 cube per pallet, everyone else 130.
const (
	palletCubeDivisor    = 80
	burlingtonCubeFactor = 93
	finalCubeFactor      = 130

	burlingtonNameFragment = "burlington"
)

// computePallet returns the pallet count for a BOL cube value, rounded up.
// Non-numeric or missing cube values yield blank, never zero or an error.
func computePallet(bolCube string) string {
	cleaned := models.CleanNumber(bolCube)
	if cleaned == "" {
		return ""
	}

	cube, err := decimal.NewFromString(cleaned)
	if err != nil {
		return ""
	}

	return cube.Div(decimal.NewFromInt(palletCubeDivisor)).Ceil().String()
}

// computeBurlingtonCube returns pallet x 93 when the destination is a
// Burlington location, blank otherwise
func computeBurlingtonCube(shipToName, pallet string) string {
	if pallet == "" || !strings.Contains(strings.ToLower(shipToName), burlingtonNameFragment) {
		return ""
	}

	count, err := strconv.Atoi(pallet)
	if err != nil {
		return ""
	}
	return strconv.Itoa(count * burlingtonCubeFactor)
}

// computeFinalCube returns pallet x 130 for non-Burlington destinations,
// blank otherwise
func computeFinalCube(shipToName, pallet string) string {
	if pallet == "" || strings.Contains(strings.ToLower(shipToName), burlingtonNameFragment) {
		return ""
	}

	count, err := strconv.Atoi(pallet)
	if err != nil {
		return ""
	}
	return strconv.Itoa(count * finalCubeFactor)
}

// applyDerivedColumns fills Pallet, Burlington Cube and Final Cube. Rows are
// grouped into contiguous runs of identical invoice numbers, and only the
// first row of each run receives values; the rest are explicitly blanked,
// mirroring the totals-placement rule of the emitter.
func (r *Reconciler) applyDerivedColumns(ds *models.Dataset) {
	hasCube := ds.HasColumn(models.ColBOLCube)
	hasShipTo := ds.HasColumn(models.ColShipToName)
	if !hasCube {
		r.logger.Warn("BOL Cube column not found, pallet counts will be blank")
	}
	if !hasShipTo {
		r.logger.Warn("Ship To Name column not found, cube allocations will be blank")
	}

	for i := 0; i < ds.Len(); i++ {
		ds.Set(i, models.ColPallet, "")
		ds.Set(i, models.ColBurlingtonCube, "")
		ds.Set(i, models.ColFinalCube, "")
	}

	runs := models.Runs(ds.Len(), func(i int) string { return ds.Get(i, models.ColInvoiceNo) })
	for _, run := range runs {
		head := run.Start

		pallet := ""
		if hasCube {
			pallet = computePallet(ds.Get(head, models.ColBOLCube))
		}
		ds.Set(head, models.ColPallet, pallet)

		if hasShipTo {
			shipTo := ds.Get(head, models.ColShipToName)
			ds.Set(head, models.ColBurlingtonCube, computeBurlingtonCube(shipTo, pallet))
			ds.Set(head, models.ColFinalCube, computeFinalCube(shipTo, pallet))
		}
	}
}
