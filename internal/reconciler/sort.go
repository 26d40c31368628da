package reconciler

import (
	"sort"

	"bol-processing-service/internal/models"
)

// sortByCancelDate orders the dataset so that destinations with the earliest
// cancel date come first, destinations are kept together, and rows inside a
// destination are ordered by their own cancel date. Rows with unparseable
// cancel dates sort after everything else.
func sortByCancelDate(ds *models.Dataset) {
	if !ds.HasColumn(models.ColCancelDate) || !ds.HasColumn(models.ColShipToName) {
		return
	}

	n := ds.Len()
	dates := make([]models.CancelDate, n)
	for i := 0; i < n; i++ {
		dates[i] = models.ParseCancelDate(ds.Get(i, models.ColCancelDate))
	}

	// Earliest valid cancel date per destination; a destination whose rows
	// are all invalid keeps an invalid minimum and sorts last.
	groupMin := make(map[string]models.CancelDate)
	for i := 0; i < n; i++ {
		name := ds.Get(i, models.ColShipToName)
		min, ok := groupMin[name]
		if !ok || dates[i].Before(min) {
			groupMin[name] = dates[i]
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		nameA := ds.Get(ia, models.ColShipToName)
		nameB := ds.Get(ib, models.ColShipToName)

		minA, minB := groupMin[nameA], groupMin[nameB]
		if !minA.Equal(minB) {
			return minA.Before(minB)
		}
		if nameA != nameB {
			return nameA < nameB
		}
		if !dates[ia].Equal(dates[ib]) {
			return dates[ia].Before(dates[ib])
		}
		return false
	})

	sorted := make([][]string, n)
	for i, idx := range order {
		sorted[i] = ds.Rows[idx]
	}
	ds.Rows = sorted
}
