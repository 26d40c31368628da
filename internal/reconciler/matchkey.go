package reconciler

import (
	"strings"

	"bol-processing-service/internal/models"
)

// MatchColumns are the four shared business fields joined into the composite
// match key, in key order
var MatchColumns = []string{
	models.ColInvoiceNo,
	models.ColStyle,
	models.ColCartons,
	models.ColIndividualPieces,
}

// normalizeKeyPart canonicalizes one key field value: surrounding whitespace
// trimmed, commas removed, lowercased
func normalizeKeyPart(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
}

// MatchKey builds the composite key for one dataset row. The same function is
// applied to both the combined and the external dataset so keys compare by
// exact string equality.
func MatchKey(ds *models.Dataset, row int) string {
	parts := make([]string, len(MatchColumns))
	for i, col := range MatchColumns {
		parts[i] = normalizeKeyPart(ds.Get(row, col))
	}
	return strings.Join(parts, "_")
}

// buildKeyIndex maps each key to the FIRST row carrying it, in dataset order.
// Duplicate keys deliberately resolve to a single update target.
func buildKeyIndex(ds *models.Dataset) map[string]int {
	index := make(map[string]int, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		key := MatchKey(ds, i)
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}
	return index
}
