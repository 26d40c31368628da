package models

// Run is a half-open interval [Start, End) of row indices sharing a key
type Run struct {
	Start int
	End   int
}

// Runs partitions n rows into contiguous runs of identical key values. The
// first row of each run is the one that receives group-level values (totals,
// pallet counts), replacing change-detection state carried across a loop.
func Runs(n int, key func(int) string) []Run {
	var runs []Run
	for start := 0; start < n; {
		end := start + 1
		for end < n && key(end) == key(start) {
			end++
		}
		runs = append(runs, Run{Start: start, End: end})
		start = end
	}
	return runs
}
