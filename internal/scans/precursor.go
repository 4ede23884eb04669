package scans

import (
	"fmt"

	"github.com/524D/rawscan/internal/rawfile"
)

// resolvePrecursor determines the precursor scan of a dependent scan.
// A trailer-supplied master scan number above 1 is trusted as-is. Otherwise
// the run is searched backward from the preceding scan for the first scan
// whose MS order is one less than the current order. The search is a
// best-effort heuristic for instruments that omit the master-scan field:
// linear in the scan number, but only ever taken on that fallback path.
func resolvePrecursor(f rawfile.File, scanNum, msOrder, masterScan int) (int, error) {
	if masterScan > 1 {
		return masterScan, nil
	}
	for i := scanNum - 1; i >= f.FirstScan(); i-- {
		filter, err := f.FilterString(i)
		if err != nil {
			return 0, fmt.Errorf("filter string of scan %d: %w", i, err)
		}
		if parseScanFilter(filter).msOrder == msOrder-1 {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no ms%d scan before scan %d",
		ErrPrecursorNotFound, msOrder-1, scanNum)
}
