package scans

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/524D/rawscan/internal/rawfile"
)

// trailerFields holds the typed values recognized in a scan's trailer.
// Zero means the field was absent or carried the instrument's 0 sentinel;
// the two cases are deliberately indistinguishable.
type trailerFields struct {
	injectionTime  float64 // ms
	isolationWidth float64
	monoisotopicMz float64
	chargeState    int
	masterScan     int
}

// parseTrailer extracts the recognized fields from raw trailer pairs.
// Labels are matched by prefix because instruments append punctuation and
// unit suffixes inconsistently. When several pairs match the same category
// the last one wins. Values that fail to parse are ignored, and the value 0
// always means "not reported", never a real measurement.
func parseTrailer(pairs []rawfile.TrailerField, msOrder int) trailerFields {
	var t trailerFields
	isolationPrefix := fmt.Sprintf("MS%d Isolation Width", msOrder)
	for _, p := range pairs {
		switch {
		case strings.HasPrefix(p.Label, "Ion Injection Time"):
			if v, ok := trailerFloat(p.Value); ok {
				t.injectionTime = v
			}
		case strings.HasPrefix(p.Label, isolationPrefix):
			if v, ok := trailerFloat(p.Value); ok {
				t.isolationWidth = v
			}
		case strings.HasPrefix(p.Label, "Monoisotopic M/Z"):
			if v, ok := trailerFloat(p.Value); ok {
				t.monoisotopicMz = v
			}
		case strings.HasPrefix(p.Label, "Charge State"):
			if v, ok := trailerFloat(p.Value); ok {
				t.chargeState = int(v)
			}
		case strings.HasPrefix(p.Label, "Master Scan Number"),
			strings.HasPrefix(p.Label, "Master Index"):
			if v, ok := trailerFloat(p.Value); ok {
				t.masterScan = int(v)
			}
		}
	}
	return t
}

// trailerFloat parses a trailer value as a plain decimal number.
// strconv is locale-invariant, which is what the instrument writes.
func trailerFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// optFloat converts a sentinel-zero trailer value to an optional.
func optFloat(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

// optInt converts a sentinel-zero trailer value to an optional.
func optInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
