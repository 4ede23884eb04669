// Package rawfile defines the capability surface of a native scan-data
// provider. Implementations decode one vendor or interchange format and hand
// out per-scan telemetry; everything above this package is format-agnostic.
package rawfile

import "errors"

// TrailerField is one label/value text pair of per-scan instrument telemetry.
type TrailerField struct {
	Label string
	Value string
}

// ScanStats holds the declared scan statistics of a single scan.
type ScanStats struct {
	LowMass         float64
	HighMass        float64
	TotalIonCurrent float64
}

// Reaction holds the fragmentation-reaction metadata of a dependent scan.
type Reaction struct {
	PrecursorMz    float64
	IsolationWidth float64
	Activation     string // vendor activation token, e.g. "hcd"
}

// File is an open handle on one run. A handle carries position/selection
// state and must not be shared across goroutines; open one handle per
// concurrent reader instead. Scan numbers are 1-based and run from
// FirstScan to LastScan inclusive.
type File interface {
	FirstScan() int
	LastScan() int

	// FilterString returns the vendor scan-filter string of a scan.
	FilterString(scanNum int) (string, error)
	// ScanStats returns the declared statistics of a scan.
	ScanStats(scanNum int) (ScanStats, error)
	// CentroidPeaks returns the centroided peak arrays of a scan.
	// ok is false when the scan has no centroid representation.
	CentroidPeaks(scanNum int) (mz, intensity []float64, ok bool, err error)
	// PreferredPeaks returns the provider's preferred peak arrays,
	// the fallback when no centroid data exists.
	PreferredPeaks(scanNum int) (mz, intensity []float64, ok bool, err error)
	// TrailerFields returns the trailer key/value pairs of a scan,
	// in file order.
	TrailerFields(scanNum int) ([]TrailerField, error)
	// Reaction returns the fragmentation reaction of a scan.
	// Only meaningful for scans with MS order > 1.
	Reaction(scanNum int) (Reaction, error)
	// RetentionTime returns the retention time of a scan in seconds.
	RetentionTime(scanNum int) (float64, error)

	Close() error
}

// OpenFunc opens a run and returns a fresh handle. Each call must return an
// independent handle: batch extraction opens one per worker.
type OpenFunc func(path string) (File, error)

var (
	// ErrNotFound means the path does not resolve to an existing run
	ErrNotFound = errors.New("rawfile: run not found")
	// ErrIO means the run exists but cannot be opened or is in an error state
	ErrIO = errors.New("rawfile: cannot open run")
	// ErrStillAcquiring means the instrument is still writing the run
	ErrStillAcquiring = errors.New("rawfile: acquisition in progress")
	// ErrInvalidScanNumber means a scan number outside [FirstScan, LastScan]
	ErrInvalidScanNumber = errors.New("rawfile: invalid scan number")
)
