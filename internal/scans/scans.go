// Package scans turns the heterogeneous per-scan telemetry of a raw run
// (filter strings, trailer key/value pairs, reaction metadata, peak arrays)
// into uniform, typed scan records. It offers bulk parallel extraction of a
// whole run and incremental retrieval through a streaming session.
package scans

import (
	"errors"
	"fmt"
)

// Polarity of a scan.
type Polarity int

const (
	PolarityUnknown Polarity = iota
	PolarityPositive
	PolarityNegative
)

func (p Polarity) String() string {
	switch p {
	case PolarityPositive:
		return "positive"
	case PolarityNegative:
		return "negative"
	}
	return "unknown"
}

// Analyzer is the mass analyzer a scan was acquired on.
type Analyzer int

const (
	AnalyzerUnknown Analyzer = iota
	AnalyzerFTMS             // Fourier transform (Orbitrap, FTICR)
	AnalyzerITMS             // ion trap
	AnalyzerTOFMS            // time of flight
	AnalyzerSQMS             // single quadrupole
	AnalyzerASTMS            // Astral
)

func (a Analyzer) String() string {
	switch a {
	case AnalyzerFTMS:
		return "FTMS"
	case AnalyzerITMS:
		return "ITMS"
	case AnalyzerTOFMS:
		return "TOFMS"
	case AnalyzerSQMS:
		return "SQMS"
	case AnalyzerASTMS:
		return "ASTMS"
	}
	return "unknown"
}

// Dissociation is the activation type used to fragment a precursor.
type Dissociation int

const (
	DissociationNone Dissociation = iota
	DissociationCID
	DissociationHCD
	DissociationETD
	DissociationECD
	DissociationPQD
	DissociationMPD
	DissociationUVPD
)

func (d Dissociation) String() string {
	switch d {
	case DissociationCID:
		return "CID"
	case DissociationHCD:
		return "HCD"
	case DissociationETD:
		return "ETD"
	case DissociationECD:
		return "ECD"
	case DissociationPQD:
		return "PQD"
	case DissociationMPD:
		return "MPD"
	case DissociationUVPD:
		return "UVPD"
	}
	return "none"
}

// Spectrum holds the peak list of one scan as paired arrays of equal length,
// with Mz in non-decreasing order. A Spectrum is never modified after it is
// built; the windowing filter produces a new one.
type Spectrum struct {
	Mz        []float64 `json:"mz"`
	Intensity []float64 `json:"intensity"`
}

// Len returns the number of peaks.
func (s Spectrum) Len() int { return len(s.Mz) }

// Record is the extracted representation of a single scan. Optional fields
// are nil when the instrument did not report them; a reported value of 0 in
// the trailer counts as not reported. A Record is constructed once and never
// mutated.
type Record struct {
	Index           int          `json:"index"` // 1-based scan number
	MSOrder         int          `json:"msOrder"`
	Polarity        Polarity     `json:"polarity"`
	RetentionTime   float64      `json:"retentionTime"`
	LowMass         float64      `json:"lowMass"`
	HighMass        float64      `json:"highMass"`
	Analyzer        Analyzer     `json:"analyzer"`
	TotalIonCurrent float64      `json:"totalIonCurrent"`
	InjectionTime   *float64     `json:"injectionTime,omitempty"` // ms
	NativeID        string       `json:"nativeID"`
	IsolationMz     *float64     `json:"isolationMz,omitempty"`
	IsolationWidth  *float64     `json:"isolationWidth,omitempty"`
	Dissociation    Dissociation `json:"dissociation"`
	PrecursorScan   *int         `json:"precursorScan,omitempty"`
	MonoisotopicMz  *float64     `json:"monoisotopicMz,omitempty"`
	ChargeState     *int         `json:"chargeState,omitempty"`
	Spectrum        Spectrum     `json:"spectrum"`
}

// FilterConfig controls the peak windowing filter. Zero-valued thresholds
// are treated as unset; with both thresholds unset no filtering happens.
type FilterConfig struct {
	// PeaksPerWindow keeps at most this many peaks per mass window.
	PeaksPerWindow int `toml:"peaks-per-window"`
	// MinIntensityRatio drops peaks below this fraction of the window's
	// base peak. Valid range (0,1].
	MinIntensityRatio float64 `toml:"min-intensity-ratio"`
	// ApplyToMS1 enables the filter on order-1 scans.
	ApplyToMS1 bool `toml:"apply-ms1"`
	// ApplyToMSn enables the filter on scans with order > 1.
	ApplyToMSn bool `toml:"apply-msn"`
}

// Validate checks that configured thresholds are in range.
func (c FilterConfig) Validate() error {
	if c.PeaksPerWindow < 0 {
		return fmt.Errorf("%w: peaks-per-window %d", ErrBadFilterConfig, c.PeaksPerWindow)
	}
	if c.MinIntensityRatio < 0 || c.MinIntensityRatio > 1 {
		return fmt.Errorf("%w: min-intensity-ratio %g", ErrBadFilterConfig, c.MinIntensityRatio)
	}
	return nil
}

// active reports whether the filter does anything for a scan of the given
// MS order.
func (c *FilterConfig) active(msOrder int) bool {
	if c == nil {
		return false
	}
	if c.PeaksPerWindow == 0 && c.MinIntensityRatio == 0 {
		return false
	}
	if msOrder == 1 {
		return c.ApplyToMS1
	}
	return c.ApplyToMSn
}

// nativeIDFmt is the identifier pattern used by the vendor's data system.
const nativeIDFmt = "controllerType=0 controllerNumber=1 scan=%d"

// maxMSOrder is the highest fragmentation depth any supported instrument
// can produce.
const maxMSOrder = 10

var (
	// ErrSourceUnavailable means the run exists but cannot be used
	ErrSourceUnavailable = errors.New("scans: source unavailable")
	// ErrInvalidScanOrder means a scan reports an MS order outside 1-10
	ErrInvalidScanOrder = errors.New("scans: invalid MS order")
	// ErrSpectrumUnavailable means a scan has no usable peak representation
	ErrSpectrumUnavailable = errors.New("scans: no peak data")
	// ErrPrecursorNotFound means backward search found no scan of the
	// preceding MS order
	ErrPrecursorNotFound = errors.New("scans: precursor scan not found")
	// ErrSessionNotOpen means a streaming call was made with no open session
	ErrSessionNotOpen = errors.New("scans: session not open")
	// ErrScanNotFound means a requested scan number is outside the run
	ErrScanNotFound = errors.New("scans: scan not found")
	// ErrExtractionAborted wraps the first scan failure of a batch
	ErrExtractionAborted = errors.New("scans: extraction aborted")
	// ErrBadFilterConfig means a filter threshold is out of range
	ErrBadFilterConfig = errors.New("scans: invalid filter config")
)
