package mzmlraw

import (
	"fmt"
	"strings"

	"github.com/524D/rawscan/internal/rawfile"
)

// FilterString synthesizes a vendor-style scan filter from the spectrum's
// CV params, e.g. "FTMS + p Full ms2 445.1200@hcd30.00 [110.00-900.00]".
// Only the fields the extractor decodes are guaranteed to round-trip.
func (f *File) FilterString(scanNum int) (string, error) {
	s, err := f.spec(scanNum)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if f.analyzer != "" {
		b.WriteString(f.analyzer)
		b.WriteByte(' ')
	}
	switch {
	case cvPresent(s.CvPar, cvPositivePolarity):
		b.WriteString("+ ")
	case cvPresent(s.CvPar, cvNegativePolarity):
		b.WriteString("- ")
	}
	if cvPresent(s.CvPar, cvCentroidSpectrum) {
		b.WriteString("c ")
	} else {
		b.WriteString("p ")
	}
	level := s.msLevel()
	if level == 1 {
		b.WriteString("Full ms")
	} else {
		fmt.Fprintf(&b, "Full ms%d", level)
		if p := s.firstPrecursor(); p != nil {
			target, ok := cvFloat(p.IsolationWindow.CvPar, cvIsolationTargetMz)
			if !ok {
				target, _ = cvFloat(p.selectedIonParams(), cvSelectedIonMz)
			}
			act := p.activationToken()
			if target > 0 && act != "" {
				energy, _ := cvFloat(p.Activation.CvPar, cvCollisionEnergy)
				fmt.Fprintf(&b, " %.4f@%s%.2f", target, act, energy)
			}
		}
	}
	stats, err := f.ScanStats(scanNum)
	if err != nil {
		return "", err
	}
	if stats.HighMass > 0 {
		fmt.Fprintf(&b, " [%.2f-%.2f]", stats.LowMass, stats.HighMass)
	}
	return b.String(), nil
}

// ScanStats returns the declared mass range and total ion current.
// The scan window bounds are preferred; files without one fall back to the
// lowest and highest observed m/z.
func (f *File) ScanStats(scanNum int) (rawfile.ScanStats, error) {
	s, err := f.spec(scanNum)
	if err != nil {
		return rawfile.ScanStats{}, err
	}
	var stats rawfile.ScanStats
	stats.TotalIonCurrent, _ = cvFloat(s.CvPar, cvTotalIonCurrent)
	if len(s.ScanList.Scan) > 0 && len(s.ScanList.Scan[0].ScanWindowList.ScanWindow) > 0 {
		w := s.ScanList.Scan[0].ScanWindowList.ScanWindow[0].CvPar
		low, okLow := cvFloat(w, cvScanWindowLower)
		high, okHigh := cvFloat(w, cvScanWindowUpper)
		if okLow && okHigh {
			stats.LowMass, stats.HighMass = low, high
			return stats, nil
		}
	}
	stats.LowMass, _ = cvFloat(s.CvPar, cvLowestObservedMz)
	stats.HighMass, _ = cvFloat(s.CvPar, cvHighestObservedMz)
	return stats, nil
}

// CentroidPeaks returns the peak arrays when the spectrum is marked as
// centroided, ok false otherwise.
func (f *File) CentroidPeaks(scanNum int) (mz, intensity []float64, ok bool, err error) {
	s, err := f.spec(scanNum)
	if err != nil {
		return nil, nil, false, err
	}
	if !cvPresent(s.CvPar, cvCentroidSpectrum) {
		return nil, nil, false, nil
	}
	return s.decodePeaks()
}

// PreferredPeaks returns whatever peak representation the file carries,
// centroided or not.
func (f *File) PreferredPeaks(scanNum int) (mz, intensity []float64, ok bool, err error) {
	s, err := f.spec(scanNum)
	if err != nil {
		return nil, nil, false, err
	}
	return s.decodePeaks()
}

// TrailerFields synthesizes the trailer pairs a native run would carry from
// the spectrum's CV params: injection time, charge state, monoisotopic m/z,
// order-specific isolation width and the master scan number taken from the
// precursor's spectrumRef.
func (f *File) TrailerFields(scanNum int) ([]rawfile.TrailerField, error) {
	s, err := f.spec(scanNum)
	if err != nil {
		return nil, err
	}
	var fields []rawfile.TrailerField
	add := func(label string, value float64) {
		fields = append(fields, rawfile.TrailerField{
			Label: label,
			Value: fmt.Sprintf("%g", value),
		})
	}
	if v, ok := cvFloat(s.scanParams(), cvIonInjectionTime); ok {
		add("Ion Injection Time (ms):", v)
	}
	if p := s.firstPrecursor(); p != nil {
		if v, ok := cvFloat(p.selectedIonParams(), cvChargeState); ok {
			add("Charge State:", v)
		}
		if v, ok := cvFloat(p.selectedIonParams(), cvSelectedIonMz); ok {
			add("Monoisotopic M/Z:", v)
		}
		if w := p.isolationWidth(); w > 0 {
			add(fmt.Sprintf("MS%d Isolation Width:", s.msLevel()), w)
		}
		if m := p.masterScan(); m > 0 {
			add("Master Scan Number:", float64(m))
		}
	}
	return fields, nil
}

// Reaction returns the fragmentation reaction of a dependent scan. Scans
// without a precursor element return a zero Reaction; the caller treats the
// zero values as absent.
func (f *File) Reaction(scanNum int) (rawfile.Reaction, error) {
	s, err := f.spec(scanNum)
	if err != nil {
		return rawfile.Reaction{}, err
	}
	p := s.firstPrecursor()
	if p == nil {
		return rawfile.Reaction{}, nil
	}
	var r rawfile.Reaction
	r.PrecursorMz, _ = cvFloat(p.IsolationWindow.CvPar, cvIsolationTargetMz)
	if r.PrecursorMz == 0 {
		r.PrecursorMz, _ = cvFloat(p.selectedIonParams(), cvSelectedIonMz)
	}
	r.IsolationWidth = p.isolationWidth()
	r.Activation = p.activationToken()
	return r, nil
}

// RetentionTime returns the scan start time in seconds.
func (f *File) RetentionTime(scanNum int) (float64, error) {
	s, err := f.spec(scanNum)
	if err != nil {
		return 0, err
	}
	for _, p := range s.scanParams() {
		if p.Accession == cvScanStartTime {
			t, ok := cvFloat([]cvParam{p}, cvScanStartTime)
			if !ok {
				return 0, fmt.Errorf("scan %d: bad scan start time %q", scanNum, p.Value)
			}
			// Start time may be in minutes, otherwise assume seconds
			if p.UnitAccession == cvUnitMinute || p.UnitAccession == cvUnitMinuteMS {
				t *= 60
			}
			return t, nil
		}
	}
	return 0, nil
}
