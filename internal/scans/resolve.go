package scans

import (
	"fmt"
	"strings"

	"github.com/524D/rawscan/internal/rawfile"
)

// resolveScan builds the complete Record of one scan from the provider's
// telemetry. The reconciliation order matters: the filter string supplies
// order, polarity, analyzer and a fallback activation type; the trailer
// supplies injection time, isolation width, monoisotopic m/z, charge and
// master scan; for dependent scans the reaction metadata supplies isolation
// m/z and the authoritative activation type, and its isolation width fills
// in when the trailer omitted one.
func resolveScan(f rawfile.File, cfg *FilterConfig, scanNum int) (Record, error) {
	filterStr, err := f.FilterString(scanNum)
	if err != nil {
		return Record{}, fmt.Errorf("filter string of scan %d: %w", scanNum, err)
	}
	sf := parseScanFilter(filterStr)
	if sf.msOrder < 1 || sf.msOrder > maxMSOrder {
		return Record{}, fmt.Errorf("%w: scan %d reports ms%d",
			ErrInvalidScanOrder, scanNum, sf.msOrder)
	}

	spec, err := buildSpectrum(f, scanNum)
	if err != nil {
		return Record{}, err
	}

	stats, err := f.ScanStats(scanNum)
	if err != nil {
		return Record{}, fmt.Errorf("scan stats of scan %d: %w", scanNum, err)
	}
	spec = filterPeaks(spec, cfg, sf.msOrder, stats.LowMass, stats.HighMass)

	rt, err := f.RetentionTime(scanNum)
	if err != nil {
		return Record{}, fmt.Errorf("retention time of scan %d: %w", scanNum, err)
	}

	pairs, err := f.TrailerFields(scanNum)
	if err != nil {
		return Record{}, fmt.Errorf("trailer of scan %d: %w", scanNum, err)
	}
	trailer := parseTrailer(pairs, sf.msOrder)

	rec := Record{
		Index:           scanNum,
		MSOrder:         sf.msOrder,
		Polarity:        sf.polarity,
		RetentionTime:   rt,
		LowMass:         stats.LowMass,
		HighMass:        stats.HighMass,
		Analyzer:        sf.analyzer,
		TotalIonCurrent: stats.TotalIonCurrent,
		InjectionTime:   optFloat(trailer.injectionTime),
		NativeID:        fmt.Sprintf(nativeIDFmt, scanNum),
		Dissociation:    sf.dissociation,
		MonoisotopicMz:  optFloat(trailer.monoisotopicMz),
		ChargeState:     optInt(trailer.chargeState),
		Spectrum:        spec,
	}

	if sf.msOrder > 1 {
		reaction, err := f.Reaction(scanNum)
		if err != nil {
			return Record{}, fmt.Errorf("reaction of scan %d: %w", scanNum, err)
		}
		rec.IsolationMz = optFloat(reaction.PrecursorMz)
		rec.IsolationWidth = optFloat(trailer.isolationWidth)
		if rec.IsolationWidth == nil {
			rec.IsolationWidth = optFloat(reaction.IsolationWidth)
		}
		if d, ok := activationTokens[strings.ToLower(reaction.Activation)]; ok {
			rec.Dissociation = d
		}
		precursor, err := resolvePrecursor(f, scanNum, sf.msOrder, trailer.masterScan)
		if err != nil {
			return Record{}, err
		}
		rec.PrecursorScan = &precursor
	}
	return rec, nil
}

// buildSpectrum fetches the peak arrays of a scan, preferring the centroid
// representation over the provider's fallback one.
func buildSpectrum(f rawfile.File, scanNum int) (Spectrum, error) {
	mz, intens, ok, err := f.CentroidPeaks(scanNum)
	if err != nil {
		return Spectrum{}, fmt.Errorf("centroid peaks of scan %d: %w", scanNum, err)
	}
	if !ok {
		mz, intens, ok, err = f.PreferredPeaks(scanNum)
		if err != nil {
			return Spectrum{}, fmt.Errorf("preferred peaks of scan %d: %w", scanNum, err)
		}
	}
	if !ok {
		return Spectrum{}, fmt.Errorf("%w: scan %d", ErrSpectrumUnavailable, scanNum)
	}
	return Spectrum{Mz: mz, Intensity: intens}, nil
}
