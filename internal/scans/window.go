package scans

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// maxWindowWidth caps the width of one peak-reduction window. The declared
// scan range is cut into the smallest number of uniform windows that keeps
// each window at or below this width.
const maxWindowWidth = 100.0 // m/z

// filterPeaks applies the configured peak reduction to a spectrum. The input
// must be mz-ascending; peaks outside the declared [lowMass, highMass] range
// are clamped into the first or last window, since declared bounds are
// instrument metadata and do not always agree with the observed peaks.
// Within each window, peaks below MinIntensityRatio of the window's base
// peak are dropped first, then at most PeaksPerWindow of the remaining peaks
// are kept by intensity. When the filter is inactive for this MS order the
// input is returned unmodified.
func filterPeaks(spec Spectrum, cfg *FilterConfig, msOrder int, lowMass, highMass float64) Spectrum {
	if !cfg.active(msOrder) || spec.Len() == 0 {
		return spec
	}

	span := highMass - lowMass
	numWin := 1
	if span > maxWindowWidth {
		numWin = int(math.Ceil(span / maxWindowWidth))
	}
	width := span / float64(numWin)
	winIndex := func(mz float64) int {
		if numWin == 1 || mz < lowMass {
			return 0
		}
		if mz >= highMass {
			return numWin - 1
		}
		w := int((mz - lowMass) / width)
		if w > numWin-1 {
			w = numWin - 1
		}
		return w
	}

	kept := make([]int, 0, spec.Len())
	for start := 0; start < spec.Len(); {
		w := winIndex(spec.Mz[start])
		end := start + 1
		for end < spec.Len() && winIndex(spec.Mz[end]) == w {
			end++
		}
		kept = append(kept, keepInWindow(spec, cfg, start, end)...)
		start = end
	}

	// Top-N selection scrambles window-local order; restore global
	// mz order before building the result.
	sort.Ints(kept)
	out := Spectrum{
		Mz:        make([]float64, len(kept)),
		Intensity: make([]float64, len(kept)),
	}
	for i, idx := range kept {
		out.Mz[i] = spec.Mz[idx]
		out.Intensity[i] = spec.Intensity[idx]
	}
	return out
}

// keepInWindow selects the surviving peak indices of one window, the
// half-open index range [start, end) of the spectrum.
func keepInWindow(spec Spectrum, cfg *FilterConfig, start, end int) []int {
	base := floats.Max(spec.Intensity[start:end])
	idx := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		if cfg.MinIntensityRatio > 0 && spec.Intensity[i] < cfg.MinIntensityRatio*base {
			continue
		}
		idx = append(idx, i)
	}
	if cfg.PeaksPerWindow > 0 && len(idx) > cfg.PeaksPerWindow {
		sort.Slice(idx, func(a, b int) bool {
			return spec.Intensity[idx[a]] > spec.Intensity[idx[b]]
		})
		idx = idx[:cfg.PeaksPerWindow]
	}
	return idx
}
