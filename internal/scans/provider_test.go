package scans

// In-memory rawfile implementation for tests. A fakeRun is the "file on
// disk"; every open returns a fresh handle so the tests can check the
// one-handle-per-worker and session close discipline.

import (
	"sync"

	"github.com/524D/rawscan/internal/rawfile"
)

type fakePeaks struct {
	mz     []float64
	intens []float64
}

type fakeScan struct {
	filter    string
	stats     rawfile.ScanStats
	centroid  *fakePeaks
	preferred *fakePeaks
	trailer   []rawfile.TrailerField
	reaction  rawfile.Reaction
	rt        float64
}

type fakeRun struct {
	mu      sync.Mutex
	scans   []fakeScan
	openErr error
	handles []*fakeHandle
}

func (r *fakeRun) open(path string) (rawfile.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.openErr != nil {
		return nil, r.openErr
	}
	h := &fakeHandle{run: r}
	r.handles = append(r.handles, h)
	return h, nil
}

func (r *fakeRun) openCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

type fakeHandle struct {
	run    *fakeRun
	closed bool
}

func (h *fakeHandle) FirstScan() int { return 1 }
func (h *fakeHandle) LastScan() int  { return len(h.run.scans) }

func (h *fakeHandle) scan(n int) (*fakeScan, error) {
	if n < 1 || n > len(h.run.scans) {
		return nil, rawfile.ErrInvalidScanNumber
	}
	return &h.run.scans[n-1], nil
}

func (h *fakeHandle) FilterString(n int) (string, error) {
	s, err := h.scan(n)
	if err != nil {
		return "", err
	}
	return s.filter, nil
}

func (h *fakeHandle) ScanStats(n int) (rawfile.ScanStats, error) {
	s, err := h.scan(n)
	if err != nil {
		return rawfile.ScanStats{}, err
	}
	return s.stats, nil
}

func (h *fakeHandle) CentroidPeaks(n int) ([]float64, []float64, bool, error) {
	s, err := h.scan(n)
	if err != nil {
		return nil, nil, false, err
	}
	if s.centroid == nil {
		return nil, nil, false, nil
	}
	return s.centroid.mz, s.centroid.intens, true, nil
}

func (h *fakeHandle) PreferredPeaks(n int) ([]float64, []float64, bool, error) {
	s, err := h.scan(n)
	if err != nil {
		return nil, nil, false, err
	}
	if s.preferred == nil {
		return nil, nil, false, nil
	}
	return s.preferred.mz, s.preferred.intens, true, nil
}

func (h *fakeHandle) TrailerFields(n int) ([]rawfile.TrailerField, error) {
	s, err := h.scan(n)
	if err != nil {
		return nil, err
	}
	return s.trailer, nil
}

func (h *fakeHandle) Reaction(n int) (rawfile.Reaction, error) {
	s, err := h.scan(n)
	if err != nil {
		return rawfile.Reaction{}, err
	}
	return s.reaction, nil
}

func (h *fakeHandle) RetentionTime(n int) (float64, error) {
	s, err := h.scan(n)
	if err != nil {
		return 0, err
	}
	return s.rt, nil
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

// ms1Scan builds an order-1 scan with the given centroid peaks.
func ms1Scan(low, high float64, mz, intens []float64) fakeScan {
	return fakeScan{
		filter: "FTMS + p Full ms [100.00-2000.00]",
		stats: rawfile.ScanStats{
			LowMass:         low,
			HighMass:        high,
			TotalIonCurrent: 1e6,
		},
		centroid: &fakePeaks{mz: mz, intens: intens},
		rt:       12.5,
	}
}

// ms2Scan builds an order-2 HCD scan.
func ms2Scan(low, high float64, mz, intens []float64, reaction rawfile.Reaction,
	trailer []rawfile.TrailerField) fakeScan {
	return fakeScan{
		filter: "FTMS + p Full ms2 445.1200@hcd30.00 [110.00-900.00]",
		stats: rawfile.ScanStats{
			LowMass:         low,
			HighMass:        high,
			TotalIonCurrent: 5e4,
		},
		centroid: &fakePeaks{mz: mz, intens: intens},
		reaction: reaction,
		trailer:  trailer,
		rt:       13.0,
	}
}
