package scans

import (
	"fmt"

	"github.com/524D/rawscan/internal/rawfile"
)

// Session provides incremental scan retrieval from a single open run.
// It owns exactly one provider handle between Open and Close. A Session has
// no internal locking: it is meant for one logical caller at a time, the
// single handle being the serialization boundary.
type Session struct {
	open rawfile.OpenFunc
	f    rawfile.File
	cfg  *FilterConfig
}

// NewSession returns a closed Session that opens runs through open.
func NewSession(open rawfile.OpenFunc) *Session {
	return &Session{open: open}
}

// Open opens the run at path and binds cfg for all scans retrieved through
// this session. An already open session is closed first, so at most one
// handle is ever held.
func (s *Session) Open(path string, cfg *FilterConfig) error {
	if err := s.Close(); err != nil {
		return err
	}
	f, err := openSource(s.open, path)
	if err != nil {
		return err
	}
	s.f = f
	s.cfg = cfg
	return nil
}

// Scan retrieves a single scan by number. It fails with ErrSessionNotOpen
// when no run is open and with ErrScanNotFound when scanNum lies outside
// the run.
func (s *Session) Scan(scanNum int) (Record, error) {
	if s.f == nil {
		return Record{}, ErrSessionNotOpen
	}
	if scanNum < s.f.FirstScan() || scanNum > s.f.LastScan() {
		return Record{}, fmt.Errorf("%w: scan %d outside [%d, %d]",
			ErrScanNotFound, scanNum, s.f.FirstScan(), s.f.LastScan())
	}
	return resolveScan(s.f, s.cfg, scanNum)
}

// MSOrders returns the MS order of every scan of the open run in scan-number
// order, so callers can pick out the scans worth fetching before asking for
// full records.
func (s *Session) MSOrders() ([]int, error) {
	if s.f == nil {
		return nil, ErrSessionNotOpen
	}
	orders := make([]int, 0, s.f.LastScan()-s.f.FirstScan()+1)
	for i := s.f.FirstScan(); i <= s.f.LastScan(); i++ {
		filter, err := s.f.FilterString(i)
		if err != nil {
			return nil, fmt.Errorf("filter string of scan %d: %w", i, err)
		}
		orders = append(orders, parseScanFilter(filter).msOrder)
	}
	return orders, nil
}

// Close releases the handle. Closing a closed session is a no-op.
func (s *Session) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	s.cfg = nil
	return err
}
