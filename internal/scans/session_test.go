package scans

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSessionScan(t *testing.T) {
	run := mixedRun(8)
	s := NewSession(run.open)
	if err := s.Open("run", nil); err != nil {
		t.Fatalf("Open: error return %v", err)
	}
	defer s.Close()

	rec, err := s.Scan(2)
	if err != nil {
		t.Fatalf("Scan: error return %v", err)
	}
	if rec.Index != 2 || rec.MSOrder != 2 {
		t.Errorf("index/order = %d/%d, want 2/2", rec.Index, rec.MSOrder)
	}

	_, err = s.Scan(9)
	if !errors.Is(err, ErrScanNotFound) {
		t.Errorf("Scan(9) error = %v, want ErrScanNotFound", err)
	}
	_, err = s.Scan(0)
	if !errors.Is(err, ErrScanNotFound) {
		t.Errorf("Scan(0) error = %v, want ErrScanNotFound", err)
	}
}

func TestSessionMSOrders(t *testing.T) {
	run := mixedRun(8)
	s := NewSession(run.open)
	if err := s.Open("run", nil); err != nil {
		t.Fatalf("Open: error return %v", err)
	}
	defer s.Close()

	orders, err := s.MSOrders()
	if err != nil {
		t.Fatalf("MSOrders: error return %v", err)
	}
	want := []int{1, 2, 2, 2, 1, 2, 2, 2}
	if diff := cmp.Diff(want, orders); diff != "" {
		t.Errorf("MSOrders mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionReopenClosesPreviousHandle(t *testing.T) {
	run := mixedRun(4)
	s := NewSession(run.open)
	if err := s.Open("run", nil); err != nil {
		t.Fatalf("Open: error return %v", err)
	}
	if err := s.Open("run", nil); err != nil {
		t.Fatalf("second Open: error return %v", err)
	}
	defer s.Close()
	if got := run.openCount(); got != 2 {
		t.Fatalf("opened %d handles, want 2", got)
	}
	if !run.handles[0].closed {
		t.Errorf("first handle not closed before the second open")
	}
	if run.handles[1].closed {
		t.Errorf("active handle closed")
	}
}

func TestSessionClosed(t *testing.T) {
	run := mixedRun(4)
	s := NewSession(run.open)

	// never opened
	if _, err := s.Scan(1); !errors.Is(err, ErrSessionNotOpen) {
		t.Errorf("Scan on new session: error = %v, want ErrSessionNotOpen", err)
	}
	if _, err := s.MSOrders(); !errors.Is(err, ErrSessionNotOpen) {
		t.Errorf("MSOrders on new session: error = %v, want ErrSessionNotOpen", err)
	}

	if err := s.Open("run", nil); err != nil {
		t.Fatalf("Open: error return %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: error return %v", err)
	}
	if _, err := s.Scan(1); !errors.Is(err, ErrSessionNotOpen) {
		t.Errorf("Scan after Close: error = %v, want ErrSessionNotOpen", err)
	}
	// closing again is a no-op
	if err := s.Close(); err != nil {
		t.Errorf("second Close: error return %v", err)
	}
	if !run.handles[0].closed {
		t.Errorf("handle not released on Close")
	}
}

func TestSessionOpenFailureLeavesClosed(t *testing.T) {
	run := mixedRun(4)
	s := NewSession(run.open)
	if err := s.Open("run", nil); err != nil {
		t.Fatalf("Open: error return %v", err)
	}
	run.openErr = errors.New("disk gone")
	if err := s.Open("run", nil); err == nil {
		t.Fatalf("second Open succeeded, want error")
	}
	if _, err := s.Scan(1); !errors.Is(err, ErrSessionNotOpen) {
		t.Errorf("Scan after failed reopen: error = %v, want ErrSessionNotOpen", err)
	}
	if !run.handles[0].closed {
		t.Errorf("previous handle leaked after failed reopen")
	}
}
