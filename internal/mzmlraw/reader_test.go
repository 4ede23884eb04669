package mzmlraw

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/524D/rawscan/internal/rawfile"
)

const testFile = "testdata/tiny.mzML"

func openTestFile(t *testing.T) rawfile.File {
	t.Helper()
	f, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open: error return %v", err)
	}
	return f
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("testdata/nosuch.mzML")
	if !errors.Is(err, rawfile.ErrNotFound) {
		t.Errorf("Open: error = %v, want ErrNotFound", err)
	}
}

func TestScanRange(t *testing.T) {
	f := openTestFile(t)
	defer f.Close()
	if f.FirstScan() != 1 || f.LastScan() != 2 {
		t.Errorf("scan range = [%d, %d], want [1, 2]", f.FirstScan(), f.LastScan())
	}
	if _, err := f.FilterString(3); !errors.Is(err, rawfile.ErrInvalidScanNumber) {
		t.Errorf("FilterString(3): error = %v, want ErrInvalidScanNumber", err)
	}
}

func TestFilterString(t *testing.T) {
	f := openTestFile(t)
	defer f.Close()
	got, err := f.FilterString(1)
	if err != nil {
		t.Fatalf("FilterString: error return %v", err)
	}
	if got != "FTMS + c Full ms [100.00-2000.00]" {
		t.Errorf("FilterString(1) = %q", got)
	}
	got, err = f.FilterString(2)
	if err != nil {
		t.Fatalf("FilterString: error return %v", err)
	}
	if got != "FTMS + p Full ms2 445.1200@hcd30.00 [100.00-1000.00]" {
		t.Errorf("FilterString(2) = %q", got)
	}
}

func TestScanStats(t *testing.T) {
	f := openTestFile(t)
	defer f.Close()
	stats, err := f.ScanStats(1)
	if err != nil {
		t.Fatalf("ScanStats: error return %v", err)
	}
	want := rawfile.ScanStats{LowMass: 100, HighMass: 2000, TotalIonCurrent: 3600}
	if stats != want {
		t.Errorf("ScanStats(1) = %+v, want %+v", stats, want)
	}
}

func TestPeaks(t *testing.T) {
	f := openTestFile(t)
	defer f.Close()

	mz, intens, ok, err := f.CentroidPeaks(1)
	if err != nil || !ok {
		t.Fatalf("CentroidPeaks(1): ok=%v, error return %v", ok, err)
	}
	if diff := cmp.Diff([]float64{150.1, 500.5, 900.9}, mz); diff != "" {
		t.Errorf("mz mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1000, 2500, 100}, intens); diff != "" {
		t.Errorf("intensity mismatch (-want +got):\n%s", diff)
	}

	// the profile scan has no centroid representation
	_, _, ok, err = f.CentroidPeaks(2)
	if err != nil {
		t.Fatalf("CentroidPeaks(2): error return %v", err)
	}
	if ok {
		t.Errorf("CentroidPeaks(2): ok for a profile spectrum")
	}

	// 64-bit plain m/z with 32-bit zlib intensity
	mz, intens, ok, err = f.PreferredPeaks(2)
	if err != nil || !ok {
		t.Fatalf("PreferredPeaks(2): ok=%v, error return %v", ok, err)
	}
	if diff := cmp.Diff([]float64{110.1, 120.2}, mz); diff != "" {
		t.Errorf("mz mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{5, 10}, intens); diff != "" {
		t.Errorf("intensity mismatch (-want +got):\n%s", diff)
	}
}

func TestTrailerFields(t *testing.T) {
	f := openTestFile(t)
	defer f.Close()

	fields, err := f.TrailerFields(1)
	if err != nil {
		t.Fatalf("TrailerFields: error return %v", err)
	}
	want := []rawfile.TrailerField{
		{Label: "Ion Injection Time (ms):", Value: "54.35"},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("TrailerFields(1) mismatch (-want +got):\n%s", diff)
	}

	fields, err = f.TrailerFields(2)
	if err != nil {
		t.Fatalf("TrailerFields: error return %v", err)
	}
	want = []rawfile.TrailerField{
		{Label: "Charge State:", Value: "2"},
		{Label: "Monoisotopic M/Z:", Value: "445.1171"},
		{Label: "MS2 Isolation Width:", Value: "1.6"},
		{Label: "Master Scan Number:", Value: "1"},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("TrailerFields(2) mismatch (-want +got):\n%s", diff)
	}
}

func TestReaction(t *testing.T) {
	f := openTestFile(t)
	defer f.Close()

	r, err := f.Reaction(2)
	if err != nil {
		t.Fatalf("Reaction: error return %v", err)
	}
	want := rawfile.Reaction{PrecursorMz: 445.12, IsolationWidth: 1.6, Activation: "hcd"}
	if r != want {
		t.Errorf("Reaction(2) = %+v, want %+v", r, want)
	}

	r, err = f.Reaction(1)
	if err != nil {
		t.Fatalf("Reaction: error return %v", err)
	}
	if r != (rawfile.Reaction{}) {
		t.Errorf("Reaction(1) = %+v, want zero for an ms1 scan", r)
	}
}

func TestRetentionTime(t *testing.T) {
	f := openTestFile(t)
	defer f.Close()

	// scan 1 start time is 0.5 min
	rt, err := f.RetentionTime(1)
	if err != nil {
		t.Fatalf("RetentionTime: error return %v", err)
	}
	if rt != 30 {
		t.Errorf("RetentionTime(1) = %g, want 30", rt)
	}
	// scan 2 start time is already in seconds
	rt, err = f.RetentionTime(2)
	if err != nil {
		t.Fatalf("RetentionTime: error return %v", err)
	}
	if rt != 31.2 {
		t.Errorf("RetentionTime(2) = %g, want 31.2", rt)
	}
}
