// Package mzmlraw exposes mzML files through the rawfile provider
// capability. The mzML document model differs from a native run in two ways
// that this package bridges: typed CV params take the place of the vendor's
// filter strings and trailer key/value pairs, so both are synthesized here,
// and peak arrays are stored base64-encoded (optionally zlib-compressed)
// instead of being served decoded.
package mzmlraw

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"

	"golang.org/x/net/html/charset"

	"github.com/524D/rawscan/internal/rawfile"
)

// CV accessions used to assemble per-scan telemetry
const (
	cvMSLevel            = `MS:1000511`
	cvCentroidSpectrum   = `MS:1000127`
	cvPositivePolarity   = `MS:1000130`
	cvNegativePolarity   = `MS:1000129`
	cvTotalIonCurrent    = `MS:1000285`
	cvLowestObservedMz   = `MS:1000528`
	cvHighestObservedMz  = `MS:1000527`
	cvScanStartTime      = `MS:1000016`
	cvIonInjectionTime   = `MS:1000927`
	cvScanWindowLower    = `MS:1000501`
	cvScanWindowUpper    = `MS:1000500`
	cvIsolationTargetMz  = `MS:1000827`
	cvIsolationLowerOffs = `MS:1000828`
	cvIsolationUpperOffs = `MS:1000829`
	cvSelectedIonMz      = `MS:1000744`
	cvChargeState        = `MS:1000041`
	cvCollisionEnergy    = `MS:1000045`
	cvZlibCompression    = `MS:1000574`
	cvMzArray            = `MS:1000514`
	cvIntensityArray     = `MS:1000515`
	cv64Bit              = `MS:1000523`
	cvUnitMinute         = `UO:0000031`
	cvUnitMinuteMS       = `MS:1000038`
)

// activation CV accession to vendor activation token
var cvActivation = map[string]string{
	`MS:1000133`: "cid",
	`MS:1000422`: "hcd", // beam-type collision-induced dissociation
	`MS:1000598`: "etd",
	`MS:1000250`: "ecd",
	`MS:1000599`: "pqd",
	`MS:1000435`: "mpd", // multiphoton dissociation
	`MS:1003246`: "uvpd",
}

// analyzer CV accession (instrument configuration) to filter-string token
var cvAnalyzer = map[string]string{
	`MS:1000079`: "FTMS", // FTICR
	`MS:1000484`: "FTMS", // Orbitrap
	`MS:1000084`: "TOFMS",
	`MS:1000264`: "ITMS",
	`MS:1000081`: "SQMS", // quadrupole
}

type cvParam struct {
	Accession     string `xml:"accession,attr"`
	Value         string `xml:"value,attr"`
	UnitAccession string `xml:"unitAccession,attr"`
}

type mzMLContent struct {
	XMLName                     xml.Name `xml:"http://psi.hupo.org/ms/mzml mzML"`
	InstrumentConfigurationList struct {
		XML []byte `xml:",innerxml"`
	} `xml:"instrumentConfigurationList"`
	Run struct {
		SpectrumList struct {
			Spectrum []spectrum `xml:"spectrum"`
		} `xml:"spectrumList"`
	} `xml:"run"`
}

type spectrum struct {
	Index    int       `xml:"index,attr"`
	ID       string    `xml:"id,attr"`
	CvPar    []cvParam `xml:"cvParam"`
	ScanList struct {
		Scan []scan `xml:"scan"`
	} `xml:"scanList"`
	PrecursorList struct {
		Precursor []precursor `xml:"precursor"`
	} `xml:"precursorList"`
	BinaryDataArrayList struct {
		BinaryDataArray []binaryDataArray `xml:"binaryDataArray"`
	} `xml:"binaryDataArrayList"`
}

type scan struct {
	CvPar          []cvParam `xml:"cvParam"`
	ScanWindowList struct {
		ScanWindow []struct {
			CvPar []cvParam `xml:"cvParam"`
		} `xml:"scanWindow"`
	} `xml:"scanWindowList"`
}

type precursor struct {
	SpectrumRef     string `xml:"spectrumRef,attr"`
	IsolationWindow struct {
		CvPar []cvParam `xml:"cvParam"`
	} `xml:"isolationWindow"`
	SelectedIonList struct {
		SelectedIon []struct {
			CvPar []cvParam `xml:"cvParam"`
		} `xml:"selectedIon"`
	} `xml:"selectedIonList"`
	Activation struct {
		CvPar []cvParam `xml:"cvParam"`
	} `xml:"activation"`
}

type binaryDataArray struct {
	CvPar  []cvParam `xml:"cvParam"`
	Binary string    `xml:"binary"`
}

// File is an mzML-backed provider handle. The whole document is parsed at
// Open, so per-scan calls never fail with I/O errors and Close has nothing
// to release.
type File struct {
	spectra  []spectrum
	analyzer string // filter-string analyzer token, run-wide
}

// Open reads the mzML file at path. It satisfies rawfile.OpenFunc; a
// finished mzML file is never mid-acquisition, so ErrStillAcquiring is
// never returned.
func Open(path string) (rawfile.File, error) {
	x, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", rawfile.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", rawfile.ErrIO, err)
	}
	defer x.Close()
	f, err := read(x)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", rawfile.ErrIO, path, err)
	}
	return f, nil
}

func read(reader io.Reader) (*File, error) {
	var content mzMLContent
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	// Only the mzML element matters; skip indexedmzML wrappers and
	// anything else around it.
	for {
		t, tokenErr := d.Token()
		if tokenErr != nil {
			if tokenErr == io.EOF {
				break
			}
			return nil, tokenErr
		}
		if se, ok := t.(xml.StartElement); ok && se.Name.Local == "mzML" {
			if err := d.DecodeElement(&content, &se); err != nil {
				return nil, err
			}
		}
	}
	f := &File{
		spectra:  content.Run.SpectrumList.Spectrum,
		analyzer: analyzerToken(content.InstrumentConfigurationList.XML),
	}
	for i := range f.spectra {
		if f.spectra[i].Index != i {
			return nil, fmt.Errorf("spectrum %d has index %d", i, f.spectra[i].Index)
		}
	}
	return f, nil
}

// analyzerToken maps the first known analyzer of the instrument
// configuration to its filter-string token. mzML records the analyzer per
// instrument, not per scan, so the token is run-wide.
func analyzerToken(instrXML []byte) string {
	type analyzer struct {
		CvPar []cvParam `xml:"cvParam"`
	}
	type instrumentConfiguration struct {
		XMLName  xml.Name   `xml:"instrumentConfiguration"`
		Analyzer []analyzer `xml:"componentList>analyzer"`
	}
	var conf instrumentConfiguration
	if err := xml.Unmarshal(instrXML, &conf); err != nil {
		return ""
	}
	for _, a := range conf.Analyzer {
		for _, p := range a.CvPar {
			if tok, ok := cvAnalyzer[p.Accession]; ok {
				return tok
			}
		}
	}
	return ""
}

func (f *File) FirstScan() int { return 1 }
func (f *File) LastScan() int  { return len(f.spectra) }

func (f *File) spec(scanNum int) (*spectrum, error) {
	if scanNum < 1 || scanNum > len(f.spectra) {
		return nil, fmt.Errorf("%w: %d", rawfile.ErrInvalidScanNumber, scanNum)
	}
	return &f.spectra[scanNum-1], nil
}

// Close releases nothing; the document was fully read at Open.
func (f *File) Close() error { return nil }

func cvValue(params []cvParam, accession string) (string, bool) {
	for _, p := range params {
		if p.Accession == accession {
			return p.Value, true
		}
	}
	return "", false
}

func cvFloat(params []cvParam, accession string) (float64, bool) {
	s, ok := cvValue(params, accession)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func cvPresent(params []cvParam, accession string) bool {
	_, ok := cvValue(params, accession)
	return ok
}

// scanParams returns the CV params of the first scan element of a spectrum.
func (s *spectrum) scanParams() []cvParam {
	if len(s.ScanList.Scan) == 0 {
		return nil
	}
	return s.ScanList.Scan[0].CvPar
}

func (s *spectrum) firstPrecursor() *precursor {
	if len(s.PrecursorList.Precursor) == 0 {
		return nil
	}
	return &s.PrecursorList.Precursor[0]
}

// msLevel returns the MS level of a spectrum, guessing MS1 when the file
// does not say.
func (s *spectrum) msLevel() int {
	if v, ok := cvFloat(s.CvPar, cvMSLevel); ok && v >= 1 {
		return int(v)
	}
	return 1
}

// isolationWidth is the sum of the lower and upper isolation offsets, or 0
// when the file omits them.
func (p *precursor) isolationWidth() float64 {
	lower, _ := cvFloat(p.IsolationWindow.CvPar, cvIsolationLowerOffs)
	upper, _ := cvFloat(p.IsolationWindow.CvPar, cvIsolationUpperOffs)
	return lower + upper
}

func (p *precursor) selectedIonParams() []cvParam {
	if len(p.SelectedIonList.SelectedIon) == 0 {
		return nil
	}
	return p.SelectedIonList.SelectedIon[0].CvPar
}

func (p *precursor) activationToken() string {
	for _, par := range p.Activation.CvPar {
		if tok, ok := cvActivation[par.Accession]; ok {
			return tok
		}
	}
	return ""
}

var spectrumRefScanRe = regexp.MustCompile(`scan=(\d+)`)

// masterScan extracts the precursor scan number from the spectrumRef
// attribute, 0 when absent or not in nativeID form.
func (p *precursor) masterScan() int {
	m := spectrumRefScanRe.FindStringSubmatch(p.SpectrumRef)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// decodePeaks decodes the mz and intensity arrays of a spectrum.
// ok is false when the spectrum carries no binary data.
func (s *spectrum) decodePeaks() (mz, intensity []float64, ok bool, err error) {
	for _, b := range s.BinaryDataArrayList.BinaryDataArray {
		values, err := decodeBinary(&b)
		if err != nil {
			return nil, nil, false, err
		}
		switch {
		case cvPresent(b.CvPar, cvMzArray):
			mz = values
		case cvPresent(b.CvPar, cvIntensityArray):
			intensity = values
		}
	}
	if mz == nil || intensity == nil {
		return nil, nil, false, nil
	}
	if len(mz) != len(intensity) {
		return nil, nil, false, fmt.Errorf("mz/intensity length mismatch: %d vs %d",
			len(mz), len(intensity))
	}
	return mz, intensity, true, nil
}

// decodeBinary decodes one base64 (optionally zlib-compressed) 32 or 64 bit
// little-endian float array.
func decodeBinary(b *binaryDataArray) ([]float64, error) {
	data, err := base64.StdEncoding.DecodeString(b.Binary)
	if err != nil {
		return nil, err
	}
	if cvPresent(b.CvPar, cvZlibCompression) {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer z.Close()
		data, err = io.ReadAll(z)
		if err != nil {
			return nil, err
		}
	}
	if cvPresent(b.CvPar, cv64Bit) {
		values := make([]float64, len(data)/8)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return values, nil
	}
	values := make([]float64, len(data)/4)
	for i := range values {
		values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return values, nil
}
