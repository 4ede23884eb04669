package scans

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/524D/rawscan/internal/rawfile"
)

// Extractor performs bulk parallel extraction of whole runs.
type Extractor struct {
	open rawfile.OpenFunc
	log  zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger installs a logger for extraction progress. The default
// discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Extractor) { e.log = log }
}

// NewExtractor returns an Extractor that opens runs through open.
func NewExtractor(open rawfile.OpenFunc, opts ...Option) *Extractor {
	e := &Extractor{open: open, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractAll extracts every scan of the run at path and returns the records
// in scan-number order. workers bounds the number of parallel workers; 0 or
// less selects one per CPU. The scan range is split into contiguous disjoint
// chunks, and every worker opens its own provider handle: handle state is
// position-dependent and not safe to share across goroutines. Each worker
// writes into its own slots of the pre-sized result, so no locking is
// involved. The first scan that fails aborts the whole batch; workers
// already past the failure finish their chunk, but the partial result is
// discarded and only the first observed failure is returned, wrapped in
// ErrExtractionAborted.
func (e *Extractor) ExtractAll(path string, cfg *FilterConfig, workers int) ([]Record, error) {
	f, err := openSource(e.open, path)
	if err != nil {
		return nil, err
	}
	first := f.FirstScan()
	numScans := f.LastScan() - first + 1
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if numScans <= 0 {
		return nil, nil
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > numScans {
		workers = numScans
	}
	e.log.Debug().Str("path", path).Int("scans", numScans).
		Int("workers", workers).Msg("starting batch extraction")

	recs := make([]Record, numScans)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := first + w*numScans/workers
		hi := first + (w+1)*numScans/workers // exclusive
		g.Go(func() error {
			return e.extractRange(path, cfg, lo, hi, first, recs)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recs, nil
}

// extractRange extracts scans [lo, hi) on a worker-private handle, writing
// each record to its statically assigned slot.
func (e *Extractor) extractRange(path string, cfg *FilterConfig, lo, hi, first int, recs []Record) error {
	f, err := openSource(e.open, path)
	if err != nil {
		return err
	}
	defer f.Close()
	for i := lo; i < hi; i++ {
		rec, err := resolveScan(f, cfg, i)
		if err != nil {
			return fmt.Errorf("%w: scan %d: %w", ErrExtractionAborted, i, err)
		}
		recs[i-first] = rec
	}
	e.log.Debug().Int("from", lo).Int("to", hi-1).Msg("chunk done")
	return nil
}

// openSource opens a run and maps provider errors onto the extraction
// taxonomy: a missing path stays ErrNotFound, everything else that prevents
// use of the run becomes ErrSourceUnavailable.
func openSource(open rawfile.OpenFunc, path string) (rawfile.File, error) {
	f, err := open(path)
	if err != nil {
		if errors.Is(err, rawfile.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return f, nil
}
