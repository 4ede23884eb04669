// Copyright 2024 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/524D/rawscan/internal/mzmlraw"
	"github.com/524D/rawscan/internal/scans"
	//	flag "github.com/spf13/pflag"
)

// Program name and version, reported by -version
const progName = "rawScan"

var progVersion = `Unknown`

// Command line parameters
type params struct {
	outFilename    *string // filename for JSON output, empty for stdout
	filterFilename *string // filename of TOML peak filter config
	workers        *int    // parallel extraction workers, 0 for one per CPU
	orders         *bool   // only list the MS order of each scan
	scan           *int    // fetch a single scan through a streaming session
	verbosity      zerolog.Level
	args           []string
}

func usage() {
	exeName := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr,
		`USAGE:
  %s [options] <mzMLfile>

  This program extracts scan records (per-scan metadata plus centroided
  peak lists) from an MS run and writes them as JSON. By default the whole
  run is extracted in parallel; use -scan to fetch a single scan, or
  -orders to list the MS order of every scan without reading peak data.

OPTIONS:
`, exeName)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr,
		`
PEAK FILTER FILE:
  The -filter option names a TOML file that configures peak reduction per
  mass window:

    peaks-per-window = 150      # keep at most this many peaks per window
    min-intensity-ratio = 0.01  # drop peaks below this fraction of the
                                # window's base peak
    apply-ms1 = false
    apply-msn = true

USAGE EXAMPLES:
  %s yeast.mzML
    Extract all scans of yeast.mzML and print them as JSON.

  %s -filter reduce.toml -workers 8 -o yeast.json yeast.mzML
    Idem, with peak reduction, eight workers and output to a file.

  %s -orders yeast.mzML
    Print the MS order of every scan, one per line.
`, exeName, exeName, exeName)
}

func run(par params, logger zerolog.Logger) error {
	path := par.args[0]
	cfg, err := readFilterConfig(*par.filterFilename)
	if err != nil {
		return err
	}

	var out interface{}
	switch {
	case *par.orders:
		session := scans.NewSession(mzmlraw.Open)
		if err := session.Open(path, nil); err != nil {
			return err
		}
		defer session.Close()
		orders, err := session.MSOrders()
		if err != nil {
			return err
		}
		return writeOrders(*par.outFilename, orders)
	case *par.scan != 0:
		session := scans.NewSession(mzmlraw.Open)
		if err := session.Open(path, cfg); err != nil {
			return err
		}
		defer session.Close()
		rec, err := session.Scan(*par.scan)
		if err != nil {
			return err
		}
		out = rec
	default:
		extractor := scans.NewExtractor(mzmlraw.Open, scans.WithLogger(logger))
		recs, err := extractor.ExtractAll(path, cfg, *par.workers)
		if err != nil {
			return err
		}
		logger.Info().Int("scans", len(recs)).Msg("extraction done")
		out = recs
	}
	return writeJSON(*par.outFilename, out)
}

// readFilterConfig reads a TOML peak filter configuration.
// An empty filename means no filtering.
func readFilterConfig(filename string) (*scans.FilterConfig, error) {
	if filename == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read filter config: %w", err)
	}
	var cfg scans.FilterConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse filter config %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func outWriter(filename string) (*os.File, func(), error) {
	if filename == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func writeJSON(filename string, v interface{}) error {
	w, done, err := outWriter(filename)
	if err != nil {
		return err
	}
	defer done()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOrders(filename string, orders []int) error {
	w, done, err := outWriter(filename)
	if err != nil {
		return err
	}
	defer done()
	for i, order := range orders {
		if _, err := fmt.Fprintf(w, "%d\t%d\n", i+1, order); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	var par params

	par.outFilename = flag.String("o",
		"",
		"`filename` of JSON output (default: stdout)")
	par.filterFilename = flag.String("filter",
		"",
		`TOML `+"`filename`"+` with the peak filter configuration.
If empty, spectra are passed through unfiltered.`)
	par.workers = flag.Int("workers",
		0,
		`number of parallel extraction workers.
0 (default) uses one worker per CPU.`)
	par.orders = flag.Bool("orders", false,
		`only print the MS order of each scan (scan number TAB order)`)
	par.scan = flag.Int("scan",
		0,
		"only extract the scan with this `number`, via a streaming session")
	version := flag.Bool("version", false,
		`Show software version`)
	verbose := flag.Bool("verbose", false,
		`Print more verbose progress information`)
	quiet := flag.Bool("quiet", false,
		`Don't print any output except for errors`)
	flag.Usage = usage
	flag.Parse()
	if *version {
		fmt.Fprintf(os.Stderr, "%s version %s\n", progName, progVersion)
		return
	}
	par.verbosity = zerolog.InfoLevel
	if *verbose {
		par.verbosity = zerolog.DebugLevel
	}
	if *quiet {
		par.verbosity = zerolog.ErrorLevel
	}
	par.args = flag.Args()
	if len(par.args) != 1 {
		usage()
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(par.verbosity).With().Timestamp().Logger()
	if err := run(par, logger); err != nil {
		logger.Fatal().Err(err).Msg(progName + " failed")
	}
}
