package scans

import (
	"regexp"
	"strconv"
	"strings"
)

// scanFilter holds the fields decoded from a vendor scan-filter string,
// e.g. "FTMS + p NSI Full ms2 445.1200@hcd30.00 [110.0000-1700.0000]".
type scanFilter struct {
	msOrder      int
	polarity     Polarity
	analyzer     Analyzer
	dissociation Dissociation
}

var analyzerTokens = map[string]Analyzer{
	"FTMS":  AnalyzerFTMS,
	"ITMS":  AnalyzerITMS,
	"TOFMS": AnalyzerTOFMS,
	"SQMS":  AnalyzerSQMS,
	"ASTMS": AnalyzerASTMS,
}

var activationTokens = map[string]Dissociation{
	"cid":  DissociationCID,
	"hcd":  DissociationHCD,
	"etd":  DissociationETD,
	"ecd":  DissociationECD,
	"pqd":  DissociationPQD,
	"mpd":  DissociationMPD,
	"uvpd": DissociationUVPD,
}

var (
	msOrderRe    = regexp.MustCompile(`^ms(\d+)?$`)
	activationRe = regexp.MustCompile(`@([a-z]+)[\d.]*`)
)

// parseScanFilter decodes the parts of a filter string that the extractor
// needs. Tokens it does not recognize (ionization mode, scan type, range)
// are skipped; a filter without an "ms<n>" token is taken as a full MS1
// scan. The MS order is not validated here, the resolver does that.
func parseScanFilter(filter string) scanFilter {
	f := scanFilter{msOrder: 1}
	for _, tok := range strings.Fields(filter) {
		if a, ok := analyzerTokens[tok]; ok {
			f.analyzer = a
			continue
		}
		switch tok {
		case "+":
			f.polarity = PolarityPositive
			continue
		case "-":
			f.polarity = PolarityNegative
			continue
		}
		if m := msOrderRe.FindStringSubmatch(tok); m != nil {
			if m[1] == "" {
				f.msOrder = 1
			} else {
				// \d+ matched, cannot fail
				f.msOrder, _ = strconv.Atoi(m[1])
			}
			continue
		}
		if m := activationRe.FindStringSubmatch(tok); m != nil {
			if d, ok := activationTokens[m[1]]; ok {
				f.dissociation = d
			}
		}
	}
	return f
}
