package respond

import (
	"strconv"
	"strings"
)

type mediaRange struct {
	typ     string
	subtype string
	q       float64
}

// parseAccept splits an Accept header into media ranges. Missing, malformed or
// out-of-range q values count as 1.
func parseAccept(header string) []mediaRange {
	var ranges []mediaRange
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		params := strings.Split(part, ";")
		mr := mediaRange{q: 1}
		mt := strings.ToLower(strings.TrimSpace(params[0]))
		if typ, sub, ok := strings.Cut(mt, "/"); ok {
			mr.typ, mr.subtype = typ, sub
		} else {
			mr.typ, mr.subtype = mt, "*"
		}
		for _, p := range params[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if !ok || strings.TrimSpace(k) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && q >= 0 && q <= 1 {
				mr.q = q
			}
		}
		ranges = append(ranges, mr)
	}
	return ranges
}

// preferCBOR reports whether the client ranks a CBOR problem strictly above a
// JSON one. Wildcards and ties resolve to JSON.
func preferCBOR(accept string) bool {
	if accept == "" {
		return false
	}
	var cborQ, jsonQ float64
	for _, mr := range parseAccept(accept) {
		if mr.typ != "application" {
			continue
		}
		switch mr.subtype {
		case "cbor", "problem+cbor", "*+cbor":
			cborQ = max(cborQ, mr.q)
		case "json", "problem+json", "*+json", "*":
			jsonQ = max(jsonQ, mr.q)
		}
	}
	return cborQ > 0 && cborQ > jsonQ
}
