package signal

import (
	"strconv"
	"strings"
)

// Parse extracts a Signal from the raw text the signal server returned.
//
// The server's payloads are JSON-shaped but not reliably well formed, so this
// is a deliberately minimal flat-object scanner rather than a strict JSON
// decoder: it locates each key textually and extracts the value that follows.
// Every field is extracted independently and fails soft — a missing or
// malformed field yields "" or 0, never an error. It only understands a flat,
// single-level object; nested structures are out of scope. That is a
// tolerated limitation of the upstream contract, not something to generalize.
//
// The second return value is false when the payload carries no signal
// (no `"has_signal": true` marker), which is the normal idle case.
func Parse(raw string) (Signal, bool) {
	if !strings.Contains(raw, `"has_signal": true`) &&
		!strings.Contains(raw, `"has_signal":true`) {
		return Signal{}, false
	}

	rawAction := stringField(raw, "action")
	sig := Signal{
		Action:         ParseAction(rawAction),
		RawAction:      rawAction,
		Symbol:         strings.ToUpper(stringField(raw, "symbol")),
		LotSize:        numberField(raw, "lot_size"),
		StopLossPips:   numberField(raw, "sl_pips"),
		TakeProfitPips: numberField(raw, "tp_pips"),
	}
	return sig, true
}

// afterKey returns the text following `"key"` and its colon, or "" when the
// key or colon is absent.
func afterKey(raw, key string) string {
	idx := strings.Index(raw, `"`+key+`"`)
	if idx < 0 {
		return ""
	}
	rest := raw[idx+len(key)+2:]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return ""
	}
	return rest[colon+1:]
}

// stringField extracts the next quoted substring after the key's colon.
func stringField(raw, key string) string {
	rest := afterKey(raw, key)
	open := strings.IndexByte(rest, '"')
	if open < 0 {
		return ""
	}
	rest = rest[open+1:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// numberField extracts a contiguous run of digit, dot and minus characters
// after the key's colon, skipping leading spaces.
func numberField(raw, key string) float64 {
	rest := afterKey(raw, key)

	start := 0
	for start < len(rest) && rest[start] == ' ' {
		start++
	}
	end := start
	for end < len(rest) && isNumberChar(rest[end]) {
		end++
	}
	if end == start {
		return 0
	}

	v, err := strconv.ParseFloat(rest[start:end], 64)
	if err != nil {
		return 0
	}
	return v
}

func isNumberChar(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '-'
}
