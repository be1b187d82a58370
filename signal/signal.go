// Package signal models a single trading instruction fetched from the remote
// signal server and extracts it from the server's loosely formatted payload.
package signal

import "strings"

// Action is the operation a signal requests.
type Action string

const (
	ActionBuy      Action = "buy"
	ActionSell     Action = "sell"
	ActionClose    Action = "close"
	ActionCloseAll Action = "close_all"
	ActionUnknown  Action = "unknown"
)

// ParseAction maps a raw action string onto a known Action. Unrecognized
// strings map to ActionUnknown; callers keep the raw string for diagnostics.
func ParseAction(raw string) Action {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy":
		return ActionBuy
	case "sell":
		return ActionSell
	case "close":
		return ActionClose
	case "close_all":
		return ActionCloseAll
	default:
		return ActionUnknown
	}
}

// Signal is one trading instruction. It is transient: produced fresh each
// poll cycle and discarded afterwards.
type Signal struct {
	Action    Action
	RawAction string // as received, for error messages on unknown actions
	Symbol    string
	LotSize   float64

	// Pip distances for the protective legs; zero means the leg is omitted.
	StopLossPips   float64
	TakeProfitPips float64
}

// IsEntry reports whether the signal opens new exposure.
func (s Signal) IsEntry() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}
