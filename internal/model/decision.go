package model

import "strings"

// Action is the verdict a strategy returns for one market in one cycle.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
	ActionPass Action = "PASS"
)

// ParseAction normalizes a free-form action string. Unknown values map to PASS.
func ParseAction(raw string) Action {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BUY":
		return ActionBuy
	case "SELL":
		return ActionSell
	case "HOLD":
		return ActionHold
	default:
		return ActionPass
	}
}

// IsTrade reports whether the action moves money.
func (a Action) IsTrade() bool { return a == ActionBuy || a == ActionSell }

// Side of an outcome token.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Sign maps a side to its P&L direction.
func (s Side) Sign() float64 {
	if s == SideNo {
		return -1
	}
	return 1
}

// ParseSide defaults to YES for anything that is not an explicit NO.
func ParseSide(raw string) Side {
	if strings.EqualFold(strings.TrimSpace(raw), "NO") {
		return SideNo
	}
	return SideYes
}

// Decision is the immutable output of one strategy call. BUY/SELL must name a
// token; HOLD/PASS need none.
type Decision struct {
	Action     Action   `json:"action"`
	TokenID    string   `json:"token_id,omitempty"`
	Outcome    string   `json:"outcome,omitempty"`
	Side       Side     `json:"side"`
	Size       float64  `json:"size"`
	Confidence float64  `json:"confidence"`
	Edge       *float64 `json:"edge,omitempty"`
	Reasoning  string   `json:"reasoning"`
	TraceID    string   `json:"trace_id,omitempty"`
}

// Pass builds a PASS decision carrying the given reasoning.
func Pass(reason string) Decision {
	return Decision{Action: ActionPass, Side: SideYes, Reasoning: reason}
}
