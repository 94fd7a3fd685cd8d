package types

import "time"

// Kind classifies a console line
type Kind string

const (
	KindPlain   Kind = "plain"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Kinds lists every kind in display order
var Kinds = []Kind{KindPlain, KindInfo, KindWarning, KindError}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindPlain, KindInfo, KindWarning, KindError:
		return true
	}
	return false
}

// LogEntry is one structured console line. Sequence is assigned by the
// sink that accepts the entry.
type LogEntry struct {
	Kind     Kind      `json:"kind"`
	Text     string    `json:"text"`
	Sequence uint64    `json:"sequence"`
	Time     time.Time `json:"time"`
}
