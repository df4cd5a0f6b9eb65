// Package command recognizes the in-band control markers that mutate session
// state instead of producing an AI reply.
package command

import "strings"

// Control markers, matched case-sensitively anywhere in the message text.
const (
	MarkerReset       = "!!!RESET!!!"
	MarkerSystem      = "!!!SYSTEM!!!"
	MarkerSystemReset = "!!!SYSTEMRESET!!!"
)

type Kind int

const (
	None Kind = iota
	Reset
	SystemReset
	System
)

func (k Kind) String() string {
	switch k {
	case Reset:
		return "reset"
	case SystemReset:
		return "system_reset"
	case System:
		return "system"
	default:
		return "none"
	}
}

// Classify maps message text to a command kind. The system-reset marker is
// checked before the system marker: it textually contains "!!!SYSTEM!!!" and
// must never be taken for a custom-instruction command.
func Classify(text string) Kind {
	switch {
	case strings.Contains(text, MarkerReset):
		return Reset
	case strings.Contains(text, MarkerSystemReset):
		return SystemReset
	case strings.Contains(text, MarkerSystem):
		return System
	default:
		return None
	}
}

// StripSystemMarker removes every occurrence of the system marker and trims
// the remainder, yielding the requested instruction text.
func StripSystemMarker(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, MarkerSystem, ""))
}
