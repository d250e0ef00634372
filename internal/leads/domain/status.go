// Package domain provides core business rules for the leads bounded context.
package domain

import "fmt"

// Status is a lead's position in the claim protocol.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAssumed  Status = "ASSUMED"
	StatusExpired  Status = "EXPIRED"
	StatusRejected Status = "REJECTED"
)

// allowedTransitions lists every legal move. Leads leave PENDING exactly once.
// REJECTED is reachable in the table but no operation produces it yet.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusAssumed:  true,
		StatusExpired:  true,
		StatusRejected: true,
	},
	StatusAssumed:  {},
	StatusExpired:  {},
	StatusRejected: {},
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := allowedTransitions[st]; !ok {
		return "", fmt.Errorf("unknown lead status %q", s)
	}
	return st, nil
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

// IsTerminal returns true if no transition leaves s.
func (s Status) IsTerminal() bool {
	next, ok := allowedTransitions[s]
	return ok && len(next) == 0
}

func (s Status) String() string { return string(s) }
