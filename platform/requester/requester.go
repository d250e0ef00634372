// Package requester models who is asking for a domain operation: a logged-in
// agent or an anonymous client identified only by contact details. It is
// resolved once at the HTTP boundary and passed down as a value.
package requester

import (
	"strings"

	"github.com/google/uuid"
)

// Requester is a closed union of LoggedAgent and AnonymousClient.
type Requester interface {
	isRequester()
}

// LoggedAgent is an authenticated user (agent or admin).
type LoggedAgent struct {
	UserID uuid.UUID
	Roles  []string
}

// AnonymousClient is a visitor who supplied contact details instead of logging in.
type AnonymousClient struct {
	Name  string
	Phone string
	Email string
}

func (LoggedAgent) isRequester()     {}
func (AnonymousClient) isRequester() {}

// Complete reports whether the contact has the minimum needed to follow up.
func (a AnonymousClient) Complete() bool {
	return strings.TrimSpace(a.Name) != "" && strings.TrimSpace(a.Phone) != ""
}

// Label returns a short, log-safe description.
func Label(r Requester) string {
	switch v := r.(type) {
	case LoggedAgent:
		return "agent:" + v.UserID.String()
	case AnonymousClient:
		return "anonymous"
	default:
		return "unknown"
	}
}
