// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"realty_portal_backend/platform/requester"
)

// Identity represents the authenticated user's identity.
// Handlers read it without touching JWT claims directly.
type Identity interface {
	UserID() uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID        { return i.userID }
func (i *identity) Roles() []string          { return i.roles }
func (i *identity) HasRole(role string) bool { return slices.Contains(i.roles, role) }
func (i *identity) IsAuthenticated() bool    { return i.authenticated }

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, ok := c.Get(ContextUserIDKey)
	if !ok {
		return &identity{}
	}
	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	var roleList []string
	if roles, ok := c.Get(ContextRolesKey); ok {
		roleList, _ = roles.([]string)
	}

	return &identity{userID: uid, roles: roleList, authenticated: true}
}

// ResolveRequester turns the request's identity into a requester.Requester.
// Authenticated callers win; otherwise the supplied contact is used as-is and
// callers must check AnonymousClient.Complete themselves.
func ResolveRequester(c *gin.Context, contact requester.AnonymousClient) requester.Requester {
	if id := GetIdentity(c); id.IsAuthenticated() {
		return requester.LoggedAgent{UserID: id.UserID(), Roles: id.Roles()}
	}
	return contact
}
