// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated caller.
// Handlers read it instead of poking at gin context keys directly.
type Identity interface {
	// UserID returns the `sub` claim of the verified token.
	UserID() uuid.UUID
	// Role returns the role resolved by RequireRole, or "" when no role check ran.
	Role() string
	// IsAuthenticated returns true if a token was verified for this request.
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	role          string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID {
	return i.userID
}

func (i *identity) Role() string {
	return i.role
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

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

	return &identity{
		userID:        uid,
		role:          c.GetString(ContextRoleKey),
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		abortUnauthorized(c, errInvalidToken)
		return nil
	}
	return id
}
