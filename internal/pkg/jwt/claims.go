package jwt

import (
	"context"
	"errors"

	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
)

// Claim names carried by access tokens
const (
	ClaimUserID      = "user_id"
	ClaimEmail       = "email"
	ClaimName        = "name"
	ClaimWorkspaceID = "workspace_id"
	ClaimEmployeeID  = "employee_id"
	ClaimRole        = "role"
	ClaimType        = "type"
)

// ErrMissingClaims is returned when the request context carries no usable identity.
var ErrMissingClaims = errors.New("authentication claims are missing or invalid")

// Claims is the caller identity extracted from a verified access token.
type Claims struct {
	UserID      string
	Email       string
	Name        string
	WorkspaceID string
	EmployeeID  *string
	Role        user.Role
}

// IsAdmin reports whether the caller administers the workspace.
func (c Claims) IsAdmin() bool {
	return c.Role == user.RoleAdmin
}

// ClaimsFromContext reads the identity that jwtauth.Verifier stored in ctx.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil || claims == nil {
		return Claims{}, ErrMissingClaims
	}

	userID, ok := claims[ClaimUserID].(string)
	if !ok || userID == "" {
		return Claims{}, ErrMissingClaims
	}
	workspaceID, ok := claims[ClaimWorkspaceID].(string)
	if !ok || workspaceID == "" {
		return Claims{}, ErrMissingClaims
	}
	role, _ := claims[ClaimRole].(string)

	c := Claims{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        user.Role(role),
	}
	c.Email, _ = claims[ClaimEmail].(string)
	c.Name, _ = claims[ClaimName].(string)
	if employeeID, ok := claims[ClaimEmployeeID].(string); ok && employeeID != "" {
		c.EmployeeID = &employeeID
	}

	return c, nil
}
