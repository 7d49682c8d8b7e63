// Package jwttest builds authenticated contexts for service and handler tests.
package jwttest

import (
	"context"
	"testing"

	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

const Secret = "jwttest-secret"

// Context returns ctx carrying a verified token with the given identity.
func Context(t testing.TB, c jwt.Claims) context.Context {
	t.Helper()

	claims := map[string]interface{}{
		jwt.ClaimUserID:      c.UserID,
		jwt.ClaimWorkspaceID: c.WorkspaceID,
		jwt.ClaimRole:        string(c.Role),
		jwt.ClaimEmail:       c.Email,
		jwt.ClaimName:        c.Name,
		jwt.ClaimType:        jwt.TokenTypeAccess,
	}
	if c.EmployeeID != nil {
		claims[jwt.ClaimEmployeeID] = *c.EmployeeID
	}

	ja := jwtauth.New("HS256", []byte(Secret), nil)
	token, _, err := ja.Encode(claims)
	if err != nil {
		t.Fatalf("encode token: %v", err)
	}
	return jwtauth.NewContext(context.Background(), token, nil)
}
