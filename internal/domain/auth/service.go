package auth

import "context"

type AuthService interface {
	// Register creates a workspace and its first admin, and logs the admin in
	Register(ctx context.Context, req RegisterRequest) (LoginResponse, error)

	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)

	// IssueSSEToken returns a short-lived token accepted by the event stream
	IssueSSEToken(ctx context.Context) (SSETokenResponse, error)
}
