package auth

import (
	"strings"

	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/validator"
)

// RegisterRequest creates a workspace together with its first admin.
type RegisterRequest struct {
	WorkspaceName   string `json:"workspace_name"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r *RegisterRequest) Validate() error {
	var errs validator.ValidationErrors

	r.WorkspaceName = strings.TrimSpace(r.WorkspaceName)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	if r.WorkspaceName == "" {
		errs.Add("workspace_name", "workspace_name is required")
	} else if len(r.WorkspaceName) > 255 {
		errs.Add("workspace_name", "workspace_name must not exceed 255 characters")
	}
	if r.Name == "" {
		errs.Add("name", "name is required")
	}
	validateCredentials(&errs, r.Email, r.Password)
	if r.ConfirmPassword != r.Password {
		errs.Add("confirm_password", "password and confirm_password do not match")
	}

	return errs.Err()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	validateCredentials(&errs, r.Email, r.Password)

	return errs.Err()
}

type LoginResponse struct {
	AccessToken          string            `json:"access_token"`
	AccessTokenExpiresAt int64             `json:"access_token_expires_at"`
	User                 user.UserResponse `json:"user"`
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func validateCredentials(errs *validator.ValidationErrors, email, password string) {
	if email == "" {
		errs.Add("email", "email is required")
	} else if len(email) > 254 || !validator.IsValidEmail(email) {
		errs.Add("email", "email must be a valid email address")
	}

	if validator.IsEmpty(password) {
		errs.Add("password", "password is required")
	} else if len(password) < 8 {
		errs.Add("password", "password must be at least 8 characters long")
	} else if len(password) > 72 {
		errs.Add("password", "password must not exceed 72 characters")
	}
}
