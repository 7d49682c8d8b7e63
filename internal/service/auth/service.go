package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/geopoint/geopoint-backend-go/internal/domain/auth"
	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/domain/workspace"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	tx database.Transactor
	user.UserRepository
	workspace.WorkspaceRepository
	jwt.Service
}

func NewAuthService(tx database.Transactor, userRepository user.UserRepository, workspaceRepository workspace.WorkspaceRepository, jwtService jwt.Service) auth.AuthService {
	return &AuthServiceImpl{
		tx:                  tx,
		UserRepository:      userRepository,
		WorkspaceRepository: workspaceRepository,
		Service:             jwtService,
	}
}

func (a *AuthServiceImpl) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register implements auth.AuthService.
func (a *AuthServiceImpl) Register(ctx context.Context, req auth.RegisterRequest) (auth.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.LoginResponse{}, err
	}

	hash, err := a.hashPassword(req.Password)
	if err != nil {
		return auth.LoginResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	var admin user.User
	err = a.tx.WithinTx(ctx, func(txCtx context.Context) error {
		ws, err := a.WorkspaceRepository.Create(txCtx, workspace.Workspace{Name: req.WorkspaceName})
		if err != nil {
			return fmt.Errorf("failed to create workspace: %w", err)
		}

		admin, err = a.UserRepository.Create(txCtx, user.User{
			WorkspaceID:  ws.ID,
			Email:        req.Email,
			Name:         req.Name,
			PasswordHash: hash,
			Role:         user.RoleAdmin,
		})
		if err != nil {
			if errors.Is(err, user.ErrUserEmailExists) {
				return auth.ErrEmailExists
			}
			return fmt.Errorf("failed to create admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return auth.LoginResponse{}, err
	}

	return a.issue(admin)
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.LoginResponse{}, err
	}

	userData, err := a.UserRepository.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.LoginResponse{}, auth.ErrInvalidCredentials
		}
		return auth.LoginResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userData.PasswordHash), []byte(req.Password)); err != nil {
		return auth.LoginResponse{}, auth.ErrInvalidCredentials
	}

	return a.issue(userData)
}

// IssueSSEToken implements auth.AuthService.
func (a *AuthServiceImpl) IssueSSEToken(ctx context.Context) (auth.SSETokenResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return auth.SSETokenResponse{}, err
	}

	token, expiresIn, err := a.Service.GenerateSSEToken(claims)
	if err != nil {
		return auth.SSETokenResponse{}, fmt.Errorf("failed to create sse token: %w", err)
	}
	return auth.SSETokenResponse{Token: token, ExpiresIn: expiresIn}, nil
}

func (a *AuthServiceImpl) issue(u user.User) (auth.LoginResponse, error) {
	token, expiresAt, err := a.Service.GenerateAccessToken(u)
	if err != nil {
		return auth.LoginResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	return auth.LoginResponse{
		AccessToken:          token,
		AccessTokenExpiresAt: expiresAt,
		User:                 user.ToResponse(u),
	}, nil
}
