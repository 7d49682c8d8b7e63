package user

import "context"

type UserService interface {
	// GetMe returns the caller's profile
	GetMe(ctx context.Context) (UserResponse, error)

	// Staff management (admin)
	List(ctx context.Context, filter UserFilter) (ListUserResponse, error)
	Get(ctx context.Context, id string) (UserResponse, error)
	Create(ctx context.Context, req CreateUserRequest) (UserResponse, error)
	Update(ctx context.Context, req UpdateUserRequest) (UserResponse, error)
	Delete(ctx context.Context, id string) error
}
