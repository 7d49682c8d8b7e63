package user

import (
	"context"
	"testing"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/schedule"
	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt/jwttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminID    = "0b1c2d3e-4f5a-4b6c-8d7e-9f0a1b2c3d4e"
	staffID    = "1c2d3e4f-5a6b-4c7d-9e8f-0a1b2c3d4e5f"
	scheduleID = "2d3e4f5a-6b7c-4d8e-8f9a-1b2c3d4e5f6a"
)

type fakeUserRepo struct {
	user.UserRepository
	users     map[string]user.User
	created   *user.User
	deleted   string
	deleteErr error
}

func (f *fakeUserRepo) GetByID(_ context.Context, id, ws string) (user.User, error) {
	u, ok := f.users[id]
	if !ok || u.WorkspaceID != ws {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) Create(_ context.Context, u user.User) (user.User, error) {
	u.ID = staffID
	u.CreatedAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f.created = &u
	return u, nil
}

func (f *fakeUserRepo) Update(_ context.Context, u user.User) (user.User, error) {
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id, _ string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = id
	return nil
}

type recordingInvalidator struct {
	workspaces []string
}

func (r *recordingInvalidator) InvalidateWorkspace(_ context.Context, workspaceID string) error {
	r.workspaces = append(r.workspaces, workspaceID)
	return nil
}

func (f *fakeUserRepo) List(context.Context, user.UserFilter, string) ([]user.User, int64, error) {
	var out []user.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, 45, nil
}

type fakeScheduleRepo struct {
	schedule.WorkScheduleRepository
}

func (fakeScheduleRepo) GetByID(_ context.Context, id, _ string) (schedule.WorkSchedule, error) {
	if id == scheduleID {
		return schedule.WorkSchedule{ID: id}, nil
	}
	return schedule.WorkSchedule{}, schedule.ErrWorkScheduleNotFound
}

func newRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]user.User{
		adminID: {ID: adminID, WorkspaceID: "ws-1", Name: "Ana", Email: "ana@veroponto.com.br", Role: user.RoleAdmin},
		staffID: {ID: staffID, WorkspaceID: "ws-1", Name: "Bruno", Email: "bruno@veroponto.com.br", Role: user.RoleEmployee},
	}}
}

func adminCtx(t *testing.T) context.Context {
	return jwttest.Context(t, jwt.Claims{UserID: adminID, WorkspaceID: "ws-1", Role: user.RoleAdmin})
}

func ptr[T any](v T) *T { return &v }

func TestCreate_HashesPassword(t *testing.T) {
	repo := newRepo()
	svc := NewUserService(repo, fakeScheduleRepo{}, nil)

	resp, err := svc.Create(adminCtx(t), user.CreateUserRequest{
		Email: " Carla@VeroPonto.com.br ", Name: "Carla", Password: "s3nha-forte", ScheduleID: ptr(scheduleID),
	})
	require.NoError(t, err)
	assert.Equal(t, "carla@veroponto.com.br", resp.Email)
	assert.Equal(t, string(user.RoleEmployee), resp.Role)

	require.NotNil(t, repo.created)
	assert.Equal(t, "ws-1", repo.created.WorkspaceID)
	assert.NotEqual(t, "s3nha-forte", repo.created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("s3nha-forte")))
}

func TestCreate_UnknownSchedule(t *testing.T) {
	repo := newRepo()
	_, err := NewUserService(repo, fakeScheduleRepo{}, nil).Create(adminCtx(t), user.CreateUserRequest{
		Email: "x@y.com", Name: "X", Password: "12345678", ScheduleID: ptr("9f8e7d6c-5b4a-4c3d-8e2f-1a0b9c8d7e6f"),
	})
	assert.ErrorIs(t, err, user.ErrUnknownSchedule)
	assert.Nil(t, repo.created)
}

func TestUpdate(t *testing.T) {
	repo := newRepo()
	svc := NewUserService(repo, fakeScheduleRepo{}, nil)

	resp, err := svc.Update(adminCtx(t), user.UpdateUserRequest{ID: staffID, Name: ptr(" Bruno S. "), ScheduleID: ptr(scheduleID)})
	require.NoError(t, err)
	assert.Equal(t, "Bruno S.", resp.Name)
	require.NotNil(t, resp.ScheduleID)

	resp, err = svc.Update(adminCtx(t), user.UpdateUserRequest{ID: staffID, ClearSchedule: true})
	require.NoError(t, err)
	assert.Nil(t, resp.ScheduleID)
}

func TestUpdate_CannotDemoteSelf(t *testing.T) {
	svc := NewUserService(newRepo(), fakeScheduleRepo{}, nil)
	_, err := svc.Update(adminCtx(t), user.UpdateUserRequest{ID: adminID, Role: ptr(string(user.RoleEmployee))})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestDelete(t *testing.T) {
	repo := newRepo()
	svc := NewUserService(repo, fakeScheduleRepo{}, nil)

	assert.ErrorIs(t, svc.Delete(adminCtx(t), adminID), user.ErrCannotDeleteSelf)
	require.NoError(t, svc.Delete(adminCtx(t), staffID))
	assert.Equal(t, staffID, repo.deleted)
}

func TestList_TotalPages(t *testing.T) {
	svc := NewUserService(newRepo(), fakeScheduleRepo{}, nil)
	resp, err := svc.List(adminCtx(t), user.UserFilter{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Len(t, resp.Users, 2)
}

func TestGetMe(t *testing.T) {
	svc := NewUserService(newRepo(), fakeScheduleRepo{}, nil)
	resp, err := svc.GetMe(adminCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "Ana", resp.Name)

	_, err = svc.Get(adminCtx(t), "missing")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestUpdateAndDelete_InvalidateCachedReports(t *testing.T) {
	repo := newRepo()
	reports := &recordingInvalidator{}
	svc := NewUserService(repo, fakeScheduleRepo{}, reports)

	_, err := svc.Update(adminCtx(t), user.UpdateUserRequest{ID: staffID, ScheduleID: ptr(scheduleID)})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(adminCtx(t), staffID))

	assert.Equal(t, []string{"ws-1", "ws-1"}, reports.workspaces)
}

func TestDelete_UserWithHistory(t *testing.T) {
	repo := newRepo()
	repo.deleteErr = user.ErrUserHasRecords
	reports := &recordingInvalidator{}
	svc := NewUserService(repo, fakeScheduleRepo{}, reports)

	err := svc.Delete(adminCtx(t), staffID)
	assert.ErrorIs(t, err, user.ErrUserHasRecords)
	assert.Empty(t, repo.deleted)
	assert.Empty(t, reports.workspaces)
}
