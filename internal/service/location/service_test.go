package location

import (
	"context"
	"testing"

	"github.com/geopoint/geopoint-backend-go/internal/domain/location"
	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt/jwttest"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocationRepo struct {
	location.LocationRepository
	create  func(ctx context.Context, l location.Location) (location.Location, error)
	getByID func(ctx context.Context, id, ws string) (location.Location, error)
	update  func(ctx context.Context, l location.Location) (location.Location, error)
}

func (f *fakeLocationRepo) Create(ctx context.Context, l location.Location) (location.Location, error) {
	return f.create(ctx, l)
}

func (f *fakeLocationRepo) GetByID(ctx context.Context, id, ws string) (location.Location, error) {
	return f.getByID(ctx, id, ws)
}

func (f *fakeLocationRepo) Update(ctx context.Context, l location.Location) (location.Location, error) {
	return f.update(ctx, l)
}

const locationID = "5d1c7b3e-9a2f-4c6d-8e1b-3f5a7c9e1b2d"

func adminCtx(t *testing.T) context.Context {
	return jwttest.Context(t, jwt.Claims{UserID: "admin-1", WorkspaceID: "ws-1", Role: user.RoleAdmin})
}

func ptr[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	repo := &fakeLocationRepo{create: func(_ context.Context, l location.Location) (location.Location, error) {
		assert.Equal(t, "ws-1", l.WorkspaceID)
		l.ID = locationID
		return l, nil
	}}
	svc := NewLocationService(repo)

	resp, err := svc.Create(adminCtx(t), location.CreateLocationRequest{
		Name: " Sede ", Code: "SEDE-01", Latitude: ptr(-23.5505), Longitude: ptr(-46.6333),
	})
	require.NoError(t, err)
	assert.Equal(t, "Sede", resp.Name)
	assert.True(t, resp.HasGeofence)
}

func TestCreate_DuplicateCode(t *testing.T) {
	repo := &fakeLocationRepo{create: func(context.Context, location.Location) (location.Location, error) {
		return location.Location{}, location.ErrLocationCodeExists
	}}
	_, err := NewLocationService(repo).Create(adminCtx(t), location.CreateLocationRequest{Name: "Sede", Code: "SEDE"})
	assert.ErrorIs(t, err, location.ErrLocationCodeExists)
}

func TestCreate_ReservedCode(t *testing.T) {
	_, err := NewLocationService(&fakeLocationRepo{}).Create(adminCtx(t), location.CreateLocationRequest{Name: "X", Code: "manual-app"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "code")
}

func TestUpdate_ClearCoordinates(t *testing.T) {
	repo := &fakeLocationRepo{
		getByID: func(_ context.Context, id, ws string) (location.Location, error) {
			return location.Location{ID: id, WorkspaceID: ws, Name: "Sede", Code: "SEDE", Latitude: ptr(1.0), Longitude: ptr(2.0)}, nil
		},
		update: func(_ context.Context, l location.Location) (location.Location, error) { return l, nil },
	}

	resp, err := NewLocationService(repo).Update(adminCtx(t), location.UpdateLocationRequest{
		ID: locationID, Name: ptr("Matriz"), ClearCoordinates: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Matriz", resp.Name)
	assert.False(t, resp.HasGeofence)
	assert.Nil(t, resp.Latitude)
}

func TestGet_NotFound(t *testing.T) {
	repo := &fakeLocationRepo{getByID: func(context.Context, string, string) (location.Location, error) {
		return location.Location{}, location.ErrLocationNotFound
	}}
	_, err := NewLocationService(repo).Get(adminCtx(t), locationID)
	assert.ErrorIs(t, err, location.ErrLocationNotFound)
}
