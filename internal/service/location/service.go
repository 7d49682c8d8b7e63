package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/geopoint/geopoint-backend-go/internal/domain/location"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
)

type LocationServiceImpl struct {
	location.LocationRepository
}

func NewLocationService(locationRepository location.LocationRepository) location.LocationService {
	return &LocationServiceImpl{LocationRepository: locationRepository}
}

// Create implements location.LocationService.
func (s *LocationServiceImpl) Create(ctx context.Context, req location.CreateLocationRequest) (location.LocationResponse, error) {
	if err := req.Validate(); err != nil {
		return location.LocationResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return location.LocationResponse{}, err
	}

	created, err := s.LocationRepository.Create(ctx, location.Location{
		WorkspaceID: claims.WorkspaceID,
		Name:        req.Name,
		Address:     req.Address,
		Code:        req.Code,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		if errors.Is(err, location.ErrLocationCodeExists) {
			return location.LocationResponse{}, err
		}
		return location.LocationResponse{}, fmt.Errorf("failed to create location: %w", err)
	}
	return toResponse(created), nil
}

// Get implements location.LocationService.
func (s *LocationServiceImpl) Get(ctx context.Context, id string) (location.LocationResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return location.LocationResponse{}, err
	}
	loc, err := s.LocationRepository.GetByID(ctx, id, claims.WorkspaceID)
	if err != nil {
		return location.LocationResponse{}, err
	}
	return toResponse(loc), nil
}

// GetByCode implements location.LocationService.
func (s *LocationServiceImpl) GetByCode(ctx context.Context, code string) (location.LocationResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return location.LocationResponse{}, err
	}
	loc, err := s.LocationRepository.GetByCode(ctx, code, claims.WorkspaceID)
	if err != nil {
		return location.LocationResponse{}, err
	}
	return toResponse(loc), nil
}

// List implements location.LocationService.
func (s *LocationServiceImpl) List(ctx context.Context, search *string) ([]location.LocationResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := s.LocationRepository.List(ctx, claims.WorkspaceID, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	resp := make([]location.LocationResponse, 0, len(locations))
	for _, l := range locations {
		resp = append(resp, toResponse(l))
	}
	return resp, nil
}

// Update implements location.LocationService.
func (s *LocationServiceImpl) Update(ctx context.Context, req location.UpdateLocationRequest) (location.LocationResponse, error) {
	if err := req.Validate(); err != nil {
		return location.LocationResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return location.LocationResponse{}, err
	}

	current, err := s.LocationRepository.GetByID(ctx, req.ID, claims.WorkspaceID)
	if err != nil {
		return location.LocationResponse{}, err
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Address != nil {
		current.Address = req.Address
	}
	if req.Code != nil {
		current.Code = *req.Code
	}
	if req.ClearCoordinates {
		current.Latitude, current.Longitude = nil, nil
	} else if req.Latitude != nil {
		current.Latitude, current.Longitude = req.Latitude, req.Longitude
	}

	updated, err := s.LocationRepository.Update(ctx, current)
	if err != nil {
		if errors.Is(err, location.ErrLocationCodeExists) || errors.Is(err, location.ErrLocationNotFound) {
			return location.LocationResponse{}, err
		}
		return location.LocationResponse{}, fmt.Errorf("failed to update location: %w", err)
	}
	return toResponse(updated), nil
}

// Delete implements location.LocationService.
func (s *LocationServiceImpl) Delete(ctx context.Context, id string) error {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	return s.LocationRepository.Delete(ctx, id, claims.WorkspaceID)
}

func toResponse(l location.Location) location.LocationResponse {
	return location.LocationResponse{
		ID:          l.ID,
		Name:        l.Name,
		Address:     l.Address,
		Code:        l.Code,
		Latitude:    l.Latitude,
		Longitude:   l.Longitude,
		HasGeofence: l.Point() != nil,
		CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:   l.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
