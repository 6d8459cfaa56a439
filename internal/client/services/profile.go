package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/pup/internal/client/models"
	"github.com/dmitrijs2005/pup/internal/filex"
	"github.com/dmitrijs2005/pup/internal/netx"
)

// MaxPhotoBytes caps a single photo upload.
const MaxPhotoBytes = 5 << 20

// upload is swapped in tests.
var upload = netx.UploadToPresignedURL

type ProfileService struct {
	api  API
	http *http.Client
}

// NewProfileService builds the service; h is used for the direct upload to
// object storage and may be nil.
func NewProfileService(api API, h *http.Client) *ProfileService {
	return &ProfileService{api: api, http: h}
}

func (s *ProfileService) Get(ctx context.Context) (*models.ProfileView, error) {
	var out models.ProfileView
	if err := s.api.Do(ctx, http.MethodGet, pathProfile, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProfileService) Update(ctx context.Context, patch models.ProfilePatch) (*models.ProfileView, error) {
	var out models.ProfileView
	if err := s.api.Do(ctx, http.MethodPut, pathProfile, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProfileService) PhotoUploadURL(ctx context.Context) (*models.PhotoUpload, error) {
	var out models.PhotoUpload
	if err := s.api.Do(ctx, http.MethodPost, pathProfilePhoto, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadPhoto sends the image at path straight to object storage and then
// appends its key to the profile photos.
func (s *ProfileService) UploadPhoto(ctx context.Context, path string) (*models.ProfileView, error) {
	data, contentType, err := filex.ReadPhoto(path, MaxPhotoBytes)
	if err != nil {
		return nil, err
	}

	slot, err := s.PhotoUploadURL(ctx)
	if err != nil {
		return nil, err
	}
	if err := upload(ctx, s.http, slot.UploadURL, contentType, data); err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	var photos []string
	if current.Profile != nil {
		photos = append(photos, current.Profile.Photos...)
	}
	photos = append(photos, slot.Key)

	return s.Update(ctx, models.ProfilePatch{Photos: &photos})
}
