package service

import (
	"context"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/storage"
	"inkwell/internal/validation"
)

type ProfileService struct {
	profiles repository.ProfileRepository
	images   *ImageService
}

func NewProfileService(profiles repository.ProfileRepository, images *ImageService) *ProfileService {
	return &ProfileService{profiles: profiles, images: images}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, models.NewValidationError("User ID is required")
	}
	return s.profiles.GetByID(ctx, userID)
}

// Create inserts the profile of userID. Only that user may create it.
func (s *ProfileService) Create(ctx context.Context, userID, username, fullName string) (*models.Profile, error) {
	if err := requireSelf(ctx, userID, "You can only create your own profile"); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	profile := &models.Profile{ID: userID, Username: username, FullName: strings.TrimSpace(fullName)}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error) {
	if err := requireSelf(ctx, userID, "You can only edit your own profile"); err != nil {
		return nil, err
	}
	if update.Username != nil {
		name := strings.TrimSpace(*update.Username)
		if err := validation.ValidateUsername(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		update.Username = &name
	}
	return s.profiles.Update(ctx, userID, update)
}

// UploadAvatar stores the image and returns its public URL. The profile row
// is not touched; callers save the URL with Update.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, upload models.Upload) (string, error) {
	if err := requireSelf(ctx, userID, "You can only change your own avatar"); err != nil {
		return "", err
	}
	key := storage.AvatarKey(userID, upload.Filename, upload.ContentType, time.Now())
	return s.images.put(ctx, "avatar", key, upload)
}

// GetMany returns the profiles of ids keyed by id. Unknown ids are absent.
func (s *ProfileService) GetMany(ctx context.Context, ids []string) (map[string]*models.Profile, error) {
	profiles, err := s.profiles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return byID, nil
}
