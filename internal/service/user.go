package service

import (
	"context"
	"fmt"
	"io"

	"github.com/contactbook/contactbook-go/internal/cache"
	"github.com/contactbook/contactbook-go/internal/media"
	"github.com/contactbook/contactbook-go/internal/model"
)

// UserService handles profile operations for authenticated users.
type UserService struct {
	users    UserStore
	uploader media.Uploader
	cache    *cache.UserCache
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, uploader media.Uploader, userCache *cache.UserCache) *UserService {
	return &UserService{
		users:    users,
		uploader: uploader,
		cache:    userCache,
	}
}

// Me returns the profile of the authenticated user, read through the cache.
func (s *UserService) Me(ctx context.Context, userID int64) (model.UserResponse, error) {
	if user, ok := s.cache.Get(ctx, userID); ok {
		return userResponse(user), nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}

	s.cache.Set(ctx, user)
	return userResponse(user), nil
}

// UpdateAvatar uploads a new avatar image to the media host and persists the
// returned URL. The public ID is derived from the user ID, so re-uploading
// replaces the previous avatar.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int64, file io.Reader) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}

	publicID := fmt.Sprintf("contactbook/avatars/%d", user.ID)
	url, err := s.uploader.Upload(ctx, file, publicID)
	if err != nil {
		return model.UserResponse{}, fmt.Errorf("uploading avatar: %w", err)
	}

	if err := s.users.SetAvatarURL(ctx, user.ID, url); err != nil {
		return model.UserResponse{}, err
	}

	user.AvatarURL = url
	s.cache.Set(ctx, user)
	return userResponse(user), nil
}
