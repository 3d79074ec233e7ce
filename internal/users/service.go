package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/meridian-crm/meridian/internal/auth"
)

// ErrNotImage rejects avatar uploads whose content type is not image/*.
var ErrNotImage = errors.New("users: file must be an image")

// AvatarUploader pushes an image to the external host and returns its
// stable URL.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, userID int64, filename, contentType string, data io.Reader) (string, error)
}

// Service handles profile reads and avatar updates.
type Service struct {
	repo     Repository
	cache    SnapshotCache
	uploader AvatarUploader
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, cache SnapshotCache, uploader AvatarUploader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, uploader: uploader, logger: logger}
}

// Profile returns the current projection of a user.
func (s *Service) Profile(ctx context.Context, userID int64) (auth.Snapshot, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return auth.Snapshot{}, err
	}
	return auth.SnapshotOf(user), nil
}

// UpdateAvatar uploads the image, stores the returned URL, and drops
// the cached snapshot before returning the refreshed profile.
func (s *Service) UpdateAvatar(ctx context.Context, userID int64, filename, contentType string, data io.Reader) (auth.Snapshot, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return auth.Snapshot{}, ErrNotImage
	}
	url, err := s.uploader.UploadAvatar(ctx, userID, filename, contentType, data)
	if err != nil {
		return auth.Snapshot{}, err
	}
	if err := s.repo.UpdateAvatar(ctx, userID, url); err != nil {
		return auth.Snapshot{}, err
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("invalidate snapshot after avatar update", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	return s.Profile(ctx, userID)
}
