package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pixelboard/internal/http-api/repository"
	"pixelboard/internal/pixel"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// AvatarService stores and serves 32x32 PNG avatars. Every inbound image is
// validated before it touches the database; nothing partially persists.
type AvatarService interface {
	// SavePaint accepts the base64 (optionally data-URL prefixed) PNG posted
	// by the paint canvas.
	SavePaint(ctx context.Context, userID, pixelData string) error
	// SaveUpload accepts raw multipart PNG bytes.
	SaveUpload(ctx context.Context, userID string, data []byte) error
	// Serve returns the stored avatar, or the synthesized default when the
	// user has none (or doesn't exist).
	Serve(ctx context.Context, userID string) ([]byte, error)
}

type avatarService struct {
	users    repository.UserRepository
	rdb      *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewAvatarService(users repository.UserRepository, rdb *redis.Client, cacheTTL time.Duration, logger *slog.Logger) AvatarService {
	return &avatarService{users: users, rdb: rdb, cacheTTL: cacheTTL, logger: logger}
}

func (s *avatarService) SavePaint(ctx context.Context, userID, pixelData string) error {
	data, err := pixel.DecodeBase64Image(pixelData)
	if err != nil {
		return err
	}
	return s.save(ctx, userID, data)
}

func (s *avatarService) SaveUpload(ctx context.Context, userID string, data []byte) error {
	return s.save(ctx, userID, data)
}

// save is the validate-then-commit path shared by both transport encodings.
func (s *avatarService) save(ctx context.Context, userID string, data []byte) error {
	if _, _, err := pixel.ValidatePNG(data); err != nil {
		return err
	}
	if err := s.users.UpdateAvatar(ctx, userID, data); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *avatarService) Serve(ctx context.Context, userID string) ([]byte, error) {
	if s.rdb != nil {
		if data, err := s.rdb.Get(ctx, avatarKey(userID)).Bytes(); err == nil && len(data) > 0 {
			return data, nil
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	data := pixel.DefaultAvatar()
	if user != nil && len(user.Avatar) > 0 {
		data = user.Avatar
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, avatarKey(userID), data, s.cacheTTL).Err(); err != nil {
			// cache miss path still works; just note it
			s.logger.Warn("avatar cache write failed", "user_id", userID, "error", err)
		}
	}
	return data, nil
}

func (s *avatarService) invalidate(ctx context.Context, userID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, avatarKey(userID)).Err(); err != nil {
		s.logger.Warn("avatar cache invalidation failed", "user_id", userID, "error", err)
	}
}

func avatarKey(userID string) string {
	return "avatar:" + userID
}
