package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/models"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
)

type objectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

type backgroundPreferences interface {
	Value(ctx context.Context, userID, key string) (string, error)
	SetSystem(ctx context.Context, userID, key, value string) error
}

// BackgroundServiceConfig gates and limits uploads.
type BackgroundServiceConfig struct {
	Enabled      bool
	MaxFileSize  int64
	AllowedMIMEs []string
	URLTTL       time.Duration
}

// BackgroundService stores planner background images in the object store.
type BackgroundService struct {
	store   objectStore
	prefs   backgroundPreferences
	logger  *zap.Logger
	cfg     BackgroundServiceConfig
	allowed map[string]struct{}
}

// NewBackgroundService constructs a BackgroundService. A nil store disables uploads.
func NewBackgroundService(store objectStore, prefs backgroundPreferences, logger *zap.Logger, cfg BackgroundServiceConfig) *BackgroundService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = time.Hour
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mime := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(mime))] = struct{}{}
	}
	return &BackgroundService{store: store, prefs: prefs, logger: logger, cfg: cfg, allowed: allowed}
}

func (s *BackgroundService) enabled() bool {
	return s.cfg.Enabled && s.store != nil
}

// Upload stores the image and records its object key on the user's
// preferences. The previous image is removed once the new key is saved.
func (s *BackgroundService) Upload(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*dto.BackgroundResponse, error) {
	if !s.enabled() {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "background uploads are disabled")
	}
	if size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	if s.cfg.MaxFileSize > 0 && size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
	}
	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if _, ok := s.allowed[mime]; !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("content type %q is not allowed", mime))
	}

	previous, err := s.prefs.Value(ctx, userID, models.PrefBackgroundObject)
	if err != nil {
		return nil, err
	}

	key := path.Join("backgrounds", userID, uuid.NewString()+strings.ToLower(path.Ext(filename)))
	if err := s.store.Put(ctx, key, r, size, mime); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store background")
	}
	if err := s.prefs.SetSystem(ctx, userID, models.PrefBackgroundObject, key); err != nil {
		if rmErr := s.store.Remove(ctx, key); rmErr != nil {
			s.logger.Warn("failed to remove orphaned background", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, err
	}
	if previous != "" && previous != key {
		if err := s.store.Remove(ctx, previous); err != nil {
			s.logger.Warn("failed to remove previous background", zap.String("key", previous), zap.Error(err))
		}
	}
	s.logger.Info("background uploaded", zap.String("user_id", userID), zap.String("key", key), zap.Int64("size", size))
	return s.response(ctx, key)
}

// URL returns a presigned link to the user's current background.
func (s *BackgroundService) URL(ctx context.Context, userID string) (*dto.BackgroundResponse, error) {
	if !s.enabled() {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "background uploads are disabled")
	}
	key, err := s.prefs.Value(ctx, userID, models.PrefBackgroundObject)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no background uploaded")
	}
	return s.response(ctx, key)
}

func (s *BackgroundService) response(ctx context.Context, key string) (*dto.BackgroundResponse, error) {
	link, err := s.store.PresignedURL(ctx, key, s.cfg.URLTTL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign background url")
	}
	return &dto.BackgroundResponse{Object: key, URL: link, ExpiresIn: int64(s.cfg.URLTTL.Seconds())}, nil
}
