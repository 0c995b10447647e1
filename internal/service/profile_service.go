package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"lifeboard/internal/model"
)

type ProfileStore interface {
	UpsertProfile(ctx context.Context, u *model.UserProfile) (*model.UserProfile, error)
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, u *model.UserProfile) error
}

type ProfileService struct {
	store  ProfileStore
	logger *zap.Logger
}

func NewProfileService(store ProfileStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{store: store, logger: logger}
}

// Sync records the identity provider's view of the caller. The id always comes from the token.
func (s *ProfileService) Sync(ctx context.Context, userID string, in model.UserProfile) (*model.UserProfile, error) {
	in.ID = userID
	in.Email = strings.TrimSpace(in.Email)
	if in.DisplayName == nil && in.Email != "" {
		name := strings.SplitN(in.Email, "@", 2)[0]
		in.DisplayName = &name
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.UpsertProfile(ctx, &in)
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	return s.store.GetProfile(ctx, userID)
}

func (s *ProfileService) Update(ctx context.Context, userID string, patch model.ProfilePatch) (*model.UserProfile, error) {
	u, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	patch.Apply(u)
	if err := s.store.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
