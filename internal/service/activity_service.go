package service

import (
	"context"

	"lifeboard/internal/model"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

type ActivityStore interface {
	RecordActivity(ctx context.Context, a *model.Activity) (bool, error)
	ListActivity(ctx context.Context, userID string, limit int) ([]model.Activity, error)
}

type ActivityService struct {
	store ActivityStore
}

func NewActivityService(store ActivityStore) *ActivityService {
	return &ActivityService{store: store}
}

// List clamps limit to [1, 100]; zero or negative means the default of 20.
func (s *ActivityService) List(ctx context.Context, userID string, limit int) ([]model.Activity, error) {
	switch {
	case limit <= 0:
		limit = defaultActivityLimit
	case limit > maxActivityLimit:
		limit = maxActivityLimit
	}
	return s.store.ListActivity(ctx, userID, limit)
}

// Record reports false for an event that was already recorded.
func (s *ActivityService) Record(ctx context.Context, a *model.Activity) (bool, error) {
	return s.store.RecordActivity(ctx, a)
}
