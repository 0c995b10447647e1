package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"lifeboard/internal/model"
)

// notes touched within this window count as recent
const recentNoteWindow = 7 * 24 * time.Hour

type NoteStore interface {
	ListNotes(ctx context.Context, userID string) ([]model.Note, error)
	GetNote(ctx context.Context, userID string, id int64) (*model.Note, error)
	CreateNote(ctx context.Context, n *model.Note) error
	UpdateNote(ctx context.Context, n *model.Note) error
	TogglePin(ctx context.Context, userID string, id int64) (*model.Note, error)
	DeleteNote(ctx context.Context, userID string, id int64) error
}

type NoteService struct {
	store  NoteStore
	now    func() time.Time
	logger *zap.Logger
}

func NewNoteService(store NoteStore, logger *zap.Logger) *NoteService {
	return &NoteService{store: store, now: time.Now, logger: logger}
}

func (s *NoteService) WithClock(now func() time.Time) *NoteService {
	s.now = now
	return s
}

// SortNotes orders pinned notes first, then by most recent update.
func SortNotes(notes []model.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].IsPinned != notes[j].IsPinned {
			return notes[i].IsPinned
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
}

// FilterNotes matches category exactly and q against title, content or any tag.
func FilterNotes(notes []model.Note, q, category string) []model.Note {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if category != "" && (n.Category == nil || *n.Category != category) {
			continue
		}
		if q != "" && !noteMatches(n, q) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func noteMatches(n model.Note, q string) bool {
	if containsFold(n.Title, q) || containsFold(n.Content, q) {
		return true
	}
	for _, tag := range n.Tags {
		if containsFold(tag, q) {
			return true
		}
	}
	return false
}

func NoteStatsOf(notes []model.Note, now time.Time) model.NoteStats {
	st := model.NoteStats{Total: len(notes)}
	categories := map[string]struct{}{}
	for _, n := range notes {
		if n.IsPinned {
			st.Pinned++
		}
		if n.Category != nil && *n.Category != "" {
			categories[*n.Category] = struct{}{}
		}
		if now.Sub(n.UpdatedAt) <= recentNoteWindow {
			st.Recent++
		}
	}
	st.Categories = len(categories)
	return st
}

func (s *NoteService) List(ctx context.Context, userID, q, category string) ([]model.Note, error) {
	notes, err := s.store.ListNotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := FilterNotes(notes, q, category)
	SortNotes(out)
	return out, nil
}

func (s *NoteService) Get(ctx context.Context, userID string, id int64) (*model.Note, error) {
	return s.store.GetNote(ctx, userID, id)
}

func (s *NoteService) Create(ctx context.Context, userID string, n *model.Note) error {
	n.UserID = userID
	n.Title = strings.TrimSpace(n.Title)
	if err := n.Validate(); err != nil {
		return err
	}
	return s.store.CreateNote(ctx, n)
}

func (s *NoteService) Update(ctx context.Context, userID string, id int64, patch model.NotePatch) (*model.Note, error) {
	n, err := s.store.GetNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(n)
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NoteService) TogglePin(ctx context.Context, userID string, id int64) (*model.Note, error) {
	return s.store.TogglePin(ctx, userID, id)
}

func (s *NoteService) Delete(ctx context.Context, userID string, id int64) error {
	return s.store.DeleteNote(ctx, userID, id)
}

func (s *NoteService) Stats(ctx context.Context, userID string) (model.NoteStats, error) {
	notes, err := s.store.ListNotes(ctx, userID)
	if err != nil {
		return model.NoteStats{}, err
	}
	return NoteStatsOf(notes, s.now()), nil
}
