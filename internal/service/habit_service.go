package service

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"lifeboard/internal/habit"
	"lifeboard/internal/model"
)

type HabitStore interface {
	ListHabits(ctx context.Context, userID string) ([]model.Habit, error)
	GetHabit(ctx context.Context, userID string, id int64) (*model.Habit, error)
	CreateHabit(ctx context.Context, h *model.Habit) error
	UpdateHabit(ctx context.Context, h *model.Habit) error
	DeleteHabit(ctx context.Context, userID string, id int64) error
}

type EntryStore interface {
	habit.EntryStore
	ListEntries(ctx context.Context, f model.EntryFilter) ([]model.HabitEntry, error)
	UpsertEntry(ctx context.Context, userID string, in model.EntryUpsert) (*model.HabitEntry, error)
}

// HabitStats is the /habits/stats payload.
type HabitStats struct {
	Summary        habit.Summary `json:"summary"`
	CompletedToday int           `json:"completed_today"`
	Habits         []habit.Stats `json:"habits"`
	Date           civil.Date    `json:"date"`
}

type HabitService struct {
	habits  HabitStore
	entries EntryStore
	toggler *habit.Toggler
	now     func() time.Time
	loc     *time.Location
	logger  *zap.Logger
}

func NewHabitService(habits HabitStore, entries EntryStore, locks habit.Locker, loc *time.Location, logger *zap.Logger) *HabitService {
	if loc == nil {
		loc = time.UTC
	}
	return &HabitService{
		habits:  habits,
		entries: entries,
		toggler: habit.NewToggler(entries, locks, logger),
		now:     time.Now,
		loc:     loc,
		logger:  logger,
	}
}

// WithClock replaces the wall clock, for tests.
func (s *HabitService) WithClock(now func() time.Time) *HabitService {
	s.now = now
	return s
}

// Today is the current calendar day in the configured time zone.
func (s *HabitService) Today() civil.Date {
	return habit.Today(s.now(), s.loc)
}

func (s *HabitService) List(ctx context.Context, userID string) ([]model.Habit, error) {
	return s.habits.ListHabits(ctx, userID)
}

func (s *HabitService) Create(ctx context.Context, userID string, h *model.Habit) error {
	h.UserID = userID
	if h.Frequency == "" {
		h.Frequency = model.FrequencyDaily
	}
	if err := h.Validate(); err != nil {
		return err
	}
	return s.habits.CreateHabit(ctx, h)
}

func (s *HabitService) Update(ctx context.Context, userID string, id int64, patch model.HabitPatch) (*model.Habit, error) {
	h, err := s.habits.GetHabit(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(h)
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if err := s.habits.UpdateHabit(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *HabitService) Delete(ctx context.Context, userID string, id int64) error {
	return s.habits.DeleteHabit(ctx, userID, id)
}

func (s *HabitService) ListEntries(ctx context.Context, f model.EntryFilter) ([]model.HabitEntry, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, model.Invalid("end_date", "must not be before start_date")
	}
	return s.entries.ListEntries(ctx, f)
}

func (s *HabitService) UpsertEntry(ctx context.Context, userID string, in model.EntryUpsert) (*model.HabitEntry, error) {
	if in.HabitID <= 0 {
		return nil, model.Invalid("habit_id", "is required")
	}
	if !in.Date.IsValid() {
		return nil, model.Invalid("date", "must be a calendar date")
	}
	return s.entries.UpsertEntry(ctx, userID, in)
}

// DeleteEntry succeeds when the entry is already gone.
func (s *HabitService) DeleteEntry(ctx context.Context, userID string, id int64) error {
	err := s.entries.DeleteEntry(ctx, userID, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	return err
}

// Toggle flips the habit's entry on date, or today when date is nil.
func (s *HabitService) Toggle(ctx context.Context, userID string, habitID int64, date *civil.Date) (habit.Result, error) {
	day := s.Today()
	if date != nil {
		day = *date
	}
	if !day.IsValid() {
		return habit.Result{}, model.Invalid("date", "must be a calendar date")
	}
	if _, err := s.habits.GetHabit(ctx, userID, habitID); err != nil {
		return habit.Result{}, err
	}
	return s.toggler.Toggle(ctx, userID, habitID, day)
}

// snapshot loads habits and every entry a streak or rate can look at.
func (s *HabitService) snapshot(ctx context.Context, userID string, today civil.Date) ([]model.Habit, []model.HabitEntry, error) {
	habits, err := s.habits.ListHabits(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	from := today.AddDays(-habit.StreakLookback)
	entries, err := s.entries.ListEntries(ctx, model.EntryFilter{UserID: userID, From: &from})
	if err != nil {
		return nil, nil, err
	}
	return habits, entries, nil
}

func (s *HabitService) Stats(ctx context.Context, userID string) (*HabitStats, error) {
	today := s.Today()
	habits, entries, err := s.snapshot(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	return &HabitStats{
		Summary:        habit.Summarize(habits, entries, today),
		CompletedToday: habit.CompletedOn(entries, today),
		Habits:         habit.PerHabit(habits, entries, today),
		Date:           today,
	}, nil
}
