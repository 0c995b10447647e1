package model

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	}
	return false
}

type Habit struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	Frequency   Frequency `json:"frequency"`
	TargetDays  *int      `json:"target_days,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HabitPatch carries a partial update; nil fields are left untouched.
type HabitPatch struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Color       *string    `json:"color"`
	Frequency   *Frequency `json:"frequency"`
	TargetDays  *int       `json:"target_days"`
}

// Apply writes the non-nil fields of p onto h.
func (p HabitPatch) Apply(h *Habit) {
	if p.Name != nil {
		h.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		h.Description = p.Description
	}
	if p.Color != nil {
		h.Color = p.Color
	}
	if p.Frequency != nil {
		h.Frequency = *p.Frequency
	}
	if p.TargetDays != nil {
		h.TargetDays = p.TargetDays
	}
	if h.Frequency != FrequencyCustom {
		h.TargetDays = nil
	}
}

// Validate checks the invariants every stored habit must hold.
func (h *Habit) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return Invalid("name", "must not be empty")
	}
	if !h.Frequency.Valid() {
		return Invalid("frequency", "must be daily, weekly or custom")
	}
	if h.TargetDays != nil {
		if h.Frequency != FrequencyCustom {
			return Invalid("target_days", "only allowed for custom frequency")
		}
		if *h.TargetDays < 1 || *h.TargetDays > 7 {
			return Invalid("target_days", "must be between 1 and 7")
		}
	}
	return nil
}

// HabitEntry records one habit on one calendar day. At most one exists per (HabitID, Date).
type HabitEntry struct {
	ID        int64      `json:"id"`
	UserID    string     `json:"user_id"`
	HabitID   int64      `json:"habit_id"`
	Date      civil.Date `json:"date"`
	Completed bool       `json:"completed"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// EntryFilter narrows an entry listing; zero values mean "no constraint".
type EntryFilter struct {
	UserID  string
	HabitID *int64
	From    *civil.Date
	To      *civil.Date
}

// EntryUpsert is the body of an explicit create-or-update of a day's entry.
type EntryUpsert struct {
	HabitID   int64      `json:"habit_id"`
	Date      civil.Date `json:"date"`
	Completed *bool      `json:"completed"`
	Notes     *string    `json:"notes"`
}
