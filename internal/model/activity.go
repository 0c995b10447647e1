package model

import "time"

// Activity is one line of the user's feed, written by the worker from published events.
type Activity struct {
	ID          int64     `json:"id"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	Kind        string    `json:"kind"`
	AggregateID *int64    `json:"aggregate_id,omitempty"`
	Summary     string    `json:"summary"`
	OccurredAt  time.Time `json:"occurred_at"`
	CreatedAt   time.Time `json:"created_at"`
}

type Dashboard struct {
	Tasks    DashboardTasks    `json:"tasks"`
	Projects DashboardProjects `json:"projects"`
	Habits   DashboardHabits   `json:"habits"`
	Finance  DashboardFinance  `json:"finance"`
	Notes    DashboardNotes    `json:"notes"`
}

type DashboardTasks struct {
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	CompletionRate int    `json:"completion_rate"`
	Pending        []Task `json:"pending"`
}

type DashboardProjects struct {
	Total      int `json:"total"`
	InProgress int `json:"in_progress"`
}

type DashboardHabits struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	CurrentStreak  int `json:"current_streak"`
	CompletionRate int `json:"completion_rate"`
	CompletedToday int `json:"completed_today"`
}

type DashboardFinance struct {
	TotalBalanceCents int64 `json:"total_balance_cents"`
	TransactionCount  int   `json:"transaction_count"`
}

type DashboardNotes struct {
	Total  int `json:"total"`
	Pinned int `json:"pinned"`
}
