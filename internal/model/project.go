package model

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectOnHold     ProjectStatus = "on-hold"
	ProjectCompleted  ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectInProgress, ProjectOnHold, ProjectCompleted:
		return true
	}
	return false
}

type Project struct {
	ID          int64          `json:"id"`
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Progress    int            `json:"progress"`
	Status      *ProjectStatus `json:"status,omitempty"`
	Priority    *Priority      `json:"priority,omitempty"`
	StartDate   *civil.Date    `json:"start_date,omitempty"`
	DueDate     *civil.Date    `json:"due_date,omitempty"`
	Color       *string        `json:"color,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalid("name", "must not be empty")
	}
	if p.Progress < 0 || p.Progress > 100 {
		return Invalid("progress", "must be between 0 and 100")
	}
	if p.Status != nil && !p.Status.Valid() {
		return Invalid("status", "must be planning, in-progress, on-hold or completed")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return Invalid("priority", "must be low, medium or high")
	}
	if p.StartDate != nil && p.DueDate != nil && p.DueDate.Before(*p.StartDate) {
		return Invalid("due_date", "must not be before start_date")
	}
	return nil
}

type ProjectPatch struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Progress    *int           `json:"progress"`
	Status      *ProjectStatus `json:"status"`
	Priority    *Priority      `json:"priority"`
	StartDate   *civil.Date    `json:"start_date"`
	DueDate     *civil.Date    `json:"due_date"`
	Color       *string        `json:"color"`
}

func (p ProjectPatch) Apply(pr *Project) {
	if p.Name != nil {
		pr.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		pr.Description = p.Description
	}
	if p.Progress != nil {
		pr.Progress = *p.Progress
	}
	if p.Status != nil {
		pr.Status = p.Status
	}
	if p.Priority != nil {
		pr.Priority = p.Priority
	}
	if p.StartDate != nil {
		pr.StartDate = p.StartDate
	}
	if p.DueDate != nil {
		pr.DueDate = p.DueDate
	}
	if p.Color != nil {
		pr.Color = p.Color
	}
}

type ProjectStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	OnHold     int `json:"on_hold"`
}
