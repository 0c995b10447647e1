package model

import (
	"strings"
	"time"
)

type Note struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  *string   `json:"category,omitempty"`
	Tags      []string  `json:"tags"`
	IsPinned  bool      `json:"is_pinned"`
	Color     *string   `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Note) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return Invalid("title", "must not be empty")
	}
	for _, t := range n.Tags {
		if strings.TrimSpace(t) == "" {
			return Invalid("tags", "must not contain empty tags")
		}
	}
	return nil
}

type NotePatch struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
	IsPinned *bool     `json:"is_pinned"`
	Color    *string   `json:"color"`
}

func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Category != nil {
		n.Category = p.Category
	}
	if p.Tags != nil {
		n.Tags = *p.Tags
	}
	if p.IsPinned != nil {
		n.IsPinned = *p.IsPinned
	}
	if p.Color != nil {
		n.Color = p.Color
	}
}

type NoteStats struct {
	Total      int `json:"total"`
	Pinned     int `json:"pinned"`
	Categories int `json:"categories"`
	Recent     int `json:"recent"`
}
