package model

import (
	"strings"
	"time"
)

// UserProfile mirrors the identity provider's account; ID is the token subject.
type UserProfile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name,omitempty"`
	FirstName   *string   `json:"first_name,omitempty"`
	LastName    *string   `json:"last_name,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *UserProfile) Validate() error {
	if u.ID == "" {
		return Invalid("id", "is required")
	}
	if !strings.Contains(u.Email, "@") {
		return Invalid("email", "must be an email address")
	}
	return nil
}

type ProfilePatch struct {
	DisplayName *string `json:"display_name"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	AvatarURL   *string `json:"avatar_url"`
}

func (p ProfilePatch) Apply(u *UserProfile) {
	if p.DisplayName != nil {
		u.DisplayName = p.DisplayName
	}
	if p.FirstName != nil {
		u.FirstName = p.FirstName
	}
	if p.LastName != nil {
		u.LastName = p.LastName
	}
	if p.AvatarURL != nil {
		u.AvatarURL = p.AvatarURL
	}
}
