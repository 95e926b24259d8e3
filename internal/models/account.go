package models

import "time"

// User is the signed-in account
type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Role      string     `json:"role"` // "ADMIN" or "EDITOR"
	AvatarURL string     `json:"avatarUrl,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitzero"`
}

// ProfileRequest is the body for updating the signed-in user's profile
type ProfileRequest struct {
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

// PasswordChange is the body for changing the signed-in user's password
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Settings holds site-wide studio settings
type Settings struct {
	StudioName   string `json:"studioName"`
	ContactEmail string `json:"contactEmail"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	Tagline      string `json:"tagline,omitempty"`
	Maintenance  bool   `json:"maintenance"`
}

// SocialLink is a link to one of the studio's social profiles
type SocialLink struct {
	ID       int64  `json:"id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// SocialLinkRequest is the body for creating or updating a social link
type SocialLinkRequest struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}
