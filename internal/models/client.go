package models

import "time"

// Client is a customer the studio has worked with, shown with a logo
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Website   string    `json:"website,omitempty"`
	LogoURL   string    `json:"logoUrl,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// ClientRequest is the body for creating or updating a client
type ClientRequest struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}

// Review is a customer testimonial
type Review struct {
	ID         int64     `json:"id"`
	AuthorName string    `json:"authorName"`
	AuthorRole string    `json:"authorRole,omitempty"`
	Content    string    `json:"content"`
	Rating     int       `json:"rating"` // 1-5
	ImageURL   string    `json:"imageUrl,omitempty"`
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
}

// ReviewRequest is the body for creating or updating a review
type ReviewRequest struct {
	AuthorName string `json:"authorName"`
	AuthorRole string `json:"authorRole,omitempty"`
	Content    string `json:"content"`
	Rating     int    `json:"rating"`
}

// PublishRequest toggles public visibility
type PublishRequest struct {
	Published bool `json:"published"`
}

// Contact is a message submitted through the public contact form
type Contact struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	RepliedAt *time.Time `json:"repliedAt,omitzero"` // nil until replied
	CreatedAt time.Time  `json:"createdAt,omitzero"`
}

// ContactReply is the body for replying to a contact message
type ContactReply struct {
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}
