package models

import "time"

// Work is a portfolio entry
type Work struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug,omitempty"`
	Description string         `json:"description,omitempty"`
	ServiceID   *int64         `json:"serviceId,omitempty"`
	ClientID    *int64         `json:"clientId,omitempty"`
	Media       []MediaItem    `json:"media,omitempty"`
	Gallery     []GalleryImage `json:"gallery,omitempty"`
	Published   bool           `json:"published"`
	CreatedAt   time.Time      `json:"createdAt,omitzero"`
}

// WorkRequest is the body (or the JSON "data" part) for creating or updating a work
type WorkRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ServiceID   *int64 `json:"serviceId,omitempty"`
	ClientID    *int64 `json:"clientId,omitempty"`
	Published   bool   `json:"published"`
}

// MediaItem is a cover image or video attached to a work
type MediaItem struct {
	ID       int64  `json:"id"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// GalleryImage is one image in a work's gallery
type GalleryImage struct {
	ID       int64  `json:"id"`
	WorkID   int64  `json:"workId"`
	URL      string `json:"url"`
	Caption  string `json:"caption,omitempty"`
	Position int    `json:"position"`
}
