package models

import "time"

// Category groups services on the public site
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug,omitempty"`
	Description string    `json:"description,omitempty"`
	Position    int       `json:"position"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// CategoryRequest is the body for creating or updating a category
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

// ReorderRequest sets the display order of categories; IDs are in the new order
type ReorderRequest struct {
	IDs []int64 `json:"ids"`
}

// Service is an offering sold by the studio
type Service struct {
	ID           int64     `json:"id"`
	CategoryID   int64     `json:"categoryId"`
	CategoryName string    `json:"categoryName,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency,omitempty"`
	Duration     string    `json:"duration,omitempty"` // free text, e.g. "2 hours"
	Featured     bool      `json:"featured"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// ServiceRequest is the body for creating or updating a service
type ServiceRequest struct {
	CategoryID  int64   `json:"categoryId"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	Featured    bool    `json:"featured"`
}
