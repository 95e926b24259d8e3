package testutil

import (
	"time"

	"github.com/fjmerc/studiodesk/internal/models"
)

// SampleUser returns a signed-in editor
func SampleUser() *models.User {
	return &models.User{
		ID:       1,
		Email:    "editor@example.com",
		FullName: "Test Editor",
		Role:     "EDITOR",
	}
}

// SampleAdmin returns a signed-in administrator
func SampleAdmin() *models.User {
	return &models.User{
		ID:       2,
		Email:    "admin@example.com",
		FullName: "Studio Admin",
		Role:     "ADMIN",
	}
}

// SampleCategories returns three categories in display order
func SampleCategories() []models.Category {
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	return []models.Category{
		{ID: 1, Name: "Weddings", Slug: "weddings", Position: 0, Active: true, CreatedAt: now},
		{ID: 2, Name: "Portraits", Slug: "portraits", Position: 1, Active: true, CreatedAt: now},
		{ID: 3, Name: "Corporate", Slug: "corporate", Position: 2, Active: false, CreatedAt: now},
	}
}

// SampleWork returns a published work with one media item
func SampleWork() *models.Work {
	return &models.Work{
		ID:        10,
		Title:     "Harbour Launch",
		Slug:      "harbour-launch",
		Published: true,
		Media: []models.MediaItem{
			{ID: 100, URL: "/media/10/cover.jpg", MimeType: "image/jpeg", Size: 204800},
		},
	}
}

// SampleSettings returns site settings
func SampleSettings() *models.Settings {
	return &models.Settings{
		StudioName:   "North Light Studio",
		ContactEmail: "hello@example.com",
		Tagline:      "Stories in frames",
	}
}
