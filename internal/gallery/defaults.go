package gallery

import (
	"time"

	"pixelperfect/internal/model"
)

// Defaults returns the portfolio the studio starts with.
func Defaults() []model.GalleryItem {
	return []model.GalleryItem{
		{
			ID:          "1",
			Title:       "Elegant Wedding Ceremony",
			Description: "Beautiful outdoor wedding ceremony captured in golden hour light",
			Category:    "Wedding",
			ImageURL:    "https://images.pexels.com/photos/1024993/pexels-photo-1024993.jpeg",
			IsPublished: true,
			IsFeatured:  true,
			Tags:        []string{"wedding", "outdoor", "golden hour"},
			CreatedAt:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			ID:          "2",
			Title:       "Professional Headshot",
			Description: "Corporate headshot with natural lighting and professional styling",
			Category:    "Portrait",
			ImageURL:    "https://images.pexels.com/photos/774909/pexels-photo-774909.jpeg",
			IsPublished: true,
			Tags:        []string{"portrait", "professional", "headshot"},
			CreatedAt:   time.Date(2024, 1, 12, 14, 20, 0, 0, time.UTC),
		},
		{
			ID:          "3",
			Title:       "Corporate Event",
			Description: "Professional event photography capturing key moments and interactions",
			Category:    "Event",
			ImageURL:    "https://images.pexels.com/photos/1105666/pexels-photo-1105666.jpeg",
			IsPublished: true,
			Tags:        []string{"event", "corporate", "business"},
			CreatedAt:   time.Date(2024, 1, 10, 16, 45, 0, 0, time.UTC),
		},
		{
			ID:          "4",
			Title:       "Product Photography",
			Description: "High-end commercial photography for brand marketing",
			Category:    "Commercial",
			ImageURL:    "https://images.pexels.com/photos/1222271/pexels-photo-1222271.jpeg",
			Tags:        []string{"commercial", "product", "marketing"},
			CreatedAt:   time.Date(2024, 1, 8, 11, 15, 0, 0, time.UTC),
		},
	}
}
