package model

import "time"

// GalleryItem is one portfolio image.
type GalleryItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	IsPublished bool      `json:"is_published"`
	IsFeatured  bool      `json:"is_featured"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}
