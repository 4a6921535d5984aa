// Package gallery keeps the studio portfolio in memory.
package gallery

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pixelperfect/internal/booking"
	"pixelperfect/internal/model"
)

var ErrItemNotFound = errors.New("gallery item not found")

// Categories lists the categories an item may be filed under.
type Categories interface {
	Categories() []string
}

// Draft is the input of Create.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"image_url"`
	Tags        []string `json:"tags"`
	Publish     bool     `json:"is_published"`
	Feature     bool     `json:"is_featured"`
}

// Edit lists the fields Update may change. Nil fields are left untouched.
type Edit struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	ImageURL    *string   `json:"image_url"`
	Tags        *[]string `json:"tags"`
}

// Filter narrows List. Category "all" or empty matches everything.
type Filter struct {
	Search        string
	Category      string
	PublishedOnly bool
}

func (f Filter) match(it *model.GalleryItem) bool {
	if f.PublishedOnly && !it.IsPublished {
		return false
	}
	if f.Category != "" && f.Category != "all" && it.Category != f.Category {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Description), q) {
		return true
	}
	return slices.ContainsFunc(it.Tags, func(tag string) bool {
		return strings.Contains(tag, q)
	})
}

// Store is the in-memory gallery.
type Store struct {
	mu    sync.RWMutex
	items map[string]*model.GalleryItem

	categories Categories
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates a store seeded with items. categories may be nil, in which
// case any non-empty category is accepted.
func New(categories Categories, items []model.GalleryItem, logger *zerolog.Logger) *Store {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "gallery").Logger()
	}
	s := &Store{
		items:      make(map[string]*model.GalleryItem, len(items)),
		categories: categories,
		logger:     l,
		now:        time.Now,
	}
	for i := range items {
		it := items[i]
		it.Tags = slices.Clone(it.Tags)
		s.items[it.ID] = &it
	}
	return s
}

// List returns matching items, newest first.
func (s *Store) List(_ context.Context, f Filter) []model.GalleryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.GalleryItem, 0, len(s.items))
	for _, it := range s.items {
		if f.match(it) {
			result = append(result, clone(it))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *Store) Get(_ context.Context, id string) (model.GalleryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return model.GalleryItem{}, ErrItemNotFound
	}
	return clone(it), nil
}

// Create validates the draft and adds it under a fresh id.
func (s *Store) Create(_ context.Context, d Draft) (model.GalleryItem, error) {
	it := model.GalleryItem{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Category:    strings.TrimSpace(d.Category),
		ImageURL:    strings.TrimSpace(d.ImageURL),
		IsPublished: d.Publish,
		IsFeatured:  d.Feature,
		Tags:        normalizeTags(d.Tags),
		CreatedAt:   s.now().UTC(),
	}
	if fe := s.validate(&it); len(fe) > 0 {
		return model.GalleryItem{}, fe
	}

	s.mu.Lock()
	s.items[it.ID] = &it
	s.mu.Unlock()

	s.logger.Info().Str("item_id", it.ID).Str("category", it.Category).Msg("gallery item added")
	return clone(&it), nil
}

// Update applies the edit. Nothing is stored when validation fails.
func (s *Store) Update(_ context.Context, id string, e Edit) (model.GalleryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[id]
	if !ok {
		return model.GalleryItem{}, ErrItemNotFound
	}
	next := clone(cur)
	if e.Title != nil {
		next.Title = strings.TrimSpace(*e.Title)
	}
	if e.Description != nil {
		next.Description = strings.TrimSpace(*e.Description)
	}
	if e.Category != nil {
		next.Category = strings.TrimSpace(*e.Category)
	}
	if e.ImageURL != nil {
		next.ImageURL = strings.TrimSpace(*e.ImageURL)
	}
	if e.Tags != nil {
		next.Tags = normalizeTags(*e.Tags)
	}
	if fe := s.validate(&next); len(fe) > 0 {
		return model.GalleryItem{}, fe
	}
	*cur = next
	return clone(cur), nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrItemNotFound
	}
	delete(s.items, id)
	s.logger.Info().Str("item_id", id).Msg("gallery item deleted")
	return nil
}

// TogglePublished flips the published flag.
func (s *Store) TogglePublished(_ context.Context, id string) (model.GalleryItem, error) {
	return s.toggle(id, func(it *model.GalleryItem) { it.IsPublished = !it.IsPublished })
}

// ToggleFeatured flips the featured flag.
func (s *Store) ToggleFeatured(_ context.Context, id string) (model.GalleryItem, error) {
	return s.toggle(id, func(it *model.GalleryItem) { it.IsFeatured = !it.IsFeatured })
}

func (s *Store) toggle(id string, flip func(*model.GalleryItem)) (model.GalleryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return model.GalleryItem{}, ErrItemNotFound
	}
	flip(it)
	return clone(it), nil
}

func (s *Store) validate(it *model.GalleryItem) booking.FieldErrors {
	fe := booking.FieldErrors{}
	if it.Title == "" {
		fe["title"] = "Title is required"
	}
	if it.ImageURL == "" {
		fe["image_url"] = "Image is required"
	}
	switch {
	case it.Category == "":
		fe["category"] = "Category is required"
	case s.categories != nil && !slices.Contains(s.categories.Categories(), it.Category):
		fe["category"] = "Unknown category"
	}
	return fe
}

// normalizeTags lowercases, trims and dedupes tags, keeping their order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

func clone(it *model.GalleryItem) model.GalleryItem {
	out := *it
	out.Tags = slices.Clone(it.Tags)
	return out
}
