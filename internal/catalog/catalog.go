// Package catalog holds the bookable studio services.
package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pixelperfect/internal/model"
)

// ErrServiceNotFound is returned when no service has the requested id.
var ErrServiceNotFound = errors.New("service not found")

// Defaults returns the built-in studio catalog.
func Defaults() []model.Service {
	return []model.Service{
		{
			ID:          "1",
			Name:        "Wedding Photography",
			Description: "Complete wedding day coverage with edited high-resolution images",
			Price:       2500,
			Duration:    480,
			Category:    "Wedding",
			IsActive:    true,
		},
		{
			ID:          "2",
			Name:        "Portrait Session",
			Description: "Professional portrait session in studio or on location",
			Price:       300,
			Duration:    120,
			Category:    "Portrait",
			IsActive:    true,
		},
		{
			ID:          "3",
			Name:        "Event Photography",
			Description: "Coverage for corporate events, parties and celebrations",
			Price:       800,
			Duration:    240,
			Category:    "Event",
			IsActive:    true,
		},
		{
			ID:          "4",
			Name:        "Commercial Photography",
			Description: "Product and brand photography for businesses",
			Price:       600,
			Duration:    180,
			Category:    "Commercial",
			IsActive:    true,
		},
	}
}

// Catalog is a concurrency-safe set of services that can be swapped at runtime.
type Catalog struct {
	mu       sync.RWMutex
	services []model.Service
	byID     map[string]int
}

// New creates a catalog. With no services the defaults are used.
func New(services []model.Service) *Catalog {
	if len(services) == 0 {
		services = Defaults()
	}
	c := &Catalog{}
	c.Replace(services)
	return c
}

// Replace swaps the whole service list.
func (c *Catalog) Replace(services []model.Service) {
	list := make([]model.Service, len(services))
	copy(list, services)
	idx := make(map[string]int, len(list))
	for i, s := range list {
		idx[s.ID] = i
	}

	c.mu.Lock()
	c.services = list
	c.byID = idx
	c.mu.Unlock()
}

// Get returns the service with the given id.
func (c *Catalog) Get(_ context.Context, id string) (model.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return model.Service{}, ErrServiceNotFound
	}
	return c.services[i], nil
}

// List returns services in catalog order. Inactive services are skipped
// unless includeInactive is set.
func (c *Catalog) List(_ context.Context, includeInactive bool) []model.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]model.Service, 0, len(c.services))
	for _, s := range c.services {
		if s.IsActive || includeInactive {
			result = append(result, s)
		}
	}
	return result
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, s := range c.services {
		if s.Category == "" || seen[s.Category] {
			continue
		}
		seen[s.Category] = true
		out = append(out, s.Category)
	}
	sort.Strings(out)
	return out
}
