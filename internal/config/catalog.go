package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pixelperfect/internal/model"
)

// ServiceConfig is one entry of catalog.yaml.
type ServiceConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       int    `yaml:"price"`
	Duration    int    `yaml:"duration_minutes"`
	Category    string `yaml:"category"`
	IsActive    *bool  `yaml:"is_active,omitempty"`
}

// CatalogConfig is the root configuration for catalog.yaml.
type CatalogConfig struct {
	Services []ServiceConfig `yaml:"services"`
}

// LoadCatalogConfig loads and validates the service catalog from YAML file.
func LoadCatalogConfig(path string) (*CatalogConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog config: %w", err)
	}

	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse catalog config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *CatalogConfig) Validate() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("no services defined")
	}

	ids := make(map[string]bool)
	for i, s := range c.Services {
		if s.ID == "" {
			return fmt.Errorf("service[%d]: id is required", i)
		}
		if ids[s.ID] {
			return fmt.Errorf("service[%d]: duplicate id '%s'", i, s.ID)
		}
		ids[s.ID] = true

		if s.Name == "" {
			return fmt.Errorf("service[%d]: name is required", i)
		}
		if s.Price < 0 {
			return fmt.Errorf("service[%d]: price cannot be negative", i)
		}
		if s.Duration <= 0 {
			return fmt.Errorf("service[%d]: duration_minutes must be positive", i)
		}
	}
	return nil
}

// Services converts the entries to model services. Services are active
// unless is_active is false.
func (c *CatalogConfig) Services() []model.Service {
	out := make([]model.Service, 0, len(c.Services))
	for _, s := range c.Services {
		active := s.IsActive == nil || *s.IsActive
		out = append(out, model.Service{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Price:       s.Price,
			Duration:    s.Duration,
			Category:    s.Category,
			IsActive:    active,
		})
	}
	return out
}

// String returns a summary of the configuration.
func (c *CatalogConfig) String() string {
	active := 0
	for _, s := range c.Services {
		if s.IsActive == nil || *s.IsActive {
			active++
		}
	}
	return fmt.Sprintf("CatalogConfig: %d services (%d active)", len(c.Services), active)
}
