// Package contact keeps inquiries sent through the contact form.
package contact

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pixelperfect/internal/booking"
	"pixelperfect/internal/events"
	"pixelperfect/internal/model"
)

var (
	ErrContactNotFound   = errors.New("contact not found")
	ErrInvalidTransition = errors.New("invalid contact status transition")
)

// Publisher receives contact events.
type Publisher interface {
	Publish(ctx context.Context, eventType, correlationID string, payload any) error
}

// Form is what a visitor submits.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate checks the form and returns per-field messages.
func (f Form) Validate() booking.FieldErrors {
	fe := booking.FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		fe["name"] = "Name is required"
	}
	switch email := strings.TrimSpace(f.Email); {
	case email == "":
		fe["email"] = "Email is required"
	case !booking.IsEmail(email):
		fe["email"] = "Invalid email address"
	}
	if strings.TrimSpace(f.Subject) == "" {
		fe["subject"] = "Subject is required"
	}
	if strings.TrimSpace(f.Message) == "" {
		fe["message"] = "Message is required"
	}
	return fe
}

// Store is the in-memory inquiry list.
type Store struct {
	mu       sync.RWMutex
	contacts []*model.Contact
	byID     map[string]*model.Contact

	publisher Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates an empty store. publisher may be nil.
func New(publisher Publisher, logger *zerolog.Logger) *Store {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "contact").Logger()
	}
	return &Store{
		byID:      make(map[string]*model.Contact),
		publisher: publisher,
		logger:    l,
		now:       time.Now,
	}
}

// Submit stores a valid form as a new inquiry and announces it.
func (s *Store) Submit(ctx context.Context, f Form) (model.Contact, error) {
	if fe := f.Validate(); len(fe) > 0 {
		return model.Contact{}, fe
	}
	c := &model.Contact{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(f.Name),
		Email:     strings.TrimSpace(f.Email),
		Phone:     strings.TrimSpace(f.Phone),
		Subject:   strings.TrimSpace(f.Subject),
		Message:   strings.TrimSpace(f.Message),
		Status:    model.ContactNew,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.contacts = append(s.contacts, c)
	s.byID[c.ID] = c
	out := *c
	s.mu.Unlock()

	s.logger.Info().Str("contact_id", out.ID).Str("subject", out.Subject).Msg("contact received")
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.ContactReceived, out.ID, out); err != nil {
			s.logger.Warn().Err(err).Str("contact_id", out.ID).Msg("publish contact")
		}
	}
	return out, nil
}

// List returns inquiries with the given status, newest first. An empty
// status matches everything.
func (s *Store) List(_ context.Context, status model.ContactStatus) []model.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		if status == "" || c.Status == status {
			result = append(result, *c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *Store) Get(_ context.Context, id string) (model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return model.Contact{}, ErrContactNotFound
	}
	return *c, nil
}

// SetStatus moves an inquiry along new, responded, closed.
func (s *Store) SetStatus(_ context.Context, id string, status model.ContactStatus) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return model.Contact{}, ErrContactNotFound
	}
	if !c.Status.CanTransition(status) {
		return model.Contact{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, c.Status, status)
	}
	c.Status = status
	return *c, nil
}
