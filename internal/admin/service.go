// Package admin implements the studio back-office: dashboard, booking
// management, client list and spreadsheet export.
package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pixelperfect/internal/model"
	"pixelperfect/internal/store"
)

const recentLimit = 5

// BookingSource is the subset of the booking store used by the back-office.
type BookingSource interface {
	List(ctx context.Context, f store.Filter) []model.Booking
	Update(ctx context.Context, id string, p store.Patch) (model.Booking, error)
	Refund(ctx context.Context, id string) (model.Booking, error)
}

// ServiceLookup resolves catalog services.
type ServiceLookup interface {
	Get(ctx context.Context, id string) (model.Service, error)
}

// UserDirectory resolves client ids to users.
type UserDirectory interface {
	Lookup(id string) (model.User, bool)
}

// DashboardFilter narrows the dashboard. From and To bound the booking
// date inclusively (YYYY-MM-DD).
type DashboardFilter struct {
	From      string
	To        string
	ServiceID string
	Status    model.BookingStatus
}

// SearchFilter narrows the booking list.
type SearchFilter struct {
	Search    string
	Status    model.BookingStatus
	ServiceID string
	Date      string
}

// BookingRow is a booking with display names resolved.
type BookingRow struct {
	model.Booking
	ServiceName string `json:"service_name"`
	ClientName  string `json:"client_name,omitempty"`
	ClientEmail string `json:"client_email,omitempty"`
}

// Service implements the back-office operations.
type Service struct {
	bookings BookingSource
	catalog  ServiceLookup
	users    UserDirectory
	logger   zerolog.Logger
}

// NewService creates a back-office service. users may be nil.
func NewService(bookings BookingSource, catalog ServiceLookup, users UserDirectory, logger zerolog.Logger) *Service {
	return &Service{
		bookings: bookings,
		catalog:  catalog,
		users:    users,
		logger:   logger.With().Str("component", "admin").Logger(),
	}
}

// Dashboard aggregates the bookings matching f.
func (s *Service) Dashboard(ctx context.Context, f DashboardFilter) model.DashboardStats {
	all := s.bookings.List(ctx, store.Filter{ServiceID: f.ServiceID, Status: f.Status})

	var selected []model.Booking
	for _, b := range all {
		if f.From != "" && b.Date < f.From {
			continue
		}
		if f.To != "" && b.Date > f.To {
			continue
		}
		selected = append(selected, b)
	}

	stats := model.DashboardStats{
		TotalBookings:     len(selected),
		RecentBookings:    []model.Booking{},
		RevenueByMonth:    []model.MonthRevenue{},
		BookingsByService: []model.ServiceCount{},
	}

	clients := make(map[string]bool)
	monthly := make(map[string]int)
	byCategory := make(map[string]int)
	for _, b := range selected {
		clients[b.ClientID] = true
		if b.Status == model.StatusPending {
			stats.PendingBookings++
		}
		if b.IsPaid() {
			stats.TotalRevenue += b.TotalAmount
			if d, err := time.Parse("2006-01-02", b.Date); err == nil {
				monthly[d.Format("2006-01")] += b.TotalAmount
			}
		}
		byCategory[s.categoryOf(ctx, b.ServiceID)]++
	}
	stats.TotalClients = len(clients)

	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)
	// Months carry the year once the range spans more than one.
	layout := "Jan"
	if len(months) > 0 && months[0][:4] != months[len(months)-1][:4] {
		layout = "Jan 2006"
	}
	for _, m := range months {
		d, _ := time.Parse("2006-01", m)
		stats.RevenueByMonth = append(stats.RevenueByMonth, model.MonthRevenue{
			Month:   d.Format(layout),
			Revenue: monthly[m],
		})
	}

	for category, n := range byCategory {
		stats.BookingsByService = append(stats.BookingsByService, model.ServiceCount{Service: category, Count: n})
	}
	sort.Slice(stats.BookingsByService, func(i, j int) bool {
		a, b := stats.BookingsByService[i], stats.BookingsByService[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Service < b.Service
	})

	recent := append([]model.Booking(nil), selected...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	stats.RecentBookings = append(stats.RecentBookings, recent...)

	return stats
}

func (s *Service) categoryOf(ctx context.Context, serviceID string) string {
	svc, err := s.catalog.Get(ctx, serviceID)
	if err != nil || svc.Category == "" {
		return "Other"
	}
	return svc.Category
}

func (s *Service) row(ctx context.Context, b model.Booking) BookingRow {
	r := BookingRow{Booking: b, ServiceName: b.ServiceID}
	if svc, err := s.catalog.Get(ctx, b.ServiceID); err == nil {
		r.ServiceName = svc.Name
	}
	if s.users != nil {
		if u, ok := s.users.Lookup(b.ClientID); ok {
			r.ClientName = u.Name
			r.ClientEmail = u.Email
		}
	}
	return r
}

// SearchBookings lists bookings matching f, newest first. Search matches
// client, notes or service name case-insensitively.
func (s *Service) SearchBookings(ctx context.Context, f SearchFilter) []BookingRow {
	all := s.bookings.List(ctx, store.Filter{ServiceID: f.ServiceID, Status: f.Status, Date: f.Date})
	term := strings.ToLower(strings.TrimSpace(f.Search))

	rows := make([]BookingRow, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		r := s.row(ctx, all[i])
		if term != "" && !containsAny(term, r.ClientID, r.ClientName, r.ClientEmail, r.Notes, r.ServiceName) {
			continue
		}
		rows = append(rows, r)
	}
	return rows
}

func containsAny(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// SetStatus moves a booking to status.
func (s *Service) SetStatus(ctx context.Context, id string, status model.BookingStatus) (model.Booking, error) {
	if !status.Valid() {
		return model.Booking{}, fmt.Errorf("status %q: %w", status, store.ErrInvalidTransition)
	}
	b, err := s.bookings.Update(ctx, id, store.Patch{Status: status})
	if err != nil {
		return model.Booking{}, err
	}
	s.logger.Info().Str("booking_id", id).Str("status", string(status)).Msg("booking status set")
	return b, nil
}

// Refund refunds a paid booking.
func (s *Service) Refund(ctx context.Context, id string) (model.Booking, error) {
	b, err := s.bookings.Refund(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	s.logger.Info().Str("booking_id", id).Int("amount", b.TotalAmount).Msg("booking refunded")
	return b, nil
}

// Clients summarizes bookings per client, biggest spenders first.
// Total spent counts paid bookings only.
func (s *Service) Clients(ctx context.Context, search string) []model.ClientSummary {
	term := strings.ToLower(strings.TrimSpace(search))
	byClient := make(map[string]*model.ClientSummary)
	var order []string

	for _, b := range s.bookings.List(ctx, store.Filter{}) {
		c, ok := byClient[b.ClientID]
		if !ok {
			c = &model.ClientSummary{ClientID: b.ClientID}
			if s.users != nil {
				if u, found := s.users.Lookup(b.ClientID); found {
					c.Name = u.Name
					c.Email = u.Email
				}
			}
			byClient[b.ClientID] = c
			order = append(order, b.ClientID)
		}
		c.Bookings++
		if b.IsPaid() {
			c.TotalSpent += b.TotalAmount
		}
		if b.Date > c.LastBookedAt {
			c.LastBookedAt = b.Date
		}
	}

	out := make([]model.ClientSummary, 0, len(order))
	for _, id := range order {
		c := byClient[id]
		if term != "" && !containsAny(term, c.ClientID, c.Name, c.Email) {
			continue
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalSpent > out[j].TotalSpent })
	return out
}
