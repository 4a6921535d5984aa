package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"pixelperfect/internal/booking"
	"pixelperfect/internal/model"
	"pixelperfect/internal/store"
)

type startFlowRequest struct {
	Restart   bool   `json:"restart,omitempty"`
	ServiceID string `json:"service_id,omitempty"`
}

func (s *Server) handleFlowStart(w http.ResponseWriter, r *http.Request) {
	var req startFlowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	user, _ := userFrom(r.Context())

	start := s.deps.Flows.Start
	if req.Restart {
		start = s.deps.Flows.Restart
	}
	flow, err := start(&user)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	// A preselected service only applies while still choosing.
	if req.ServiceID != "" && flow.GetState() == booking.StateSelecting {
		if err := s.deps.Flows.SelectService(r.Context(), flow, req.ServiceID); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.deps.Flows.View(flow))
}

func (s *Server) currentFlow(w http.ResponseWriter, r *http.Request) (*booking.Flow, bool) {
	user, _ := userFrom(r.Context())
	flow, err := s.deps.Flows.Current(user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	return flow, true
}

func (s *Server) handleFlowGet(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.currentFlow(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Flows.View(flow))
}

type selectionRequest struct {
	ServiceID *string `json:"service_id,omitempty"`
	Date      *string `json:"date,omitempty"`
	Time      *string `json:"time,omitempty"`
}

// handleFlowSelection applies service, date and time in that order so one
// request can fill the whole first step.
func (s *Server) handleFlowSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	flow, ok := s.currentFlow(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if req.ServiceID != nil {
		if err := s.deps.Flows.SelectService(ctx, flow, *req.ServiceID); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	if req.Date != nil {
		if err := s.deps.Flows.SelectDate(ctx, flow, *req.Date); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	if req.Time != nil {
		if err := s.deps.Flows.SelectTime(ctx, flow, *req.Time); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.deps.Flows.View(flow))
}

func (s *Server) handleFlowDetails(w http.ResponseWriter, r *http.Request) {
	var req booking.Details
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	flow, ok := s.currentFlow(w, r)
	if !ok {
		return
	}
	if err := s.deps.Flows.SubmitDetails(r.Context(), flow, req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Flows.View(flow))
}

func (s *Server) handleFlowEdit(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.currentFlow(w, r)
	if !ok {
		return
	}
	if err := s.deps.Flows.Edit(flow); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Flows.View(flow))
}

func (s *Server) handleFlowPay(w http.ResponseWriter, r *http.Request) {
	var req booking.Card
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	flow, ok := s.currentFlow(w, r)
	if !ok {
		return
	}
	if _, err := s.deps.Flows.Pay(r.Context(), flow, req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Flows.View(flow))
}

// handleMyBookings lists the caller's bookings, newest first. search
// matches the service name.
func (s *Server) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	all := s.deps.Store.List(r.Context(), store.Filter{
		ClientID: user.ID,
		Status:   model.BookingStatus(queryAll(r, "status")),
	})

	term := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))
	bookings := make([]model.Booking, 0, len(all))
	for _, b := range all {
		if term != "" {
			svc, err := s.deps.Catalog.Get(r.Context(), b.ServiceID)
			if err != nil || !strings.Contains(strings.ToLower(svc.Name), term) {
				continue
			}
		}
		bookings = append(bookings, b)
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// handleCancelBooking lets a client cancel their own booking. Bookings of
// other clients are reported as missing.
func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	id := chi.URLParam(r, "id")

	b, err := s.deps.Store.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if b.ClientID != user.ID && user.Role != model.RoleAdmin {
		s.writeServiceError(w, r, store.ErrBookingNotFound)
		return
	}

	cancelled, err := s.deps.Store.Cancel(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelled)
}
