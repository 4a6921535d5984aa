package api

import (
	"net/http"
	"strings"
	"time"

	"pixelperfect/internal/model"
)

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	category := queryAll(r, "category")
	services := s.deps.Catalog.List(r.Context(), false)

	out := make([]model.Service, 0, len(services))
	for _, svc := range services {
		if category != "" && !strings.EqualFold(svc.Category, category) {
			continue
		}
		out = append(out, svc)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"services":   out,
		"categories": s.deps.Catalog.Categories(),
		"schedule":   s.deps.Slots.Times(),
	})
}

type availabilityResponse struct {
	ServiceID string           `json:"service_id"`
	Date      string           `json:"date"`
	Slots     []model.TimeSlot `json:"slots"`
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if serviceID == "" || date == "" {
		writeError(w, http.StatusBadRequest, "service_id and date are required")
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	slots, err := s.deps.Slots.ComputeAvailability(r.Context(), serviceID, date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{ServiceID: serviceID, Date: date, Slots: slots})
}
