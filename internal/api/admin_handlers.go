package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pixelperfect/internal/admin"
	"pixelperfect/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats := s.deps.Admin.Dashboard(r.Context(), admin.DashboardFilter{
		From:      strings.TrimSpace(q.Get("from")),
		To:        strings.TrimSpace(q.Get("to")),
		ServiceID: queryAll(r, "service_id"),
		Status:    model.BookingStatus(queryAll(r, "status")),
	})
	writeJSON(w, http.StatusOK, stats)
}

func searchFilter(r *http.Request) admin.SearchFilter {
	return admin.SearchFilter{
		Search:    strings.TrimSpace(r.URL.Query().Get("search")),
		Status:    model.BookingStatus(queryAll(r, "status")),
		ServiceID: queryAll(r, "service_id"),
		Date:      strings.TrimSpace(r.URL.Query().Get("date")),
	}
}

func (s *Server) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	rows := s.deps.Admin.SearchBookings(r.Context(), searchFilter(r))
	writeJSON(w, http.StatusOK, map[string]any{"bookings": rows})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.deps.Admin.ExportBookings(r.Context(), &buf, searchFilter(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", admin.ExportFilename(s.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleAdminSetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.BookingStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	b, err := s.deps.Admin.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleAdminRefund(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Admin.Refund(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	clients := s.deps.Admin.Clients(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")))
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}
