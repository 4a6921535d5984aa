package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pixelperfect/internal/contact"
	"pixelperfect/internal/gallery"
	"pixelperfect/internal/model"
)

func galleryFilter(r *http.Request, publishedOnly bool) gallery.Filter {
	return gallery.Filter{
		Search:        strings.TrimSpace(r.URL.Query().Get("search")),
		Category:      queryAll(r, "category"),
		PublishedOnly: publishedOnly,
	}
}

// handleGallery lists the public portfolio.
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	items := s.deps.Gallery.List(r.Context(), galleryFilter(r, true))
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var form contact.Form
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	c, err := s.deps.Contacts.Submit(r.Context(), form)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleAdminGallery(w http.ResponseWriter, r *http.Request) {
	items := s.deps.Gallery.List(r.Context(), galleryFilter(r, false))
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleGalleryCreate(w http.ResponseWriter, r *http.Request) {
	var draft gallery.Draft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	it, err := s.deps.Gallery.Create(r.Context(), draft)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleGalleryUpdate(w http.ResponseWriter, r *http.Request) {
	var edit gallery.Edit
	if err := decodeJSON(r, &edit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	it, err := s.deps.Gallery.Update(r.Context(), chi.URLParam(r, "id"), edit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleGalleryDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Gallery.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGalleryPublish(w http.ResponseWriter, r *http.Request) {
	it, err := s.deps.Gallery.TogglePublished(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleGalleryFeature(w http.ResponseWriter, r *http.Request) {
	it, err := s.deps.Gallery.ToggleFeatured(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleAdminContacts(w http.ResponseWriter, r *http.Request) {
	contacts := s.deps.Contacts.List(r.Context(), model.ContactStatus(queryAll(r, "status")))
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

func (s *Server) handleContactStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.ContactStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be new, responded or closed")
		return
	}
	c, err := s.deps.Contacts.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
