// Package api exposes the studio over JSON HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"pixelperfect/internal/admin"
	"pixelperfect/internal/auth"
	"pixelperfect/internal/booking"
	"pixelperfect/internal/catalog"
	"pixelperfect/internal/contact"
	"pixelperfect/internal/gallery"
	"pixelperfect/internal/payment"
	"pixelperfect/internal/slots"
	"pixelperfect/internal/store"
)

// Deps are the components served by the API.
type Deps struct {
	Catalog *catalog.Catalog
	Slots   *slots.Calculator
	Store   *store.Store
	Flows   *booking.Engine
	Auth    *auth.Service
	Admin   *admin.Service

	Gallery  *gallery.Store
	Contacts *contact.Store
}

// Options tune the HTTP layer.
type Options struct {
	RequestTimeout time.Duration
	RatePerSecond  float64
	RateBurst      int
}

// Server holds the API handlers.
type Server struct {
	deps    Deps
	opts    Options
	limiter *ipRateLimiter
	logger  zerolog.Logger
	now     func() time.Time
}

// NewServer creates the API server.
func NewServer(deps Deps, opts Options, logger *zerolog.Logger) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "api").Logger()
	}
	return &Server{
		deps:    deps,
		opts:    opts,
		limiter: newIPRateLimiter(opts.RatePerSecond, opts.RateBurst),
		logger:  l,
		now:     time.Now,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.logRequests, middleware.Recoverer)
	r.Use(s.rateLimit)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/services", s.handleServices)
		r.Get("/availability", s.handleAvailability)
		r.Get("/gallery", s.handleGallery)
		r.Post("/contact", s.handleContact)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/register", s.handleRegister)
			r.Post("/logout", s.handleLogout)
			r.Post("/reset-password", s.handleResetPassword)
			r.Post("/update-password", s.handleUpdatePassword)
			r.Post("/verify-email", s.handleVerifyEmail)
			r.With(s.authenticated).Get("/me", s.handleMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticated)

			r.Route("/booking/flow", func(r chi.Router) {
				r.Post("/", s.handleFlowStart)
				r.Get("/", s.handleFlowGet)
				r.Put("/selection", s.handleFlowSelection)
				r.Post("/details", s.handleFlowDetails)
				r.Post("/edit", s.handleFlowEdit)
				r.Post("/pay", s.handleFlowPay)
			})

			r.Get("/bookings", s.handleMyBookings)
			r.Post("/bookings/{id}/cancel", s.handleCancelBooking)

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.adminOnly)
				r.Get("/dashboard", s.handleDashboard)
				r.Get("/bookings", s.handleAdminBookings)
				r.Get("/bookings/export", s.handleExport)
				r.Patch("/bookings/{id}", s.handleAdminSetStatus)
				r.Post("/bookings/{id}/refund", s.handleAdminRefund)
				r.Get("/clients", s.handleClients)

				r.Get("/gallery", s.handleAdminGallery)
				r.Post("/gallery", s.handleGalleryCreate)
				r.Patch("/gallery/{id}", s.handleGalleryUpdate)
				r.Delete("/gallery/{id}", s.handleGalleryDelete)
				r.Post("/gallery/{id}/publish", s.handleGalleryPublish)
				r.Post("/gallery/{id}/feature", s.handleGalleryFeature)

				r.Get("/contacts", s.handleAdminContacts)
				r.Patch("/contacts/{id}", s.handleContactStatus)
			})
		})
	})

	return r
}

type errorResponse struct {
	Error    string            `json:"error"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a strict JSON body. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeServiceError maps domain errors onto HTTP responses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var fe booking.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fe})
		return
	}

	var denied *auth.AccessDeniedError
	if errors.As(err, &denied) {
		status := http.StatusForbidden
		if errors.Is(err, auth.ErrNotAuthenticated) {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, errorResponse{Error: denied.Reason, Redirect: denied.Redirect})
		return
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrRegistrationFailed):
		writeError(w, http.StatusBadRequest, "Registration failed")
	case errors.Is(err, auth.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated", Redirect: "/login"})
	case errors.Is(err, store.ErrBookingNotFound), errors.Is(err, booking.ErrNoFlow),
		errors.Is(err, gallery.ErrItemNotFound), errors.Is(err, contact.ErrContactNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidTransition), errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, contact.ErrInvalidTransition), errors.Is(err, store.ErrSlotTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrDeclined):
		writeError(w, http.StatusPaymentRequired, "Payment failed. Please try again.")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		s.logger.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// queryAll returns the query value, treating "all" as unset.
func queryAll(r *http.Request, key string) string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}
