package proxy

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/nhle/citas-notify/internal/logging"
	"github.com/nhle/citas-notify/internal/source"
)

// SourceFactory returns a source authenticating with token. An empty
// token means the caller sent no credentials.
type SourceFactory func(token string) source.NotificationSource

// Handler forwards /api/notifications/... requests to the backend.
type Handler struct {
	sources SourceFactory
	log     logrus.FieldLogger
	router  *mux.Router
}

// NewHandler builds the forwarding routes.
func NewHandler(sources SourceFactory, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logging.Discard()
	}
	h := &Handler{
		sources: sources,
		log:     log.WithField("component", "proxy"),
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/notifications").Subrouter()
	api.HandleFunc("/user/{userId:[0-9]+}", h.listByUser).Methods(http.MethodGet)
	api.HandleFunc("/user/{userId:[0-9]+}", h.clearUser).Methods(http.MethodDelete)
	api.HandleFunc("/{id:[0-9]+}/read", h.markRead).Methods(http.MethodPatch)
	api.HandleFunc("/{id:[0-9]+}", h.deleteOne).Methods(http.MethodDelete)
	api.NotFoundHandler = http.HandlerFunc(invalidRoute)
	api.MethodNotAllowedHandler = http.HandlerFunc(invalidRoute)
	r.NotFoundHandler = http.HandlerFunc(invalidRoute)
	r.MethodNotAllowedHandler = http.HandlerFunc(invalidRoute)
	r.Use(h.logRequests)

	h.router = r
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		invalidRoute(w, r)
		return
	}

	items, err := h.source(r).ListByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "Error fetching notifications")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		invalidRoute(w, r)
		return
	}

	updated, err := h.source(r).MarkRead(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Error marking as read")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteOne(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		invalidRoute(w, r)
		return
	}

	if err := h.source(r).Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "Error deleting notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		invalidRoute(w, r)
		return
	}

	if err := h.source(r).ClearUser(r.Context(), userID); err != nil {
		h.fail(w, r, err, "Error clearing notifications")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// source binds the caller's bearer token, if any.
func (h *Handler) source(r *http.Request) source.NotificationSource {
	return h.sources(bearerToken(r))
}

// fail hides backend details from the caller and logs them instead.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	h.log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error(message)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: message})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.log.WithFields(logrus.Fields{
			"request_id": uuid.NewString(),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Info("proxied request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

type errorBody struct {
	Error string `json:"error"`
}

// pathID reads a numeric route variable. Digits that do not fit an int64
// are rejected.
func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[key], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func invalidRoute(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "Invalid route"})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
