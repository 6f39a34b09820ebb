package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pquerna/cachecontrol/cacheobject"
	"github.com/sirupsen/logrus"

	"github.com/aleksaelezovic/rdfpreview/internal/fetch"
	"github.com/aleksaelezovic/rdfpreview/pkg/rdf"
)

type contextKey int

const requestIDKey contextKey = iota

// statusRecorder remembers the status code written through it
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestID tags every request with a uuid, echoed in X-Request-Id,
// and logs it once served
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		s.metrics.requests.WithLabelValues(route(r.URL.Path), strconv.Itoa(rec.status)).Inc()
		s.logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start),
		}).Info("request served")
	})
}

// route keeps the metric label set bounded
func route(path string) string {
	switch path {
	case "/preview", "/render", "/formats", "/healthz", "/metrics", "/":
		return path
	}
	return "other"
}

// requestLogger returns the server logger tagged with the request id
func (s *Server) requestLogger(r *http.Request) *logrus.Entry {
	id, _ := r.Context().Value(requestIDKey).(string)
	return s.logger.WithField("request_id", id)
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	s.requestLogger(r).WithField("status", statusCode).Warnf("Error: %s", message)

	body := map[string]any{
		"error": map[string]any{
			"code":    statusCode,
			"message": message,
		},
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body) // #nosec G104 - the client has gone away
}

// statusFor maps pipeline errors to response codes
func statusFor(err error) int {
	var parseErr *rdf.ParseError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, rdf.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, fetch.ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, fetch.ErrUnknownEncoding):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// wantsText reports whether the Accept header prefers plain text over HTML
func wantsText(accept string) bool {
	accept = strings.ToLower(accept)
	if !strings.Contains(accept, "text/plain") {
		return false
	}
	return !strings.Contains(accept, "text/html") ||
		strings.Index(accept, "text/plain") < strings.Index(accept, "text/html")
}

// bypassCache reports whether the request asks for a fresh rendering with
// Cache-Control: no-cache or no-store, or the legacy Pragma: no-cache
func bypassCache(r *http.Request) bool {
	if strings.EqualFold(strings.TrimSpace(r.Header.Get("Pragma")), "no-cache") {
		return true
	}
	header := r.Header.Get("Cache-Control")
	if header == "" {
		return false
	}
	cd, err := cacheobject.ParseRequestCacheControl(header)
	if err != nil {
		return false
	}
	return cd.NoCache || cd.NoStore
}
