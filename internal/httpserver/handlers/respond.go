package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/gieok/internal/accesskey"
	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/logger"
)

// InvalidateHeader names the list views a successful mutation made stale.
const InvalidateHeader = "X-Invalidate"

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto statuses. Messages are fixed strings;
// driver details stay in the log.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: domain.ErrValidation.Error(), Fields: verr.Fields})
	case errors.Is(err, domain.ErrInvalidAccessKey):
		msg := domain.ErrInvalidAccessKey.Error()
		writeJSON(w, http.StatusForbidden, errorResponse{Error: msg, Fields: map[string]string{"access_key": msg}})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: domain.ErrNotFound.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: domain.ErrUnauthenticated.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Error("store call failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: domain.ErrStoreUnavailable.Error()})
	default:
		log.Error("unexpected handler error",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: domain.ErrStoreUnavailable.Error()})
	}
}

// decodeJSON reads one JSON document into dst. Malformed bodies are
// reported as a validation error on "body".
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "request body must be a JSON object"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		return &domain.ValidationError{Fields: map[string]string{"body": msg}}
	}
	return nil
}

func accessKey(r *http.Request) string {
	return r.Header.Get(accesskey.Header)
}

func setInvalidated(w http.ResponseWriter, views []domain.View) {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = string(v)
	}
	w.Header().Set(InvalidateHeader, strings.Join(names, ","))
}

// pathParam returns the decoded chi URL parameter.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// tagsParam accepts both ?tags=a,b and repeated ?tags=a&tags=b.
func tagsParam(q url.Values) []string {
	var out []string
	for _, v := range q["tags"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
