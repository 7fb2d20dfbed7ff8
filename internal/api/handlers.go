package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/internal/logging"
)

// APIResponse is the standard API response envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Error codes.
const (
	CodeBadRequest           = "BAD_REQUEST"
	CodeValidation           = "VALIDATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeNoReferencesResolved = "NO_REFERENCES_RESOLVED"
	CodeInternal             = "INTERNAL_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeRateLimited          = "RATE_LIMIT_EXCEEDED"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia     = "UNSUPPORTED_MEDIA_TYPE"
)

// LineError is the wire form of a reference that failed to resolve.
type LineError struct {
	Source  string `json:"source"`
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func lineErrors(errs []*errors.ReferenceError) []LineError {
	out := make([]LineError, 0, len(errs))
	for _, e := range errs {
		src := "text"
		if e.Source == 0 {
			src = "file"
		}
		out = append(out, LineError{
			Source:  src,
			Line:    e.Line,
			Text:    e.Text,
			Kind:    string(e.Kind()),
			Message: e.Message,
		})
	}
	return out
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	respondMeta(w, status, data, nil)
}

func respondMeta(w http.ResponseWriter, status int, data interface{}, meta *APIMeta) {
	if meta == nil {
		meta = &APIMeta{}
	}
	meta.Timestamp = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, status, APIResponse{Success: status < 400, Data: data, Meta: meta})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondErrorDetails(w, status, code, message, nil)
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message string, details interface{}) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("encode response", "error", err)
	}
}

// respondErr maps a service error onto a status code and error code.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *errors.ValidationError
	switch {
	case errors.As(err, &verr):
		respondErrorDetails(w, http.StatusBadRequest, CodeValidation, verr.Error(), map[string]string{"field": verr.Field})
	case errors.Is(err, errors.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, errors.ErrNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, errors.ErrNoReferencesResolved):
		respondError(w, http.StatusUnprocessableEntity, CodeNoReferencesResolved, err.Error())
	default:
		logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": s.cfg.Version,
		"books":   len(s.resolver.Index().Books()),
	})
}

// BookInfo is one entry of GET /api/books.
type BookInfo struct {
	Ordinal   int             `json:"ordinal"`
	Name      string          `json:"name"`
	OSIS      string          `json:"osis"`
	Testament canon.Testament `json:"testament"`
	Chapters  int             `json:"chapters"`
	Verses    []int           `json:"verses"`
	Aliases   []string        `json:"aliases"`
}

func bookInfos(idx *canon.Index) []BookInfo {
	books := idx.Books()
	out := make([]BookInfo, 0, len(books))
	for _, b := range books {
		out = append(out, BookInfo{
			Ordinal:   b.Ordinal,
			Name:      b.Name,
			OSIS:      b.OSIS,
			Testament: b.Testament,
			Chapters:  b.ChapterCount(),
			Verses:    b.Verses,
			Aliases:   idx.AliasesFor(b.Ordinal),
		})
	}
	return out
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	books := bookInfos(s.resolver.Index())
	respondMeta(w, http.StatusOK, books, &APIMeta{Total: len(books)})
}

// ResolveRequest is the body of POST /api/references/resolve.
type ResolveRequest struct {
	Text string `json:"text"`
}

// ResolveResponse is the preview returned by POST /api/references/resolve.
type ResolveResponse struct {
	References []string    `json:"references"`
	Errors     []LineError `json:"errors"`
	Candidates int         `json:"candidates"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	start := time.Now()
	res, err := s.resolver.Resolve(r.Context(), "", req.Text)
	if res != nil && s.metrics != nil {
		s.metrics.ObserveResolution(res, time.Since(start))
	}
	if err != nil && !errors.Is(err, errors.ErrNoReferencesResolved) {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, ResolveResponse{
		References: res.References(s.resolver.Index()),
		Errors:     lineErrors(res.Errors),
		Candidates: res.Candidates,
	})
}
