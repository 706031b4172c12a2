package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"mercari/internal/api"
	"mercari/internal/models"
)

// errorKind is the HTTP status and string code shared by a family of failures.
type errorKind struct {
	status int
	code   string
}

var (
	kindInvalid  = errorKind{http.StatusBadRequest, "invalid_argument"}
	kindMissing  = errorKind{http.StatusBadRequest, "missing_required"}
	kindNotFound = errorKind{http.StatusNotFound, "not_found"}
	kindConflict = errorKind{http.StatusConflict, "conflict"}
	kindInternal = errorKind{http.StatusInternalServerError, "internal"}
)

// serviceError carries the response a failure should produce.
type serviceError struct {
	kind    errorKind
	errCode int
	err     error
}

func (e *serviceError) Error() string { return e.err.Error() }

func (e *serviceError) Unwrap() error { return e.err }

// classify wraps err with a response kind. An error that is already
// classified keeps its original kind and code.
func classify(kind errorKind, errCode int, err error) error {
	var existing *serviceError
	if errors.As(err, &existing) {
		return existing
	}
	if err == nil {
		err = errors.New(http.StatusText(kind.status))
	}
	return &serviceError{kind: kind, errCode: errCode, err: err}
}

func badRequestCode(err error, code int) error { return classify(kindInvalid, code, err) }

func missingRequired(err error) error { return classify(kindMissing, ErrCodeMissingRequired, err) }

func notFoundCode(err error, code int) error { return classify(kindNotFound, code, err) }

func conflictCode(err error, code int) error { return classify(kindConflict, code, err) }

func internalError(err error) error { return classify(kindInternal, ErrCodeInternal, err) }

func storeFailure(err error) error { return classify(kindInternal, ErrCodeStoreFailure, err) }

func imageFailure(err error) error { return classify(kindInternal, ErrCodeImageFailure, err) }

// classifyMultipartError maps form parsing failures to 400 responses.
func classifyMultipartError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		return badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
	}
	return badRequestCode(err, ErrCodeInvalidArgument)
}

// writeError renders err as an api.ErrorResponse. Unclassified errors are
// internal. Details of 5xx errors are logged and never sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var se *serviceError
	if !errors.As(err, &se) {
		se = &serviceError{kind: kindInternal, errCode: ErrCodeInternal, err: err}
	}

	level := slog.LevelDebug
	message := se.Error()
	switch {
	case se.kind.status >= http.StatusInternalServerError:
		level = slog.LevelError
		message = "internal error"
	case se.kind.status == http.StatusConflict:
		level = slog.LevelWarn
	}
	s.log().Log(r.Context(), level, "request failed",
		"status", se.kind.status,
		"code", se.kind.code,
		"error_code", se.errCode,
		"error", se.err,
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"request_id", requestIDFromContext(r.Context()),
	)

	s.writeJSON(w, se.kind.status, api.ErrorResponse{Error: message, Code: se.kind.code, ErrorCode: se.errCode})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("write json response", "status", status, "error", err)
	}
}

func (s *Server) pathItemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := models.ParseItemID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, badRequestCode(err, ErrCodeInvalidID))
		return 0, false
	}
	return id, true
}
