// Package httputil centralizes JSON encoding and domain error translation so
// handlers stay thin and error envelopes stay consistent.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	dErrors "clubroster/pkg/domain-errors"
)

// WriteJSON encodes v with the given status. Encoding failures are logged by
// the caller's middleware; at this point headers are already written.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded domain error into the standard JSON error
// envelope. Internal errors omit the description so storage details never
// leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, status, body)
}

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// ParseDate parses a required YYYY-MM-DD field.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidDate, "invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// ParseOptionalDate parses a YYYY-MM-DD field, mapping empty to the zero time.
func ParseOptionalDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return ParseDate(value)
}

// Decode parses a JSON request body into T, responding with a bad_request
// envelope on failure. The second return value reports success.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.DebugContext(r.Context(), "request decode failed", "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		var zero T
		return zero, false
	}
	return req, true
}
