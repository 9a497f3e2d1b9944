package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string            `json:"error" example:"Item not found"`
	Fields map[string]string `json:"fields,omitempty"`
} // @name ErrorResponse

// JSON writes v as JSON with the given status code. Content-Type and
// X-Content-Type-Options headers are set automatically. Encoding errors are
// discarded; use this for handler responses, not for streaming.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes a standard {"error": message} JSON response.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// JSONFieldErrors writes a 400 carrying per-field messages.
func JSONFieldErrors(w http.ResponseWriter, message string, fields map[string]string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Fields: fields})
}

// NoContent writes a bodiless 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// SafeError returns the error message for client responses.
// In production, 5xx errors are replaced with fallback so internal details
// never reach the client. Outside production the cause is appended.
func SafeError(err error, status int, isProduction bool, fallback string) string {
	if status < http.StatusInternalServerError {
		return err.Error()
	}
	if fallback == "" {
		fallback = http.StatusText(status)
	}
	if isProduction || err == nil {
		return fallback
	}
	return fallback + ": " + err.Error()
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	JSONError(w, http.StatusNotFound, "Route not found")
}

// MethodNotAllowed answers known routes hit with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
