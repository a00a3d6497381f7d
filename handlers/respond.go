package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/giygas/status-api/logging"
)

// TimestampLayout is UTC ISO-8601 with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Error kinds carried in the "error" field of error payloads
const (
	ErrKindNotFound        = "Not Found"
	ErrKindInternal        = "Internal Server Error"
	ErrKindTooManyRequests = "Too Many Requests"
	ErrKindTooLarge        = "Payload Too Large"
	ErrKindHeaderTooLarge  = "Request Header Fields Too Large"
)

// GenericErrorMessage replaces error details in production
const GenericErrorMessage = "Something went wrong"

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// FormatTimestamp renders t the way every payload does
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// RespondWithJSON writes payload as JSON with the given status code
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write JSON response", "error", err)
	}
}

// RespondWithError writes an ErrorResponse stamped with now
func RespondWithError(w http.ResponseWriter, code int, kind, message string, now time.Time) {
	RespondWithJSON(w, code, ErrorResponse{
		Error:     kind,
		Message:   message,
		Timestamp: FormatTimestamp(now),
	})
}

// RespondWithInternalError hides err from the client when hideDetails is set
func RespondWithInternalError(w http.ResponseWriter, err error, hideDetails bool, now time.Time) {
	message := GenericErrorMessage
	if !hideDetails && err != nil {
		message = err.Error()
	}
	RespondWithError(w, http.StatusInternalServerError, ErrKindInternal, message, now)
}
