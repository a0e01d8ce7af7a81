// Package api holds the JSON envelope every endpoint answers with.
package api

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type Envelope struct {
	Success   bool     `json:"success"`
	Data      any      `json:"data,omitempty"`
	Error     *Error   `json:"error,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "status", status, "requestId", payload.RequestID, "err", err)
	}
}

func ok(w http.ResponseWriter, status int, data any, warnings []string, requestID string) {
	WriteJSON(w, status, Envelope{Success: true, Data: data, Warnings: warnings, RequestID: requestID})
}

func Success(w http.ResponseWriter, data any, requestID string) {
	ok(w, http.StatusOK, data, nil, requestID)
}

func Created(w http.ResponseWriter, data any, requestID string) {
	ok(w, http.StatusCreated, data, nil, requestID)
}

// Accepted answers requests whose work continues in a background job.
func Accepted(w http.ResponseWriter, data any, requestID string) {
	ok(w, http.StatusAccepted, data, nil, requestID)
}

// SuccessWithWarnings reports a stored result together with non-blocking warnings.
func SuccessWithWarnings(w http.ResponseWriter, status int, data any, warnings []string, requestID string) {
	ok(w, status, data, warnings, requestID)
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	FailWithDetails(w, status, code, message, nil, requestID)
}

func FailWithDetails(w http.ResponseWriter, status int, code, message string, details any, requestID string) {
	WriteJSON(w, status, Envelope{Error: &Error{Code: code, Message: message, Details: details}, RequestID: requestID})
}

// Attachment writes a downloadable file body.
func Attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Warn("write attachment failed", "file", filename, "err", err)
	}
}
