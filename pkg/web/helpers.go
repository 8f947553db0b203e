package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the uniform success response body: {success, data, message?}.
// Data is always present, so a delete confirmation serializes as data: null.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// ErrorEnvelope is the uniform error response body: {success: false, error}.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Pagination is the page descriptor attached to list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// PageEnvelope is the success response body for paginated lists.
type PageEnvelope struct {
	Success    bool       `json:"success"`
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination computes the page descriptor, with totalPages = ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// RespondData writes a success envelope with the given payload.
func RespondData(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	respondJSON(w, logger, status, Envelope{Success: true, Data: data})
}

// RespondMessage writes a success envelope carrying a human-readable message.
func RespondMessage(w http.ResponseWriter, logger *slog.Logger, status int, data any, message string) {
	respondJSON(w, logger, status, Envelope{Success: true, Data: data, Message: message})
}

// RespondPage writes a paginated success envelope.
func RespondPage(w http.ResponseWriter, logger *slog.Logger, data any, p Pagination) {
	respondJSON(w, logger, http.StatusOK, PageEnvelope{Success: true, Data: data, Pagination: p})
}

// RespondError writes an error envelope. The message must describe the
// violated constraint without leaking store internals.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, ErrorEnvelope{Success: false, Error: message})
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}
