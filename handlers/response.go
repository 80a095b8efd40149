package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ApiResponse is the envelope every JSON endpoint answers with.
type ApiResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
	Token      string      `json:"token,omitempty"`
	URL        string      `json:"url,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Count      *int        `json:"count,omitempty"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, body ApiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ApiResponse{Success: false, Message: message})
}

func intPtr(n int) *int { return &n }
