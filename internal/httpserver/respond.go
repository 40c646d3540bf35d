package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Respond writes a JSON response with the given status code.
func Respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// errorResponse is the fixed error envelope: {"error": "<message>"}.
type errorResponse struct {
	Error string `json:"error"`
}

// RespondError writes the JSON error envelope at the given status code.
func RespondError(w http.ResponseWriter, status int, message string) {
	Respond(w, status, errorResponse{Error: message})
}
