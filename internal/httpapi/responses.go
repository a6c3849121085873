package httpapi

import (
	"encoding/json"
	"net/http"
)

// messageResponse is the wire shape legacy clients key on; every status and
// message below 500 is part of the compatibility contract.
type messageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, messageResponse{Message: message})
}

func writeInternalError(w http.ResponseWriter) {
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}
