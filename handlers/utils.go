package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/booknest/bookshelf-api/catalog"
	"github.com/booknest/bookshelf-api/library"
)

// DBHandler carries the shared dependencies for every endpoint.
type DBHandler struct {
	Library *library.Service
	Catalog *catalog.Client
}

// Ping is the public health check.
func Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("pong"))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("writeJSON: failed to encode response: %v", err)
	}
}

// respondError maps service errors to the response contract: validation
// failures and store errors both surface as a 400 with a plain message.
func respondError(w http.ResponseWriter, err error) {
	var verr *library.ValidationError
	if errors.As(err, &verr) {
		http.Error(w, verr.Message, http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}
