package handlers

import (
	"log"
	"net/http"
)

// GET /book-search?title= (public) — proxied catalog search.
func (h *DBHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		http.Error(w, "Please provide a title to search for.", http.StatusBadRequest)
		return
	}

	results, err := h.Catalog.Search(r.Context(), title)
	if err != nil {
		log.Printf("SearchBooks: catalog search failed for title=%q: %v", title, err)
		http.Error(w, "Book search failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
