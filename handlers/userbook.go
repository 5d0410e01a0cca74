package handlers

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/booknest/bookshelf-api/middleware"
)

// GET /user-books
func (h *DBHandler) ListUserBooks(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.AuthContextFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userBooks, err := h.Library.ListUserBooks(r.Context(), authCtx.SubjectID)
	if err != nil {
		log.Printf("ListUserBooks: failed for subject=%s: %v", authCtx.SubjectID, err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userBooks)
}

// GET /recently-added-books (public)
func (h *DBHandler) RecentlyAddedBooks(w http.ResponseWriter, r *http.Request) {
	recent, err := h.Library.ListRecentBooks(r.Context())
	if err != nil {
		log.Printf("RecentlyAddedBooks: failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, recent)
}

// POST /user-books
func (h *DBHandler) CreateUserBook(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.AuthContextFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Title         string `json:"title"`
		Authors       string `json:"authors"`
		CoverImageURL string `json:"coverImageURL"`
		OLID          string `json:"olid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("CreateUserBook: invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userBook, err := h.Library.AddUserBook(r.Context(), authCtx.SubjectID,
		req.Title, req.Authors, req.CoverImageURL, req.OLID)
	if err != nil {
		log.Printf("CreateUserBook: failed for subject=%s olid=%s: %v", authCtx.SubjectID, req.OLID, err)
		respondError(w, err)
		return
	}
	log.Printf("CreateUserBook: subject=%s added olid=%s", authCtx.SubjectID, req.OLID)
	writeJSON(w, http.StatusOK, userBook)
}

// PUT /user-books/{id}
func (h *DBHandler) UpdateUserBookRating(w http.ResponseWriter, r *http.Request) {
	userBookID, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "Invalid user book id", http.StatusBadRequest)
		return
	}

	// Rating rides in as a JSON number; reject fractional values before the
	// range check so 4.5 doesn't silently truncate.
	var req struct {
		Rating *float64 `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("UpdateUserBookRating: invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Rating == nil || *req.Rating != math.Trunc(*req.Rating) {
		http.Error(w, "Rating must be an integer between 1 and 5.", http.StatusBadRequest)
		return
	}

	userBook, err := h.Library.UpdateUserBookRating(r.Context(), uint(userBookID), int(*req.Rating))
	if err != nil {
		log.Printf("UpdateUserBookRating: failed for id=%d: %v", userBookID, err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userBook)
}

// DELETE /user-books/{id}
func (h *DBHandler) DeleteUserBook(w http.ResponseWriter, r *http.Request) {
	userBookID, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "Invalid user book id", http.StatusBadRequest)
		return
	}

	userBook, err := h.Library.DeleteUserBook(r.Context(), uint(userBookID))
	if err != nil {
		log.Printf("DeleteUserBook: failed for id=%d: %v", userBookID, err)
		respondError(w, err)
		return
	}
	log.Printf("DeleteUserBook: deleted id=%d", userBookID)
	writeJSON(w, http.StatusOK, userBook)
}
