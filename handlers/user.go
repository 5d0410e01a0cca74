package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/booknest/bookshelf-api/middleware"
)

// GET /user
func (h *DBHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.AuthContextFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Library.GetUser(r.Context(), authCtx.SubjectID)
	if err != nil {
		log.Printf("GetUser: lookup failed for subject=%s: %v", authCtx.SubjectID, err)
		respondError(w, err)
		return
	}

	// Unknown user is a soft miss: the client gets an empty object
	if user == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// POST /verify-user
func (h *DBHandler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.AuthContextFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Library.VerifyUser(r.Context(), authCtx.SubjectID, authCtx.Email, authCtx.Name)
	if err != nil {
		log.Printf("VerifyUser: failed for subject=%s: %v", authCtx.SubjectID, err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// PUT /user
func (h *DBHandler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.AuthContextFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Age              int    `json:"age"`
		Gender           string `json:"gender"`
		FavoriteBook     string `json:"favoriteBook"`
		FavoriteAuthor   string `json:"favoriteAuthor"`
		CurrentlyReading string `json:"currentlyReading"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("UpdateUserProfile: invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.Library.UpdateUserProfile(r.Context(), authCtx.SubjectID,
		req.Age, req.Gender, req.FavoriteBook, req.FavoriteAuthor, req.CurrentlyReading)
	if err != nil {
		log.Printf("UpdateUserProfile: failed for subject=%s: %v", authCtx.SubjectID, err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DELETE /user
func (h *DBHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.AuthContextFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Library.DeleteUser(r.Context(), authCtx.SubjectID)
	if err != nil {
		log.Printf("DeleteUser: failed for subject=%s: %v", authCtx.SubjectID, err)
		respondError(w, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	log.Printf("DeleteUser: deleted subject=%s", authCtx.SubjectID)
	writeJSON(w, http.StatusOK, user)
}
