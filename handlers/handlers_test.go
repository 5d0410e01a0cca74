package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/booknest/bookshelf-api/auth"
	"github.com/booknest/bookshelf-api/catalog"
	"github.com/booknest/bookshelf-api/config"
	"github.com/booknest/bookshelf-api/handlers"
	"github.com/booknest/bookshelf-api/library"
	"github.com/booknest/bookshelf-api/middleware"
	"github.com/booknest/bookshelf-api/models"
)

// newTestMux wires the routes exactly as main does, backed by an in-memory
// store and development HS256 tokens.
func newTestMux(t *testing.T, catalogURL string) *http.ServeMux {
	t.Helper()

	config.Env = config.Environment{
		Auth0Audience: "https://api.bookshelf.dev",
		JWTSecretKey:  "test-secret-key",
		IsDevelopment: true,
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Book{}, &models.UserBook{}))

	DBHandler := &handlers.DBHandler{
		Library: library.NewService(db),
		Catalog: catalog.NewClient(catalogURL),
	}

	authMiddleware := middleware.EnsureValidToken()
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(middleware.WithAuthContext(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", handlers.Ping)
	mux.HandleFunc("GET /recently-added-books", DBHandler.RecentlyAddedBooks)
	mux.HandleFunc("GET /book-search", DBHandler.SearchBooks)
	mux.Handle("GET /user", authed(DBHandler.GetUser))
	mux.Handle("POST /verify-user", authed(DBHandler.VerifyUser))
	mux.Handle("PUT /user", authed(DBHandler.UpdateUserProfile))
	mux.Handle("DELETE /user", authed(DBHandler.DeleteUser))
	mux.Handle("GET /user-books", authed(DBHandler.ListUserBooks))
	mux.Handle("POST /user-books", authed(DBHandler.CreateUserBook))
	mux.Handle("PUT /user-books/{id}", authed(DBHandler.UpdateUserBookRating))
	mux.Handle("DELETE /user-books/{id}", authed(DBHandler.DeleteUserBook))
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, target, subject string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if subject != "" {
		token, err := auth.CreateToken(subject, subject+"@example.com", "Reader "+subject)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestPingIsPublic(t *testing.T) {
	mux := newTestMux(t, "")

	rec := doRequest(t, mux, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestMissingTokenIsRejected(t *testing.T) {
	mux := newTestMux(t, "")

	rec := doRequest(t, mux, http.MethodGet, "/user-books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGarbageTokenIsRejected(t *testing.T) {
	mux := newTestMux(t, "")

	req := httptest.NewRequest(http.MethodGet, "/user-books", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyUserAndGetUser(t *testing.T) {
	mux := newTestMux(t, "")

	rec := doRequest(t, mux, http.MethodPost, "/verify-user", "auth0|alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user struct {
		ID      uint
		Auth0ID string
		Email   string
		Name    string
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "auth0|alice", user.Auth0ID)
	assert.Equal(t, "auth0|alice@example.com", user.Email)
	assert.Equal(t, "Reader auth0|alice", user.Name)

	rec = doRequest(t, mux, http.MethodGet, "/user", "auth0|alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "auth0|alice")

	// A verified token whose subject has never logged in gets an empty object
	rec = doRequest(t, mux, http.MethodGet, "/user", "auth0|stranger", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{}", strings.TrimSpace(rec.Body.String()))
}

func TestUserBookLifecycle(t *testing.T) {
	mux := newTestMux(t, "")
	doRequest(t, mux, http.MethodPost, "/verify-user", "auth0|alice", nil)

	addBody := map[string]string{
		"title":         "Dune",
		"authors":       "Frank Herbert",
		"coverImageURL": "",
		"olid":          "OL123W",
	}
	rec := doRequest(t, mux, http.MethodPost, "/user-books", "auth0|alice", addBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created struct {
		ID   uint
		Book struct{ Title, OLID string }
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Dune", created.Book.Title)

	rec = doRequest(t, mux, http.MethodGet, "/user-books", "auth0|alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var shelf []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shelf))
	assert.Len(t, shelf, 1)

	// The public feed sees the entry without auth
	rec = doRequest(t, mux, http.MethodGet, "/recently-added-books", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recent []struct {
		Book   struct{ Title string } `json:"book"`
		Rating *int                   `json:"rating"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recent))
	require.Len(t, recent, 1)
	assert.Equal(t, "Dune", recent[0].Book.Title)
	assert.Nil(t, recent[0].Rating)

	// Fractional ratings are rejected before the range check
	rec = doRequest(t, mux, http.MethodPut, fmt.Sprintf("/user-books/%d", created.ID), "auth0|alice",
		map[string]float64{"rating": 4.5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rating must be an integer between 1 and 5.")

	rec = doRequest(t, mux, http.MethodPut, fmt.Sprintf("/user-books/%d", created.ID), "auth0|alice",
		map[string]int{"rating": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	var rated struct{ Rating *int }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rated))
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 4, *rated.Rating)

	rec = doRequest(t, mux, http.MethodDelete, fmt.Sprintf("/user-books/%d", created.ID), "auth0|alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dune")

	rec = doRequest(t, mux, http.MethodGet, "/user-books", "auth0|alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCreateUserBookValidationMessages(t *testing.T) {
	mux := newTestMux(t, "")
	doRequest(t, mux, http.MethodPost, "/verify-user", "auth0|alice", nil)

	rec := doRequest(t, mux, http.MethodPost, "/user-books", "auth0|alice", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "OLID is missing.")

	rec = doRequest(t, mux, http.MethodPost, "/user-books", "auth0|alice", map[string]string{"olid": "XYZ"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `OLID must match the format "OL" followed by a number.`)
}

func TestUpdateProfile(t *testing.T) {
	mux := newTestMux(t, "")
	doRequest(t, mux, http.MethodPost, "/verify-user", "auth0|alice", nil)

	rec := doRequest(t, mux, http.MethodPut, "/user", "auth0|alice", map[string]interface{}{
		"age": 300,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Age must be a number between 1 and 200.")

	rec = doRequest(t, mux, http.MethodPut, "/user", "auth0|alice", map[string]interface{}{
		"age":              30,
		"gender":           "f",
		"favoriteBook":     "Dune",
		"favoriteAuthor":   "Frank Herbert",
		"currentlyReading": "Hyperion",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Dune")
}

func TestDeleteUserEndpoint(t *testing.T) {
	mux := newTestMux(t, "")
	doRequest(t, mux, http.MethodPost, "/verify-user", "auth0|alice", nil)

	rec := doRequest(t, mux, http.MethodDelete, "/user", "auth0|alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "auth0|alice")

	// Repeat delete is a soft no-op
	rec = doRequest(t, mux, http.MethodDelete, "/user", "auth0|alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{}", strings.TrimSpace(rec.Body.String()))
}

func TestSearchBooksProxiesCatalog(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "dune", r.URL.Query().Get("title"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"docs":[{"key":"/works/OL123W","title":"Dune","author_name":["Frank Herbert"],"cover_i":12345}]}`)
	}))
	defer backend.Close()

	mux := newTestMux(t, backend.URL)

	rec := doRequest(t, mux, http.MethodGet, "/book-search?title=dune", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []catalog.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "OL123W", results[0].OLID)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/12345-M.jpg", results[0].CoverImageURL)

	rec = doRequest(t, mux, http.MethodGet, "/book-search", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
