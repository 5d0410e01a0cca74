package middleware

import (
	"log"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// RequestLogger tags every request with a short id and logs the
// method and path, so concurrent request logs can be correlated.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, err := gonanoid.New()
		if err == nil {
			w.Header().Set("X-Request-ID", requestID)
			r.Header.Set("X-Request-ID", requestID)
		}
		log.Printf("[%s] %s %s", requestID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
