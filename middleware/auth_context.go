package middleware

import (
	"context"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// AuthContext is the verified identity of the caller: the opaque subject id
// plus the profile claims from the token. It is threaded into service calls
// explicitly rather than read from ambient state.
type AuthContext struct {
	SubjectID string
	Email     string
	Name      string
}

type contextKey string

const authContextKey = contextKey("authContext")

// WithAuthContext lifts the validated token claims into an AuthContext for
// downstream handlers. Must run after EnsureValidToken.
func WithAuthContext(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
		if !ok || claims.RegisteredClaims.Subject == "" {
			http.Error(w, "No subject found in token", http.StatusUnauthorized)
			return
		}

		authCtx := AuthContext{SubjectID: claims.RegisteredClaims.Subject}
		if customClaims, ok := claims.CustomClaims.(*CustomClaims); ok && customClaims != nil {
			authCtx.Email = customClaims.Email
			authCtx.Name = customClaims.Name
		}

		ctx := context.WithValue(r.Context(), authContextKey, authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// AuthContextFrom returns the caller identity attached by WithAuthContext.
func AuthContextFrom(r *http.Request) (AuthContext, bool) {
	authCtx, ok := r.Context().Value(authContextKey).(AuthContext)
	return authCtx, ok
}
