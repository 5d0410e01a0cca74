package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/booknest/bookshelf-api/auth"
	"github.com/booknest/bookshelf-api/config"
)

// CustomClaims carries the namespaced profile claims the identity provider
// adds to access tokens.
type CustomClaims struct {
	Email string
	Name  string
}

func (c *CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// UnmarshalJSON pulls the audience-namespaced claims out of the raw token
// payload; the key names depend on runtime configuration, so struct tags
// cannot express them.
func (c *CustomClaims) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	namespace := config.Env.Auth0Audience
	if email, ok := raw[namespace+"/email"].(string); ok {
		c.Email = email
	}
	if name, ok := raw[namespace+"/name"].(string); ok {
		c.Name = name
	}
	return nil
}

// EnsureValidToken builds the middleware that rejects requests without a
// valid bearer token. Production tokens are RS256 and verified against the
// Auth0 tenant JWKS; development tokens are HS256 from the auth package.
func EnsureValidToken() func(next http.Handler) http.Handler {
	var jwtValidator *validator.Validator
	var err error

	customClaims := func() validator.CustomClaims { return &CustomClaims{} }

	if config.Env.IsDevelopment {
		keyFunc := func(ctx context.Context) (interface{}, error) {
			return []byte(config.Env.JWTSecretKey), nil
		}
		jwtValidator, err = validator.New(
			keyFunc,
			validator.HS256,
			auth.Issuer,
			[]string{config.Env.Auth0Audience},
			validator.WithCustomClaims(customClaims),
		)
	} else {
		issuerURL, parseErr := url.Parse("https://" + config.Env.Auth0Domain + "/")
		if parseErr != nil {
			log.Fatalf("EnsureValidToken: invalid AUTH0_DOMAIN: %v", parseErr)
		}
		provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
		jwtValidator, err = validator.New(
			provider.KeyFunc,
			validator.RS256,
			issuerURL.String(),
			[]string{config.Env.Auth0Audience},
			validator.WithCustomClaims(customClaims),
		)
	}
	if err != nil {
		log.Fatalf("EnsureValidToken: failed to set up JWT validator: %v", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("EnsureValidToken: token validation failed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Failed to validate JWT."}`))
	}

	jwtMiddleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(next http.Handler) http.Handler {
		return jwtMiddleware.CheckJWT(next)
	}
}
