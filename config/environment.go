package config

import "os"

type Environment struct {
	Port           string
	DatabaseURL    string
	Auth0Domain    string
	Auth0Audience  string
	JWTSecretKey   string
	OpenLibraryURL string
	IsDevelopment  bool
}

var Env Environment

// LoadEnvironment reads the process environment into Env. Called from main
// after godotenv has run so .env values are visible.
func LoadEnvironment() {
	domain := os.Getenv("AUTH0_DOMAIN")

	// Without an Auth0 tenant we're in development: bearer tokens are
	// HS256-signed with JWT_SECRET_KEY instead of validated against JWKS.
	isDev := domain == ""

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // fallback port for local development
	}

	audience := os.Getenv("AUTH0_AUDIENCE")
	if audience == "" {
		audience = "https://api.bookshelf.dev"
	}

	openLibraryURL := os.Getenv("OPENLIBRARY_URL")
	if openLibraryURL == "" {
		openLibraryURL = "https://openlibrary.org"
	}

	Env = Environment{
		Port:           port,
		DatabaseURL:    os.Getenv("DB_URL"),
		Auth0Domain:    domain,
		Auth0Audience:  audience,
		JWTSecretKey:   os.Getenv("JWT_SECRET_KEY"),
		OpenLibraryURL: openLibraryURL,
		IsDevelopment:  isDev,
	}
}
