package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/booknest/bookshelf-api/catalog"
	"github.com/booknest/bookshelf-api/config"
	"github.com/booknest/bookshelf-api/handlers"
	"github.com/booknest/bookshelf-api/library"
	"github.com/booknest/bookshelf-api/middleware"
)

func init() {
	// Load .env file if not in a managed environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	config.LoadEnvironment()
	if err := config.Connect(); err != nil {
		log.Fatalf("main: %v", err)
	}

	authMiddleware := middleware.EnsureValidToken()
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(middleware.WithAuthContext(h))
	}

	DBHandler := &handlers.DBHandler{
		Library: library.NewService(config.Database),
		Catalog: catalog.NewClient(config.Env.OpenLibraryURL),
	}
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /ping", handlers.Ping)
	mux.HandleFunc("GET /recently-added-books", DBHandler.RecentlyAddedBooks)
	mux.HandleFunc("GET /book-search", DBHandler.SearchBooks)

	// User
	mux.Handle("GET /user", authed(DBHandler.GetUser))
	mux.Handle("POST /verify-user", authed(DBHandler.VerifyUser))
	mux.Handle("PUT /user", authed(DBHandler.UpdateUserProfile))
	mux.Handle("DELETE /user", authed(DBHandler.DeleteUser))

	// User books
	mux.Handle("GET /user-books", authed(DBHandler.ListUserBooks))
	mux.Handle("POST /user-books", authed(DBHandler.CreateUserBook))
	mux.Handle("PUT /user-books/{id}", authed(DBHandler.UpdateUserBookRating))
	mux.Handle("DELETE /user-books/{id}", authed(DBHandler.DeleteUserBook))

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(middleware.RequestLogger(mux))

	server := &http.Server{
		Addr:    "0.0.0.0:" + config.Env.Port,
		Handler: corsHandler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("main: server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("main: shutdown error: %v", err)
	}
	if err := config.Close(); err != nil {
		log.Printf("main: closing database: %v", err)
	}
}
