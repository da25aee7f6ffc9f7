// Command accounts runs the user-account service: registration, login,
// logout, token refresh, and ownership-gated user CRUD over HTTP+JSON.
//
// @title Accounts API
// @version 1.0
// @description Minimal user-account service with bearer-token authentication.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/urfave/cli/v2"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/auth"
	"github.com/user/accounts-go/config"
	"github.com/user/accounts-go/db"
	_ "github.com/user/accounts-go/docs" // swagger spec registration
	"github.com/user/accounts-go/users"
)

func main() {
	app := &cli.App{
		Name:           "accounts",
		Usage:          "user account service",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: runServe,
			},
			{
				Name:  "migrate",
				Usage: "apply pending database migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Value: "./migrations",
						Usage: "directory containing migration files",
					},
				},
				Action: runMigrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig loads .env (when present) and the environment configuration.
func loadConfig() (*config.AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}
	return config.LoadConfig()
}

func runMigrate(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := db.RunMigrations(cfg.DB, c.String("path")); err != nil {
		return err
	}
	log.Println("Migrations applied")
	return nil
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	defer pool.Close()

	// The token denylist is optional: with no Redis address configured,
	// logout is client-side only and tokens stay valid until expiry.
	denylist := auth.NewNoopDenylist()
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		denylist = auth.NewRedisDenylist(redisClient)
		log.Println("Token denylist enabled (redis)")
	} else {
		log.Println("Token denylist disabled; logout is client-side only")
	}

	store := auth.NewPGStore(pool)
	tokens := auth.NewTokenService(*cfg.Auth, denylist)

	authService := auth.NewAuthService(store, tokens)
	authHandlers := auth.NewHandlers(authService)

	userService := users.NewUserService(store)
	userHandlers := users.NewUserHandlers(userService)

	r := chi.NewRouter()

	// Global middleware; chi requires all of it registered before routes.
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(jsonRecoverer)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Public auth routes. Login is throttled per client IP.
	r.Post("/register", authHandlers.HandleRegister())
	r.With(httprate.LimitByIP(5, time.Minute)).Post("/login", authHandlers.HandleLogin())

	// Token-guarded routes.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireToken(tokens, store))

		r.Post("/logout", authHandlers.HandleLogout())
		r.Get("/me", authHandlers.HandleMe())
		r.Post("/refresh", authHandlers.HandleRefresh())

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandlers.HandleList())
			r.Get("/{id}", userHandlers.HandleGet())
			r.Put("/{id}", userHandlers.HandleUpdate())
			r.Delete("/{id}", userHandlers.HandleDelete())
		})
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("Server stopped gracefully")
	return nil
}

// jsonRecoverer recovers from handler panics and responds with the
// standard apperror JSON shape instead of a bare 500. It replaces chi's
// Recoverer so panics stay on the error contract.
func jsonRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			if rvr := recover(); rvr != nil {
				log.Printf("Panic: %+v", rvr)
				writeError(ww, apperror.NewInternalError("internal server error", nil))
			}
		}()
		next.ServeHTTP(ww, r)
	})
}

// writeError is a local helper for the panic recovery middleware, kept
// separate to avoid pulling handler helpers into main.
func writeError(w http.ResponseWriter, appErr *apperror.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	if err := json.NewEncoder(w).Encode(appErr.ToResponse()); err != nil {
		http.Error(w, `{"error":"Failed to encode error response"}`, http.StatusInternalServerError)
	}
}
