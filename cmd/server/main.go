package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"github.com/preschool-cms-api/internal/api"
	"github.com/preschool-cms-api/internal/auth"
	"github.com/preschool-cms-api/internal/config"
	"github.com/preschool-cms-api/internal/database"
	"github.com/preschool-cms-api/internal/repository"
	"github.com/preschool-cms-api/internal/service"
	"github.com/preschool-cms-api/internal/store"
	"github.com/preschool-cms-api/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	// Bootstrap logger until configuration is loaded
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.NewWithWriter(os.Stdout, cfg.Log.Level, cfg.Log.Pretty())
	log.Info().Str("level", cfg.Log.Level).Msg("Starting Preschool CMS API server...")

	ctx := context.Background()

	// Firebase is shared by the firestore store and firebase auth
	var app *firebase.App
	if cfg.Store.Driver == config.StoreFirestore || cfg.Auth.Driver == config.AuthFirebase {
		app, err = database.NewFirebaseApp(ctx, &cfg.Firebase)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Firebase")
		}
	}

	// Initialize document store
	st, err := openStore(ctx, cfg, app, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open document store")
	}
	defer st.Close()

	// Initialize auth provider
	provider, err := newAuthProvider(ctx, cfg, app, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Auth.Driver).Msg("Failed to initialize auth provider")
	}

	// Initialize repositories
	repos := repository.New(st)

	// Initialize services
	services := service.NewServices(repos, cfg, log)
	if err := services.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start live collections")
	}

	// Initialize router
	router := api.NewRouter(services, provider, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("store", cfg.Store.Driver).
			Str("auth", cfg.Auth.Driver).
			Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Release subscriptions before the store closes
	services.Stop()

	log.Info().Msg("Server exited gracefully")
}

// openStore opens the document store selected by STORE_DRIVER
func openStore(ctx context.Context, cfg *config.Config, app *firebase.App, log zerolog.Logger) (store.DocumentStore, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
		st, err := store.NewPostgresStore(db, log)
		if err != nil {
			db.Close()
			return nil, err
		}
		return st, nil

	case config.StoreFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firestore client: %w", err)
		}
		log.Info().Str("project", cfg.Firebase.ProjectID).Msg("Firestore document store opened")
		return store.NewFirestoreStore(client, log), nil

	case config.StoreSQLite:
		return store.NewSQLiteStore(cfg.Store.SQLitePath, log)

	default:
		log.Warn().Msg("Using in-memory document store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}
}

// newAuthProvider builds the admin sign-in provider selected by AUTH_DRIVER
func newAuthProvider(ctx context.Context, cfg *config.Config, app *firebase.App, log zerolog.Logger) (auth.Provider, error) {
	if cfg.Auth.Driver == config.AuthFirebase {
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firebase auth client: %w", err)
		}
		return auth.NewFirebaseProvider(client, &cfg.Firebase, &cfg.Auth, log), nil
	}
	return auth.NewLocalProvider(&cfg.Auth)
}
