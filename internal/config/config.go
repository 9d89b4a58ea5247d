package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreMemory    = "memory"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
	StoreSQLite    = "sqlite"
)

// Auth drivers
const (
	AuthLocal    = "local"
	AuthFirebase = "firebase"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Document store selection
	Store StoreConfig

	// Database configuration (postgres store)
	Database DatabaseConfig

	// Firebase configuration (firestore store, firebase auth)
	Firebase FirebaseConfig

	// Admin authentication
	Auth AuthConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration // 0 keeps SSE streams open
	ShutdownTimeout time.Duration
	SnapshotWait    time.Duration // how long a request waits for a first snapshot
	AllowedOrigin   string
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Driver     string
	SQLitePath string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// FirebaseConfig holds Firebase project settings
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	APIKey          string
	SignInEndpoint  string
}

// AuthConfig holds admin sign-in settings
type AuthConfig struct {
	Driver            string
	AdminEmail        string
	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string
	SessionTTL        time.Duration
	CookieSecure      bool
	AllowedEmails     []string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Pretty reports whether console output was requested
func (l LogConfig) Pretty() bool {
	return l.Format == "pretty"
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 0),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			SnapshotWait:    getDurationEnv("SNAPSHOT_WAIT", 3*time.Second),
			AllowedOrigin:   getEnv("CORS_ALLOWED_ORIGIN", "*"),
		},
		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", StoreMemory),
			SQLitePath: getEnv("SQLITE_PATH", "./data/preschool.db"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "preschool_cms"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			APIKey:          getEnv("FIREBASE_API_KEY", ""),
			SignInEndpoint:  getEnv("FIREBASE_SIGN_IN_ENDPOINT", "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"),
		},
		Auth: AuthConfig{
			Driver:            getEnv("AUTH_DRIVER", AuthLocal),
			AdminEmail:        getEnv("ADMIN_EMAIL", ""),
			AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:         getEnv("JWT_SECRET", ""),
			SessionTTL:        getDurationEnv("SESSION_TTL", 12*time.Hour),
			CookieSecure:      getBoolEnv("COOKIE_SECURE", false),
			AllowedEmails:     getListEnv("ADMIN_ALLOWED_EMAILS"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", defaultLogFormat()),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case StoreFirestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore store")
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Auth.Driver {
	case AuthLocal:
		if c.Auth.AdminEmail == "" {
			return fmt.Errorf("ADMIN_EMAIL is required for local auth")
		}
		if c.Auth.AdminPassword == "" && c.Auth.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required for local auth")
		}
		if len(c.Auth.JWTSecret) < 16 {
			return fmt.Errorf("JWT_SECRET must be at least 16 characters")
		}
	case AuthFirebase:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for firebase auth")
		}
		if c.Firebase.APIKey == "" {
			return fmt.Errorf("FIREBASE_API_KEY is required for firebase auth")
		}
	default:
		return fmt.Errorf("unknown AUTH_DRIVER %q", c.Auth.Driver)
	}

	if c.Server.SnapshotWait <= 0 {
		return fmt.Errorf("SNAPSHOT_WAIT must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "pretty" {
		return fmt.Errorf("LOG_FORMAT must be json or pretty, got %q", c.Log.Format)
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

// defaultLogFormat is pretty in development and json elsewhere
func defaultLogFormat() string {
	if os.Getenv("ENV") == "development" {
		return "pretty"
	}
	return "json"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
