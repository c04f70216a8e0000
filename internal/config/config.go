package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the Freightdeck API.
type Config struct {
	Environment    string
	HTTPPort       int
	DatabaseURL    string
	DataStore      string
	LogLevel       string
	AllowedOrigins []string
	StaticDir      string
	FrontendURL    string
	SessionTTL     time.Duration

	GoogleClientID      string
	GoogleClientSecret  string
	OAuthRedirectURL    string
	AllowedEmailDomains []string
	AllowedEmails       []string

	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
}

// Load reads configuration from environment variables with sensible defaults for local development.
func Load() (Config, error) {
	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/freightdeck_database_url")
	if err != nil {
		return Config{}, err
	}

	googleSecret, err := getEnvOrFile("GOOGLE_CLIENT_SECRET", "/run/secrets/freightdeck_google_client_secret")
	if err != nil {
		return Config{}, err
	}

	s3Secret, err := getEnvOrFile("S3_SECRET_KEY", "/run/secrets/freightdeck_s3_secret_key")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:         getEnv("APP_ENV", "development"),
		DatabaseURL:         databaseURL,
		DataStore:           strings.ToLower(getEnv("DATA_STORE", "memory")),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins:      parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		StaticDir:           getEnv("WEB_DIST_PATH", "web/dist"),
		FrontendURL:         strings.TrimSuffix(getEnv("FRONTEND_URL", "http://localhost:8080"), "/"),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  strings.TrimSpace(googleSecret),
		OAuthRedirectURL:    getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
		AllowedEmailDomains: parseCSV(getEnv("ALLOWED_EMAIL_DOMAINS", "")),
		AllowedEmails:       parseCSV(getEnv("ALLOWED_EMAILS", "")),
		S3Endpoint:          getEnv("S3_ENDPOINT", ""),
		S3Region:            getEnv("S3_REGION", "us-east-1"),
		S3Bucket:            getEnv("S3_BUCKET", "avatars"),
		S3AccessKey:         getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:         strings.TrimSpace(s3Secret),
		S3PublicBaseURL:     strings.TrimSuffix(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8080"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	ttlValue := getEnv("SESSION_TTL_HOURS", "12")
	ttlHours, err := strconv.Atoi(ttlValue)
	if err != nil || ttlHours <= 0 {
		return Config{}, fmt.Errorf("invalid SESSION_TTL_HOURS %q", ttlValue)
	}
	cfg.SessionTTL = time.Duration(ttlHours) * time.Hour

	if cfg.DataStore == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATA_STORE is postgres but DATABASE_URL is not set")
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UseInMemoryStore returns true if the in-memory repository should be used.
func (c Config) UseInMemoryStore() bool {
	return c.DataStore == "memory"
}

// OAuthConfigured reports whether Google sign-in credentials are present.
func (c Config) OAuthConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
