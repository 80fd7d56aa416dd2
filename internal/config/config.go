package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string // service role key, used by cmd/seed only
	SupabaseAnonKey string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string
	// Hierarchy storage
	HierarchyBackend string // "postgres", "mongo" or "memory"
	MongoURI         string
	MongoDatabase    string
	// Object storage
	BlobBackend      string // "gcs" or "memory"
	GCSBucket        string
	GCSPublicBaseURL string
	GCSEmulatorHost  string
	// Identity
	AllowedEmailDomains []string // empty = any domain may sign in
	AuthRedirectURL     string
	// Workspace behaviour
	DeleteGracePeriod   time.Duration
	UploadConfirmDelay  time.Duration
	WorkspaceIdleExpiry time.Duration
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      env,
		SupabaseURL:      supabaseURL,
		SupabaseKey:      getEnv("SUPABASE_KEY", ""),
		SupabaseAnonKey:  getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseDBURL:    getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL:  jwksURL,
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:      tablePrefix,
		HierarchyBackend: getEnv("HIERARCHY_BACKEND", "postgres"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DATABASE", "coursehub_"+env),
		BlobBackend:      getEnv("BLOB_BACKEND", "gcs"),
		GCSBucket:        getEnv("GCS_BUCKET", ""),
		GCSPublicBaseURL: getEnv("GCS_PUBLIC_BASE_URL", ""),
		GCSEmulatorHost:  getEnv("STORAGE_EMULATOR_HOST", ""),

		AllowedEmailDomains: splitList(getEnv("ALLOWED_EMAIL_DOMAINS", "")),
		AuthRedirectURL:     getEnv("AUTH_REDIRECT_URL", ""),

		DeleteGracePeriod:   getDuration("DELETE_GRACE_PERIOD", DefaultDeleteGracePeriod),
		UploadConfirmDelay:  getDuration("UPLOAD_CONFIRM_DELAY", DefaultUploadConfirmDelay),
		WorkspaceIdleExpiry: getDuration("WORKSPACE_IDLE_EXPIRY", 2*time.Hour),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
