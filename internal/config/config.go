package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
)

type Config struct {
	ServerPort string

	StoreBackend string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	FirebaseProjectID   string
	FirebaseClientEmail string
	FirebasePrivateKey  string
	FirebaseWebAPIKey   string

	RedisURL string

	JWTSecret         string
	AccessTokenMaxAge int
	CookieSecure      bool

	TMDBAPIKey    string
	TMDBBaseURL   string
	TMDBRateLimit float64

	CORSAllowedOrigins []string
	HTTPRateLimit      int

	LogLevel  string
	LogPretty bool

	RecommendDebounce time.Duration
	WorkerCount       int
	FeedFanoutLimit   int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendFirestore)),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseClientEmail: os.Getenv("FIREBASE_CLIENT_EMAIL"),
		// Keys pasted into .env files carry literal \n sequences.
		FirebasePrivateKey: strings.ReplaceAll(os.Getenv("FIREBASE_PRIVATE_KEY"), "\\n", "\n"),
		FirebaseWebAPIKey:  os.Getenv("FIREBASE_WEB_API_KEY"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AccessTokenMaxAge: getEnvInt("ACCESS_TOKEN_MAX_AGE", 86400),
		CookieSecure:      getEnv("COOKIE_SECURE", "false") == "true",

		TMDBAPIKey:    os.Getenv("TMDB_API_KEY"),
		TMDBBaseURL:   getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBRateLimit: getEnvFloat("TMDB_RATE_LIMIT", 40),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPRateLimit:      getEnvInt("HTTP_RATE_LIMIT", 300),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnv("LOG_PRETTY", "false") == "true",

		RecommendDebounce: time.Duration(getEnvInt("RECOMMEND_DEBOUNCE_MS", 400)) * time.Millisecond,
		WorkerCount:       getEnvInt("WORKER_COUNT", 2),
		FeedFanoutLimit:   getEnvInt("FEED_FANOUT_LIMIT", 8),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TMDBAPIKey == "" {
		errs = append(errs, errors.New("TMDB_API_KEY is required"))
	}

	switch c.StoreBackend {
	case BackendFirestore:
		if c.FirebaseProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required for the firestore backend"))
		}
		if c.FirebaseWebAPIKey == "" {
			errs = append(errs, errors.New("FIREBASE_WEB_API_KEY is required for the firestore backend"))
		}
	case BackendPostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			errs = append(errs, errors.New("DB_HOST, DB_USER and DB_NAME are required for the postgres backend"))
		}
	default:
		errs = append(errs, errors.New("STORE_BACKEND must be firestore or postgres"))
	}

	return errors.Join(errs...)
}

// UsesRedis reports whether recompute jobs go through Redis Streams.
func (c *Config) UsesRedis() bool {
	return c.RedisURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
