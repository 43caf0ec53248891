package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	CORSOrigin   string
	CookieSecure bool
}

func Load() *Config {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	return &Config{
		Port:     getenv("PORT", "8080"),
		MongoURI: getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getenv("MONGO_DB", "bookstore"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "book-covers"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		JWTAccessSecret:  getenv("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret: getenv("JWT_REFRESH_SECRET", ""),
		AccessTokenTTL:   getduration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getduration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		CORSOrigin:   getenv("CORS_ORIGIN", "http://localhost:5173"),
		CookieSecure: getenv("COOKIE_SECURE", "false") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
