package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret               string
	JWTAccessTokenDuration  time.Duration
	JWTRefreshTokenDuration time.Duration

	// Uploads / local media storage
	UploadsPath        string
	UploadMaxImageSize int64
	UploadMaxPerDay    int
	UploadURLPrefix    string

	// Media S3 (optional object-store backend alongside local disk)
	MediaS3Enabled         bool
	MediaS3Endpoint        string
	MediaS3Region          string
	MediaS3AccessKeyID     string
	MediaS3SecretAccessKey string
	MediaS3UsePathStyle    bool
	MediaBucket            string

	// AI design service
	AIServiceURL     string
	AIServiceTimeout time.Duration

	// Chat service
	ChatServiceURL     string
	ChatServiceTimeout time.Duration

	// Security
	RateLimitRequests int
	RateLimitDuration time.Duration

	// CORS
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func New() *Config {
	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "gruhabuddy"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "gruhabuddy_db"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// JWT
		JWTSecret:               getEnv("JWT_SECRET", "your-secret-key"),
		JWTAccessTokenDuration:  getEnvAsDuration("JWT_ACCESS_TOKEN_DURATION", "1h"),
		JWTRefreshTokenDuration: getEnvAsDuration("JWT_REFRESH_TOKEN_DURATION", "168h"),

		// Uploads
		UploadsPath:        getEnv("UPLOADS_PATH", "./uploads"),
		UploadMaxImageSize: getEnvAsInt64("UPLOAD_MAX_IMAGE_SIZE", 10*1024*1024),
		UploadMaxPerDay:    getEnvAsInt("UPLOAD_MAX_PER_DAY", 30),
		UploadURLPrefix:    getEnv("UPLOAD_URL_PREFIX", "/uploads"),

		// Media S3
		MediaS3Enabled:         getEnv("MEDIA_S3_ENABLED", "false") == "true",
		MediaS3Endpoint:        getEnv("MEDIA_S3_ENDPOINT", ""),
		MediaS3Region:          getEnv("MEDIA_S3_REGION", "us-east-1"),
		MediaS3AccessKeyID:     getEnv("MEDIA_S3_ACCESS_KEY_ID", ""),
		MediaS3SecretAccessKey: getEnv("MEDIA_S3_SECRET_ACCESS_KEY", ""),
		MediaS3UsePathStyle:    getEnv("MEDIA_S3_USE_PATH_STYLE", "true") == "true",
		MediaBucket:            getEnv("MEDIA_BUCKET", "gruhabuddy-media"),

		// AI design service
		AIServiceURL:     getEnv("AI_SERVICE_URL", "http://localhost:5001"),
		AIServiceTimeout: getEnvAsDuration("AI_SERVICE_TIMEOUT", "30s"),

		// Chat service
		ChatServiceURL:     getEnv("CHAT_SERVICE_URL", "http://localhost:5001"),
		ChatServiceTimeout: getEnvAsDuration("CHAT_SERVICE_TIMEOUT", "15s"),

		// Security
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration: getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{getEnv("FRONTEND_URL", "http://localhost:3000"), "http://localhost:5173"}),
		AllowedMethods: getEnvAsSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: getEnvAsSlice("ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
