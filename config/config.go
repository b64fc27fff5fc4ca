package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Tenant    TenantConfig
	Media     MediaConfig
	Catalog   CatalogConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	LogLevel    string
	LogFormat   string
}

type DatabaseConfig struct {
	Host             string
	Port             string
	User             string
	Password         string
	DBName           string
	SSLMode          string
	StatementTimeout time.Duration
	MaxIdleConns     int
	MaxOpenConns     int
	ConnMaxLifetime  time.Duration
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig is optional. An empty Host disables Redis and the
// in-memory tenant cache is used instead.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

type StorageConfig struct {
	Driver   string // local, s3
	LocalDir string
	S3       S3Config
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type TenantConfig struct {
	BaseDomain     string
	PlatformSuffix string
	CacheTTL       time.Duration

	// CachePurgeSchedule is a cron spec for sweeping expired entries from
	// the in-memory tenant cache. Unused when Redis is enabled.
	CachePurgeSchedule string
}

type MediaConfig struct {
	PublicBaseURL string
	MaxUploadSize int64
}

type CatalogConfig struct {
	OwnerScopedWrites bool
	EnforceSalePrice  bool
}

type RateLimitConfig struct {
	AuthRequestsPerMinute int
	AuthBurst             int
}

type AdminConfig struct {
	Username string
	Email    string
	Password string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", ""),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Host:             getEnv("DB_HOST", "localhost"),
			Port:             getEnv("DB_PORT", "5432"),
			User:             getEnv("DB_USER", "storeup"),
			Password:         getEnv("DB_PASSWORD", "storeup"),
			DBName:           getEnv("DB_NAME", "storeup"),
			SSLMode:          getEnv("DB_SSLMODE", "disable"),
			StatementTimeout: parseDuration(getEnv("DB_STATEMENT_TIMEOUT", "5s"), 5*time.Second),
			MaxIdleConns:     parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),
			MaxOpenConns:     parseInt(getEnv("DB_MAX_OPEN_CONNS", "50"), 50),
			ConnMaxLifetime:  parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "24h"), 24*time.Hour),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", "local"),
			LocalDir: getEnv("STORAGE_LOCAL_DIR", "./media"),
			S3: S3Config{
				Region:          getEnv("AWS_REGION", "us-east-1"),
				Bucket:          getEnv("AWS_S3_BUCKET", "storeup-media"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
			},
		},
		Tenant: TenantConfig{
			BaseDomain:     strings.ToLower(getEnv("BASE_DOMAIN", "localhost")),
			PlatformSuffix: strings.ToLower(getEnv("PLATFORM_SUFFIX", ".onrender.com")),
			CacheTTL:       parseDuration(getEnv("TENANT_CACHE_TTL", "5m"), 5*time.Minute),

			CachePurgeSchedule: getEnv("TENANT_CACHE_PURGE_SCHEDULE", "@every 10m"),
		},
		Media: MediaConfig{
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			MaxUploadSize: int64(parseInt(getEnv("MAX_UPLOAD_SIZE_MB", "10"), 10)) << 20,
		},
		Catalog: CatalogConfig{
			OwnerScopedWrites: parseBool(getEnv("CATALOG_OWNER_SCOPED_WRITES", "false")),
			EnforceSalePrice:  parseBool(getEnv("CATALOG_ENFORCE_SALE_PRICE", "false")),
		},
		RateLimit: RateLimitConfig{
			AuthRequestsPerMinute: parseInt(getEnv("AUTH_RATE_LIMIT_PER_MINUTE", "30"), 30),
			AuthBurst:             parseInt(getEnv("AUTH_RATE_LIMIT_BURST", "10"), 10),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", ""),
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	if config.Server.Environment == "production" && config.JWT.Secret == "your-secret-key" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}
	if config.Storage.Driver != "local" && config.Storage.Driver != "s3" {
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", config.Storage.Driver)
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
	if c.StatementTimeout > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", c.StatementTimeout.Milliseconds())
	}
	return dsn
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
