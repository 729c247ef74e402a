package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port     string
	IsProd   bool
	LogLevel string

	DBDriver string // sqlite or mysql
	DBDSN    string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	BcryptCost         int

	RedisAddr     string // empty selects the in-process cache
	RedisPassword string
	RedisDB       int

	AuthRateLimitRPS   float64
	AuthRateLimitBurst int

	CORSOrigins []string
}

// Load reads configuration from the environment, after loading .env if present
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Port:     getEnv("PORT", "8080"),
		IsProd:   getEnv("IS_PROD", "false") == "true",
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:    getEnv("DB_DSN", "food_delivery.db"),

		AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", "food_delivery_access_secret_dev"),
		RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", "food_delivery_refresh_secret_dev"),
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:         getInt("BCRYPT_COST", 12),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		AuthRateLimitRPS:   getFloat("AUTH_RATE_LIMIT_RPS", 5),
		AuthRateLimitBurst: getInt("AUTH_RATE_LIMIT_BURST", 10),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:8081,http://localhost:19006")),
	}
}

// Validate rejects configurations the server must not start with
func (c *Config) Validate() error {
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.IsProd && (os.Getenv("ACCESS_TOKEN_SECRET") == "" || os.Getenv("REFRESH_TOKEN_SECRET") == "") {
		return errors.New("token secrets must be provided explicitly in production")
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "mysql" {
		return errors.New("DB_DRIVER must be sqlite or mysql")
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return errors.New("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
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
