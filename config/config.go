package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"shopbilling/models"
)

type Config struct {
	Port     string
	DBType   string
	LogLevel string

	PostgresURL string
	MongoURL    string
	MongoDB     string
	SQLitePath  string
	MaxDBConns  int

	Shop models.ShopProfile
	SMS  SMSConfig
	R2   R2Config

	AdminPassword     string
	AdminPasswordHash string

	CORSOrigin string
	StaticDir  string
}

type SMSConfig struct {
	Provider       string
	MSG91APIKey    string
	MSG91SenderID  string
	MSG91Route     string
	Fast2SMSAPIKey string
	Timeout        time.Duration
}

// R2Config is optional; receipts are only uploaded when Enabled reports true.
type R2Config struct {
	Bucket          string
	AccountID       string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
}

func (c R2Config) Enabled() bool {
	return c.Bucket != "" && c.AccountID != "" && c.PublicURL != ""
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using system environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:       getEnv("PORT", "5000"),
		DBType:     strings.ToLower(getEnv("DB_TYPE", "postgres")),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		MongoURL:   os.Getenv("MONGO_URL"),
		MongoDB:    getEnv("MONGO_DB", "retail_shop_db"),
		SQLitePath: getEnv("SQLITE_PATH", "./data/bills.db"),
		Shop: models.ShopProfile{
			Name:    getEnv("SHOP_NAME", "Our Shop"),
			Website: getEnv("SHOP_WEBSITE", "https://yourshop.com"),
			Phone:   os.Getenv("SHOP_PHONE"),
			Address: os.Getenv("SHOP_ADDRESS"),
		},
		SMS: SMSConfig{
			Provider:       strings.ToLower(getEnv("SMS_PROVIDER", "msg91")),
			MSG91APIKey:    os.Getenv("SMS_API_KEY"),
			MSG91SenderID:  getEnv("SMS_SENDER_ID", "SHOPNA"),
			MSG91Route:     getEnv("SMS_ROUTE", "4"),
			Fast2SMSAPIKey: os.Getenv("FAST2SMS_API_KEY"),
		},
		R2: R2Config{
			Bucket:          os.Getenv("R2_BUCKET"),
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			PublicURL:       os.Getenv("R2_PUBLIC_URL"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		},
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		CORSOrigin:        getEnv("CORS_ORIGIN", "*"),
		StaticDir:         os.Getenv("STATIC_DIR"),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q", cfg.Port)
	}

	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	if err != nil || maxConns < 1 {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS %q", os.Getenv("DB_MAX_CONNS"))
	}
	cfg.MaxDBConns = maxConns

	timeout, err := time.ParseDuration(getEnv("SMS_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid SMS_TIMEOUT %q", os.Getenv("SMS_TIMEOUT"))
	}
	cfg.SMS.Timeout = timeout

	switch cfg.DBType {
	case "postgres":
		cfg.PostgresURL = postgresURL()
	case "mongo":
		if cfg.MongoURL == "" {
			return nil, fmt.Errorf("MONGO_URL is required when DB_TYPE=mongo")
		}
	case "sqlite", "memory":
	default:
		return nil, fmt.Errorf("DB_TYPE %q not supported", cfg.DBType)
	}

	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		slog.Warn("ADMIN_PASSWORD not set in environment variables; all admin requests will be rejected")
	}

	return cfg, nil
}

// postgresURL prefers POSTGRES_URL and otherwise assembles a DSN from the
// discrete DB_* variables.
func postgresURL() string {
	if u := os.Getenv("POSTGRES_URL"); u != "" {
		return u
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getEnv("DB_USER", "postgres"), os.Getenv("DB_PASSWORD")),
		Host:   getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432"),
		Path:   "/" + getEnv("DB_NAME", "retail_shop_db"),
	}
	q := u.Query()
	q.Set("sslmode", getEnv("DB_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
