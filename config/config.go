package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Store    StoreConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	AllowedOrigins []string
	TrustedProxies []string
	RateLimit      float64
	RateBurst      int
}

type DatabaseConfig struct {
	Driver       string
	DSN          string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	LoginURL  string
}

type StoreConfig struct {
	DeliveryCharge decimal.Decimal
	PageSize       int
	SeedDemoData   bool
}

type LogConfig struct {
	Level string
}

// Load reads .env (when present) and the process environment. Environment wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CORS_ORIGINS", "http://127.0.0.1:5500")
	v.SetDefault("TRUSTED_PROXIES", "127.0.0.1")
	v.SetDefault("RATE_LIMIT", 50)
	v.SetDefault("RATE_BURST", 50)

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "food_store")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_LOG_LEVEL", "warn")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("LOGIN_URL", "/login")

	v.SetDefault("DELIVERY_CHARGE", "0")
	v.SetDefault("PAGE_SIZE", 12)
	v.SetDefault("SEED_DEMO_DATA", false)

	v.SetDefault("LOG_LEVEL", "info")

	deliveryCharge, err := decimal.NewFromString(v.GetString("DELIVERY_CHARGE"))
	if err != nil {
		return nil, fmt.Errorf("invalid DELIVERY_CHARGE %q: %w", v.GetString("DELIVERY_CHARGE"), err)
	}
	if deliveryCharge.IsNegative() {
		return nil, fmt.Errorf("DELIVERY_CHARGE must not be negative")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			Mode:           v.GetString("GIN_MODE"),
			AllowedOrigins: splitList(v.GetString("CORS_ORIGINS")),
			TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
			RateLimit:      v.GetFloat64("RATE_LIMIT"),
			RateBurst:      v.GetInt("RATE_BURST"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:          v.GetString("DB_DSN"),
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			LogLevel:     v.GetString("DB_LOG_LEVEL"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  time.Duration(v.GetInt("JWT_EXPIRATION_HOURS")) * time.Hour,
			LoginURL:  v.GetString("LOGIN_URL"),
		},
		Store: StoreConfig{
			DeliveryCharge: deliveryCharge,
			PageSize:       v.GetInt("PAGE_SIZE"),
			SeedDemoData:   v.GetBool("SEED_DEMO_DATA"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "mysql" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Store.PageSize <= 0 {
		cfg.Store.PageSize = 12
	}

	return cfg, nil
}

// MySQLDSN builds a go-sql-driver DSN from the individual settings unless DSN is set.
func (d DatabaseConfig) MySQLDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// SQLiteDSN defaults to a file next to the binary.
func (d DatabaseConfig) SQLiteDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return d.Name + ".db"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
