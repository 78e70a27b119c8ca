package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ChangeFeed выбирает источник уведомлений об изменениях для подписок.
type ChangeFeed string

const (
	ChangeFeedLocal    ChangeFeed = "local"
	ChangeFeedPostgres ChangeFeed = "postgres"
	ChangeFeedNATS     ChangeFeed = "nats"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	// Пустой DatabaseURL означает хранилище в памяти.
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	AdminEmail        string
	AdminPasswordHash string

	RequestTimeout time.Duration
	AllowedOrigins []string
	PublicBaseURL  string
	// Только от этих адресов принимаем X-Real-IP / X-Forwarded-For.
	TrustedProxies []netip.Prefix

	ChangeFeed ChangeFeed
	NATSURL    string
	NATSPrefix string

	PinLoginRate  float64
	PinLoginBurst int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	LogLevel string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Ошибку не считаем фатальной: .env есть только локально.
	_ = godotenv.Load()

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	timeout, err := durationEnv("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecretKey:      jwtKey,
		ServerPort:        port,
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		RequestTimeout:    timeout,
		AllowedOrigins:    listEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		PublicBaseURL:     strings.TrimSuffix(stringEnv("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		ChangeFeed:        ChangeFeed(stringEnv("CHANGE_FEED", string(ChangeFeedLocal))),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSPrefix:        stringEnv("NATS_SUBJECT_PREFIX", "beachtennis.changes"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		LogLevel:          stringEnv("LOG_LEVEL", "info"),
	}

	if cfg.TrustedProxies, err = prefixListEnv("TRUSTED_PROXIES"); err != nil {
		return nil, err
	}
	if cfg.PinLoginRate, err = floatEnv("PIN_LOGIN_RATE", 0.2); err != nil {
		return nil, err
	}
	if cfg.PinLoginBurst, err = intEnv("PIN_LOGIN_BURST", 5); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ChangeFeed {
	case ChangeFeedLocal:
	case ChangeFeedPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("CHANGE_FEED=postgres requires DATABASE_URL")
		}
	case ChangeFeedNATS:
		if c.NATSURL == "" {
			return fmt.Errorf("CHANGE_FEED=nats requires NATS_URL")
		}
	default:
		return fmt.Errorf("unknown CHANGE_FEED %q (want local, postgres or nats)", c.ChangeFeed)
	}
	if c.PinLoginRate <= 0 || c.PinLoginBurst <= 0 {
		return fmt.Errorf("PIN_LOGIN_RATE and PIN_LOGIN_BURST must be positive")
	}
	return nil
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func floatEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func listEnv(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// prefixListEnv parses a comma-separated list of CIDRs or bare addresses.
func prefixListEnv(key string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, raw := range listEnv(key, nil) {
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: want an address or CIDR", key, raw)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// ClientConfig — настройки устройства судьи (команда referee).
// Устройство ходит в базу напрямую и не знает секретов сервера.
type ClientConfig struct {
	DatabaseURL string
	SessionPath string
}

func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	return &ClientConfig{
		DatabaseURL: dbURL,
		SessionPath: os.Getenv("COURT_SESSION_FILE"),
	}, nil
}
