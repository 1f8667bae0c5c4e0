package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Session  SessionConfig
	Paystack PaystackConfig
	Daraja   DarajaConfig
	Redis    RedisConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type SessionConfig struct {
	CookieName string
	// CookieTTLHours is the absolute session lifetime; the embedded access
	// token expires earlier (TokenTTLHours).
	CookieTTLHours int
	TokenTTLHours  int
}

type PaystackConfig struct {
	SecretKey string
	BaseURL   string
}

type DarajaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	BaseURL        string
	CallbackURL    string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Spin & Win API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "spin_and_win"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Session: SessionConfig{
			CookieName:     getEnv("SESSION_COOKIE_NAME", "session_id"),
			CookieTTLHours: getEnvInt("SESSION_COOKIE_TTL_HOURS", 24),
			TokenTTLHours:  getEnvInt("SESSION_TOKEN_TTL_HOURS", 12),
		},
		Paystack: PaystackConfig{
			SecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
			BaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		},
		Daraja: DarajaConfig{
			ConsumerKey:    getEnv("DARAJA_CONSUMER_KEY", ""),
			ConsumerSecret: getEnv("DARAJA_CONSUMER_SECRET", ""),
			ShortCode:      getEnv("DARAJA_SHORT_CODE", ""),
			Passkey:        getEnv("DARAJA_PASSKEY", ""),
			BaseURL:        getEnv("DARAJA_BASE_URL", "https://api.safaricom.co.ke"),
			CallbackURL:    getEnv("DARAJA_CALLBACK_URL", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Paystack.SecretKey == "" {
		return nil, errors.New("missing paystack secret key")
	}

	if cfg.Daraja.ConsumerKey == "" || cfg.Daraja.ConsumerSecret == "" {
		return nil, errors.New("missing daraja consumer credentials")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return n
}
