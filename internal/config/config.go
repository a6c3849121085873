package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env      string
	Addr     string
	DBDSN    string
	LogLevel string

	// ErrLogPath is the append-only audit file the login throttle writes
	// rejected attempts to.
	ErrLogPath string

	LoginMaxAttempts int
	LoginWindow      time.Duration

	ThrottleRedisAddr     string
	ThrottleRedisDB       int
	ThrottleRedisPassword string
}

func Load() (Config, error) {
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:                   getenv("APP_ENV"),
		Addr:                  getenv("APP_ADDR"),
		DBDSN:                 getenv("APP_DB_DSN"),
		LogLevel:              getenv("APP_LOG_LEVEL"),
		ErrLogPath:            getenv("APP_ERR_LOG"),
		ThrottleRedisAddr:     getenv("APP_THROTTLE_REDIS_ADDR"),
		ThrottleRedisPassword: getenv("APP_THROTTLE_REDIS_PASSWORD"),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.ErrLogPath == "" {
		cfg.ErrLogPath = "errLog.log"
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	maxRaw := getenv("APP_LOGIN_MAX_ATTEMPTS")
	if maxRaw == "" {
		cfg.LoginMaxAttempts = 5
	} else {
		n, err := strconv.Atoi(maxRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_LOGIN_MAX_ATTEMPTS: %w", err)
		}
		if n <= 0 {
			return Config{}, errors.New("APP_LOGIN_MAX_ATTEMPTS: must be > 0")
		}
		cfg.LoginMaxAttempts = n
	}

	windowRaw := getenv("APP_LOGIN_WINDOW")
	if windowRaw == "" {
		cfg.LoginWindow = 60 * time.Second
	} else {
		window, err := time.ParseDuration(windowRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_LOGIN_WINDOW: %w", err)
		}
		if window <= 0 {
			return Config{}, errors.New("APP_LOGIN_WINDOW: must be > 0")
		}
		cfg.LoginWindow = window
	}

	dbRaw := getenv("APP_THROTTLE_REDIS_DB")
	if dbRaw != "" {
		n, err := strconv.Atoi(dbRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_THROTTLE_REDIS_DB: %w", err)
		}
		if n < 0 {
			return Config{}, errors.New("APP_THROTTLE_REDIS_DB: must be >= 0")
		}
		cfg.ThrottleRedisDB = n
	}

	if cfg.IsProd() && cfg.DBDSN == "" {
		return Config{}, errors.New("APP_DB_DSN: required in prod")
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }
