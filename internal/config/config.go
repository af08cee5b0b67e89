package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                       string `yaml:"port"`
	DatabaseURL                string `yaml:"databaseURL"`
	RedisAddr                  string `yaml:"redisAddr"`
	RedisPassword              string `yaml:"redisPassword"`
	JWTSecret                  string `yaml:"jwtSecret"`
	JWTAlgorithm               string `yaml:"jwtAlgorithm"`
	AccessTokenTTL             string `yaml:"accessTokenTTL"`
	LogLevel                   string `yaml:"logLevel"`
	ModerationStream           string `yaml:"moderationStream"`
	RegisterRateLimitPerMinute int    `yaml:"registerRateLimitPerMinute"`
	LoginRateLimitPerMinute    int    `yaml:"loginRateLimitPerMinute"`
}

// Load reads config from path (defaults to config.yaml) with env overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("JWT_ALGORITHM"); v != "" {
		cfg.JWTAlgorithm = v
	}
	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		cfg.AccessTokenTTL = v
	}
	if v := os.Getenv("REGISTER_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RegisterRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if cfg.JWTAlgorithm == "" {
		cfg.JWTAlgorithm = "HS256"
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set DATABASE_URL)")
	}
	if cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required (set REDIS_ADDR)")
	}
	if cfg.JWTSecret == "" {
		return errors.New("config: jwtSecret is required (set JWT_SECRET)")
	}
	if cfg.RegisterRateLimitPerMinute < 0 || cfg.LoginRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

// ParseAccessTokenTTL parses the optional token TTL duration string.
func ParseAccessTokenTTL(ttlStr string) (time.Duration, error) {
	if ttlStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(ttlStr)
	if err != nil {
		return 0, fmt.Errorf("invalid accessTokenTTL duration: %w", err)
	}
	return dur, nil
}
