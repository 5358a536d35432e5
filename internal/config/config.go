package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port           string   `yaml:"port" env:"SERVER_PORT"`
		Mode           string   `yaml:"mode" env:"SERVER_MODE"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		LoginRateLimit int      `yaml:"login_rate_limit" env:"LOGIN_RATE_LIMIT"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret          string `yaml:"secret" env:"JWT_SECRET"`
		TokenExpiration string `yaml:"token_expiration" env:"JWT_TOKEN_EXPIRATION"`
		Issuer          string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Canteen struct {
		RecentReleaseWindow string `yaml:"recent_release_window" env:"RECENT_RELEASE_WINDOW"`
		ExpiryAlertDays     int    `yaml:"expiry_alert_days" env:"EXPIRY_ALERT_DAYS"`
		SeedDefaultUsers    bool   `yaml:"seed_default_users" env:"SEED_DEFAULT_USERS"`
		DefaultPassword     string `yaml:"default_password" env:"DEFAULT_USERS_PASSWORD"`
	} `yaml:"canteen"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// legacyEnv maps variable names used by the previous Node deployment onto
// their current counterparts. Earlier entries win.
var legacyEnv = map[string][]string{
	"SERVER_PORT": {"LOCAL_AUTH_PORT"},
	"JWT_SECRET":  {"LOCAL_JWT_SECRET"},
	"DB_HOST":     {"POSTGRES_HOST", "LOCAL_DB_HOST"},
	"DB_PORT":     {"POSTGRES_PORT", "LOCAL_DB_PORT"},
	"DB_NAME":     {"POSTGRES_DB", "LOCAL_DB_NAME"},
	"DB_USER":     {"POSTGRES_USER", "LOCAL_DB_USER"},
	"DB_PASSWORD": {"POSTGRES_PASSWORD", "LOCAL_DB_PASSWORD"},
}

// LoadConfig loads configuration from .env files, a YAML file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// .env.local overrides .env; missing files are fine
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyLegacyEnv()

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "4000"
	config.Server.Mode = "development"
	config.Server.LoginRateLimit = 20

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "cantina_user"
	config.Database.Password = "cantina_password"
	config.Database.DBName = "cantina_verde"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.TokenExpiration = "8h"
	config.JWT.Issuer = "cantina-verde"

	config.Canteen.RecentReleaseWindow = "1h"
	config.Canteen.ExpiryAlertDays = 7
	config.Canteen.SeedDefaultUsers = true
	config.Canteen.DefaultPassword = "123456"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// applyLegacyEnv copies legacy variables into the current names when the
// current name is not set.
func applyLegacyEnv() {
	for current, legacy := range legacyEnv {
		if _, ok := os.LookupEnv(current); ok {
			continue
		}
		for _, name := range legacy {
			if v, ok := os.LookupEnv(name); ok {
				os.Setenv(current, v)
				break
			}
		}
	}
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.TokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.Canteen.RecentReleaseWindow); err != nil {
		return fmt.Errorf("invalid recent release window: %w", err)
	}

	if config.Canteen.ExpiryAlertDays < 0 {
		return fmt.Errorf("expiry alert days must not be negative")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
