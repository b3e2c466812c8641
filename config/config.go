// Package config loads the server configuration from defaults, an optional YAML file,
// a .env file and the process environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"flowstudio/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

var (
	ErrMissingJWTSecret   = errors.New("auth.jwtSecret (SUPABASE_JWT_SECRET) is required")
	ErrMissingGeminiKey   = errors.New("llm.apiKey (GEMINI_API_KEY) is required for the gemini provider")
	ErrUnknownDriver      = errors.New("unknown database driver")
	ErrUnknownProvider    = errors.New("unknown llm provider")
	ErrInvalidUploadLimit = errors.New("server.uploadMaxBytes must be positive")
)

type Config struct {
	LogLevel string   `yaml:"logLevel"`
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Auth     Auth     `yaml:"auth"`
	LLM      LLM      `yaml:"llm"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigin   string        `yaml:"allowedOrigin"`
	UploadMaxBytes  int64         `yaml:"uploadMaxBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type Database struct {
	Driver   string `yaml:"driver"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslMode"`
}

// ConnectionString returns the lib/pq connection URL.
func (d Database) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type Auth struct {
	JWTSecret string `yaml:"jwtSecret"`
	Audience  string `yaml:"audience"`
}

type LLM struct {
	Provider         string        `yaml:"provider"`
	Model            string        `yaml:"model"`
	APIKey           string        `yaml:"apiKey"`
	BaseURL          string        `yaml:"baseURL"`
	OllamaHost       string        `yaml:"ollamaHost"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxDocumentChars int           `yaml:"maxDocumentChars"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: Server{
			Addr:            ":8000",
			AllowedOrigin:   "*",
			UploadMaxBytes:  20 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: Database{
			Driver:  DriverPostgres,
			Port:    "5432",
			SSLMode: "require",
		},
		LLM: LLM{
			Provider:         ProviderGemini,
			Model:            "gemini-2.5-flash",
			Timeout:          60 * time.Second,
			MaxDocumentChars: 1_000_000,
		},
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Server.Addr, "HTTP_ADDR")
	setString(&c.Server.AllowedOrigin, "CORS_ALLOWED_ORIGIN")
	if err := setInt64(&c.Server.UploadMaxBytes, "UPLOAD_MAX_BYTES"); err != nil {
		return err
	}

	// Database variable names follow the Supabase connection snippet.
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.User, "user")
	setString(&c.Database.Password, "password")
	setString(&c.Database.Host, "host")
	setString(&c.Database.Port, "port")
	setString(&c.Database.Name, "dbname")
	setString(&c.Database.SSLMode, "DB_SSLMODE")

	setString(&c.Auth.JWTSecret, "SUPABASE_JWT_SECRET")
	setString(&c.Auth.Audience, "SUPABASE_JWT_AUDIENCE")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	setString(&c.LLM.BaseURL, "GEMINI_BASE_URL")
	setString(&c.LLM.OllamaHost, "OLLAMA_HOST")
	if v := env("LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse LLM_TIMEOUT: %w", err)
		}
		c.LLM.Timeout = d
	}
	if v := env("LLM_MAX_DOCUMENT_CHARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse LLM_MAX_DOCUMENT_CHARS: %w", err)
		}
		c.LLM.MaxDocumentChars = n
	}
	return nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver)
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.APIKey == "" {
			return ErrMissingGeminiKey
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.LLM.Provider)
	}

	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.Server.UploadMaxBytes <= 0 {
		return ErrInvalidUploadLimit
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}

func setInt64(dst *int64, key string) error {
	v := env(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}
