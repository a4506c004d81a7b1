package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the service configuration
type Config struct {
	// Server settings
	Port        int      `yaml:"port"`
	Host        string   `yaml:"host"`
	CORSOrigins []string `yaml:"cors_origins"`

	Log     LogConfig     `yaml:"log"`
	Auth    AuthConfig    `yaml:"auth"`
	Store   StoreConfig   `yaml:"store"`
	AI      AIConfig      `yaml:"ai"`
	Storage StorageConfig `yaml:"storage"`
	Mail    MailConfig    `yaml:"mail"`
	Invoice InvoiceConfig `yaml:"invoice"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// StoreConfig selects the persistence driver
type StoreConfig struct {
	Driver           string `yaml:"driver"` // "postgres" or "firestore"
	DatabaseURL      string `yaml:"database_url"`
	FirestoreProject string `yaml:"firestore_project"`
}

// AIConfig represents AI provider configuration
type AIConfig struct {
	Provider string        `yaml:"provider"` // "gemini", "openai", "ollama"
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`

	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
	Ollama OllamaConfig `yaml:"ollama"`
}

// OpenAIConfig for OpenAI or any compatible endpoint
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

// GeminiConfig for Google Gemini
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// OllamaConfig for local Ollama
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// StorageConfig for the MinIO PDF archive. Empty endpoint disables it.
type StorageConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	AccessKey  string        `yaml:"access_key"`
	SecretKey  string        `yaml:"secret_key"`
	Bucket     string        `yaml:"bucket"`
	UseSSL     bool          `yaml:"use_ssl"`
	PresignTTL time.Duration `yaml:"presign_ttl"`
}

// MailConfig for SendGrid reminder delivery. Empty key disables it.
type MailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	From           string `yaml:"from"`
	FromName       string `yaml:"from_name"`
}

type InvoiceConfig struct {
	DefaultPaymentTerms string `yaml:"default_payment_terms"`
	Currency            string `yaml:"currency"`
}

const (
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Port:        4000,
		Host:        "0.0.0.0",
		CORSOrigins: []string{"*"},
		Log: LogConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Driver: DriverPostgres,
		},
		AI: AIConfig{
			Provider: ProviderGemini,
			Timeout:  30 * time.Second,
			Retries:  1,
			OpenAI:   OpenAIConfig{Model: "gpt-4o-mini"},
			Gemini:   GeminiConfig{Model: "gemini-2.5-flash"},
			Ollama:   OllamaConfig{BaseURL: "http://localhost:11434", Model: "llama3.1"},
		},
		Storage: StorageConfig{
			Bucket:     "invoices",
			PresignTTL: 24 * time.Hour,
		},
		Mail: MailConfig{
			FromName: "Invoices",
		},
		Invoice: InvoiceConfig{
			DefaultPaymentTerms: "Net 15",
			Currency:            "₹",
		},
	}
}

// Load reads path over the defaults, expands ${VAR} references and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.expand()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) expand() {
	c.Host = expandEnv(c.Host)
	c.Auth.JWTSecret = expandEnv(c.Auth.JWTSecret)
	c.Store.DatabaseURL = expandEnv(c.Store.DatabaseURL)
	c.Store.FirestoreProject = expandEnv(c.Store.FirestoreProject)
	c.AI.OpenAI.APIKey = expandEnv(c.AI.OpenAI.APIKey)
	c.AI.OpenAI.BaseURL = expandEnv(c.AI.OpenAI.BaseURL)
	c.AI.Gemini.APIKey = expandEnv(c.AI.Gemini.APIKey)
	c.AI.Ollama.BaseURL = expandEnv(c.AI.Ollama.BaseURL)
	c.Storage.Endpoint = expandEnv(c.Storage.Endpoint)
	c.Storage.AccessKey = expandEnv(c.Storage.AccessKey)
	c.Storage.SecretKey = expandEnv(c.Storage.SecretKey)
	c.Mail.SendGridAPIKey = expandEnv(c.Mail.SendGridAPIKey)
	c.Mail.From = expandEnv(c.Mail.From)
}

// applyEnv overrides with environment variables if present
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}
	setString(&c.Host, "HOST")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Store.DatabaseURL, "DATABASE_URL")
	setString(&c.Store.FirestoreProject, "FIRESTORE_PROJECT")
	setString(&c.AI.Provider, "AI_PROVIDER")
	setString(&c.AI.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.AI.Gemini.Model, "GEMINI_MODEL")
	setString(&c.AI.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.AI.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.AI.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.AI.Ollama.BaseURL, "OLLAMA_BASE_URL")
	setString(&c.Storage.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Storage.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Storage.Bucket, "MINIO_BUCKET")
	if ssl := os.Getenv("MINIO_USE_SSL"); ssl != "" {
		c.Storage.UseSSL = ssl == "true"
	}
	setString(&c.Mail.SendGridAPIKey, "SENDGRID_API_KEY")
	setString(&c.Mail.From, "MAIL_FROM")
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set in config or JWT_SECRET)")
	}
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store.database_url is required for the postgres driver")
		}
	case DriverFirestore:
		if c.Store.FirestoreProject == "" {
			return fmt.Errorf("store.firestore_project is required for the firestore driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown AI provider %q", c.AI.Provider)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive")
	}
	if c.AI.Retries < 0 {
		return fmt.Errorf("ai.retries must not be negative")
	}
	return nil
}

// Addr returns host:port for the HTTP listener
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageEnabled reports whether the PDF archive is configured
func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != ""
}

// MailEnabled reports whether reminder delivery is configured
func (c *Config) MailEnabled() bool {
	return c.Mail.SendGridAPIKey != "" && c.Mail.From != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := s[2 : len(s)-1]
		return os.Getenv(envVar)
	}
	return os.ExpandEnv(s)
}
