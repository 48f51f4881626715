package config

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/focusondelaine/website/internal/security"
)

// FileName is the configuration file looked up in a served directory.
const FileName = "delaine.yaml"

// Config represents the site configuration
type Config struct {
	Title     string          `yaml:"title"`
	Contact   ContactConfig   `yaml:"contact"`
	Booking   BookingConfig   `yaml:"booking"`
	Content   ContentConfig   `yaml:"content"`
	Server    ServerConfig    `yaml:"server"`
	Features  FeaturesConfig  `yaml:"features"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ContactConfig controls the mailto link built from the contact form
type ContactConfig struct {
	Recipient string `yaml:"recipient"` // Supports env var expansion
	Subject   string `yaml:"subject"`
}

// BookingConfig holds the external scheduling link
type BookingConfig struct {
	URL string `yaml:"url"` // Supports env var expansion
}

// ContentConfig points at an optional directory overriding the built-in copy
type ContentConfig struct {
	Dir string `yaml:"dir,omitempty"` // Relative to the served directory
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port  int    `yaml:"port"`
	Host  string `yaml:"host"`
	Debug bool   `yaml:"debug"`
}

// FeaturesConfig holds feature flags
type FeaturesConfig struct {
	HotReload   bool `yaml:"hot_reload"`
	Transitions bool `yaml:"transitions"` // Fade between pages
}

// RateLimitConfig holds per-IP rate limiting for the HTTP server
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // default: 20
	Burst             int     `yaml:"burst,omitempty"`               // default: 40
	MaxIPs            int     `yaml:"max_ips,omitempty"`             // default: 10000
}

// LogConfig selects the log level and an optional JSON log file
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// GetRecipient returns the contact recipient with environment variable expansion
func (c ContactConfig) GetRecipient() string {
	return os.ExpandEnv(c.Recipient)
}

// GetURL returns the booking URL with environment variable expansion
func (c BookingConfig) GetURL() string {
	return os.ExpandEnv(c.URL)
}

// GetRPS returns the rate limit in requests per second (default: 20)
func (c RateLimitConfig) GetRPS() float64 {
	if c.RequestsPerSecond <= 0 {
		return 20
	}
	return c.RequestsPerSecond
}

// GetBurst returns the burst size (default: 40)
func (c RateLimitConfig) GetBurst() int {
	if c.Burst <= 0 {
		return 40
	}
	return c.Burst
}

// GetMaxIPs returns the number of client IPs tracked (default: 10000)
func (c RateLimitConfig) GetMaxIPs() int {
	if c.MaxIPs <= 0 {
		return 10000
	}
	return c.MaxIPs
}

// Addr returns host:port for the HTTP listener
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Title: "Focus On Delaine Development & Consulting LLC",
		Contact: ContactConfig{
			Recipient: "info@focusondelaine.com",
			Subject:   "Request: PCA / Energy Audit Consultation",
		},
		Booking: BookingConfig{
			URL: "https://calendly.com/your-link-here",
		},
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Features: FeaturesConfig{
			HotReload:   false,
			Transitions: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the values a visitor will end up clicking on.
func (c *Config) Validate() error {
	recipient := c.Contact.GetRecipient()
	if recipient == "" {
		return fmt.Errorf("contact.recipient is required")
	}
	addr, err := mail.ParseAddress(recipient)
	if err != nil || addr.Name != "" {
		return fmt.Errorf("contact.recipient %q is not a bare email address", recipient)
	}

	if err := security.ValidatePublicURL(c.Booking.GetURL()); err != nil {
		return fmt.Errorf("booking.url: %w", err)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	return nil
}

// Load loads configuration from a YAML file
// If the file doesn't exist, returns the default configuration
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadFromDir looks for delaine.yaml in the given directory.
// If none is found, returns the default configuration
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
