package tedee

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration for a Tedee client.
// Credentials can be overridden by the TEDEE_USERNAME, TEDEE_PASSWORD,
// and TEDEE_CLIENT_ID environment variables.
type Config struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`

	BaseURL  string `yaml:"base_url" default:"https://api.tedee.com/api/v1.15"`
	TokenURL string `yaml:"token_url" default:"https://tedee.b2clogin.com/tedee.onmicrosoft.com/B2C_1_SignIn_Ropc/oauth2/v2.0/token"`

	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int `yaml:"timeout" default:"30"`
	// PollIntervalMS is the delay between operation status polls.
	PollIntervalMS int `yaml:"poll_interval_ms" default:"1000"`

	TokenRetry RetrySettings `yaml:"token_retry"`
	APIRetry   RetrySettings `yaml:"api_retry"`
}

// RetrySettings configures one retry pair in the config file.
type RetrySettings struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int `yaml:"max_attempts" default:"3"`
	// IntervalSeconds is the fixed delay between attempts.
	IntervalSeconds int `yaml:"interval" default:"5"`
}

// LoadConfig reads a YAML config file, applies defaults, and overlays
// credential environment variables.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if v := os.Getenv("TEDEE_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("TEDEE_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("TEDEE_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Username == "" || c.Password == "" || c.ClientID == "" {
		return ErrNoCredentials
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("tedee: timeout must be positive, got %d", c.TimeoutSeconds)
	}
	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("tedee: poll interval must be positive, got %d", c.PollIntervalMS)
	}
	return nil
}

// NewClientFromConfig creates a client from a loaded configuration.
// Additional options are applied after the config-derived ones, so they
// take precedence.
func NewClientFromConfig(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tedee: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configOpts := []Option{
		WithBaseURL(cfg.BaseURL),
		WithTokenURL(cfg.TokenURL),
		WithTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
		WithPollInterval(time.Duration(cfg.PollIntervalMS) * time.Millisecond),
		WithRetry(&RetryConfig{
			MaxAttempts: cfg.APIRetry.MaxAttempts,
			Interval:    time.Duration(cfg.APIRetry.IntervalSeconds) * time.Second,
		}),
		WithTokenRetry(&RetryConfig{
			MaxAttempts: cfg.TokenRetry.MaxAttempts,
			Interval:    time.Duration(cfg.TokenRetry.IntervalSeconds) * time.Second,
		}),
	}

	creds := Credentials{
		Username: cfg.Username,
		Password: cfg.Password,
		ClientID: cfg.ClientID,
	}

	return NewClient(creds, append(configOpts, opts...)...)
}
