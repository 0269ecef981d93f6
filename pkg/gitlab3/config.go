package gitlab3

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds the connection settings of a GitLab client.
type Config struct {
	URL                string        `mapstructure:"url"`
	Token              string        `mapstructure:"token"`
	Login              string        `mapstructure:"login"`
	Password           string        `mapstructure:"password"`
	Sudo               string        `mapstructure:"sudo"`
	Timeout            int           `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	PerPage            int           `mapstructure:"per_page"`
	Logging            LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig loads configuration from an optional YAML file and the
// environment. The file is looked up as name.yaml in paths (the current
// directory when none are given). Environment variables use the GITLAB3_
// prefix, e.g. GITLAB3_URL or GITLAB3_LOGGING_LEVEL.
func LoadConfig(name string, paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(name)
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Optional config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables
	v.SetEnvPrefix("GITLAB3")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so that AutomaticEnv picks it up on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("url", "")
	v.SetDefault("token", "")
	v.SetDefault("login", "")
	v.SetDefault("password", "")
	v.SetDefault("sudo", "")
	v.SetDefault("timeout", int(DefaultTimeout/time.Second))
	v.SetDefault("insecure_skip_verify", false)
	v.SetDefault("per_page", MaxPerPage)
	v.SetDefault("logging.level", "info")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("gitlab URL is required")
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("invalid gitlab URL: %s", c.URL)
	}

	if c.Token == "" && (c.Login == "" || c.Password == "") {
		return fmt.Errorf("either token or login and password are required")
	}

	if c.Timeout < 1 {
		return fmt.Errorf("invalid timeout: %d", c.Timeout)
	}

	if c.PerPage < 1 || c.PerPage > MaxPerPage {
		return fmt.Errorf("invalid per_page: %d", c.PerPage)
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// GetTimeout returns the request timeout as a duration.
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetLogLevel returns the configured log level, info if unparsable.
func (c *Config) GetLogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Context returns ctx carrying the configured sudo user, if any.
func (c *Config) Context(ctx context.Context) context.Context {
	if c.Sudo == "" {
		return ctx
	}
	return WithSudo(ctx, c.Sudo)
}

// NewClientFromConfig creates a client from cfg. When login credentials are
// configured (and no token), it logs in and fails with ErrAuthentication if
// GitLab rejects them. logger may be nil.
func NewClientFromConfig(ctx context.Context, cfg *Config, logger *zerolog.Logger, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	clientOpts := []ClientOption{
		WithTimeout(cfg.GetTimeout()),
		WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		WithPerPage(cfg.PerPage),
	}
	if logger != nil {
		l := logger.Level(cfg.GetLogLevel())
		clientOpts = append(clientOpts, WithLogger(&l))
	}
	clientOpts = append(clientOpts, opts...)

	client := NewClient(cfg.URL, cfg.Token, clientOpts...)

	if cfg.Token == "" {
		ok, err := client.Login(ctx, cfg.Login, cfg.Password)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, localError(ErrAuthentication, "login as %s rejected", cfg.Login)
		}
	}

	return client, nil
}
