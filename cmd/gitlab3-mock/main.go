// Command gitlab3-mock serves the in-memory GitLab API v3 used by the tests,
// for trying the client against a local endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/yourname/gitlab3/internal/gitlabtest"
)

// Config holds the mock server configuration.
type Config struct {
	Port           int          `mapstructure:"port"`
	RepeatLastPage bool         `mapstructure:"repeat_last_page"`
	Users          []UserConfig `mapstructure:"users"`
	Projects       []string     `mapstructure:"projects"`
	LogLevel       string       `mapstructure:"log_level"`
}

// UserConfig is a user created at startup.
type UserConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Admin    bool   `mapstructure:"admin"`
}

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger := log.With().Str("component", "main").Logger()

	config, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(config.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	opts := []gitlabtest.Option{gitlabtest.WithLogger(&logger)}
	if config.RepeatLastPage {
		opts = append(opts, gitlabtest.WithRepeatLastPage())
	}
	mock := gitlabtest.New(opts...)

	for _, u := range config.Users {
		user := mock.AddUser(u.Username, u.Email, u.Password, u.Admin)
		logger.Info().
			Str("username", u.Username).
			Interface("private_token", user["private_token"]).
			Msg("User created")
	}
	for _, name := range config.Projects {
		project := mock.SeedProject(name)
		logger.Info().Interface("id", project["id"]).Str("name", name).Msg("Project created")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      mock,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", config.Port).
			Str("token", gitlabtest.Token).
			Msg("GitLab mock listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	logger.Info().Msg("Shutdown complete")
}

// loadConfig loads configuration from gitlab3-mock.yaml and GITLAB3_MOCK_*
// environment variables.
func loadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("port", 8080)
	v.SetDefault("repeat_last_page", false)
	v.SetDefault("users", []UserConfig{})
	v.SetDefault("projects", []string{})
	v.SetDefault("log_level", "info")

	v.SetConfigName("gitlab3-mock")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")

	// Optional config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("GITLAB3_MOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Port < 1 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", config.Port)
	}

	return &config, nil
}
