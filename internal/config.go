package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Content ContentConfig     `yaml:"content"`
	Auth    AuthConfig        `yaml:"auth"`
	Feed    FeedConfig        `yaml:"feed"`
	Related RelatedConfig     `yaml:"related"`
	Events  EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.SQLite, &c.Content, &c.Auth, &c.Feed, &c.Related, &c.Events} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ContentConfig points at the directory of Markdown posts and reference
// data. Watch keeps the store in step with file changes while serving.
type ContentConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// FeedConfig sets the page sizes of feed, follower and thread listings.
type FeedConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// Validate validates the feed configuration.
func (c *FeedConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DefaultPageSize, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxPageSize, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return errors.New("feed: default_page_size exceeds max_page_size")
	}
	return nil
}

// RelatedConfig sets the related-posts limits.
type RelatedConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// Validate validates the related configuration.
func (c *RelatedConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DefaultLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxLimit, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	if c.DefaultLimit > c.MaxLimit {
		return errors.New("related: default_limit exceeds max_limit")
	}
	return nil
}

// EventsConfig tunes the activity stream.
type EventsConfig struct {
	FeedThrottle time.Duration `yaml:"feed_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.FeedThrottle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./inkwell.db",
		},
		Content: ContentConfig{
			Path:  "./content",
			Watch: true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Feed: FeedConfig{
			DefaultPageSize: 10,
			MaxPageSize:     50,
		},
		Related: RelatedConfig{
			DefaultLimit: 4,
			MaxLimit:     20,
		},
		Events: EventsConfig{
			FeedThrottle: 2 * time.Second,
		},
	}
}
