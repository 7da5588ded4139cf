package internal

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Run modes. Only production serves the built frontend from web.dist_dir.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// TokenEnv is read for the admin token when the config file sets none.
const TokenEnv = "BLOG_ADMIN_TOKEN"

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Posts  PostsConfig       `yaml:"posts"`
	Auth   AuthConfig        `yaml:"auth"`
	Web    WebConfig         `yaml:"web"`
	Events EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Posts.Validate(); err != nil {
		return fmt.Errorf("posts: %w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	Mode     string     `yaml:"mode"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(ModeDevelopment, ModeProduction)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// Production reports whether the app runs in production mode.
func (c *ApplicationConfig) Production() bool {
	return c.Mode == ModeProduction
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

// PostsConfig holds the directory that stores one <slug>.md file per post.
type PostsConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the posts configuration.
func (c *PostsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// AuthConfig holds the admin token. An empty token leaves create, update
// and delete open to anyone.
type AuthConfig struct {
	Token string `yaml:"token"`
}

// Open reports whether mutating requests are unauthenticated.
func (c *AuthConfig) Open() bool {
	return c.Token == ""
}

// WebConfig points at a built frontend. Empty disables static serving.
type WebConfig struct {
	DistDir string `yaml:"dist_dir"`
}

// EventsConfig tunes the live change feed.
type EventsConfig struct {
	// Throttle is the minimum gap between two posts.changed events.
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Mode:     ModeDevelopment,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Posts: PostsConfig{
			Dir: "./posts",
		},
		Auth: AuthConfig{
			Token: os.Getenv(TokenEnv),
		},
		Events: EventsConfig{
			Throttle: 2 * time.Second,
		},
	}
}
