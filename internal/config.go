package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeBasic    = "basic"
)

// DefaultAdminPassword is used when auth is enabled without a password.
const DefaultAdminPassword = "admin123"

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Events  EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Events.Validate()
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

// StorageConfig locates the catalog file and the icon uploads directory.
type StorageConfig struct {
	CatalogPath string `yaml:"catalog_path"`
	UploadsDir  string `yaml:"uploads_dir"`
	UploadsURL  string `yaml:"uploads_url"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CatalogPath, validation.Required),
		validation.Field(&c.UploadsDir, validation.Required),
		validation.Field(&c.UploadsURL, validation.Required),
	)
}

// SQLiteConfig holds the audit database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how the admin surface is guarded:
//   - "basic" (default): HTTP Basic auth; only the password is checked.
//   - "disabled": no authentication, suitable for local dev.
type AuthConfig struct {
	Mode     string `yaml:"mode"`
	Password string `yaml:"password"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeBasic
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeBasic)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeBasic && c.Password == "" {
		c.Password = DefaultAdminPassword
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeBasic
}

// EventsConfig controls change notifications to connected pages.
type EventsConfig struct {
	Throttle time.Duration `yaml:"throttle"`
	Watch    bool          `yaml:"watch"`
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
			HTTP: HTTPConfig{
				Port: 3000,
			},
		},
		Storage: StorageConfig{
			CatalogPath: "./public/config/apps.json",
			UploadsDir:  "./public/uploads",
			UploadsURL:  "/uploads",
		},
		SQLite: SQLiteConfig{
			Path: "./launchpad.db",
		},
		Auth: AuthConfig{
			Mode:     AuthModeBasic,
			Password: DefaultAdminPassword,
		},
		Events: EventsConfig{
			Throttle: 500 * time.Millisecond,
			Watch:    true,
		},
	}
}
