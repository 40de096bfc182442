package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Margin alignment values.
const (
	AlignLeft  = "left"
	AlignRight = "right"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Vault      VaultConfig       `yaml:"vault"`
	SQLite     SQLiteConfig      `yaml:"sqlite"`
	Auth       AuthConfig        `yaml:"auth"`
	Marginalia MarginaliaConfig  `yaml:"marginalia"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Marginalia.Validate()
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

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
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
	// Normalise empty mode to "disabled" for backward compatibility.
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

// MarginaliaConfig holds the annotation engine settings.
//
// Tags order matters: the first prefix matching a note wins. IgnoredFolders
// are vault-relative path prefixes whose documents are never decorated or
// scanned for items.
type MarginaliaConfig struct {
	Tags           []models.Tag `yaml:"tags"`
	IgnoredFolders []string     `yaml:"ignored_folders"`
	Alignment      string       `yaml:"alignment"`
	MarginWidth    int          `yaml:"margin_width"`
	FontSize       int          `yaml:"font_size"`
	FontFamily     string       `yaml:"font_family"`
	CacheSize      int          `yaml:"cache_size"`
}

// Validate validates the marginalia configuration.
func (c *MarginaliaConfig) Validate() error {
	if c.Alignment == "" {
		c.Alignment = AlignRight
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Alignment, validation.Required, validation.In(AlignLeft, AlignRight)),
		validation.Field(&c.MarginWidth, validation.Required, validation.Min(15), validation.Max(60)),
		validation.Field(&c.FontSize, validation.Min(8), validation.Max(32)),
		validation.Field(&c.CacheSize, validation.Min(0)),
	); err != nil {
		return err
	}
	for i, tag := range c.Tags {
		if tag.Prefix == "" || tag.Color == "" {
			return fmt.Errorf("marginalia: tag %d needs both prefix and color", i)
		}
	}
	return nil
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
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./marginalia.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Marginalia: MarginaliaConfig{
			Tags: []models.Tag{
				{Prefix: "!", Color: "#ffea00"},
				{Prefix: "?", Color: "#ff9900"},
				{Prefix: "X-", Color: "#ff4d4d"},
				{Prefix: "V-", Color: "#00cc66"},
			},
			IgnoredFolders: []string{"Templates"},
			Alignment:      AlignRight,
			MarginWidth:    30,
			FontSize:       12,
			CacheSize:      256,
		},
	}
}
