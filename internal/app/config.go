package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/luxoras/storefront/internal/api"
	"github.com/luxoras/storefront/internal/authcookie"
	"github.com/luxoras/storefront/internal/observability"
	"github.com/luxoras/storefront/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Environment selects production or development behavior.
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentDevelopment Environment = "development"
)

// TokenStorageType represents the different storage types supported for stored tokens.
type TokenStorageType string

const (
	TokenStorageTypeMemory  TokenStorageType = "memory"
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
	TokenStorageTypeSQLite  TokenStorageType = "sqlite"
)

// Default configuration values
const (
	DefaultConfigLogFormat         = LogFormatText
	DefaultConfigEnvironment       = EnvironmentProduction
	DefaultConfigTelemetryExporter = observability.ExporterNone
	DefaultConfigServerHost        = "127.0.0.1"
	DefaultConfigServerPort        = 3000
	DefaultConfigShutdownTimeout   = 5 * time.Second
	DefaultConfigAPIBaseURL        = api.DefaultBaseURL
	DefaultConfigAPITimeout        = api.DefaultTimeout
	DefaultConfigAuthStorage       = TokenStorageTypeFile
	DefaultConfigAuthHeaderScheme  = api.HeaderSchemeRaw
	DefaultConfigAuthRefreshMethod = http.MethodGet
	DefaultConfigKeyringService    = "storefront"
)

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	Exporter observability.Exporter `json:"exporter" validate:"oneof=none stdout otlp-http otlp-grpc"`
}

// ServerConfig holds frontend server configuration.
type ServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type

	// PublicURL is where browsers reach this server. The CLI posts tokens to its cookie endpoint.
	PublicURL string `json:"public_url,omitempty" validate:"omitempty,url"`

	SuccessPath string `json:"success_path,omitempty" validate:"omitempty,startswith=/"`
	FailurePath string `json:"failure_path,omitempty" validate:"omitempty,startswith=/"`
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// APIConfig holds remote API configuration.
type APIConfig struct {
	BaseURL    string        `json:"base_url" validate:"required,url"`
	DevBaseURL string        `json:"dev_base_url,omitempty" validate:"omitempty,url"`
	Timeout    time.Duration `json:"timeout" validate:"gte=0"`
}

// AuthConfig describes where the access token is stored and how it is sent and refreshed.
type AuthConfig struct {
	// Storage configuration - where the access token lives between runs
	Storage TokenStorageType `json:"storage" validate:"required,oneof=memory file env keyring sqlite"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File        string `json:"file,omitempty"`         // For file storage: path to token file
	EnvKey      string `json:"env_key,omitempty"`      // For env storage: environment variable name
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
	SQLitePath  string `json:"sqlite_path,omitempty"`  // For sqlite storage: database file

	HeaderScheme  api.HeaderScheme `json:"header_scheme" validate:"required,oneof=raw bearer"`
	RefreshMethod string           `json:"refresh_method" validate:"required,oneof=GET POST"`

	// RefreshLeeway refreshes JWT tokens this long before their exp claim. Zero disables it.
	RefreshLeeway time.Duration `json:"refresh_leeway" validate:"gte=0"`

	// CookieSyncURL receives the token after sign-in and refresh. Defaults to the server's
	// cookie endpoint when server.public_url is set.
	CookieSyncURL string `json:"cookie_sync_url,omitempty" validate:"omitempty,url"`
}

// NewTokenStore creates a TokenStore from the authentication configuration.
// The returned closer releases backend resources and is never nil.
func (a *AuthConfig) NewTokenStore() (tokenstore.TokenStore, io.Closer, error) {
	switch a.Storage {
	case TokenStorageTypeMemory:
		return tokenstore.NewMemoryStore(""), nopCloser{}, nil
	case TokenStorageTypeFile:
		store, err := tokenstore.NewFileStore(a.File)
		return store, nopCloser{}, err
	case TokenStorageTypeEnv:
		store, err := tokenstore.NewEnvStore(a.EnvKey)
		return store, nopCloser{}, err
	case TokenStorageTypeKeyring:
		store, err := tokenstore.NewKeyringStore(DefaultConfigKeyringService, a.KeyringUser)
		return store, nopCloser{}, err
	case TokenStorageTypeSQLite:
		store, err := tokenstore.NewSQLiteStore(a.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// NewCookieStore creates the store that keeps the API's cookies (the refresh cookie) next to
// tokens, the store returned by NewTokenStore. Memory and env storage keep cookies in memory only.
func (a *AuthConfig) NewCookieStore(tokens tokenstore.TokenStore) (tokenstore.TokenStore, error) {
	switch a.Storage {
	case TokenStorageTypeFile:
		return tokenstore.NewFileStore(filepath.Join(filepath.Dir(a.File), tokenstore.CookiesKey))
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore(DefaultConfigKeyringService+"-"+tokenstore.CookiesKey, a.KeyringUser)
	case TokenStorageTypeSQLite:
		db, ok := tokens.(*tokenstore.SQLiteStore)
		if !ok {
			return nil, fmt.Errorf("sqlite cookie storage requires a sqlite token store")
		}
		return db.WithKey(tokenstore.CookiesKey), nil
	default:
		return tokenstore.NewMemoryStore(""), nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// CookieConfig holds auth cookie configuration.
type CookieConfig struct {
	Name   string        `json:"name" validate:"required"`
	MaxAge time.Duration `json:"max_age" validate:"gte=0"`

	// Secure overrides the Secure attribute. Unset means secure outside development.
	Secure *bool `json:"secure,omitempty"`
}

// Codec creates the auth cookie codec.
func (c *CookieConfig) Codec(env Environment) *authcookie.Codec {
	secure := env != EnvironmentDevelopment
	if c.Secure != nil {
		secure = *c.Secure
	}
	return authcookie.New(
		authcookie.WithName(c.Name),
		authcookie.WithMaxAge(c.MaxAge),
		authcookie.WithSecure(secure),
	)
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel    slog.Level      `json:"log_level"`
	LogFormat   LogFormat       `json:"log_format" validate:"oneof=text json"`
	Environment Environment     `json:"environment" validate:"oneof=production development"`
	Telemetry   TelemetryConfig `json:"telemetry"`
	Server      ServerConfig    `json:"server"`
	Shutdown    ShutdownConfig  `json:"shutdown"`
	API         APIConfig       `json:"api"`
	Auth        AuthConfig      `json:"auth"`
	Cookie      CookieConfig    `json:"cookie"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Environment == "" {
		c.Environment = DefaultConfigEnvironment
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = DefaultConfigTelemetryExporter
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigAPIBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultConfigAPITimeout
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.Auth.HeaderScheme == "" {
		c.Auth.HeaderScheme = DefaultConfigAuthHeaderScheme
	}
	if c.Auth.RefreshMethod == "" {
		c.Auth.RefreshMethod = DefaultConfigAuthRefreshMethod
	}
	if c.Auth.CookieSyncURL == "" && c.Server.PublicURL != "" {
		c.Auth.CookieSyncURL = c.Server.PublicURL + "/auth/cookie"
	}
	if c.Cookie.Name == "" {
		c.Cookie.Name = authcookie.DefaultName
	}
	if c.Cookie.MaxAge == 0 {
		c.Cookie.MaxAge = authcookie.DefaultMaxAge
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.file required (auto-detect failed: %w)", err)
			}
			c.Auth.File = filepath.Join(configDir, "storefront", tokenstore.DefaultKey)
		}
	case TokenStorageTypeSQLite:
		if c.Auth.SQLitePath == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.sqlite_path required (auto-detect failed: %w)", err)
			}
			c.Auth.SQLitePath = filepath.Join(configDir, "storefront", "session.db")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Auth.KeyringUser = currentUser.Username
		}
	case TokenStorageTypeEnv:
		// env_key must be explicitly configured (no sensible default)
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			return errors.New("file path required for file storage")
		}
	case TokenStorageTypeEnv:
		if c.Auth.EnvKey == "" {
			return errors.New("env_key required for env storage")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	case TokenStorageTypeSQLite:
		if c.Auth.SQLitePath == "" {
			return errors.New("sqlite_path required for sqlite storage")
		}
	}

	return nil
}

// Development reports whether the development environment is selected.
func (c *Config) Development() bool {
	return c.Environment == EnvironmentDevelopment
}

// APIBaseURL resolves the API base URL for the configured environment.
func (c *Config) APIBaseURL() string {
	return api.ResolveBaseURL(c.Development(), c.API.BaseURL, c.API.DevBaseURL)
}
