package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/photoplay/internal/payload"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage backends.
const (
	StorageBackendFS   = "fs"
	StorageBackendHTTP = "http"
	StorageBackendNone = "none"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Payload PayloadConfig     `yaml:"payload"`
	Storage StorageConfig     `yaml:"storage"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	CORS    CORSConfig        `yaml:"cors"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Payload.Validate(); err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// PayloadConfig controls how scan targets are assembled and which kinds
// this instance resolves.
type PayloadConfig struct {
	// BaseURL is the consumer page scan targets point at.
	BaseURL string   `yaml:"base_url"`
	Origin  string   `yaml:"origin"`
	Kinds   []string `yaml:"kinds"`
}

// Validate validates the payload configuration.
func (c *PayloadConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(baseURLRule)),
		validation.Field(&c.Origin, validation.Required),
		validation.Field(&c.Kinds, validation.Each(validation.In(string(payload.KindVoice), string(payload.KindLink)))),
	)
}

// ResolverKinds returns the configured kinds. An empty list accepts all.
func (c *PayloadConfig) ResolverKinds() []payload.Kind {
	kinds := make([]payload.Kind, 0, len(c.Kinds))
	for _, k := range c.Kinds {
		kinds = append(kinds, payload.Kind(k))
	}
	return kinds
}

// StorageConfig selects and configures the object-storage backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket"`
	// PublicURL is the externally reachable address of this service, used to
	// build download URLs for the fs backend.
	PublicURL string            `yaml:"public_url"`
	FS        FSStorageConfig   `yaml:"fs"`
	HTTP      HTTPStorageConfig `yaml:"http"`
}

// FSStorageConfig holds the local bucket directory.
type FSStorageConfig struct {
	Path string `yaml:"path"`
}

// HTTPStorageConfig points at a Firebase-compatible object endpoint.
type HTTPStorageConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = StorageBackendNone
	}
	fs := c.Backend == StorageBackendFS
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(StorageBackendFS, StorageBackendHTTP, StorageBackendNone)),
		validation.Field(&c.Bucket, validation.When(fs, validation.Required)),
		validation.Field(&c.PublicURL, validation.When(fs, validation.Required, validation.By(absoluteURLRule))),
	); err != nil {
		return err
	}

	switch c.Backend {
	case StorageBackendFS:
		return validation.ValidateStruct(&c.FS,
			validation.Field(&c.FS.Path, validation.Required),
		)
	case StorageBackendHTTP:
		return validation.ValidateStruct(&c.HTTP,
			validation.Field(&c.HTTP.Endpoint, validation.Required, validation.By(absoluteURLRule)),
			validation.Field(&c.HTTP.Timeout, validation.Min(time.Duration(0))),
		)
	}
	return nil
}

// Endpoint returns the object endpoint download URLs are built on.
func (c *StorageConfig) Endpoint() string {
	switch c.Backend {
	case StorageBackendFS:
		return strings.TrimRight(c.PublicURL, "/") + "/v0/b/" + c.Bucket + "/o"
	case StorageBackendHTTP:
		return strings.TrimRight(c.HTTP.Endpoint, "/")
	}
	return ""
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
// Mode controls how authentication is enforced on the management API and
// object uploads. The /play endpoint and media downloads are always public.
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

// CORSConfig lists the origins allowed to call the service from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func absoluteURLRule(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

func baseURLRule(value any) error {
	if err := absoluteURLRule(value); err != nil {
		return err
	}
	s, _ := value.(string)
	if strings.ContainsAny(s, "?#") {
		return errors.New("must not carry a query or fragment")
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
		Payload: PayloadConfig{
			BaseURL: "https://qr-ar-voice.web.app/play",
			Origin:  payload.DefaultOrigin,
			Kinds:   []string{string(payload.KindVoice), string(payload.KindLink)},
		},
		Storage: StorageConfig{
			Backend:   StorageBackendFS,
			Bucket:    "photoplay",
			PublicURL: "http://localhost:8080",
			FS: FSStorageConfig{
				Path: "./objects",
			},
			HTTP: HTTPStorageConfig{
				Timeout: 30 * time.Second,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./photoplay.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}
