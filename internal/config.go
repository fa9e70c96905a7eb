package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/linkograph/internal/linkograph"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Protocols ProtocolsConfig   `yaml:"protocols"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Cache     CacheConfig       `yaml:"cache"`
	Auth      AuthConfig        `yaml:"auth"`
	Scoring   ScoringConfig     `yaml:"scoring"`
	Engine    EngineConfig      `yaml:"engine"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Protocols.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	return c.Engine.Validate()
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

// ProtocolsConfig holds the design protocol directory. An empty Path
// disables file import and sync.
type ProtocolsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the protocols configuration.
func (c *ProtocolsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Watch, validation.Required)),
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

// CacheConfig sizes the in-memory linkograph read cache.
type CacheConfig struct {
	Size int `yaml:"size"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Size, validation.Required, validation.Min(1)),
	)
}

// ScoringConfig holds the logistic creativity model.
type ScoringConfig struct {
	Coefficients linkograph.Coefficients `yaml:"coefficients"`
}

// Validate validates the scoring configuration.
func (c *ScoringConfig) Validate() error {
	k := c.Coefficients
	for _, v := range []float64{k.Intercept, k.MoveCount, k.RunSum, k.ProbabilitySum} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("scoring: coefficients must be finite")
		}
	}
	return nil
}

// EngineConfig limits the linkographs the service accepts.
type EngineConfig struct {
	MaxMoves int `yaml:"max_moves"`
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxMoves, validation.Required, validation.Min(linkograph.MinMoves), validation.Max(linkograph.MaxMoves)),
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Protocols: ProtocolsConfig{
			Path:  "./protocols",
			Watch: true,
		},
		SQLite: SQLiteConfig{
			Path: "./linkograph.db",
		},
		Cache: CacheConfig{
			Size: 128,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Scoring: ScoringConfig{
			Coefficients: linkograph.DefaultCoefficients,
		},
		Engine: EngineConfig{
			MaxMoves: linkograph.MaxMoves,
		},
	}
}
