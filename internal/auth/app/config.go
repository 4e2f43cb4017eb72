package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/gqlgate/internal/auth/service"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration for the gateway.
type Config struct {
	// TokenType selects the one credential transport for the deployment:
	// header, cookie or jwt.
	TokenType string `env:"GQL_TOKEN_TYPE" envDefault:"header"`

	// PermissionType is single (one global schema) or multiple (per-group
	// schemas via GranularSchemas).
	PermissionType string `env:"GQL_PERMISSION_TYPE" envDefault:"single"`

	// SchemaID is the global schema in single mode.
	SchemaID int64 `env:"GQL_SCHEMA_ID"`

	// GranularSchemas maps group handles to per-group scope configuration,
	// supplied as a JSON object, e.g.
	// {"members":{"schemaId":3,"allowRegistration":true,"entryQueries":{"news":true}}}
	GranularSchemas string `env:"GQL_GRANULAR_SCHEMAS"`

	// Expiration applies to header/cookie tokens; empty means tokens never
	// expire. JWT durations are mandatory in jwt mode.
	Expiration           time.Duration `env:"GQL_EXPIRATION"`
	JWTExpiration        time.Duration `env:"GQL_JWT_EXPIRATION" envDefault:"30m"`
	JWTRefreshExpiration time.Duration `env:"GQL_JWT_REFRESH_EXPIRATION" envDefault:"720h"`

	JWTSecretKey   string `env:"GQL_JWT_SECRET_KEY"`
	Issuer         string `env:"GQL_ISSUER" envDefault:"gqlgate"`
	SameSitePolicy string `env:"GQL_SAME_SITE_POLICY" envDefault:"strict"`
	CookieSecure   bool   `env:"GQL_COOKIE_SECURE" envDefault:"true"`

	// RequireVerification makes registration create pending accounts that
	// must redeem an emailed activation code.
	RequireVerification bool          `env:"GQL_REQUIRE_VERIFICATION" envDefault:"false"`
	ResetCodeTTL        time.Duration `env:"GQL_RESET_CODE_TTL" envDefault:"24h"`

	Messages service.Messages

	DatabaseFile        string        `env:"GQL_DATABASE_FILE" envDefault:"gqlgate.db"`
	Env                 string        `env:"ENV" envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig reads configuration from the environment, loading a local
// .env file first if one exists, and validates it once up front.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Messages = cfg.Messages.WithDefaults()

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch service.TokenMode(c.TokenType) {
	case service.TokenModeHeader, service.TokenModeCookie:
	case service.TokenModeJWT:
		if c.JWTSecretKey == "" {
			return fmt.Errorf("GQL_JWT_SECRET_KEY is required in jwt mode")
		}
		if c.JWTExpiration <= 0 || c.JWTRefreshExpiration <= 0 {
			return fmt.Errorf("jwt expirations must be positive in jwt mode")
		}
	default:
		return fmt.Errorf("GQL_TOKEN_TYPE must be header, cookie or jwt")
	}

	switch service.PermissionMode(c.PermissionType) {
	case service.PermissionSingle:
		if c.SchemaID == 0 {
			return fmt.Errorf("GQL_SCHEMA_ID is required in single permission mode")
		}
	case service.PermissionMultiple:
		if c.GranularSchemas == "" {
			return fmt.Errorf("GQL_GRANULAR_SCHEMAS is required in multiple permission mode")
		}
		if _, err := c.ParseGranularSchemas(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("GQL_PERMISSION_TYPE must be single or multiple")
	}

	if _, err := c.ParseSameSite(); err != nil {
		return err
	}
	return nil
}

// ParseGranularSchemas decodes the per-group schema map. Entries are
// validated once here so request-time lookups never probe malformed
// configuration.
func (c Config) ParseGranularSchemas() (map[string]service.GroupSchema, error) {
	if c.GranularSchemas == "" {
		return nil, nil
	}

	var schemas map[string]service.GroupSchema
	if err := json.Unmarshal([]byte(c.GranularSchemas), &schemas); err != nil {
		return nil, fmt.Errorf("parsing GQL_GRANULAR_SCHEMAS: %w", err)
	}

	for handle, gs := range schemas {
		if handle == "" {
			return nil, fmt.Errorf("GQL_GRANULAR_SCHEMAS: empty group handle")
		}
		if gs.SchemaID == 0 {
			return nil, fmt.Errorf("GQL_GRANULAR_SCHEMAS: group %q has no schemaId", handle)
		}
	}
	return schemas, nil
}

// ParseSameSite maps the configured policy onto http.SameSite.
func (c Config) ParseSameSite() (http.SameSite, error) {
	switch strings.ToLower(c.SameSitePolicy) {
	case "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("GQL_SAME_SITE_POLICY must be strict, lax or none")
	}
}
