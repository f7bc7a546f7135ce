package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"syncauth/internal/platform/database"
	ratelimitConfig "syncauth/internal/ratelimit/config"
	pstrings "syncauth/pkg/platform/strings"
)

// DevSigningKey is the fallback JWT key. It is refused in production.
const DevSigningKey = "dev-secret-key-change-in-production"

// Config is the full process configuration, parsed from the environment.
type Config struct {
	Server      Server
	Database    database.Config
	Redis       RedisConfig
	Kafka       KafkaConfig
	AuthService AuthServiceConfig
	GeoIP       GeoIPConfig
	OAuth       OAuthConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `env:"SYNCAUTH_ADDR" envDefault:":8080"`
	Environment    string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	JWTSigningKey  string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	IdentityKey    string        `env:"IDENTITY_SIGNING_KEY"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"15m"`
	TokenIssuer    string        `env:"TOKEN_ISSUER" envDefault:"syncauth"`
	AdminAPIToken  string        `env:"ADMIN_API_TOKEN"`
	TrustedProxies []string      `env:"TRUSTED_PROXIES" envSeparator:","`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`
	SeedDemoData   bool          `env:"SEED_DEMO_DATA"`
	SeedFile       string        `env:"SEED_ACCOUNTS_FILE"`

	// Published to clients by GET /clientconfiguration/get.
	Name          string `env:"SERVER_NAME" envDefault:"syncauth"`
	DiscordInvite string `env:"SERVER_DISCORD_INVITE"`
	Rules         string `env:"SERVER_RULES"`
}

// RedisConfig configures the optional Redis connection used for runtime
// overrides. An empty URL disables it.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	ConfigKey    string        `env:"REDIS_CONFIG_KEY" envDefault:"syncauth:authservice:config"`
	SyncInterval time.Duration `env:"REDIS_CONFIG_SYNC_INTERVAL" envDefault:"30s"`
}

// KafkaConfig configures the optional audit sink. Empty brokers disable it.
type KafkaConfig struct {
	Brokers    string `env:"KAFKA_BROKERS"`
	AuditTopic string `env:"KAFKA_AUDIT_TOPIC" envDefault:"syncauth.audit"`
}

// AuthServiceConfig holds the abuse guard defaults. Redis overrides, when
// configured, take precedence at runtime.
type AuthServiceConfig struct {
	FailedAuthForTempBan     int      `env:"FAILED_AUTH_FOR_TEMP_BAN" envDefault:"5"`
	TempBanDurationInMinutes int      `env:"TEMP_BAN_DURATION_MINUTES" envDefault:"5"`
	WhitelistedIPs           []string `env:"WHITELISTED_IPS" envSeparator:","`
	MaxTrackedAddresses      int      `env:"MAX_TRACKED_ADDRESSES" envDefault:"0"`
}

// GeoIPConfig is accepted for deployment compatibility and never enforced.
type GeoIPConfig struct {
	Enabled      bool   `env:"USE_GEOIP"`
	CityDatabase string `env:"GEOIP_DB_CITY_FILE"`
}

// OAuthConfig describes the external OAuth flow that issues identity tokens.
type OAuthConfig struct {
	PublicBaseURI       string `env:"PUBLIC_OAUTH_BASE_URI"`
	DiscordClientID     string `env:"DISCORD_OAUTH_CLIENT_ID"`
	DiscordClientSecret string `env:"DISCORD_OAUTH_CLIENT_SECRET"`
}

// Enabled reports whether the OAuth base URI, client id and client secret
// are all set.
func (o OAuthConfig) Enabled() bool {
	return strings.TrimSpace(o.PublicBaseURI) != "" &&
		strings.TrimSpace(o.DiscordClientID) != "" &&
		strings.TrimSpace(o.DiscordClientSecret) != ""
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom is Load with an explicit environment; nil means the process env.
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && c.Server.JWTSigningKey == DevSigningKey {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	if c.IsProduction() && c.Server.SeedDemoData {
		errs = append(errs, errors.New("SEED_DEMO_DATA is not allowed in production"))
	}
	if c.Server.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.AuthService.FailedAuthForTempBan < 0 {
		errs = append(errs, errors.New("FAILED_AUTH_FOR_TEMP_BAN must not be negative"))
	}
	if c.AuthService.TempBanDurationInMinutes <= 0 {
		errs = append(errs, errors.New("TEMP_BAN_DURATION_MINUTES must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GuardSettings converts the auth service section into abuse guard settings.
func (a AuthServiceConfig) GuardSettings() ratelimitConfig.Settings {
	return ratelimitConfig.Settings{
		FailedAuthThreshold:  a.FailedAuthForTempBan,
		TempBanDuration:      time.Duration(a.TempBanDurationInMinutes) * time.Minute,
		WhitelistedAddresses: pstrings.DedupeAndTrim(a.WhitelistedIPs),
		MaxTrackedAddresses:  a.MaxTrackedAddresses,
	}
}
