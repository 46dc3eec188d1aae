package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Session   SessionConfig
	SIWF      SIWFConfig
	QuickAuth QuickAuthConfig
	Profile   ProfileConfig
	RateLimit RateLimitConfig
	Sweeper   SweeperConfig
	Log       LogConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
	// TrustedProxies lists the peers whose X-Forwarded-For is honoured.
	// Empty means the client IP is always the socket peer.
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// SessionConfig holds session token signing and cookie settings.
type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	Expiry     time.Duration `mapstructure:"expiry"`
	CookieName string        `mapstructure:"cookie_name"`
}

// SIWFConfig holds the sign-in flow settings.
type SIWFConfig struct {
	// Domain is the trust domain tokens must be issued for.
	Domain              string        `mapstructure:"domain"`
	NonceTTL            time.Duration `mapstructure:"nonce_ttl"`
	IdentityEmailDomain string        `mapstructure:"identity_email_domain"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	WalletLinkTimeout   time.Duration `mapstructure:"wallet_link_timeout"`
}

// QuickAuthConfig holds settings for verifying Farcaster Quick Auth tokens.
type QuickAuthConfig struct {
	JWKSURL      string        `mapstructure:"jwks_url"`
	Issuer       string        `mapstructure:"issuer"`
	Timeout      time.Duration `mapstructure:"timeout"`
	JWKSCacheTTL time.Duration `mapstructure:"jwks_cache_ttl"`
}

// ProfileConfig selects and configures the external profile resolver.
type ProfileConfig struct {
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds per-client limits for the sign-in endpoints.
type RateLimitConfig struct {
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

// SweeperConfig holds the expired-record sweeper settings.
type SweeperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultSessionSecret is the placeholder secret used when none is configured.
const DefaultSessionSecret = "change-me-in-production"

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SIWF.Domain) == "" {
		errs = append(errs, errors.New("siwf.domain is required"))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("session.secret is required"))
	}
	if c.Server.Environment == "production" && c.Session.Secret == DefaultSessionSecret {
		errs = append(errs, errors.New("session.secret must be set in production"))
	}
	if c.SIWF.NonceTTL <= 0 {
		errs = append(errs, errors.New("siwf.nonce_ttl must be positive"))
	}
	for _, proxy := range c.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				errs = append(errs, fmt.Errorf("server.trusted_proxies: invalid address %q", proxy))
			}
		}
	}
	switch c.DB.Driver {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown db.driver %q", c.DB.Driver))
	}
	switch c.Profile.Provider {
	case "neynar", "noop":
	default:
		errs = append(errs, fmt.Errorf("unknown profile.provider %q", c.Profile.Provider))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables with the SIWF_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SIWF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.trusted_proxies", "")

	// DB defaults
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "siwf")
	v.SetDefault("db.password", "siwf_secret")
	v.SetDefault("db.name", "siwf_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Session defaults
	v.SetDefault("session.secret", DefaultSessionSecret)
	v.SetDefault("session.issuer", "siwf")
	v.SetDefault("session.expiry", "168h")
	v.SetDefault("session.cookie_name", "siwf.session_token")

	// Sign-in defaults
	v.SetDefault("siwf.domain", "")
	v.SetDefault("siwf.nonce_ttl", "15m")
	v.SetDefault("siwf.identity_email_domain", "farcaster.emails")
	v.SetDefault("siwf.request_timeout", "10s")
	v.SetDefault("siwf.wallet_link_timeout", "5s")

	// Quick Auth defaults
	v.SetDefault("quick_auth.jwks_url", "https://auth.farcaster.xyz/.well-known/jwks.json")
	v.SetDefault("quick_auth.issuer", "https://auth.farcaster.xyz")
	v.SetDefault("quick_auth.timeout", "5s")
	v.SetDefault("quick_auth.jwks_cache_ttl", "1h")

	// Profile resolver defaults
	v.SetDefault("profile.provider", "noop")
	v.SetDefault("profile.api_key", "")
	v.SetDefault("profile.base_url", "https://api.neynar.com")
	v.SetDefault("profile.timeout", "5s")

	// Rate limit defaults
	v.SetDefault("rate_limit.rps", 2)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.idle_ttl", "10m")

	v.SetDefault("sweeper.interval", "5m")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "SIWF_SERVER_PORT",
		"server.read_timeout":        "SIWF_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "SIWF_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":    "SIWF_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":         "SIWF_SERVER_ENVIRONMENT",
		"server.trusted_proxies":     "SIWF_SERVER_TRUSTED_PROXIES",
		"db.driver":                  "SIWF_DB_DRIVER",
		"db.host":                    "SIWF_DB_HOST",
		"db.port":                    "SIWF_DB_PORT",
		"db.user":                    "SIWF_DB_USER",
		"db.password":                "SIWF_DB_PASSWORD",
		"db.name":                    "SIWF_DB_NAME",
		"db.sslmode":                 "SIWF_DB_SSLMODE",
		"db.max_open":                "SIWF_DB_MAX_OPEN",
		"db.max_idle":                "SIWF_DB_MAX_IDLE",
		"session.secret":             "SIWF_SESSION_SECRET",
		"session.issuer":             "SIWF_SESSION_ISSUER",
		"session.expiry":             "SIWF_SESSION_EXPIRY",
		"session.cookie_name":        "SIWF_SESSION_COOKIE_NAME",
		"siwf.domain":                "SIWF_DOMAIN",
		"siwf.nonce_ttl":             "SIWF_NONCE_TTL",
		"siwf.identity_email_domain": "SIWF_IDENTITY_EMAIL_DOMAIN",
		"siwf.request_timeout":       "SIWF_REQUEST_TIMEOUT",
		"siwf.wallet_link_timeout":   "SIWF_WALLET_LINK_TIMEOUT",
		"quick_auth.jwks_url":        "SIWF_QUICK_AUTH_JWKS_URL",
		"quick_auth.issuer":          "SIWF_QUICK_AUTH_ISSUER",
		"quick_auth.timeout":         "SIWF_QUICK_AUTH_TIMEOUT",
		"quick_auth.jwks_cache_ttl":  "SIWF_QUICK_AUTH_JWKS_CACHE_TTL",
		"profile.provider":           "SIWF_PROFILE_PROVIDER",
		"profile.api_key":            "SIWF_PROFILE_API_KEY",
		"profile.base_url":           "SIWF_PROFILE_BASE_URL",
		"profile.timeout":            "SIWF_PROFILE_TIMEOUT",
		"rate_limit.rps":             "SIWF_RATE_LIMIT_RPS",
		"rate_limit.burst":           "SIWF_RATE_LIMIT_BURST",
		"rate_limit.idle_ttl":        "SIWF_RATE_LIMIT_IDLE_TTL",
		"sweeper.interval":           "SIWF_SWEEPER_INTERVAL",
		"log.level":                  "SIWF_LOG_LEVEL",
		"log.format":                 "SIWF_LOG_FORMAT",
		"cors.allowed_origins":       "SIWF_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if SIWF_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SIWF_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
		TrustedProxies:  splitList(v.GetString("server.trusted_proxies")),
	}
	cfg.DB = DBConfig{
		Driver:   v.GetString("db.driver"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Session = SessionConfig{
		Secret:     v.GetString("session.secret"),
		Issuer:     v.GetString("session.issuer"),
		Expiry:     v.GetDuration("session.expiry"),
		CookieName: v.GetString("session.cookie_name"),
	}
	cfg.SIWF = SIWFConfig{
		Domain:              v.GetString("siwf.domain"),
		NonceTTL:            v.GetDuration("siwf.nonce_ttl"),
		IdentityEmailDomain: v.GetString("siwf.identity_email_domain"),
		RequestTimeout:      v.GetDuration("siwf.request_timeout"),
		WalletLinkTimeout:   v.GetDuration("siwf.wallet_link_timeout"),
	}
	cfg.QuickAuth = QuickAuthConfig{
		JWKSURL:      v.GetString("quick_auth.jwks_url"),
		Issuer:       v.GetString("quick_auth.issuer"),
		Timeout:      v.GetDuration("quick_auth.timeout"),
		JWKSCacheTTL: v.GetDuration("quick_auth.jwks_cache_ttl"),
	}
	cfg.Profile = ProfileConfig{
		Provider: v.GetString("profile.provider"),
		APIKey:   v.GetString("profile.api_key"),
		BaseURL:  v.GetString("profile.base_url"),
		Timeout:  v.GetDuration("profile.timeout"),
	}
	cfg.RateLimit = RateLimitConfig{
		RPS:     v.GetFloat64("rate_limit.rps"),
		Burst:   v.GetInt("rate_limit.burst"),
		IdleTTL: v.GetDuration("rate_limit.idle_ttl"),
	}
	cfg.Sweeper = SweeperConfig{
		Interval: v.GetDuration("sweeper.interval"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	return cfg, nil
}

// splitList parses a comma-separated setting, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
