package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/eventory/internal/imagestore"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port     string
	LogLevel string

	DBDriver      string
	DBPath        string
	MongoURI      string
	MongoDatabase string

	Session SessionConfig
	Origins []string
	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix
	Images         imagestore.Config
	StripeKey      string
	Bootstrap      BootstrapConfig
}

type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieSecure bool
	SameSite     http.SameSite
}

// BootstrapConfig describes the superadmin created on first start.
type BootstrapConfig struct {
	Name     string
	Email    string
	Password string
}

func (b BootstrapConfig) Enabled() bool {
	return b.Email != "" && b.Password != ""
}

// Load reads configuration from the environment, loading a .env file first
// when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("EVENTORY_PORT", "8080"),
		LogLevel:      getEnv("EVENTORY_LOG_LEVEL", "info"),
		DBPath:        getEnv("EVENTORY_DB_PATH", "eventory.db"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "eventory"),
		Session: SessionConfig{
			Secret:       os.Getenv("EVENTORY_SESSION_SECRET"),
			TTL:          getEnvDuration("EVENTORY_SESSION_TTL", 24*time.Hour),
			CookieSecure: getEnvBool("EVENTORY_COOKIE_SECURE", false),
			SameSite:     parseSameSite(os.Getenv("EVENTORY_COOKIE_SAMESITE")),
		},
		Origins: getEnvSlice("EVENTORY_FRONTEND_ORIGIN", []string{"http://localhost:5173"}),
		Images: imagestore.Config{
			Endpoint:  os.Getenv("EVENTORY_IMAGE_ENDPOINT"),
			Bucket:    os.Getenv("EVENTORY_IMAGE_BUCKET"),
			Region:    getEnv("EVENTORY_IMAGE_REGION", "us-east-1"),
			AccessKey: os.Getenv("EVENTORY_IMAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("EVENTORY_IMAGE_SECRET_KEY"),
			PublicURL: os.Getenv("EVENTORY_IMAGE_PUBLIC_URL"),
			Prefix:    getEnv("EVENTORY_IMAGE_PREFIX", "eventory"),
		},
		StripeKey: os.Getenv("STRIPE_SECRET_KEY"),
		Bootstrap: BootstrapConfig{
			Name:     getEnv("EVENTORY_BOOTSTRAP_NAME", "Super Admin"),
			Email:    os.Getenv("EVENTORY_BOOTSTRAP_EMAIL"),
			Password: os.Getenv("EVENTORY_BOOTSTRAP_PASSWORD"),
		},
	}

	proxies, err := parseProxies(getEnvSlice("EVENTORY_TRUSTED_PROXIES", nil))
	if err != nil {
		return nil, err
	}
	cfg.TrustedProxies = proxies

	cfg.DBDriver = strings.ToLower(os.Getenv("EVENTORY_DB_DRIVER"))
	if cfg.DBDriver == "" {
		cfg.DBDriver = DriverSQLite
		if cfg.MongoURI != "" {
			cfg.DBDriver = DriverMongo
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo driver")
		}
	case DriverSQLite:
	default:
		return errors.New("EVENTORY_DB_DRIVER must be mongo or sqlite")
	}
	if c.Session.Secret == "" {
		return errors.New("EVENTORY_SESSION_SECRET is required")
	}
	if c.Session.SameSite == http.SameSiteNoneMode && !c.Session.CookieSecure {
		return errors.New("EVENTORY_COOKIE_SAMESITE=none requires EVENTORY_COOKIE_SECURE=true")
	}
	return nil
}

// parseProxies accepts single addresses and CIDR prefixes.
func parseProxies(values []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, v := range values {
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("EVENTORY_TRUSTED_PROXIES: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("EVENTORY_TRUSTED_PROXIES: %w", err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
