package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "UNISHELF_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		Mode     string `koanf:"mode"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
		RequestTimeout  time.Duration `koanf:"request_timeout"`
		// TrustedProxies lists the proxy IPs or CIDRs whose forwarding
		// headers are believed. Empty means the socket peer is the client.
		TrustedProxies []string `koanf:"trusted_proxies"`
	} `koanf:"http"`

	Log struct {
		Level      string `koanf:"level"`
		File       string `koanf:"file"`
		MaxSizeMB  int    `koanf:"max_size_mb"`
		MaxBackups int    `koanf:"max_backups"`
		MaxAgeDays int    `koanf:"max_age_days"`
	} `koanf:"log"`

	Database struct {
		Driver          string        `koanf:"driver"` // mysql | postgres
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
		ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
		AutoMigrate     bool          `koanf:"auto_migrate"`
	} `koanf:"database"`

	Redis struct {
		Addr     string        `koanf:"addr"`
		Password string        `koanf:"password"`
		DB       int           `koanf:"db"`
		TTL      time.Duration `koanf:"ttl"`
	} `koanf:"redis"`

	Events struct {
		Driver   string   `koanf:"driver"` // rabbitmq | kafka | none
		AMQPURL  string   `koanf:"amqp_url"`
		Exchange string   `koanf:"exchange"`
		Brokers  []string `koanf:"brokers"`
		Topic    string   `koanf:"topic"`
	} `koanf:"events"`

	Security struct {
		JWTSecret  string        `koanf:"jwt_secret"`
		Issuer     string        `koanf:"issuer"`
		Audience   string        `koanf:"audience"`
		TokenTTL   time.Duration `koanf:"token_ttl"`
		IDKeyB64   string        `koanf:"id_key_b64url"`
		BcryptCost int           `koanf:"bcrypt_cost"`
	} `koanf:"security"`

	RateLimit struct {
		RPS   float64 `koanf:"rps"`
		Burst int     `koanf:"burst"`
	} `koanf:"rate_limit"`

	Orders struct {
		EnforceTransitions bool `koanf:"enforce_transitions"`
	} `koanf:"orders"`
}

// Load layers <dir>/base.yaml, an optional <dir>/<envName>.yaml and then
// UNISHELF_* environment variables, where "__" separates nested keys
// (UNISHELF_DATABASE__DSN -> database.dsn).
func Load(dir, envName string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", dir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	if envName != "" {
		p := fmt.Sprintf("%s/%s.yaml", dir, envName)
		if _, err := os.Stat(p); err == nil {
			if err := k.Load(file.Provider(p), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", envName, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ToLower(s)
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "unishelf"
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 5 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Events.Driver == "" {
		c.Events.Driver = "none"
	}
	if c.Security.TokenTTL == 0 {
		c.Security.TokenTTL = 24 * time.Hour
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 30 * time.Second
	}
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return errors.New("app.http_addr required")
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver %q not supported", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn required")
	}
	for _, p := range c.HTTP.TrustedProxies {
		if !validProxy(p) {
			return fmt.Errorf("http.trusted_proxies: %q is not an IP or CIDR", p)
		}
	}
	if c.Security.JWTSecret == "" {
		return errors.New("security.jwt_secret required")
	}
	key, err := base64.RawURLEncoding.DecodeString(c.Security.IDKeyB64)
	if err != nil {
		return fmt.Errorf("decode security.id_key_b64url: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("security.id_key_b64url must decode to 32 bytes, got %d", len(key))
	}
	switch c.Events.Driver {
	case "none":
	case "rabbitmq":
		if c.Events.AMQPURL == "" {
			return errors.New("events.amqp_url required for rabbitmq")
		}
	case "kafka":
		if len(c.Events.Brokers) == 0 || c.Events.Topic == "" {
			return errors.New("events.brokers and events.topic required for kafka")
		}
	default:
		return fmt.Errorf("events.driver %q not supported", c.Events.Driver)
	}
	return nil
}

func validProxy(s string) bool {
	if strings.Contains(s, "/") {
		_, _, err := net.ParseCIDR(s)
		return err == nil
	}
	return net.ParseIP(s) != nil
}

// IDKey returns the decoded identifier key. Only valid after Validate.
func (c Config) IDKey() []byte {
	key, _ := base64.RawURLEncoding.DecodeString(c.Security.IDKeyB64)
	return key
}
