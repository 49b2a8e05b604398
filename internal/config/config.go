package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-yaml/yaml"

	"github.com/totegamma/invoice-dashboard/internal/domain"
)

type Config struct {
	Server Server `yaml:"server"`
	Auth   Auth   `yaml:"auth"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	PageCacheTTL  string `yaml:"pageCacheTTL"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogLevel      string `yaml:"logLevel"` // debug, info, warn, error
}

type Auth struct {
	SessionSecret string `yaml:"sessionSecret"`
	SessionTTL    string `yaml:"sessionTTL"`
	CookieName    string `yaml:"cookieName"`
	SecureCookie  bool   `yaml:"secureCookie"`
	BcryptCost    int    `yaml:"bcryptCost"`

	// ---
	ttl time.Duration
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	err = config.applyDefaults()
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) applyDefaults() error {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}
	if c.Server.PageCacheTTL == "" {
		c.Server.PageCacheTTL = "5m"
	}
	if _, err := time.ParseDuration(c.Server.PageCacheTTL); err != nil {
		return fmt.Errorf("invalid server.pageCacheTTL: %w", err)
	}
	if c.Server.PostgresDsn == "" {
		return fmt.Errorf("server.postgresDsn is required")
	}

	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("auth.sessionSecret is required")
	}
	if c.Auth.SessionTTL == "" {
		c.Auth.SessionTTL = "24h"
	}
	ttl, err := time.ParseDuration(c.Auth.SessionTTL)
	if err != nil {
		return fmt.Errorf("invalid auth.sessionTTL: %w", err)
	}
	c.Auth.ttl = ttl
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "dashboard-session"
	}
	return nil
}

func (s Server) CacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(s.PageCacheTTL)
	return ttl
}

// Session returns the session settings handed to the auth service.
func (a Auth) Session() domain.SessionConfig {
	return domain.SessionConfig{
		Secret:     []byte(a.SessionSecret),
		TTL:        a.ttl,
		CookieName: a.CookieName,
		Secure:     a.SecureCookie,
	}
}
