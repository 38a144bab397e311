package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"

	"github.com/openmarket/market-server/internal/util"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                   int    `env:"PORT" envDefault:"8080"`
	Environment            string `env:"APP_ENV" envDefault:"development"`
	DatabaseURL            string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL               string `env:"REDIS_URL,required,notEmpty"`
	AdminEmail             string `env:"ADMIN_EMAIL"`
	AdminPasswordHash      string `env:"ADMIN_PASSWORD_HASH"`
	AdminPassword          string `env:"ADMIN_PASSWORD"`
	AdminSessionSecret     string `env:"ADMIN_SESSION_SECRET"`
	AdminSessionTTLMinutes int    `env:"ADMIN_SESSION_TTL_MINUTES" envDefault:"120"`
	AdminTokenIssuer       string `env:"ADMIN_TOKEN_ISSUER" envDefault:"marketplace-admin"`
	AdminPathToken         string `env:"ADMIN_PATH_TOKEN"`
	AdminLoginMaxAttempts  int    `env:"ADMIN_LOGIN_MAX_ATTEMPTS" envDefault:"10"`
	SMTPHost               string `env:"SMTP_HOST"`
	SMTPPort               int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername           string `env:"SMTP_USERNAME"`
	SMTPPassword           string `env:"SMTP_PASSWORD"`
	MailFrom               string `env:"MAIL_FROM" envDefault:"Marketplace <no-reply@localhost>"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) AdminSessionTTL() time.Duration {
	return time.Duration(c.AdminSessionTTLMinutes) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.AdminEmail) == "" {
		return fmt.Errorf("ADMIN_EMAIL is required")
	}
	if c.AdminPathToken == "" {
		return fmt.Errorf("ADMIN_PATH_TOKEN is required")
	}
	if c.AdminSessionSecret == "" {
		return fmt.Errorf("ADMIN_SESSION_SECRET is required")
	}
	if c.AdminSessionTTLMinutes <= 0 {
		return fmt.Errorf("ADMIN_SESSION_TTL_MINUTES must be positive")
	}
	if c.AdminTokenIssuer == "" {
		return fmt.Errorf("ADMIN_TOKEN_ISSUER must not be empty")
	}
	if c.AdminLoginMaxAttempts < 0 {
		return fmt.Errorf("ADMIN_LOGIN_MAX_ATTEMPTS must not be negative")
	}

	if c.AdminPasswordHash != "" {
		if !util.IsBcryptHash(c.AdminPasswordHash) {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run ./cmd/hashpassword <password>)")
		}
	} else if c.AdminPassword == "" {
		return fmt.Errorf("one of ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required")
	}

	if c.IsProduction() {
		if c.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH is required in production; the plaintext ADMIN_PASSWORD fallback is for bootstrap only")
		}
		if err := validateSecret("ADMIN_SESSION_SECRET", c.AdminSessionSecret); err != nil {
			return err
		}
		if len(c.AdminPathToken) < 16 {
			return fmt.Errorf("ADMIN_PATH_TOKEN must be at least 16 characters in production")
		}

		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if !c.MailEnabled() {
			log.Warn().Msg("SMTP_HOST is empty in production: rejection notices will only be logged")
		}
	} else if c.AdminPasswordHash == "" {
		log.Warn().Msg("ADMIN_PASSWORD_HASH is empty: using plaintext ADMIN_PASSWORD fallback")
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
