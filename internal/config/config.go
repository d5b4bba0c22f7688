package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// Database
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/outreach.db"`

	// Outbound mail (SMTP)
	MailHost        string        `env:"MAIL_HOST,required"`
	MailPort        int           `env:"MAIL_PORT" envDefault:"587"`
	MailUsername    string        `env:"MAIL_USERNAME,required"`
	MailPassword    string        `env:"MAIL_PASSWORD,required"`
	MailEncryption  string        `env:"MAIL_ENCRYPTION" envDefault:"tls"` // "tls" or "none"
	MailFromAddress string        `env:"MAIL_FROM_ADDRESS,required"`
	MailFromName    string        `env:"MAIL_FROM_NAME" envDefault:"AI Assistant"`
	MailSendTimeout time.Duration `env:"MAIL_SEND_TIMEOUT" envDefault:"15s"`

	// Inbound mail (IMAP)
	IMAPServer      string        `env:"IMAP_SERVER,required"` // host:port
	IMAPDialTimeout time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"30s"`
	PollInterval    time.Duration `env:"REPLY_POLL_INTERVAL" envDefault:"5m"`

	// Acceptance links
	AcceptSecret   string        `env:"ACCEPT_LINK_SECRET_KEY,required"`
	AcceptTokenTTL time.Duration `env:"ACCEPT_TOKEN_TTL" envDefault:"72h"`
	AcceptBaseURL  string        `env:"ACCEPT_BASE_URL" envDefault:"http://localhost:5000"`
	AcceptListen   string        `env:"ACCEPT_LISTEN_ADDR" envDefault:":5000"`

	// Investor directory
	InvestorCSVPath string `env:"INVESTOR_CSV_PATH" envDefault:"./investors.csv"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// UseTLS reports whether outbound SMTP should negotiate STARTTLS
func (c *Config) UseTLS() bool {
	return strings.EqualFold(c.MailEncryption, "tls")
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// The secret signs acceptance tokens; a short key weakens the link scheme
	if len(cfg.AcceptSecret) < 32 {
		return nil, fmt.Errorf("ACCEPT_LINK_SECRET_KEY must be at least 32 bytes, got %d", len(cfg.AcceptSecret))
	}

	if cfg.MailPort <= 0 || cfg.MailPort > 65535 {
		return nil, fmt.Errorf("MAIL_PORT %d is out of range", cfg.MailPort)
	}

	return cfg, nil
}
