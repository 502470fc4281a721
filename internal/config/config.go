package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"soda/internal/identity"
)

// Data backends.
const (
	BackendRemote = "remote"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var validBackends = []string{BackendRemote, BackendSQLite, BackendMemory}

type Config struct {
	// HTTP Server
	Port               string `envconfig:"PORT" default:"8081"`
	LoginRatePerMinute int    `envconfig:"LOGIN_RATE_PER_MINUTE" default:"10"`
	Production         bool   `envconfig:"PRODUCTION" default:"false"`

	// Logging
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// Backend selection
	DataBackend  string        `envconfig:"DATA_BACKEND" default:"remote"`
	APIBaseURL   string        `envconfig:"API_BASE_URL" default:"https://backendsoda-galindo.onrender.com/api/dashboard"`
	APITimeout   time.Duration `envconfig:"API_TIMEOUT" default:"15s"`
	SQLiteDBPath string        `envconfig:"SQLITE_DB_PATH" default:"./data/soda.db"`

	// Sessions
	RedisAddr    string        `envconfig:"REDIS_ADDR"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	RememberFor  time.Duration `envconfig:"REMEMBER_FOR" default:"168h"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"false"`
	Users        string        `envconfig:"SODA_USERS"`

	// Tax
	TaxPairRates []string `envconfig:"TAX_PAIR_RATES" default:"13,1"`

	// AMQP
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"soda"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"summary_changes"`

	// Google Sheets
	GoogleSpreadsheetID      string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleReportSheet        string `envconfig:"GOOGLE_REPORT_SHEET" default:"Semanas"`
	GoogleServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Worker
	ExportInterval time.Duration `envconfig:"EXPORT_INTERVAL" default:"5m"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendRemote {
		if u, err := url.Parse(c.APIBaseURL); err != nil || c.APIBaseURL == "" {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s'", c.APIBaseURL))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
		if c.APITimeout <= 0 {
			errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be positive", c.APITimeout))
		}
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.SessionTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be positive", c.SessionTTL))
	}
	if c.RememberFor < time.Hour {
		errors = append(errors, fmt.Sprintf("invalid remember duration %v: must be at least 1 hour", c.RememberFor))
	}
	if c.LoginRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid login rate %d: must be at least 1", c.LoginRatePerMinute))
	}

	if _, err := c.Registry(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid SODA_USERS: %v", err))
	}
	if _, err := c.PairRates(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid TAX_PAIR_RATES: %v", err))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Registry builds the user registry from SODA_USERS, or the stock user
// when it is unset.
func (c *Config) Registry() (*identity.Registry, error) {
	if strings.TrimSpace(c.Users) == "" {
		return identity.DefaultRegistry(), nil
	}
	return identity.ParseRegistry([]byte(c.Users))
}

// PairRates parses the two rates shown side by side on the tax pair page.
func (c *Config) PairRates() ([2]decimal.Decimal, error) {
	var out [2]decimal.Decimal
	if len(c.TaxPairRates) != 2 {
		return out, fmt.Errorf("expected 2 rates, got %d", len(c.TaxPairRates))
	}
	for i, raw := range c.TaxPairRates {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return out, fmt.Errorf("rate %q: %w", raw, err)
		}
		if d.Equal(decimal.NewFromInt(-100)) {
			return out, fmt.Errorf("rate %q: must not be -100", raw)
		}
		out[i] = d
	}
	return out, nil
}

// SheetsEnabled reports whether a spreadsheet is configured.
func (c *Config) SheetsEnabled() bool {
	return strings.TrimSpace(c.GoogleSpreadsheetID) != ""
}
