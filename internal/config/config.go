package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-classifier/internal/attribution"
)

// Config holds the full application configuration.
type Config struct {
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Rules       RulesConfig       `yaml:"rules" mapstructure:"rules"`
	Attribution AttributionConfig `yaml:"attribution" mapstructure:"attribution"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Salesforce  SalesforceConfig  `yaml:"salesforce" mapstructure:"salesforce"`
	Notion      NotionConfig      `yaml:"notion" mapstructure:"notion"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// BatchConfig configures batch classification.
type BatchConfig struct {
	// Workers > 1 classifies conversations in parallel.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RulesConfig points at a YAML rule file. Empty uses the built-in rules.
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AttributionConfig configures the attribution table reader.
type AttributionConfig struct {
	Sheet string `yaml:"sheet" mapstructure:"sheet"`
	// DateOrder reads ambiguous slash dates: month_first or day_first.
	DateOrder string `yaml:"date_order" mapstructure:"date_order"`
}

// ServerConfig configures the classification API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
	// MaxBodyMB caps POST /v1/classify request bodies.
	MaxBodyMB int `yaml:"max_body_mb" mapstructure:"max_body_mb"`
}

// SalesforceConfig holds Salesforce JWT auth settings and the lead object
// used for attribution and write-back.
type SalesforceConfig struct {
	ClientID   string  `yaml:"client_id" mapstructure:"client_id"`
	Username   string  `yaml:"username" mapstructure:"username"`
	KeyPath    string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL   string  `yaml:"login_url" mapstructure:"login_url"`
	LeadObject string  `yaml:"lead_object" mapstructure:"lead_object"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// NotionConfig holds the Notion token and the SQL hand-off database.
type NotionConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	LeadDB    string  `yaml:"lead_db" mapstructure:"lead_db"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// FetchConfig configures remote input downloads.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	AuthHeader  string `yaml:"auth_header" mapstructure:"auth_header"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("batch.workers", 1)
	v.SetDefault("rules.path", "")
	v.SetDefault("attribution.sheet", "")
	v.SetDefault("attribution.date_order", "month_first")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_mb", 32)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.lead_object", "Lead")
	v.SetDefault("salesforce.rate_limit", 5.0)
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.lead_db", "")
	v.SetDefault("notion.rate_limit", 3.0)
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.auth_header", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode needs. Modes: "classify",
// "serve", "salesforce" (attribution or write-back) and "notion".
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Batch.Workers < 1 || c.Batch.Workers > 64 {
		errs = append(errs, "batch.workers must be between 1 and 64")
	}
	if c.Fetch.TimeoutSecs <= 0 {
		errs = append(errs, "fetch.timeout_secs must be > 0")
	}
	if _, err := attribution.ParseDateOrder(c.Attribution.DateOrder); err != nil {
		errs = append(errs, fmt.Sprintf("attribution.date_order must be month_first or day_first, got %q", c.Attribution.DateOrder))
	}

	switch mode {
	case "classify":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port must be > 0 and <= 65535, got %d", c.Server.Port))
		}
		if c.Server.MaxBodyMB <= 0 {
			errs = append(errs, "server.max_body_mb must be > 0")
		}
	case "salesforce":
		if c.Salesforce.ClientID == "" {
			errs = append(errs, "salesforce.client_id is required")
		}
		if c.Salesforce.Username == "" {
			errs = append(errs, "salesforce.username is required")
		}
		if c.Salesforce.KeyPath == "" {
			errs = append(errs, "salesforce.key_path is required")
		}
		if c.Salesforce.LeadObject == "" {
			errs = append(errs, "salesforce.lead_object is required")
		}
	case "notion":
		if c.Notion.Token == "" {
			errs = append(errs, "notion.token is required")
		}
		if c.Notion.LeadDB == "" {
			errs = append(errs, "notion.lead_db is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
