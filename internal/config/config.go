package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Archive drivers accepted by ARCHIVE_DRIVER.
const (
	ArchiveNone    = "none"
	ArchiveSQLite  = "sqlite"
	ArchiveMongoDB = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Registry RegistryConfig
	WhatsApp WhatsAppConfig
	Sheets   SheetsConfig
	Digest   DigestConfig
	AI       AIConfig
	Archive  ArchiveConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// RegistryConfig points at the flock registry file and display preferences.
type RegistryConfig struct {
	Path   string
	Locale string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
	GroupID       string
}

// Enabled reports whether the WhatsApp integration is configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.VerifyToken != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the Sheets export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// DigestConfig holds scheduler-related settings.
type DigestConfig struct {
	CronSchedule string
	Timezone     string
}

// Location resolves the configured time zone.
func (c DigestConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// AIConfig holds settings for LLM providers.
type AIConfig struct {
	AnthropicKey string
}

// ArchiveConfig selects where daily age snapshots are stored.
type ArchiveConfig struct {
	Driver     string
	SQLitePath string
	MongoURI   string
	MongoDB    string
}

// LogConfig enables an optional rotating log file next to stdout.
type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Registry: RegistryConfig{
			Path:   getenvWithDefault("FLOCKS_FILE", "flocks.json"),
			Locale: getenvWithDefault("APP_LOCALE", "en"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			GroupID:       os.Getenv("WHATSAPP_GROUP_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Digest: DigestConfig{
			CronSchedule: getenvWithDefault("DIGEST_CRON_SCHEDULE", "0 6 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		Archive: ArchiveConfig{
			Driver:     getenvWithDefault("ARCHIVE_DRIVER", ArchiveNone),
			SQLitePath: getenvWithDefault("ARCHIVE_SQLITE_PATH", "flockage.db"),
			MongoURI:   os.Getenv("MONGODB_URI"),
			MongoDB:    getenvWithDefault("MONGODB_DB_NAME", "flockage"),
		},
		Log: LogConfig{
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getenvInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getenvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getenvInt("LOG_MAX_AGE_DAYS", 7),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and that
// optional integrations are either fully configured or left out.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Registry.Path == "" {
		return errors.New("FLOCKS_FILE must not be empty")
	}

	wa := c.WhatsApp
	if wa.AccessToken != "" || wa.PhoneNumberID != "" || wa.VerifyToken != "" {
		switch {
		case wa.AccessToken == "":
			return errors.New("WHATSAPP_TOKEN must be provided")
		case wa.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case wa.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		}
		if wa.BaseURL == "" {
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		}
		if wa.APIVersion == "" {
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	if c.Digest.CronSchedule == "" {
		return errors.New("DIGEST_CRON_SCHEDULE must be provided")
	}

	if c.Digest.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := c.Digest.Location(); err != nil {
		return fmt.Errorf("TIMEZONE %q is invalid: %w", c.Digest.Timezone, err)
	}

	switch c.Archive.Driver {
	case ArchiveNone, "":
		c.Archive.Driver = ArchiveNone
	case ArchiveSQLite:
		if c.Archive.SQLitePath == "" {
			return errors.New("ARCHIVE_SQLITE_PATH must be provided for the sqlite archive")
		}
	case ArchiveMongoDB:
		if c.Archive.MongoURI == "" {
			return errors.New("MONGODB_URI must be provided for the mongodb archive")
		}
	default:
		return fmt.Errorf("ARCHIVE_DRIVER %q is not one of none, sqlite, mongodb", c.Archive.Driver)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
