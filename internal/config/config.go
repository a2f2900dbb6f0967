package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Google     GoogleConfig     `yaml:"google"`
	Bot        BotConfig        `yaml:"bot"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	// Timezone is the studio's IANA zone. Class times without an offset are
	// wall-clock times there. Empty means the host's local zone.
	Timezone string `yaml:"timezone"`
	// Location is Timezone resolved by Load.
	Location *time.Location `yaml:"-"`
}

// ResolveLocation loads Timezone, falling back to time.Local when it is empty.
func (a AppConfig) ResolveLocation() (*time.Location, error) {
	if a.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
	// WebAppURL is the base address of the mini app served by the HTTP API.
	WebAppURL string `yaml:"webapp_url"`
	// OfferFile points to the legal offer document sent during onboarding.
	OfferFile         string        `yaml:"offer_file"`
	StartupCheckDelay time.Duration `yaml:"startup_check_delay"`
}

type BotConfig struct {
	RateLimitMessages int `yaml:"rate_limit_messages"`
	RateLimitWindow   int `yaml:"rate_limit_window"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"pool_size"`
	StateTTL time.Duration `yaml:"state_ttl"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      APICORSConfig      `yaml:"cors"`
	// PagesDir holds the mini app pages (main/, schedule/, subscriptions/, bookings/).
	PagesDir        string        `yaml:"pages_dir"`
	ClassesCacheTTL time.Duration `yaml:"classes_cache_ttl"`
	// Location mirrors App.Location. Nil means time.Local.
	Location *time.Location `yaml:"-"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

// APIAuthConfig guards the admin routes only.
type APIAuthConfig struct {
	Enabled      bool     `yaml:"enabled"`
	HeaderAPIKey string   `yaml:"header_api_key"`
	AdminKeys    []string `yaml:"admin_keys"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type APICORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
}

// SheetsEnabled reports whether the bookings mirror has everything it needs.
func (g GoogleConfig) SheetsEnabled() bool {
	return g.GoogleCredentialsFile != "" && g.BookingSpreadSheetID != ""
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; variables may come from the environment directly.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	loc, err := config.App.ResolveLocation()
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.App.Location = loc
	config.API.Location = loc

	return &config, nil
}

// Validate checks settings shared by every process.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.API.RateLimit.RPS < 0 {
		return errors.New("api rate_limit.rps must not be negative")
	}
	if c.API.Auth.Enabled && len(c.API.Auth.AdminKeys) == 0 {
		return errors.New("api auth enabled but no admin_keys configured")
	}
	return nil
}

// ValidateBot checks settings required by the telegram process.
func (c *Config) ValidateBot() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}
	if c.Telegram.WebAppURL == "" {
		return errors.New("telegram webapp_url is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8000
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if len(c.API.CORS.AllowedOrigins) == 0 {
		c.API.CORS.AllowedOrigins = []string{"*"}
	}
	if c.API.PagesDir == "" {
		c.API.PagesDir = "mini_app/pages"
	}
	if c.API.ClassesCacheTTL == 0 {
		c.API.ClassesCacheTTL = 30 * time.Second
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Redis.StateTTL == 0 {
		c.Redis.StateTTL = 24 * time.Hour
	}
	if c.Telegram.StartupCheckDelay == 0 {
		c.Telegram.StartupCheckDelay = 5 * time.Second
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = 30
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = 60
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
}
