package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"NewsHarvester/internal/domain"
)

const (
	defaultTimezone        = "UTC"
	defaultIntervalSeconds = 18000
	defaultRequestTimeout  = 10
	defaultLinkLimit       = 10
	defaultEscalateAfter   = 3

	ConfigPathEnv     = "NEWS_HARVESTER_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	databaseDriverEnv = "DATABASE_DRIVER"
	boltPathEnv       = "BOLT_PATH"
	intervalEnv       = "HARVEST_INTERVAL_SECONDS"
	logLevelEnv       = "LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	metricsAddrEnv    = "METRICS_ADDR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Logging       LoggingConfig      `yaml:"logging"`
	Summarizer    SummarizerConfig   `yaml:"summarizer"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sites         []SiteConfig       `yaml:"sites"`
}

// DatabaseConfig selects the storage driver and its location.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	BoltPath string `yaml:"boltPath"`
}

// SchedulerConfig defines when and how hard the harvester runs.
type SchedulerConfig struct {
	IntervalSeconds       int            `yaml:"intervalSeconds"`
	CronExpression        string         `yaml:"cronExpression"`
	Timezone              string         `yaml:"timezone"`
	RequestTimeoutSeconds int            `yaml:"requestTimeoutSeconds"`
	LinkLimit             int            `yaml:"linkLimit"`
	EscalateAfter         int            `yaml:"escalateAfter"`
	location              *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Interval is the sleep between the end of one cycle and the start of the next.
func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// RequestTimeout bounds every HTTP fetch.
func (s SchedulerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SummarizerConfig tunes the extractive summarizer.
type SummarizerConfig struct {
	Sentences     int    `yaml:"sentences"`
	Phrases       int    `yaml:"phrases"`
	StopwordsFile string `yaml:"stopwordsFile"`
}

// MetricsConfig enables the Prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both token and chat are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// SiteConfig describes one news site and its extraction rules.
type SiteConfig struct {
	Name            string          `yaml:"name"`
	URL             string          `yaml:"url"`
	LinkSelector    string          `yaml:"linkSelector"`
	TitleSelector   string          `yaml:"titleSelector"`
	ContentSelector string          `yaml:"contentSelector"`
	DateSelector    string          `yaml:"dateSelector"`
	DateRule        domain.DateRule `yaml:"dateRule"`
	Readability     bool            `yaml:"readabilityFallback"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An empty path falls back to NEWS_HARVESTER_CONFIG; no file at all means defaults.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "postgresql":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
		}
	case "bolt", "bbolt":
		if c.Database.BoltPath == "" {
			return fmt.Errorf("database.boltPath is required for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	if c.Scheduler.IntervalSeconds <= 0 {
		return fmt.Errorf("scheduler.intervalSeconds must be positive, got %d", c.Scheduler.IntervalSeconds)
	}
	if c.Scheduler.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("scheduler.requestTimeoutSeconds must be positive, got %d", c.Scheduler.RequestTimeoutSeconds)
	}
	if c.Scheduler.LinkLimit <= 0 {
		return fmt.Errorf("scheduler.linkLimit must be positive, got %d", c.Scheduler.LinkLimit)
	}

	for _, site := range c.Sites {
		switch site.DateRule {
		case "", domain.DateRulePassthrough, domain.DateRuleStripUpdated:
		default:
			return fmt.Errorf("site %s: unknown dateRule %q", site.Name, site.DateRule)
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
		if os.Getenv(databaseDriverEnv) == "" {
			c.Database.Driver = "postgres"
		}
	}

	if v := os.Getenv(boltPathEnv); v != "" {
		c.Database.BoltPath = v
	}

	if v := os.Getenv(intervalEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Scheduler.IntervalSeconds = n
		} else {
			log.Printf("config: ignoring %s=%q", intervalEnv, v)
		}
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(metricsAddrEnv); v != "" {
		c.Metrics.Addr = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.BoltPath != "" {
		base.Database.BoltPath = override.Database.BoltPath
	}

	if override.Scheduler.IntervalSeconds > 0 {
		base.Scheduler.IntervalSeconds = override.Scheduler.IntervalSeconds
	}
	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.RequestTimeoutSeconds > 0 {
		base.Scheduler.RequestTimeoutSeconds = override.Scheduler.RequestTimeoutSeconds
	}
	if override.Scheduler.LinkLimit > 0 {
		base.Scheduler.LinkLimit = override.Scheduler.LinkLimit
	}
	if override.Scheduler.EscalateAfter > 0 {
		base.Scheduler.EscalateAfter = override.Scheduler.EscalateAfter
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Summarizer.Sentences > 0 {
		base.Summarizer.Sentences = override.Summarizer.Sentences
	}
	if override.Summarizer.Phrases > 0 {
		base.Summarizer.Phrases = override.Summarizer.Phrases
	}
	if override.Summarizer.StopwordsFile != "" {
		base.Summarizer.StopwordsFile = override.Summarizer.StopwordsFile
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{Driver: "bolt", BoltPath: "news.db"},
		Scheduler: SchedulerConfig{
			IntervalSeconds:       defaultIntervalSeconds,
			Timezone:              defaultTimezone,
			RequestTimeoutSeconds: defaultRequestTimeout,
			LinkLimit:             defaultLinkLimit,
			EscalateAfter:         defaultEscalateAfter,
			location:              tz,
		},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
		Summarizer: SummarizerConfig{Sentences: 5, Phrases: 10},
		Sites: []SiteConfig{
			{
				Name:            "The Hindu Business Line",
				URL:             "https://www.thehindubusinessline.com/economy/",
				LinkSelector:    "h3.title a[href]",
				TitleSelector:   "h1, h2",
				ContentSelector: "div p",
				DateSelector:    ".bl-by-line",
				DateRule:        domain.DateRuleStripUpdated,
			},
			{
				Name:            "Mint",
				URL:             "https://www.livemint.com/economy",
				LinkSelector:    "h2.headline a[href]",
				TitleSelector:   "h1, h2",
				ContentSelector: "div p",
				DateSelector:    ".storyPage_date__JS9qJ span",
				DateRule:        domain.DateRulePassthrough,
			},
			{
				Name:            "The Hindustan Times",
				URL:             "https://www.hindustantimes.com/business/",
				LinkSelector:    "a.storyLink.articleClick[href]",
				TitleSelector:   "h1, h2",
				ContentSelector: "p",
				DateSelector:    "span.strydate",
				DateRule:        domain.DateRulePassthrough,
			},
			{
				Name:            "India Today",
				URL:             "https://www.indiatoday.in/business",
				LinkSelector:    "h2 a[href]",
				TitleSelector:   "h1",
				ContentSelector: "p",
				DateSelector:    "span.strydate",
				DateRule:        domain.DateRulePassthrough,
			},
		},
	}
}
