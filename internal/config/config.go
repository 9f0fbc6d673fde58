package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "DISASTER_TRIAGE_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	natsURLEnv        = "NATS_URL"
	nerEndpointEnv    = "NER_ENDPOINT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Triage        TriageConfig       `yaml:"triage"`
	NER           NERConfig          `yaml:"ner"`
	Geo           GeoConfig          `yaml:"geo"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	NATS          NATSConfig         `yaml:"nats"`
	HTTP          HTTPConfig         `yaml:"http"`
	Sites         []SiteConfig       `yaml:"sites"`
}

// LoggingConfig selects level (debug|info|warn|error) and format (json|console).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TriageConfig configures the scoring pipeline.
type TriageConfig struct {
	SentimentMethod string `yaml:"sentimentMethod"`
	Algorithm       string `yaml:"algorithm"`
	ModelPath       string `yaml:"modelPath"`
	CorpusPath      string `yaml:"corpusPath"`
	LexiconPath     string `yaml:"lexiconPath"`
	Workers         int    `yaml:"workers"`
	Seed            uint64 `yaml:"seed"`
}

// NERConfig points at the optional remote recognizer. Models are tried in
// order; the rule-based recognizer is always the last resort.
type NERConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Models   []string      `yaml:"models"`
	Timeout  time.Duration `yaml:"timeout"`
}

// GeoConfig parameterizes location resolution.
type GeoConfig struct {
	MinLat        float64 `yaml:"minLat"`
	MaxLat        float64 `yaml:"maxLat"`
	MinLon        float64 `yaml:"minLon"`
	MaxLon        float64 `yaml:"maxLon"`
	CenterLat     float64 `yaml:"centerLat"`
	CenterLon     float64 `yaml:"centerLon"`
	Jitter        float64 `yaml:"jitter"`
	GazetteerPath string  `yaml:"gazetteerPath"`
}

// DatabaseConfig describes the record store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when collection should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send alerts.
type TelegramConfig struct {
	BotToken      string  `yaml:"botToken"`
	ChatID        string  `yaml:"chatId"`
	MinUrgency    string  `yaml:"minUrgency"`
	RatePerSecond float64 `yaml:"ratePerSecond"`
}

// NATSConfig describes where triage records are published.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// SiteConfig describes a single source with its collector strategy.
type SiteConfig struct {
	Name      string            `yaml:"name"`
	Collector string            `yaml:"collector"`
	Sources   []SourceConfig    `yaml:"sources"`
	Options   map[string]string `yaml:"options"`
}

// SourceConfig holds a concrete endpoint (feed URL, search page, batch file).
type SourceConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads defaults, then the YAML file at path (or $DISASTER_TRIAGE_CONFIG),
// then environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Triage.SentimentMethod) {
	case "lexicon-a", "lexicon-b":
	default:
		errs = append(errs, fmt.Errorf("triage.sentimentMethod: unknown %q", c.Triage.SentimentMethod))
	}
	switch strings.ReplaceAll(strings.ToLower(c.Triage.Algorithm), "_", "-") {
	case "naive-bayes", "logistic", "random-forest":
	default:
		errs = append(errs, fmt.Errorf("triage.algorithm: unknown %q", c.Triage.Algorithm))
	}
	if c.Triage.Workers < 1 {
		errs = append(errs, fmt.Errorf("triage.workers must be >= 1, got %d", c.Triage.Workers))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown %q", c.Database.Driver))
	}
	if c.Geo.MinLat >= c.Geo.MaxLat || c.Geo.MinLon >= c.Geo.MaxLon {
		errs = append(errs, errors.New("geo: bounding box is empty"))
	}
	switch strings.ToLower(c.Notifications.Telegram.MinUrgency) {
	case "critical", "high", "medium", "low":
	default:
		errs = append(errs, fmt.Errorf("notifications.telegram.minUrgency: unknown %q", c.Notifications.Telegram.MinUrgency))
	}
	for i, site := range c.Sites {
		if site.Name == "" || site.Collector == "" {
			errs = append(errs, fmt.Errorf("sites[%d]: name and collector are required", i))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(natsURLEnv); v != "" {
		c.NATS.URL = v
	}

	if v := os.Getenv(nerEndpointEnv); v != "" {
		c.NER.Endpoint = v
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("config: unknown timezone %s: %w", tz, err)
	}
	c.Scheduler.location = loc
	return nil
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Triage.SentimentMethod != "" {
		base.Triage.SentimentMethod = override.Triage.SentimentMethod
	}
	if override.Triage.Algorithm != "" {
		base.Triage.Algorithm = override.Triage.Algorithm
	}
	if override.Triage.ModelPath != "" {
		base.Triage.ModelPath = override.Triage.ModelPath
	}
	if override.Triage.CorpusPath != "" {
		base.Triage.CorpusPath = override.Triage.CorpusPath
	}
	if override.Triage.LexiconPath != "" {
		base.Triage.LexiconPath = override.Triage.LexiconPath
	}
	if override.Triage.Workers != 0 {
		base.Triage.Workers = override.Triage.Workers
	}
	if override.Triage.Seed != 0 {
		base.Triage.Seed = override.Triage.Seed
	}

	if override.NER.Endpoint != "" {
		base.NER.Endpoint = override.NER.Endpoint
	}
	if len(override.NER.Models) > 0 {
		base.NER.Models = override.NER.Models
	}
	if override.NER.Timeout != 0 {
		base.NER.Timeout = override.NER.Timeout
	}

	if override.Geo.MinLat != 0 || override.Geo.MaxLat != 0 || override.Geo.MinLon != 0 || override.Geo.MaxLon != 0 {
		base.Geo.MinLat, base.Geo.MaxLat = override.Geo.MinLat, override.Geo.MaxLat
		base.Geo.MinLon, base.Geo.MaxLon = override.Geo.MinLon, override.Geo.MaxLon
	}
	if override.Geo.CenterLat != 0 || override.Geo.CenterLon != 0 {
		base.Geo.CenterLat, base.Geo.CenterLon = override.Geo.CenterLat, override.Geo.CenterLon
	}
	if override.Geo.Jitter != 0 {
		base.Geo.Jitter = override.Geo.Jitter
	}
	if override.Geo.GazetteerPath != "" {
		base.Geo.GazetteerPath = override.Geo.GazetteerPath
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.MinUrgency != "" {
		base.Notifications.Telegram.MinUrgency = override.Notifications.Telegram.MinUrgency
	}
	if override.Notifications.Telegram.RatePerSecond != 0 {
		base.Notifications.Telegram.RatePerSecond = override.Notifications.Telegram.RatePerSecond
	}

	if override.NATS.URL != "" {
		base.NATS.URL = override.NATS.URL
	}
	if override.NATS.Subject != "" {
		base.NATS.Subject = override.NATS.Subject
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Triage: TriageConfig{
			SentimentMethod: "lexicon-a",
			Algorithm:       "naive-bayes",
			Workers:         1,
			Seed:            42,
		},
		NER: NERConfig{
			Models:  []string{"pt_core_news_sm", "pt_core_news_md", "en_core_web_sm"},
			Timeout: 5 * time.Second,
		},
		Geo: GeoConfig{
			MinLat: -35, MaxLat: 5, MinLon: -75, MaxLon: -30,
			CenterLat: -14.2350, CenterLon: -51.9253,
			Jitter: 5,
		},
		Database:  DatabaseConfig{Driver: "sqlite", DSN: "file:disaster-triage.db?_pragma=busy_timeout(5000)"},
		Scheduler: SchedulerConfig{CronExpression: "*/15 * * * *", Timezone: defaultTimezone, location: tz},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{MinUrgency: "critical", RatePerSecond: 1},
		},
		NATS: NATSConfig{Subject: "disaster.triage.records"},
		HTTP: HTTPConfig{Addr: ":8080"},
		Sites: []SiteConfig{
			{
				Name:      "simulated-default",
				Collector: "simulated",
				Options:   map[string]string{"count": "20"},
			},
		},
	}
}
