// Package config holds the settings of the study assistant on top of the
// reusable core configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "studybot/core/config"
	coredatabase "studybot/core/database"
)

// WikipediaConfig configures the summary provider.
type WikipediaConfig struct {
	// Endpoint overrides the MediaWiki API URL; empty derives it from Language.
	Endpoint     string        `yaml:"endpoint" envconfig:"WIKI_ENDPOINT"`
	Language     string        `yaml:"language" envconfig:"WIKI_LANG"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"WIKI_TIMEOUT"`
	MaxSections  int           `yaml:"max_sections"`
	SectionRunes int           `yaml:"section_runes"`
}

// SearchConfig configures the DuckDuckGo instant answer provider.
type SearchConfig struct {
	Endpoint string        `yaml:"endpoint" envconfig:"SEARCH_ENDPOINT"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"SEARCH_TIMEOUT"`
}

// MathConfig configures the Wolfram Alpha short answers provider.
type MathConfig struct {
	Endpoint string        `yaml:"endpoint" envconfig:"WOLFRAM_ENDPOINT"`
	AppID    string        `yaml:"app_id" envconfig:"WOLFRAM_APPID"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"WOLFRAM_TIMEOUT"`
}

// OCRConfig configures the Tesseract binary.
type OCRConfig struct {
	Command   string        `yaml:"command" envconfig:"TESSERACT_CMD"`
	Languages string        `yaml:"languages" envconfig:"TESSERACT_LANG"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"TESSERACT_TIMEOUT"`
}

// BreakerConfig tunes the circuit breaker wrapped around every provider.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32 `yaml:"max_failures"`
	// OpenFor is how long an open breaker rejects calls.
	OpenFor time.Duration `yaml:"open_for"`
}

// ProvidersConfig groups the external providers.
type ProvidersConfig struct {
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	Search    SearchConfig    `yaml:"search"`
	Math      MathConfig      `yaml:"math"`
	OCR       OCRConfig       `yaml:"ocr"`
	Breaker   BreakerConfig   `yaml:"breaker"`
}

// SchedulerConfig configures the inactivity reminders.
type SchedulerConfig struct {
	Interval      time.Duration `yaml:"interval" envconfig:"SCHEDULER_INTERVAL"`
	InactiveAfter time.Duration `yaml:"inactive_after" envconfig:"SCHEDULER_INACTIVE_AFTER"`
	Disabled      bool          `yaml:"disabled" envconfig:"SCHEDULER_DISABLED"`
}

// StorageConfig configures local scratch files.
type StorageConfig struct {
	TempDir string `yaml:"temp_dir" envconfig:"TEMP_DIR"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database  coredatabase.Config `yaml:"database"`
	Providers ProvidersConfig     `yaml:"providers"`
	Scheduler SchedulerConfig     `yaml:"scheduler"`
	Storage   StorageConfig       `yaml:"storage"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the optional YAML file at path, overlays the environment and
// applies defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	p := &c.Providers
	p.Wikipedia.Language = strings.TrimSpace(p.Wikipedia.Language)
	if p.Wikipedia.Language == "" {
		p.Wikipedia.Language = "ru"
	}
	if p.Wikipedia.Endpoint == "" {
		p.Wikipedia.Endpoint = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", p.Wikipedia.Language)
	}
	p.Wikipedia.Timeout = orDuration(p.Wikipedia.Timeout, 10*time.Second)
	if p.Wikipedia.MaxSections <= 0 {
		p.Wikipedia.MaxSections = 5
	}
	if p.Wikipedia.SectionRunes <= 0 {
		p.Wikipedia.SectionRunes = 500
	}

	if p.Search.Endpoint == "" {
		p.Search.Endpoint = "https://api.duckduckgo.com/"
	}
	p.Search.Timeout = orDuration(p.Search.Timeout, 10*time.Second)

	if p.Math.Endpoint == "" {
		p.Math.Endpoint = "https://api.wolframalpha.com/v1/result"
	}
	if strings.TrimSpace(p.Math.AppID) == "" {
		p.Math.AppID = "DEMO"
	}
	p.Math.Timeout = orDuration(p.Math.Timeout, 15*time.Second)

	p.OCR.Command = strings.TrimSpace(p.OCR.Command)
	if p.OCR.Command == "" {
		p.OCR.Command = "tesseract"
	}
	if p.OCR.Languages == "" {
		p.OCR.Languages = "rus+eng"
	}
	p.OCR.Timeout = orDuration(p.OCR.Timeout, 30*time.Second)

	if p.Breaker.MaxFailures == 0 {
		p.Breaker.MaxFailures = 5
	}
	p.Breaker.OpenFor = orDuration(p.Breaker.OpenFor, 30*time.Second)

	c.Scheduler.Interval = orDuration(c.Scheduler.Interval, time.Hour)
	c.Scheduler.InactiveAfter = orDuration(c.Scheduler.InactiveAfter, 72*time.Hour)

	if strings.TrimSpace(c.Storage.TempDir) == "" {
		c.Storage.TempDir = "temp"
	}
	return nil
}

func orDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
