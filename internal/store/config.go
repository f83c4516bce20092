package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"stocksense/internal/classifier"
	"stocksense/internal/forecast"
)

type Config struct {
	DataSource   string   `yaml:"data_source"` // KITE or STATIC
	Exchange     string   `yaml:"exchange"`
	Periods      []string `yaml:"periods"` // tried in order until one yields data
	CacheMinutes int      `yaml:"cache_minutes"`

	Labels struct {
		Horizon   int     `yaml:"horizon"`
		VolFactor float64 `yaml:"vol_factor"`
	} `yaml:"labels"`

	Forecast   forecast.Config   `yaml:"forecast"`
	Classifier classifier.Config `yaml:"classifier"`

	News struct {
		Source         string `yaml:"source"` // RSS or SCRAPER
		MaxItems       int    `yaml:"max_items"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"news"`

	RunLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"runlog"`
}

func (c *Config) Validate() error {
	if c.DataSource != "KITE" && c.DataSource != "STATIC" {
		return fmt.Errorf("invalid data_source '%s': must be 'KITE' or 'STATIC'", c.DataSource)
	}
	if len(c.Periods) == 0 {
		return fmt.Errorf("periods cannot be empty")
	}
	if c.News.Source != "RSS" && c.News.Source != "SCRAPER" {
		return fmt.Errorf("invalid news.source '%s': must be 'RSS' or 'SCRAPER'", c.News.Source)
	}
	if c.Labels.Horizon <= 0 {
		return fmt.Errorf("labels.horizon must be positive, got %d", c.Labels.Horizon)
	}
	if c.Labels.VolFactor <= 0 {
		return fmt.Errorf("labels.vol_factor must be positive, got %.2f", c.Labels.VolFactor)
	}
	if c.Forecast.Lookback <= 0 {
		return fmt.Errorf("forecast.lookback must be positive, got %d", c.Forecast.Lookback)
	}
	if c.Classifier.Trees <= 0 {
		return fmt.Errorf("classifier.trees must be positive, got %d", c.Classifier.Trees)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

func applyDefaults(c *Config) {
	if c.DataSource == "" {
		c.DataSource = "STATIC"
	}
	if len(c.Periods) == 0 {
		c.Periods = []string{"5y", "2y", "1y"}
	}
	if c.CacheMinutes == 0 {
		c.CacheMinutes = 60
	}
	if c.Labels.Horizon == 0 {
		c.Labels.Horizon = 5
	}
	if c.Labels.VolFactor == 0 {
		c.Labels.VolFactor = 0.5
	}
	if c.Forecast.Lookback == 0 {
		c.Forecast = forecast.DefaultConfig()
	}
	if c.Classifier.Trees == 0 {
		c.Classifier = classifier.DefaultConfig()
	}
	if c.News.Source == "" {
		c.News.Source = "RSS"
	}
	if c.News.MaxItems == 0 {
		c.News.MaxItems = 15
	}
	if c.News.TimeoutSeconds == 0 {
		c.News.TimeoutSeconds = 10
	}
	if c.RunLog.Dir == "" {
		c.RunLog.Dir = "runs"
	}
	if c.RunLog.RetentionDays == 0 {
		c.RunLog.RetentionDays = 30
	}
}
