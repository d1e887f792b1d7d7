package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "FRIANDS_CONFIG"
	databasePathEnv    = "FRIANDS_DB"
	mistralAPIKeyEnv   = "MISTRAL_API_KEY"
	mistralModelEnv    = "MISTRAL_MODEL"
	sentimentURLEnv    = "SENTIMENT_API_URL"
	sentimentAPIKeyEnv = "SENTIMENT_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Geo       GeoConfig       `yaml:"geo"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Mistral   MistralConfig   `yaml:"mistral"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig points at the SQLite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScraperConfig controls the listing scraper: accepted URL shape, pagination
// bounds, and the randomized politeness delays between requests.
type ScraperConfig struct {
	URLPrefix   string `yaml:"urlPrefix"`
	URLSuffix   string `yaml:"urlSuffix"`
	UserAgent   string `yaml:"userAgent"`
	PageLimit   int    `yaml:"pageLimit"`
	PageSize    int    `yaml:"pageSize"`
	DelayMinSec int    `yaml:"delayMinSeconds"`
	DelayMaxSec int    `yaml:"delayMaxSeconds"`
}

// GeoConfig wires the geocoding and amenity-query endpoints.
type GeoConfig struct {
	NominatimURL string `yaml:"nominatimUrl"`
	OverpassURL  string `yaml:"overpassUrl"`
	UserAgent    string `yaml:"userAgent"`
	RadiusMeters int    `yaml:"radiusMeters"`
}

// SentimentConfig describes the external review-classification service.
type SentimentConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// MistralConfig defines how to contact the summary-generation API.
type MistralConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	Temperature float64 `yaml:"temperature"`
}

// LoggingConfig selects the console log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(sentimentURLEnv); v != "" {
		c.Sentiment.InferenceURL = v
	}
	if v := os.Getenv(sentimentAPIKeyEnv); v != "" {
		c.Sentiment.APIKey = v
	}

	if v := os.Getenv(mistralAPIKeyEnv); v != "" {
		c.Mistral.APIKey = v
	}
	if v := os.Getenv(mistralModelEnv); v != "" {
		c.Mistral.Model = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Scraper.URLPrefix != "" {
		base.Scraper.URLPrefix = override.Scraper.URLPrefix
	}
	if override.Scraper.URLSuffix != "" {
		base.Scraper.URLSuffix = override.Scraper.URLSuffix
	}
	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}
	if override.Scraper.PageLimit > 0 {
		base.Scraper.PageLimit = override.Scraper.PageLimit
	}
	if override.Scraper.PageSize > 0 {
		base.Scraper.PageSize = override.Scraper.PageSize
	}
	if override.Scraper.DelayMinSec > 0 {
		base.Scraper.DelayMinSec = override.Scraper.DelayMinSec
	}
	if override.Scraper.DelayMaxSec > 0 {
		base.Scraper.DelayMaxSec = override.Scraper.DelayMaxSec
	}

	if override.Geo.NominatimURL != "" {
		base.Geo.NominatimURL = override.Geo.NominatimURL
	}
	if override.Geo.OverpassURL != "" {
		base.Geo.OverpassURL = override.Geo.OverpassURL
	}
	if override.Geo.UserAgent != "" {
		base.Geo.UserAgent = override.Geo.UserAgent
	}
	if override.Geo.RadiusMeters > 0 {
		base.Geo.RadiusMeters = override.Geo.RadiusMeters
	}

	if override.Sentiment.InferenceURL != "" {
		base.Sentiment.InferenceURL = override.Sentiment.InferenceURL
	}
	if override.Sentiment.APIKey != "" {
		base.Sentiment.APIKey = override.Sentiment.APIKey
	}

	if override.Mistral.Endpoint != "" {
		base.Mistral.Endpoint = override.Mistral.Endpoint
	}
	if override.Mistral.Model != "" {
		base.Mistral.Model = override.Mistral.Model
	}
	if override.Mistral.APIKey != "" {
		base.Mistral.APIKey = override.Mistral.APIKey
	}
	if override.Mistral.Temperature > 0 {
		base.Mistral.Temperature = override.Mistral.Temperature
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "data/friands.db"},
		Scraper: ScraperConfig{
			URLPrefix:   "https://www.tripadvisor.fr/Restaurant_Review",
			URLSuffix:   ".html",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3",
			PageLimit:   5,
			PageSize:    15,
			DelayMinSec: 5,
			DelayMaxSec: 10,
		},
		Geo: GeoConfig{
			NominatimURL: "https://nominatim.openstreetmap.org/search",
			OverpassURL:  "https://overpass-api.de/api/interpreter",
			UserAgent:    "friands/1.0",
			RadiusMeters: 500,
		},
		Sentiment: SentimentConfig{},
		Mistral: MistralConfig{
			Endpoint:    "https://api.mistral.ai/v1/chat/completions",
			Model:       "mistral-small-latest",
			Temperature: 0.5,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
