package feeds

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCountriesURL = "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies"
	DefaultRatesURL     = "https://open.er-api.com/v6/latest/USD"
	DefaultTimeout      = 30 * time.Second
)

// Config holds the locations and timeout of both feeds
type Config struct {
	CountriesURL string        `yaml:"countries_url"`
	RatesURL     string        `yaml:"rates_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the public feed endpoints with a 30 second timeout
func DefaultConfig() Config {
	return Config{
		CountriesURL: DefaultCountriesURL,
		RatesURL:     DefaultRatesURL,
		Timeout:      DefaultTimeout,
	}
}

// LoadConfig reads a YAML feeds file on top of the defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read feeds config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse feeds config file: %w", err)
	}

	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.CountriesURL == "" {
		c.CountriesURL = DefaultCountriesURL
	}
	if c.RatesURL == "" {
		c.RatesURL = DefaultRatesURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
