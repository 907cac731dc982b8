package utils

import (
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"
)

// Settings holds the typed configuration of the countries service
type Settings struct {
	Port        string
	CORSOrigins []string

	Database DatabaseSettings
	Feeds    FeedSettings
	Refresh  RefreshSettings
	Kafka    KafkaSettings

	CacheDir  string
	LogLevel  string
	LogFormat string
}

// DatabaseSettings selects and configures the country store
type DatabaseSettings struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string

	// SQLitePath is used when no MySQL database is configured
	SQLitePath string
}

// FeedSettings overrides the external feed endpoints
type FeedSettings struct {
	CountriesURL string
	RatesURL     string
	Timeout      time.Duration
	ConfigPath   string
}

// RefreshSettings configures scheduled refreshes
type RefreshSettings struct {
	Cron    string
	Timeout time.Duration
}

// KafkaSettings configures refresh event publishing
type KafkaSettings struct {
	Brokers []string
	Topic   string
}

// LoadSettings reads every setting from cfg and validates it
func LoadSettings(cfg *Config) (*Settings, error) {
	s := &Settings{
		Port:        cfg.GetFirst("API_PORT", "PORT"),
		CORSOrigins: cfg.GetList("CORS_ALLOWED_ORIGINS"),

		Database: DatabaseSettings{
			Host:       cfg.GetFirst("MYSQL_HOST", "MYSQLHOST"),
			Port:       cfg.GetFirst("MYSQL_PORT", "MYSQLPORT"),
			User:       cfg.GetFirst("MYSQL_USER", "MYSQLUSER"),
			Password:   cfg.GetFirst("MYSQL_ROOT_PASSWORD", "MYSQL_PASSWORD", "MYSQLPASSWORD"),
			Name:       cfg.GetFirst("MYSQL_DATABASE", "MYSQLDATABASE"),
			SQLitePath: cfg.Get("SQLITE_PATH"),
		},

		Feeds: FeedSettings{
			CountriesURL: cfg.Get("COUNTRIES_FEED_URL"),
			RatesURL:     cfg.Get("RATES_FEED_URL"),
			Timeout:      cfg.GetDurationWithDefault("FEED_TIMEOUT", 30*time.Second),
			ConfigPath:   cfg.Get("FEEDS_CONFIG_PATH"),
		},

		Refresh: RefreshSettings{
			Cron:    cfg.Get("REFRESH_CRON"),
			Timeout: cfg.GetDurationWithDefault("REFRESH_TIMEOUT", 2*time.Minute),
		},

		Kafka: KafkaSettings{
			Brokers: cfg.GetList("KAFKA_BROKERS"),
			Topic:   cfg.GetWithDefault("KAFKA_TOPIC", "country-refresh-events"),
		},

		CacheDir:  cfg.GetWithDefault("CACHE_DIR", "cache"),
		LogLevel:  cfg.GetWithDefault("LOG_LEVEL", "info"),
		LogFormat: cfg.GetWithDefault("LOG_FORMAT", "text"),
	}

	if s.Port == "" {
		s.Port = "8080"
	}
	if len(s.CORSOrigins) == 0 {
		s.CORSOrigins = []string{"*"}
	}
	if s.Database.Port == "" {
		s.Database.Port = "3306"
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validate() error {
	if s.Feeds.Timeout <= 0 {
		return fmt.Errorf("FEED_TIMEOUT must be positive")
	}
	if s.Refresh.Cron != "" {
		if _, err := cron.ParseStandard(s.Refresh.Cron); err != nil {
			return fmt.Errorf("REFRESH_CRON is invalid: %w", err)
		}
	}
	if s.Database.UseMySQL() && s.Database.Host == "" {
		return fmt.Errorf("MYSQL_HOST is required when MYSQL_DATABASE is set")
	}
	return nil
}

// UseMySQL reports whether a MySQL database is configured
func (d DatabaseSettings) UseMySQL() bool {
	return d.Name != ""
}

// MySQLDSN builds the driver DSN for the configured database
func (d DatabaseSettings) MySQLDSN() string {
	dbConfig := mysql.Config{
		User:                 d.User,
		Passwd:               d.Password,
		Net:                  "tcp",
		Addr:                 net.JoinHostPort(d.Host, d.Port),
		DBName:               d.Name,
		ParseTime:            true,
		AllowNativePasswords: true,
		Params:               map[string]string{"charset": "utf8mb4"},
	}
	return dbConfig.FormatDSN()
}
