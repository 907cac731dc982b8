package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	settings, err := LoadSettings(NewConfig(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", settings.Port)
	assert.Equal(t, []string{"*"}, settings.CORSOrigins)
	assert.Equal(t, 30*time.Second, settings.Feeds.Timeout)
	assert.Equal(t, "cache", settings.CacheDir)
	assert.Equal(t, "country-refresh-events", settings.Kafka.Topic)
	assert.Empty(t, settings.Kafka.Brokers)
	assert.Empty(t, settings.Refresh.Cron)
	assert.False(t, settings.Database.UseMySQL())
}

func TestLoadSettings_Values(t *testing.T) {
	settings, err := LoadSettings(NewConfig(map[string]string{
		"PORT":                 "3000",
		"CORS_ALLOWED_ORIGINS": "http://localhost:5173,https://countries.example.com",
		"MYSQLHOST":            "db.internal",
		"MYSQLPORT":            "3307",
		"MYSQLUSER":            "root",
		"MYSQLPASSWORD":        "secret",
		"MYSQLDATABASE":        "railway",
		"FEED_TIMEOUT":         "10s",
		"REFRESH_CRON":         "0 */6 * * *",
		"KAFKA_BROKERS":        "kafka-1:9092, kafka-2:9092",
	}))
	require.NoError(t, err)

	assert.Equal(t, "3000", settings.Port)
	assert.Len(t, settings.CORSOrigins, 2)
	assert.Equal(t, 10*time.Second, settings.Feeds.Timeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, settings.Kafka.Brokers)
	assert.True(t, settings.Database.UseMySQL())

	dsn, err := mysql.ParseDSN(settings.Database.MySQLDSN())
	require.NoError(t, err)
	assert.Equal(t, "root", dsn.User)
	assert.Equal(t, "secret", dsn.Passwd)
	assert.Equal(t, "db.internal:3307", dsn.Addr)
	assert.Equal(t, "railway", dsn.DBName)
	assert.True(t, dsn.ParseTime)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad cron":         {"REFRESH_CRON": "every now and then"},
		"negative timeout": {"FEED_TIMEOUT": "-5s"},
		"database no host": {"MYSQL_DATABASE": "countries"},
	}

	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSettings(NewConfig(values))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("shown", "component", "test")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"component":"test"`)
}
