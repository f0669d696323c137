package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "promotion-service", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "Asia/Seoul", cfg.App.Timezone)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "hr", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "approval.document.events", cfg.Kafka.ApprovalTopic)
		assert.False(t, cfg.Kafka.Enabled)
		assert.Equal(t, "memory", cfg.Event.IdempotencyBackend)
		assert.Equal(t, 72*time.Hour, cfg.Event.IdempotencyTTL)
		assert.Equal(t, "00:10", cfg.Scheduler.SweepTime)
		assert.Equal(t, 500, cfg.Scheduler.BatchSize)
		assert.Equal(t, "PERSONNEL_APPOINTMENT", cfg.Promotion.AppointmentFormKey)
		assert.Equal(t, "promotion-service", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with HRP prefix", func(t *testing.T) {
		t.Setenv("HRP_APP_NAME", "promo-test")
		t.Setenv("HRP_APP_TIMEZONE", "UTC")
		t.Setenv("HRP_DATABASE_HOST", "testdb.local")
		t.Setenv("HRP_DATABASE_PORT", "5433")
		t.Setenv("HRP_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("HRP_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("HRP_KAFKA_ENABLED", "true")
		t.Setenv("HRP_KAFKA_BROKERS", "k1:9092 k2:9092")
		t.Setenv("HRP_EVENT_IDEMPOTENCY_TTL", "24h")
		t.Setenv("HRP_SCHEDULER_SWEEP_TIME", "03:30")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "promo-test", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Kafka.Enabled)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 24*time.Hour, cfg.Event.IdempotencyTTL)

		hour, minute, err := cfg.Scheduler.ParseSweepTime()
		require.NoError(t, err)
		assert.Equal(t, 3, hour)
		assert.Equal(t, 30, minute)

		loc, err := cfg.App.Location()
		require.NoError(t, err)
		assert.Equal(t, time.UTC, loc)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("HRP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("HRP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown time zone", func(t *testing.T) {
		t.Setenv("HRP_APP_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "app.timezone")
	})

	t.Run("rejects malformed sweep time", func(t *testing.T) {
		t.Setenv("HRP_SCHEDULER_SWEEP_TIME", "25:99")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheduler.sweep_time")
	})

	t.Run("rejects unknown idempotency backend", func(t *testing.T) {
		t.Setenv("HRP_EVENT_IDEMPOTENCY_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "idempotency_backend")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("HRP_APP_ENV", "production")
		t.Setenv("HRP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("HRP_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		t.Setenv("HRP_APP_ENV", "production")
		t.Setenv("HRP_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("HRP_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("requires shared idempotency store when consuming signals", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("HRP_KAFKA_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be redis in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("HRP_KAFKA_ENABLED", "true")
		t.Setenv("HRP_EVENT_IDEMPOTENCY_BACKEND", "redis")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promotion.toml")
	content := `
[app]
name = "from-file"
timezone = "UTC"

[kafka]
brokers = ["b1:9092", "b2:9092"]
approval_topic = "approvals"

[scheduler]
enabled = true
sweep_time = "01:00"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Run("reads file values", func(t *testing.T) {
		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.App.Name)
		assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "approvals", cfg.Kafka.ApprovalTopic)
		assert.True(t, cfg.Scheduler.Enabled)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("HRP_APP_NAME", "from-env")
		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.App.Name)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
		assert.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", cfg.Addr())
}
