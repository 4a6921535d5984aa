package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "http:\n  address: \":9000\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddress())
	assert.Equal(t, 8090, cfg.HealthCheckPort())
	assert.Equal(t, 9090, cfg.PrometheusPort())
	assert.Equal(t, 30*time.Minute, cfg.FlowTimeout())
	assert.Equal(t, 2*time.Second, cfg.PaymentDelay())
	assert.Equal(t, time.Second, cfg.AuthDelay())
	assert.Equal(t, "admin@pixelperfect.com", cfg.AdminEmail())
	assert.Equal(t, "studio.bookings", cfg.KafkaTopic())
	assert.False(t, cfg.Booking.ConflictCheck)

	perSec, burst := cfg.RateLimit()
	assert.Equal(t, 10.0, perSec)
	assert.Equal(t, 20, burst)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("STUDIO_TEST_TOKEN", "123:abc")
	t.Setenv("STUDIO_TEST_ADMIN", "boss@studio.test")
	body := `
telegram:
  bot_token: ${STUDIO_TEST_TOKEN}
  managers: [1, 2]
auth:
  admin_email: ${STUDIO_TEST_ADMIN}
  delay_ms: 0
payment:
  delay_ms: 0
booking:
  conflict_check: true
schedule:
  times: ["10:00", "12:00"]
kafka:
  brokers: ["localhost:9092"]
`
	cfg, err := Load(writeFile(t, t.TempDir(), "config.yaml", body))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, []int64{1, 2}, cfg.Telegram.Managers)
	assert.Equal(t, "boss@studio.test", cfg.AdminEmail())
	assert.Equal(t, time.Duration(0), cfg.AuthDelay())
	assert.Equal(t, time.Duration(0), cfg.PaymentDelay())
	assert.True(t, cfg.Booking.ConflictCheck)
	assert.Equal(t, []string{"10:00", "12:00"}, cfg.Schedule.Times)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadRejectsBadSchedule(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "schedule:\n  times: [\"11:00\", \"09:00\"]\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func bump(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}
