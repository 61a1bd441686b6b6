package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, time.Minute, cfg.SchedulerInterval)
	assert.Equal(t, []string{"credit", "deyn"}, cfg.CreditTokenList())
	assert.True(t, cfg.FxRate().IsZero())
	assert.False(t, cfg.MailEnabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("PORT", "9100")
	t.Setenv("DEFAULT_FX_RATE", "25000")
	t.Setenv("SCHEDULER_INTERVAL", "5m")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("ALERT_EMAIL", "owner@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "25000", cfg.FxRate().String())
	assert.Equal(t, 5*time.Minute, cfg.SchedulerInterval)
	assert.True(t, cfg.MailEnabled())
}

func TestLoad_BadTimeZone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	assert.ErrorContains(t, err, "TIMEZONE")
}

func TestFxRate_Garbage(t *testing.T) {
	cfg := &Config{DefaultFxRate: "abc"}
	assert.True(t, cfg.FxRate().IsZero())
}
