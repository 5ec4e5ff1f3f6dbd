package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mongo", cfg.StoreBackend)
	assert.Equal(t, "redis", cfg.LeaseBackend)
	assert.Equal(t, 30*time.Second, cfg.LeaseTTL)
	assert.Equal(t, 3*time.Second, cfg.LeaseWait)
	assert.Equal(t, 20*time.Second, cfg.GatewayTimeout)
	assert.Less(t, cfg.GatewayTimeout, cfg.LeaseTTL)
	assert.Equal(t, 1, cfg.RedisQueueDB)
	assert.Equal(t, "0 0 * * *", cfg.PhaseSweepCron)
	assert.Equal(t, "0 1 * * *", cfg.ReminderSweepCron)
	assert.Equal(t, 4, cfg.CheckoutLookaheadDays)
	assert.Equal(t, 100, cfg.MaxRequestsPerMin)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LEASE_TTL", "45s")
	t.Setenv("CHECKOUT_LOOKAHEAD_DAYS", "2")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, 45*time.Second, cfg.LeaseTTL)
	assert.Equal(t, 2, cfg.CheckoutLookaheadDays)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.UTC, Config{SchedulerTimezone: "Not/AZone"}.Location())
	assert.Equal(t, "America/Chicago", Config{SchedulerTimezone: "America/Chicago"}.Location().String())
}

func TestOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, Config{CORSOrigins: " https://a.test, ,https://b.test "}.Origins())
	assert.Empty(t, Config{}.Origins())
}
