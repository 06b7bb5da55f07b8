package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	l, err := NewLoader("")
	require.NoError(t, err)
	cf, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "9091", cf.Port)
	assert.Equal(t, DriverMemory, cf.StoreDriver)
	assert.Equal(t, "5", cf.Fee().String())
	assert.Equal(t, 30*time.Minute, cf.SessionTTL)
	assert.True(t, cf.SeedCatalog)
	assert.Empty(t, cf.Brokers())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("DELIVERY_FEE", "7.50")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SEED_CATALOG", "false")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	l, err := NewLoader("")
	require.NoError(t, err)
	cf, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cf.Port)
	assert.Equal(t, "7.5", cf.Fee().String())
	assert.Equal(t, 2*time.Hour, cf.SessionTTL)
	assert.False(t, cf.SeedCatalog)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cf.Brokers())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REDIS_PREFIX=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("REDIS_PREFIX") })

	l, err := NewLoader("")
	require.NoError(t, err)
	cf, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cf.RedisPrefix)
}

func TestValidate(t *testing.T) {
	base := Config{StoreDriver: DriverMemory, DeliveryFee: "5.00"}
	require.NoError(t, base.Validate())

	c := base
	c.StoreDriver = DriverPostgres
	assert.Error(t, c.Validate())
	c.DatabaseURL = "postgres://localhost/storefront"
	assert.NoError(t, c.Validate())

	c = base
	c.StoreDriver = "mongo"
	assert.Error(t, c.Validate())

	c = base
	c.DeliveryFee = "-1"
	assert.Error(t, c.Validate())
	c.DeliveryFee = "five"
	assert.Error(t, c.Validate())
}

func TestWatch_ReloadsFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := filepath.Join(dir, "storefront.env")
	require.NoError(t, os.WriteFile(file, []byte("LOG_LEVEL=info\n"), 0o600))

	l, err := NewLoader(file)
	require.NoError(t, err)
	cf, err := l.Load()
	require.NoError(t, err)
	require.Equal(t, "info", cf.LogLevel)

	var level atomic.Value
	l.Watch(func(c *Config) { level.Store(c.LogLevel) }, func(error) {})

	require.NoError(t, os.WriteFile(file, []byte("LOG_LEVEL=debug\n"), 0o600))
	assert.Eventually(t, func() bool {
		v, _ := level.Load().(string)
		return v == "debug"
	}, 5*time.Second, 50*time.Millisecond)
}
