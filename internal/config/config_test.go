package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ENGINE_TX_MAX_ATTEMPTS", "")
	t.Setenv("JOB_SLOTTING_SITES", " a , ,b")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.TxMaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Engine.TxBaseDelay)
	assert.Equal(t, time.Second, cfg.Engine.TxMaxDelay)
	assert.Equal(t, 10*time.Second, cfg.Engine.OperationTimeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Jobs.SlottingSites)
	assert.Equal(t, "inventory-exports", cfg.Archive.Bucket)
	assert.Equal(t, "exports", cfg.Archive.Prefix)
	assert.False(t, cfg.Archive.UseSSL)
}

func TestLoad_ProductionNeedsSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "pw")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidate_EngineBounds(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ENGINE_TX_BASE_DELAY", "2s")
	t.Setenv("ENGINE_TX_MAX_DELAY", "1s")

	_, err := Load()
	assert.ErrorContains(t, err, "ENGINE_TX_MAX_DELAY")
}
