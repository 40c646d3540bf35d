package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, kv map[string]string, fn func()) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
	fn()
}

func TestLoadDefaults(t *testing.T) {
	_ = os.Unsetenv("PORT")
	withEnv(t, map[string]string{"MONGO_URI": "mongodb://localhost:27017"}, func() {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, "America/Denver", cfg.Timezone)
		assert.False(t, cfg.DebugPivot)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, 600, cfg.CacheTTLSeconds)
		assert.Equal(t, ":3000", cfg.ListenAddr())
	})
}

func TestLoadRequiresMongoURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	withEnv(t, map[string]string{
		"MONGO_URI": "mongodb://localhost:27017",
		"PORT":      "99999",
	}, func() {
		_, err := Load()
		assert.Error(t, err)
	})
}
