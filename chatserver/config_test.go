package chatserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LIVECHATD_ADDR", ":9090")
	t.Setenv("LIVECHATD_ALLOWED_ORIGINS", "example.com,*.example.org")
	t.Setenv("LIVECHATD_WRITE_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, []string{"example.com", "*.example.org"}, cfg.AllowedOrigins)
	require.Equal(t, 3*time.Second, cfg.WriteTimeout)
	require.Equal(t, 50, cfg.HistoryDefault)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.HistoryMax = bad.HistoryDefault - 1
	require.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.DBPath = ""
	require.Error(t, bad.Validate())
}
