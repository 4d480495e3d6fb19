package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/michalswi/jogjamap/dataset"
	"github.com/michalswi/jogjamap/mapview"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	require.NoError(t, err)

	require.Equal(t, "5050", cfg.Server.Port)
	require.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	require.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	require.Empty(t, cfg.Map.DatasetPath)
	require.Equal(t, 5*time.Minute, cfg.Map.DatasetReload)
	require.Equal(t, dataset.Indonesian, cfg.Map.Locale)
	require.Equal(t, mapview.ThemeLight, cfg.Map.Theme)
	require.Empty(t, cfg.Tiles.ProxyAddr)
	require.False(t, cfg.Tiles.Proxy)
	require.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"SERVER_PORT":          "8081",
		"READ_TIMEOUT":         "2s",
		"DATASET_PATH":         "/data/locations.yaml",
		"DATASET_RELOAD":       "0s",
		"DEFAULT_LOCALE":       "EN",
		"DEFAULT_THEME":        "Dark",
		"PROXY_ADDR":           "socks5://127.0.0.1:9050",
		"CORS_ALLOWED_ORIGINS": "https://jogjamap.id, https://www.jogjamap.id,",
		"LOG_LEVEL":            "DEBUG",
	}
	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	require.NoError(t, err)

	require.Equal(t, "8081", cfg.Server.Port)
	require.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, "/data/locations.yaml", cfg.Map.DatasetPath)
	require.Zero(t, cfg.Map.DatasetReload)
	require.Equal(t, dataset.English, cfg.Map.Locale)
	require.Equal(t, mapview.ThemeDark, cfg.Map.Theme)
	require.True(t, cfg.Tiles.Proxy, "a proxy address turns the tile proxy on")
	require.Equal(t, []string{"https://jogjamap.id", "https://www.jogjamap.id"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, "debug", cfg.Log.Level)

	env["TILE_PROXY"] = "false"
	cfg, err = Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	require.NoError(t, err)
	require.False(t, cfg.Tiles.Proxy)
}

func TestLoadDotEnvAndSystemEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "SERVER_PORT=7070\nDEFAULT_LOCALE=en\nTILE_PROXY=true\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o644))

	t.Setenv("SERVER_PORT", "6060")
	cfg, err := Load(WithEnvFile(envPath))
	require.NoError(t, err)
	require.Equal(t, "6060", cfg.Server.Port, "the process environment wins over .env")
	require.Equal(t, dataset.English, cfg.Map.Locale)
	require.True(t, cfg.Tiles.Proxy)

	_, err = Load(WithEnvFile(filepath.Join(dir, "missing.env")), WithoutSystemEnv())
	require.NoError(t, err, "a missing .env file is not an error")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	env := map[string]string{
		"SERVER_PORT":    "http",
		"WRITE_TIMEOUT":  "soon",
		"DEFAULT_LOCALE": "fr",
		"DEFAULT_THEME":  "sepia",
		"TILE_PROXY":     "maybe",
		"LOG_LEVEL":      "loud",
	}
	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ElementsMatch(t,
		[]string{"SERVER_PORT", "WRITE_TIMEOUT", "DEFAULT_LOCALE", "DEFAULT_THEME", "TILE_PROXY", "LOG_LEVEL"},
		verr.Fields(),
	)
}
