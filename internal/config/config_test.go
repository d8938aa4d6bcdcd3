package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "eqsvg-renderer", cfg.RendererPath)
	assert.Equal(t, 18080, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("EQSVG_RENDERER", "/opt/mathjax/render.js")
	t.Setenv("EQSVG_PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/opt/mathjax/render.js", cfg.RendererPath)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("EQSVG_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}
