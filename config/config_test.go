package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhpenta/genpipe"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	def := genpipe.DefaultConfig()
	assert.Equal(t, genpipe.BackendHuggingFace, cfg.Backend)
	assert.Equal(t, genpipe.DefaultTextModel, cfg.Text.ResolveModel())
	assert.Equal(t, genpipe.DefaultImageModel, cfg.Image.ResolveModel())
	assert.Equal(t, def.Sampling, cfg.Sampling)
	assert.Equal(t, def.ImageParams, cfg.ImageParams)
	assert.Equal(t, def.Media, cfg.Media)
	assert.Equal(t, 30*time.Second, cfg.Text.Timeout)
	assert.False(t, cfg.RateLimit.Enabled())
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	t.Setenv("HF_API_TOKEN", "hf_secret")
	t.Setenv("MODEL_NAME", "org/generic-text")
	t.Setenv("HF_IMAGE_MODEL", "org/purpose-image")
	t.Setenv("IMAGE_MODEL", "org/generic-image")
	t.Setenv("HF_INFERENCE_ENDPOINT", "https://example.invalid/text")
	t.Setenv("MAX_NEW_TOKENS", "128")
	t.Setenv("TEMPERATURE", "0.2")
	t.Setenv("IMAGE_WIDTH", "512")
	t.Setenv("MEDIA_ROOT", "/srv/media")
	t.Setenv("MEDIA_URL", "https://cdn.example.invalid/media/")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "hf_secret", cfg.Token)
	assert.Equal(t, "org/generic-text", cfg.Text.ResolveModel())
	assert.Equal(t, "https://example.invalid/text", cfg.Text.Endpoint)
	assert.Equal(t, "org/purpose-image", cfg.Image.ResolveModel())
	assert.Equal(t, 128, cfg.Sampling.MaxNewTokens)
	assert.InDelta(t, 0.2, cfg.Sampling.Temperature, 1e-9)
	assert.Equal(t, 512, cfg.ImageParams.Width)
	assert.Equal(t, "/srv/media", cfg.Media.Root)
	assert.Equal(t, "https://cdn.example.invalid/media/", cfg.Media.BaseURL)
}

func TestLoad_EndpointPrecedence(t *testing.T) {
	t.Setenv("HF_TEXT_ENDPOINT", "https://example.invalid/specific")
	t.Setenv("HF_INFERENCE_ENDPOINT", "https://example.invalid/generic")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://example.invalid/specific", cfg.Text.Endpoint)
}

func TestLoad_PrefixedEnvironment(t *testing.T) {
	t.Setenv("GENPIPE_TEXT_MODEL", "org/prefixed")
	t.Setenv("GENPIPE_BACKEND", "gemini")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "org/prefixed", cfg.Text.Model)
	assert.Equal(t, genpipe.BackendGemini, cfg.Backend)
}

func TestLoad_EmptyDefaultModelDisablesDefault(t *testing.T) {
	t.Setenv("DEFAULT_TEXT_MODEL", "")
	t.Setenv("DEFAULT_IMAGE_MODEL", "")
	t.Setenv("MAX_NEW_TOKENS", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.Text.DefaultModel)
	assert.Empty(t, cfg.Image.DefaultModel)
	assert.False(t, cfg.Text.Configured())
	assert.False(t, cfg.Image.Configured())

	// empty numbers still fall back to defaults
	assert.Equal(t, genpipe.DefaultSampling().MaxNewTokens, cfg.Sampling.MaxNewTokens)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_NEW_TOKENS", "lots")
	t.Setenv("TEMPERATURE", "hot")
	t.Setenv("TOP_P", "7")
	t.Setenv("IMAGE_HEIGHT", "tall")
	t.Setenv("IMAGE_GUIDANCE_SCALE", "")

	cfg, err := Load("")
	require.NoError(t, err)

	def := genpipe.DefaultConfig()
	assert.Equal(t, def.Sampling.MaxNewTokens, cfg.Sampling.MaxNewTokens)
	assert.Equal(t, def.Sampling.Temperature, cfg.Sampling.Temperature)
	assert.Equal(t, def.Sampling.TopP, cfg.Sampling.TopP, "out of range top_p is normalized")
	assert.Equal(t, def.ImageParams.Height, cfg.ImageParams.Height)
	assert.Equal(t, def.ImageParams.GuidanceScale, cfg.ImageParams.GuidanceScale)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genpipe.yaml")
	content := strings.Join([]string{
		"backend: huggingface",
		"text:",
		"  model: org/from-file",
		"  timeout: 45",
		"image:",
		"  endpoint: https://example.invalid/image",
		"image_concurrency: 2",
		"rate_limit:",
		"  tokens_per_minute: 1000",
		"  requests_per_minute: 10",
		"log:",
		"  level: debug",
		"  format: json",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("HF_TEXT_MODEL", "org/from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "org/from-env", cfg.Text.Model, "environment overrides the file")
	assert.Equal(t, 45*time.Second, cfg.Text.Timeout)
	assert.Equal(t, "https://example.invalid/image", cfg.Image.Endpoint)
	assert.Equal(t, 2, cfg.ImageConcurrency)
	assert.True(t, cfg.RateLimit.Enabled())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("text: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(genpipe.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "tier", "heuristic")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"tier":"heuristic"`)
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger(genpipe.LogConfig{Level: "loud"}, nil)
	assert.Error(t, err)

	_, err = NewLogger(genpipe.LogConfig{Level: "info", Format: "xml"}, nil)
	assert.Error(t, err)
}
