package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	libcfg "github.com/shouni/go-insert-image-kit/pkg/config"
)

func TestLoadConfig(t *testing.T) {
	t.Run("デフォルト値", func(t *testing.T) {
		t.Setenv("TEXT_BACKEND", "")
		t.Setenv("RATE_INTERVAL", "")
		t.Setenv("MAX_CONCURRENCY", "")
		cfg := LoadConfig()
		assert.Equal(t, libcfg.TextBackendGemini, cfg.Library.TextBackend)
		assert.Equal(t, libcfg.DefaultRateInterval, cfg.Library.RateInterval)
		assert.Equal(t, 3, cfg.Options.Count)
		assert.Equal(t, "16:9", cfg.Options.AspectRatio)
	})

	t.Run("環境変数で上書き", func(t *testing.T) {
		t.Setenv("TEXT_BACKEND", "Claude")
		t.Setenv("RATE_INTERVAL", "500ms")
		t.Setenv("MAX_CONCURRENCY", "4")
		t.Setenv("TITLE_LANGUAGE", "English")
		cfg := LoadConfig()
		assert.Equal(t, libcfg.TextBackendClaude, cfg.Library.TextBackend)
		assert.Equal(t, 500*time.Millisecond, cfg.Library.RateInterval)
		assert.Equal(t, 4, cfg.Library.MaxConcurrency)
		assert.Equal(t, "English", cfg.Library.TitleLanguage)
	})

	t.Run("CORS 許可オリジンは既定で localhost だけ", func(t *testing.T) {
		t.Setenv("CORS_ALLOW_ORIGINS", "")
		cfg := LoadConfig()
		require.NotEmpty(t, cfg.AllowOrigins)
		for _, o := range cfg.AllowOrigins {
			assert.Regexp(t, `^http://(localhost|127\.0\.0\.1):\d+$`, o)
		}
	})

	t.Run("CORS 許可オリジンをカンマ区切りで指定", func(t *testing.T) {
		t.Setenv("CORS_ALLOW_ORIGINS", " https://app.example.com, ,http://localhost:8080 ")
		cfg := LoadConfig()
		assert.Equal(t, []string{"https://app.example.com", "http://localhost:8080"}, cfg.AllowOrigins)
	})

	t.Run("不正な値はデフォルト", func(t *testing.T) {
		t.Setenv("RATE_INTERVAL", "soon")
		t.Setenv("MAX_CONCURRENCY", "many")
		cfg := LoadConfig()
		assert.Equal(t, libcfg.DefaultRateInterval, cfg.Library.RateInterval)
		assert.Equal(t, 0, cfg.Library.MaxConcurrency)
	})
}

func TestResolveModels(t *testing.T) {
	cfg := &Config{Library: libcfg.Config{TextBackend: libcfg.TextBackendClaude, ImageBackend: libcfg.ImageBackendGemini}}
	cfg.ResolveModels()
	assert.Equal(t, libcfg.DefaultClaudeModel, cfg.Library.TextModel)
	assert.Equal(t, libcfg.DefaultGeminiImageModel, cfg.Library.ImageModel)

	cfg = &Config{Library: libcfg.Config{TextModel: "custom", ImageBackend: libcfg.ImageBackendImagen}}
	cfg.ResolveModels()
	assert.Equal(t, "custom", cfg.Library.TextModel)
	assert.Equal(t, libcfg.DefaultImageModel, cfg.Library.ImageModel)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown", "key", "v")
	require.NotEmpty(t, buf.String())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("???"))
}
