package config

import (
	"time"

	"github.com/shouni/go-insert-image-kit/pkg/prompts"
)

// Text Oracle / Image Oracle のバックエンド名
const (
	TextBackendGemini  = "gemini"
	TextBackendClaude  = "claude"
	ImageBackendImagen = "imagen"
	ImageBackendGemini = "gemini"
)

// デフォルト値の定義
const (
	DefaultTextModel          = "gemini-2.5-flash"
	DefaultClaudeModel        = "claude-sonnet-4-5"
	DefaultImageModel         = "imagen-4.0-generate-001"
	DefaultGeminiImageModel   = "gemini-2.5-flash-image"
	DefaultConceptTemperature = float32(0.8)
	DefaultRefineTemperature  = float32(0.6)
	DefaultRateInterval       = 2 * time.Second
	DefaultRateBurst          = 2
	DefaultMaxConcurrency     = 0
)

// Config は Studio と各 Oracle アダプターを動作させるための基本設定です。
type Config struct {
	// --- Backend Selection ---
	TextBackend  string
	ImageBackend string

	// --- AI Model Settings ---
	TextModel  string
	ImageModel string

	// --- Prompt Settings ---
	ImagePromptSuffix  string
	TitleLanguage      string
	ConceptTemperature float32
	RefineTemperature  float32

	// --- Rate Limit & Concurrency ---
	RateInterval   time.Duration // 0 で無効
	RateBurst      int
	MaxConcurrency int // GenerateAll の同時実行数。0 で無制限
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		TextBackend:        TextBackendGemini,
		ImageBackend:       ImageBackendImagen,
		TextModel:          DefaultTextModel,
		ImageModel:         DefaultImageModel,
		ImagePromptSuffix:  prompts.DefaultImagePromptSuffix,
		TitleLanguage:      prompts.DefaultTitleLanguage,
		ConceptTemperature: DefaultConceptTemperature,
		RefineTemperature:  DefaultRefineTemperature,
		RateInterval:       DefaultRateInterval,
		RateBurst:          DefaultRateBurst,
		MaxConcurrency:     DefaultMaxConcurrency,
	}
}
