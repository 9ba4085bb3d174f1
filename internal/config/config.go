package config

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"

	libcfg "github.com/shouni/go-insert-image-kit/pkg/config"
	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/prompts"
)

// デフォルト値の定義なのだ
const (
	DefaultHTTPTimeout = 30 * time.Second
	// DefaultSessionFile は ideas 以降のコマンドが読み書きするセッションファイルなのだ
	DefaultSessionFile = "output/session.json"
	// DefaultOutputDir はアーカイブと画像の保存先なのだ
	DefaultOutputDir = "output"
	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultEnvFile   = ".env"
	// DefaultLogFileName は studio 実行時のログ出力先なのだ
	DefaultLogFileName = "insert-image.log"
	// DefaultCORSAllowOrigins は serve が CORS で許可するオリジンなのだ
	DefaultCORSAllowOrigins = "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000,http://127.0.0.1:5173"
)

// Config はアプリケーション全体の環境設定（APIキーやモデル、制限値）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey    string
	AnthropicAPIKey string
	Port            string
	GinMode         string
	LogLevel        string
	// AllowOrigins は serve の CORS 許可オリジンなのだ。"*" で全許可なのだ。
	AllowOrigins []string

	Library libcfg.Config

	Options GenerateOptions
}

// LoadConfig は .env（あれば）と環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	if err := godotenv.Load(DefaultEnvFile); err == nil {
		slog.Debug(".env を読み込みました", "file", DefaultEnvFile)
	}

	lib := libcfg.DefaultConfig()
	lib.TextBackend = strings.ToLower(stringEnv("TEXT_BACKEND", lib.TextBackend))
	lib.ImageBackend = strings.ToLower(stringEnv("IMAGE_BACKEND", lib.ImageBackend))
	lib.TextModel = stringEnv("TEXT_MODEL", "")
	lib.ImageModel = stringEnv("IMAGE_MODEL", "")
	lib.ImagePromptSuffix = stringEnv("IMAGE_PROMPT_SUFFIX", prompts.DefaultImagePromptSuffix)
	lib.TitleLanguage = stringEnv("TITLE_LANGUAGE", prompts.DefaultTitleLanguage)
	lib.RateInterval = durationEnv("RATE_INTERVAL", lib.RateInterval)
	lib.MaxConcurrency = intEnv("MAX_CONCURRENCY", lib.MaxConcurrency)

	return &Config{
		GeminiAPIKey:    envutil.GetEnv("GEMINI_API_KEY", ""),
		AnthropicAPIKey: envutil.GetEnv("ANTHROPIC_API_KEY", ""),
		Port:            envutil.GetEnv("PORT", DefaultPort),
		GinMode:         envutil.GetEnv("GIN_MODE", "release"),
		LogLevel:        envutil.GetEnv("LOG_LEVEL", DefaultLogLevel),
		AllowOrigins:    splitList(stringEnv("CORS_ALLOW_ORIGINS", DefaultCORSAllowOrigins)),
		Library:         lib,
		Options: GenerateOptions{
			SessionFile: DefaultSessionFile,
			OutputDir:   DefaultOutputDir,
			Count:       domain.DefaultImageCount,
			AspectRatio: domain.DefaultAspectRatio.Value,
			HTTPTimeout: DefaultHTTPTimeout,
		},
	}
}

// ResolveModels はバックエンドに応じて未指定のモデル名を埋めるのだ。
func (c *Config) ResolveModels() {
	if c.Library.TextModel == "" {
		if c.Library.TextBackend == libcfg.TextBackendClaude {
			c.Library.TextModel = libcfg.DefaultClaudeModel
		} else {
			c.Library.TextModel = libcfg.DefaultTextModel
		}
	}
	if c.Library.ImageModel == "" {
		if c.Library.ImageBackend == libcfg.ImageBackendGemini {
			c.Library.ImageModel = libcfg.DefaultGeminiImageModel
		} else {
			c.Library.ImageModel = libcfg.DefaultImageModel
		}
	}
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入出力関連
	Source      string // --source: 文字起こしの入力元 (- / パス / gs:// / URL)
	SessionFile string // --session
	OutputDir   string // --output-dir
	OutputFile  string // --output: アーカイブの保存先

	// 画像案関連
	Count       int    // --count
	AspectRatio string // --aspect
	IdeaID      string // --id
	Instruction string // --instruction
	Prompt      string // --prompt
	PromptSet   bool   // --prompt が明示されたか（空文字への書き換えを区別する）

	// 実行制御
	Resume      bool          // --resume: studio 起動時にセッションを復元する
	SaveEach    bool          // --each: export 時に画像を 1 枚ずつも保存する
	HTTPTimeout time.Duration // --http-timeout
}

// stringEnv は空白のみの値も未設定として扱うのだ。
func stringEnv(key, def string) string {
	if v := strings.TrimSpace(envutil.GetEnv(key, def)); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := stringEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("環境変数の値が不正なのでデフォルト値を使うのだ", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}

func intEnv(key string, def int) int {
	raw := stringEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("環境変数の値が不正なのでデフォルト値を使うのだ", "key", key, "value", raw, "default", def)
		return def
	}
	return n
}

// splitList はカンマ区切りの値を空要素を除いて分割するのだ。
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
