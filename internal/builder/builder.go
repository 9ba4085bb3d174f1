package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/patrickmn/go-cache"
	imagekit "github.com/shouni/gemini-image-kit/pkg/generator"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"google.golang.org/genai"

	"github.com/shouni/go-insert-image-kit/internal/config"
	libcfg "github.com/shouni/go-insert-image-kit/pkg/config"
	"github.com/shouni/go-insert-image-kit/pkg/generator"
	"github.com/shouni/go-insert-image-kit/pkg/oracle"
	"github.com/shouni/go-insert-image-kit/pkg/prompts"
	"github.com/shouni/go-insert-image-kit/pkg/workflow"
)

const (
	defaultCacheExpiration = 5 * time.Minute
	cacheCleanupInterval   = 15 * time.Minute
	defaultTTL             = 5 * time.Minute
	// 画像生成用クライアントの Temperature
	defaultImageTemperature = float32(0.4)
)

// BuildStudio は設定に従って Text Oracle と Image Oracle を組み立て、Studio を構築します。
func BuildStudio(ctx context.Context, cfg *config.Config, httpClient httpkit.ClientInterface, reader remoteio.InputReader) (*workflow.Studio, error) {
	cfg.ResolveModels()

	textOracle, err := BuildTextOracle(ctx, cfg)
	if err != nil {
		return nil, err
	}
	imageOracle, err := BuildImageOracle(ctx, cfg, httpClient, reader)
	if err != nil {
		return nil, err
	}

	slog.Info("Oracle を初期化しました",
		"text_backend", cfg.Library.TextBackend,
		"text_model", cfg.Library.TextModel,
		"image_backend", cfg.Library.ImageBackend,
		"image_model", cfg.Library.ImageModel,
	)

	return workflow.New(workflow.Args{
		TextOracle:     textOracle,
		ImageOracle:    imageOracle,
		MaxConcurrency: cfg.Library.MaxConcurrency,
	})
}

// BuildTextOracle は TEXT_BACKEND に応じた Text Oracle を構築します。
func BuildTextOracle(ctx context.Context, cfg *config.Config) (oracle.TextOracle, error) {
	lib := cfg.Library
	pb, err := prompts.NewTextPromptBuilder(lib.TitleLanguage)
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}

	switch lib.TextBackend {
	case libcfg.TextBackendClaude:
		var opts []option.RequestOption
		if cfg.AnthropicAPIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.AnthropicAPIKey))
		}
		client := anthropic.NewClient(opts...)
		return oracle.NewClaudeTextOracle(&client.Messages, lib.TextModel, pb,
			oracle.WithTemperatures(lib.ConceptTemperature, lib.RefineTemperature),
		)

	case libcfg.TextBackendGemini, "":
		conceptClient, err := InitializeAIClient(ctx, cfg.GeminiAPIKey, lib.ConceptTemperature)
		if err != nil {
			return nil, err
		}
		refineClient, err := InitializeAIClient(ctx, cfg.GeminiAPIKey, lib.RefineTemperature)
		if err != nil {
			return nil, err
		}
		return oracle.NewGeminiTextOracle(conceptClient, refineClient, lib.TextModel, pb)

	default:
		return nil, fmt.Errorf("未対応の TEXT_BACKEND です: %q (gemini / claude)", lib.TextBackend)
	}
}

// BuildImageOracle は IMAGE_BACKEND に応じた Image Oracle を構築し、レート制限で包みます。
func BuildImageOracle(ctx context.Context, cfg *config.Config, httpClient httpkit.ClientInterface, reader remoteio.InputReader) (oracle.ImageOracle, error) {
	lib := cfg.Library

	var (
		base oracle.ImageOracle
		err  error
	)
	switch lib.ImageBackend {
	case libcfg.ImageBackendImagen, "":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("genai クライアントの初期化に失敗しました: %w", err)
		}
		base, err = generator.NewImagenOracle(client.Models, lib.ImageModel, lib.ImagePromptSuffix)

	case libcfg.ImageBackendGemini:
		var imgGen imagekit.ImageGenerator
		imgGen, err = InitializeImageGenerator(ctx, cfg, httpClient, reader)
		if err != nil {
			return nil, err
		}
		base, err = generator.NewGeminiImageOracle(imgGen, lib.ImagePromptSuffix)

	default:
		return nil, fmt.Errorf("未対応の IMAGE_BACKEND です: %q (imagen / gemini)", lib.ImageBackend)
	}
	if err != nil {
		return nil, err
	}
	return generator.NewRateLimited(base, lib.RateInterval, lib.RateBurst), nil
}

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string, temperature float32) (gemini.GenerativeModel, error) {
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(temperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// InitializeImageGenerator は画像キャッシュを含む gemini-image-kit の ImageGenerator を初期化します。
func InitializeImageGenerator(ctx context.Context, cfg *config.Config, httpClient httpkit.ClientInterface, reader remoteio.InputReader) (imagekit.ImageGenerator, error) {
	aiClient, err := InitializeAIClient(ctx, cfg.GeminiAPIKey, defaultImageTemperature)
	if err != nil {
		return nil, err
	}

	imgCache := cache.New(defaultCacheExpiration, cacheCleanupInterval)
	core, err := imagekit.NewGeminiImageCore(
		aiClient,
		reader,
		httpClient,
		imgCache,
		defaultTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCore の初期化に失敗しました: %w", err)
	}

	imgGen, err := imagekit.NewGeminiGenerator(cfg.Library.ImageModel, core)
	if err != nil {
		return nil, fmt.Errorf("GeminiGeneratorの初期化に失敗したのだ: %w", err)
	}
	return imgGen, nil
}
