package generator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/oracle"
	"github.com/shouni/go-insert-image-kit/pkg/prompts"
)

const jpegMimeType = "image/jpeg"

// ImageModels は genai.Models のうち Imagen 呼び出しに必要な部分だけを切り出したものです。
type ImageModels interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ImagenOracle は Imagen モデルを Image Oracle として利用するアダプターです。
type ImagenOracle struct {
	models ImageModels
	model  string
	suffix string
}

// NewImagenOracle は ImagenOracle を初期化します。suffix は全プロンプトの末尾に付く品質タグです。
func NewImagenOracle(models ImageModels, model, suffix string) (*ImagenOracle, error) {
	if models == nil {
		return nil, fmt.Errorf("genai Models は必須です")
	}
	return &ImagenOracle{models: models, model: model, suffix: suffix}, nil
}

// GenerateImage は 1 枚の JPEG 画像を生成します。
func (o *ImagenOracle) GenerateImage(ctx context.Context, req oracle.ImageRequest) (*domain.Image, error) {
	prompt := prompts.FinalizeImagePrompt(req.Prompt, o.suffix)
	logger := slog.With("backend", "imagen", "model", o.model, "aspect_ratio", req.AspectRatio.Value)
	logger.InfoContext(ctx, "画像生成を開始します")

	startTime := time.Now()
	resp, err := o.models.GenerateImages(ctx, o.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: jpegMimeType,
		AspectRatio:    req.AspectRatio.Value,
	})
	if err != nil {
		return nil, fmt.Errorf("Imagen API の呼び出しに失敗しました: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, ErrNoImageData
	}
	generated := resp.GeneratedImages[0]
	if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
		if generated != nil && generated.RAIFilteredReason != "" {
			return nil, fmt.Errorf("%w (filtered: %s)", ErrNoImageData, generated.RAIFilteredReason)
		}
		return nil, ErrNoImageData
	}

	data := generated.Image.ImageBytes
	mimeType := generated.Image.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	logger.InfoContext(ctx, "画像生成が完了しました", "bytes", len(data), "duration", time.Since(startTime).Round(time.Millisecond))
	return &domain.Image{Data: data, MimeType: mimeType}, nil
}
