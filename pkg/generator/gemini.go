package generator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	imgdom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/shouni/gemini-image-kit/pkg/imgutil"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/oracle"
	"github.com/shouni/go-insert-image-kit/pkg/prompts"
)

// JPEGQuality は JPEG 以外の応答を再エンコードするときの品質です。
const JPEGQuality = 90

// PanelGenerator は gemini-image-kit の ImageGenerator のうち単体画像の生成だけを切り出したものです。
type PanelGenerator interface {
	GenerateMangaPanel(ctx context.Context, req imgdom.ImageGenerationRequest) (*imgdom.ImageResponse, error)
}

// GeminiImageOracle は Gemini の画像生成モデルを gemini-image-kit 経由で Image Oracle として利用します。
type GeminiImageOracle struct {
	gen    PanelGenerator
	suffix string
}

// NewGeminiImageOracle は GeminiImageOracle を初期化します。
func NewGeminiImageOracle(gen PanelGenerator, suffix string) (*GeminiImageOracle, error) {
	if gen == nil {
		return nil, fmt.Errorf("ImageGenerator は必須です")
	}
	return &GeminiImageOracle{gen: gen, suffix: suffix}, nil
}

// GenerateImage は 1 枚の画像を生成し、JPEG に揃えて返します。
func (o *GeminiImageOracle) GenerateImage(ctx context.Context, req oracle.ImageRequest) (*domain.Image, error) {
	logger := slog.With("backend", "gemini", "aspect_ratio", req.AspectRatio.Value)
	logger.InfoContext(ctx, "画像生成を開始します")

	startTime := time.Now()
	resp, err := o.gen.GenerateMangaPanel(ctx, imgdom.ImageGenerationRequest{
		Prompt:      prompts.FinalizeImagePrompt(req.Prompt, o.suffix),
		AspectRatio: req.AspectRatio.Value,
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini 画像生成に失敗しました: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 {
		return nil, ErrNoImageData
	}

	data := resp.Data
	if http.DetectContentType(data) != jpegMimeType {
		compressed, err := imgutil.CompressToJPEG(bytes.NewReader(data), JPEGQuality)
		if err != nil {
			return nil, fmt.Errorf("JPEG への変換に失敗しました: %w", err)
		}
		data = compressed
	}

	logger.InfoContext(ctx, "画像生成が完了しました", "bytes", len(data), "duration", time.Since(startTime).Round(time.Millisecond))
	return &domain.Image{Data: data, MimeType: jpegMimeType}, nil
}
