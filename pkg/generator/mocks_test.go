package generator

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	imgdom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/oracle"
)

// --- Mocks ---

type mockImageModels struct {
	resp       *genai.GenerateImagesResponse
	err        error
	lastModel  string
	lastPrompt string
	lastConfig *genai.GenerateImagesConfig
}

func (m *mockImageModels) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	m.lastModel = model
	m.lastPrompt = prompt
	m.lastConfig = config
	return m.resp, m.err
}

type mockPanelGenerator struct {
	resp    *imgdom.ImageResponse
	err     error
	lastReq imgdom.ImageGenerationRequest
}

func (m *mockPanelGenerator) GenerateMangaPanel(ctx context.Context, req imgdom.ImageGenerationRequest) (*imgdom.ImageResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

type countingOracle struct {
	mu    sync.Mutex
	calls int
}

func (c *countingOracle) GenerateImage(ctx context.Context, req oracle.ImageRequest) (*domain.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return &domain.Image{Data: []byte("img"), MimeType: jpegMimeType}, nil
}

// --- Helpers ---

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(), nil))
	return buf.Bytes()
}
