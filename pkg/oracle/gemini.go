package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/parser"
	"github.com/shouni/go-insert-image-kit/pkg/prompts"
)

// PartsGenerator は gemini.GenerativeModel のうち、テキスト生成に必要な部分だけを切り出したものです。
type PartsGenerator interface {
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// GeminiTextOracle は Gemini API を Text Oracle として利用するアダプターです。
// Temperature はクライアント生成時に決まるため、提案用と調整用でクライアントを分けて持ちます。
type GeminiTextOracle struct {
	conceptClient PartsGenerator
	refineClient  PartsGenerator
	model         string
	pb            prompts.PromptBuilder
}

// NewGeminiTextOracle は GeminiTextOracle を初期化します。
// refineClient が nil の場合は conceptClient を共用します。
func NewGeminiTextOracle(conceptClient, refineClient PartsGenerator, model string, pb prompts.PromptBuilder) (*GeminiTextOracle, error) {
	if conceptClient == nil {
		return nil, fmt.Errorf("conceptClient は必須です")
	}
	if pb == nil {
		return nil, fmt.Errorf("PromptBuilder は必須です")
	}
	if refineClient == nil {
		refineClient = conceptClient
	}
	return &GeminiTextOracle{
		conceptClient: conceptClient,
		refineClient:  refineClient,
		model:         model,
		pb:            pb,
	}, nil
}

// ProposeConcepts は文字起こしから req.Count 件の画像案を生成します。
func (o *GeminiTextOracle) ProposeConcepts(ctx context.Context, req ConceptRequest) ([]domain.Concept, error) {
	pair, err := buildConceptPrompts(o.pb, req)
	if err != nil {
		return nil, err
	}
	raw, err := o.generate(ctx, o.conceptClient, pair)
	if err != nil {
		return nil, fmt.Errorf("画像案の生成に失敗しました: %w", err)
	}
	return parser.ParseConcepts(raw, req.Count)
}

// RefinePrompt は指示に従ってプロンプトを調整します。
func (o *GeminiTextOracle) RefinePrompt(ctx context.Context, req RefineRequest) (string, error) {
	pair, err := buildRefinePrompts(o.pb, req)
	if err != nil {
		return "", err
	}
	raw, err := o.generate(ctx, o.refineClient, pair)
	if err != nil {
		return "", fmt.Errorf("プロンプトの調整に失敗しました: %w", err)
	}
	return parser.ParseRefinedPrompt(raw)
}

func (o *GeminiTextOracle) generate(ctx context.Context, client PartsGenerator, pair promptPair) (string, error) {
	logger := slog.With("backend", "gemini", "model", o.model)
	logger.DebugContext(ctx, "Text Oracle にリクエストします", "prompt_len", len(pair.user))

	startTime := time.Now()
	resp, err := client.GenerateWithParts(ctx, o.model, []*genai.Part{{Text: pair.user}}, gemini.GenerateOptions{
		SystemPrompt: pair.system,
	})
	if err != nil {
		return "", err
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", parser.ErrMalformedResponse)
	}
	logger.DebugContext(ctx, "Text Oracle の応答を受信しました", "duration", time.Since(startTime).Round(time.Millisecond))
	return text, nil
}

// responseText は最初の候補に含まれるテキストパートを連結します。
func responseText(resp *gemini.Response) string {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return ""
	}
	candidate := resp.RawResponse.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
