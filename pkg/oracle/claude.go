package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/shouni/go-insert-image-kit/pkg/domain"
	"github.com/shouni/go-insert-image-kit/pkg/parser"
	"github.com/shouni/go-insert-image-kit/pkg/prompts"
)

const claudeMaxTokens = 8192

// MessageCreator は anthropic.MessageService のうち Messages API 呼び出しだけを切り出したものです。
type MessageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// ClaudeTextOracle は Anthropic の Messages API を Text Oracle として利用するアダプターです。
type ClaudeTextOracle struct {
	messages           MessageCreator
	model              string
	conceptTemperature float64
	refineTemperature  float64
	pb                 prompts.PromptBuilder
}

// ClaudeOption は ClaudeTextOracle の任意設定です。
type ClaudeOption func(*ClaudeTextOracle)

// WithTemperatures は提案用と調整用の Temperature を設定します。
func WithTemperatures(concept, refine float32) ClaudeOption {
	return func(o *ClaudeTextOracle) {
		o.conceptTemperature = float64(concept)
		o.refineTemperature = float64(refine)
	}
}

// NewClaudeTextOracle は ClaudeTextOracle を初期化します。
func NewClaudeTextOracle(messages MessageCreator, model string, pb prompts.PromptBuilder, opts ...ClaudeOption) (*ClaudeTextOracle, error) {
	if messages == nil {
		return nil, fmt.Errorf("MessageCreator は必須です")
	}
	if pb == nil {
		return nil, fmt.Errorf("PromptBuilder は必須です")
	}
	o := &ClaudeTextOracle{
		messages:           messages,
		model:              model,
		conceptTemperature: 0.8,
		refineTemperature:  0.6,
		pb:                 pb,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ProposeConcepts は文字起こしから req.Count 件の画像案を生成します。
func (o *ClaudeTextOracle) ProposeConcepts(ctx context.Context, req ConceptRequest) ([]domain.Concept, error) {
	pair, err := buildConceptPrompts(o.pb, req)
	if err != nil {
		return nil, err
	}
	raw, err := o.generate(ctx, pair, o.conceptTemperature)
	if err != nil {
		return nil, fmt.Errorf("画像案の生成に失敗しました: %w", err)
	}
	return parser.ParseConcepts(raw, req.Count)
}

// RefinePrompt は指示に従ってプロンプトを調整します。
func (o *ClaudeTextOracle) RefinePrompt(ctx context.Context, req RefineRequest) (string, error) {
	pair, err := buildRefinePrompts(o.pb, req)
	if err != nil {
		return "", err
	}
	raw, err := o.generate(ctx, pair, o.refineTemperature)
	if err != nil {
		return "", fmt.Errorf("プロンプトの調整に失敗しました: %w", err)
	}
	return parser.ParseRefinedPrompt(raw)
}

func (o *ClaudeTextOracle) generate(ctx context.Context, pair promptPair, temperature float64) (string, error) {
	logger := slog.With("backend", "claude", "model", o.model)
	logger.DebugContext(ctx, "Text Oracle にリクエストします", "prompt_len", len(pair.user))

	startTime := time.Now()
	message, err := o.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(o.model),
		MaxTokens:   claudeMaxTokens,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: pair.system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(pair.user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	text := extractText(message)
	if text == "" {
		return "", fmt.Errorf("%w: empty response from Claude", parser.ErrMalformedResponse)
	}
	logger.DebugContext(ctx, "Text Oracle の応答を受信しました", "duration", time.Since(startTime).Round(time.Millisecond))
	return text, nil
}

func extractText(msg *anthropic.Message) string {
	if msg == nil {
		return ""
	}
	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "")
}
